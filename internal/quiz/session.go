package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-player/internal/events"
	"github.com/mind-engage/mindengage-player/internal/logging"
)

type Phase string

const (
	PhaseIntro    Phase = "intro"
	PhaseLoading  Phase = "loading"
	PhaseQuestion Phase = "question"
	PhaseResult   Phase = "result"
	PhaseClosed   Phase = "closed"
)

var (
	// ErrNoSelection is returned when submitting without a selected answer.
	// No request is sent; the learner is prompted to pick one.
	ErrNoSelection = errors.New("select an answer before submitting")
	// ErrAttemptsExhausted blocks starting once the attempt limit is reached.
	ErrAttemptsExhausted = errors.New("maximum attempts reached")
	// ErrNoActiveQuestion is returned for question-phase actions outside it.
	ErrNoActiveQuestion = errors.New("no active question")
)

const backgroundOpTimeout = 30 * time.Second

// Session owns the lifecycle of a single quiz attempt:
// intro -> loading -> question -> result, with closed as the exit.
// User actions and timer events interleave; every suspended operation
// revalidates phase and attempt id before applying its outcome, so a
// stale response can never reanimate a torn-down session.
type Session struct {
	mu  sync.Mutex
	api AttemptAPI
	log *logging.Logger
	rec *events.Recorder
	now func() time.Time

	tickEvery time.Duration
	onResult  func(Result)

	id      string
	quizID  string
	info    Info
	history []AttemptSummary

	phase  Phase
	notice string // user-visible message from the last recoverable failure

	attemptID  string
	question   *Question
	questionAt time.Time
	selected   []string
	timer      *questionTimer
	timerGen   uint64
	timerValue int
	result     *Result
}

type Option func(*Session)

// WithTickInterval overrides the 1s timer granularity. Tests use this.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tickEvery = d }
}

// WithClock injects the time source used for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithRecorder(r *events.Recorder) Option {
	return func(s *Session) { s.rec = r }
}

// WithOnResult registers the host view's completion callback, invoked once
// per attempt when the session reaches the result phase.
func WithOnResult(fn func(Result)) Option {
	return func(s *Session) { s.onResult = fn }
}

// Open fetches the quiz descriptor and attempt history and returns a
// session showing the intro view.
func Open(ctx context.Context, api AttemptAPI, quizID string, opts ...Option) (*Session, error) {
	s := &Session{
		api:       api,
		log:       logging.Nop(),
		now:       time.Now,
		tickEvery: time.Second,
		id:        uuid.New().String(),
		quizID:    quizID,
		phase:     PhaseIntro,
	}
	for _, o := range opts {
		o(s)
	}
	info, err := api.QuizInfo(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("open quiz %s: %w", quizID, err)
	}
	hist, err := api.AttemptHistory(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("open quiz %s: %w", quizID, err)
	}
	s.info = info
	s.history = hist
	return s, nil
}

// ID is the local handle for this session, not the backend attempt id.
func (s *Session) ID() string { return s.id }

// QuizID returns the quiz this session was opened for.
func (s *Session) QuizID() string { return s.quizID }

// Start requests a new attempt and loads the first question. Blocked
// client-side when the attempt limit is already reached.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseIntro {
		s.mu.Unlock()
		return fmt.Errorf("start: session is %s", s.phase)
	}
	if !s.canStartLocked() {
		s.mu.Unlock()
		return ErrAttemptsExhausted
	}
	s.phase = PhaseLoading
	s.notice = ""
	quizID := s.quizID
	s.mu.Unlock()

	attemptID, err := s.api.StartAttempt(ctx, quizID)

	s.mu.Lock()
	if s.phase != PhaseLoading {
		s.mu.Unlock()
		return nil // session torn down while suspended
	}
	if err != nil {
		s.phase = PhaseIntro
		s.notice = "could not start the quiz, please try again"
		s.mu.Unlock()
		return err
	}
	s.attemptID = attemptID
	s.mu.Unlock()

	s.record(events.TypeAttemptStarted, attemptID, map[string]string{"quiz_id": quizID})
	return s.loadNext(ctx)
}

// Select records the learner's choice for the current question. Selection
// is single-answer: a new choice replaces the previous one.
func (s *Session) Select(answerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuestion || s.question == nil {
		return ErrNoActiveQuestion
	}
	for _, c := range s.question.Choices {
		if c.ID == answerID {
			s.selected = []string{answerID}
			return nil
		}
	}
	return fmt.Errorf("unknown answer %q", answerID)
}

// Submit sends the current selection. Elapsed time is measured from the
// moment the question was delivered, not from session start.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseQuestion || s.question == nil {
		s.mu.Unlock()
		return ErrNoActiveQuestion
	}
	if len(s.selected) == 0 {
		s.notice = "select an answer before submitting"
		s.mu.Unlock()
		return ErrNoSelection
	}
	q := s.question
	sel := append([]string(nil), s.selected...)
	attemptID := s.attemptID
	elapsed := int(s.now().Sub(s.questionAt) / time.Second)
	s.phase = PhaseLoading
	s.mu.Unlock()

	return s.submitAndAdvance(ctx, attemptID, q, sel, elapsed)
}

// Retry returns from the result view to the intro view. The refreshed
// history already reflects the finished attempt.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseResult {
		return fmt.Errorf("retry: session is %s", s.phase)
	}
	s.result = nil
	s.notice = ""
	s.phase = PhaseIntro
	return nil
}

// Close abandons the session. The in-memory attempt reference is
// discarded; any in-flight request or timer tick that resolves later
// finds a bumped generation or cleared attempt id and is ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.timerGen++
	s.attemptID = ""
	s.question = nil
	s.selected = nil
	s.phase = PhaseClosed
}

// loadNext fetches the next question; it only ever runs after the
// preceding submission (or attempt start) has been acknowledged, so
// question delivery is strictly sequential.
func (s *Session) loadNext(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseLoading || s.attemptID == "" {
		s.mu.Unlock()
		return nil
	}
	attemptID := s.attemptID
	s.mu.Unlock()

	q, err := s.api.NextQuestion(ctx, attemptID)

	s.mu.Lock()
	if s.phase != PhaseLoading || s.attemptID != attemptID {
		s.mu.Unlock()
		return nil // stale response
	}
	if err != nil {
		s.stopTimerLocked()
		s.timerGen++
		s.phase = PhaseIntro
		s.attemptID = ""
		s.notice = "loading the next question failed"
		s.mu.Unlock()
		return err
	}
	if q == nil {
		s.mu.Unlock()
		return s.finish(ctx, attemptID)
	}
	s.question = q
	s.selected = nil
	s.questionAt = s.now()
	s.notice = ""
	s.phase = PhaseQuestion
	s.armTimerLocked(q.TimeLimitSec)
	s.mu.Unlock()
	return nil
}

func (s *Session) submitAndAdvance(ctx context.Context, attemptID string, q *Question, sel []string, elapsedSec int) error {
	hasNext, err := s.api.SubmitAnswer(ctx, attemptID, q.ID, sel, elapsedSec)

	s.mu.Lock()
	if s.phase != PhaseLoading || s.attemptID != attemptID {
		s.mu.Unlock()
		return nil // stale response
	}
	if err != nil {
		// Re-show the question with the selection intact; the learner
		// retries the same action.
		s.phase = PhaseQuestion
		s.notice = "submitting your answer failed, please try again"
		s.mu.Unlock()
		return err
	}
	s.notice = ""
	s.mu.Unlock()

	if hasNext {
		return s.loadNext(ctx)
	}
	return s.finish(ctx, attemptID)
}

func (s *Session) finish(ctx context.Context, attemptID string) error {
	s.mu.Lock()
	if s.phase != PhaseLoading || s.attemptID != attemptID {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	res, err := s.api.CompleteAttempt(ctx, attemptID)

	s.mu.Lock()
	if s.phase != PhaseLoading || s.attemptID != attemptID {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.stopTimerLocked()
		s.timerGen++
		s.phase = PhaseIntro
		s.attemptID = ""
		s.notice = "finishing the quiz failed"
		s.mu.Unlock()
		return err
	}
	s.stopTimerLocked()
	s.timerGen++
	s.result = &res
	s.question = nil
	s.selected = nil
	s.attemptID = ""
	s.phase = PhaseResult
	onResult := s.onResult
	quizID := s.quizID
	s.mu.Unlock()

	// Refresh history so the intro view reflects the new entry on retry.
	if hist, herr := s.api.AttemptHistory(ctx, quizID); herr == nil {
		s.mu.Lock()
		s.history = hist
		s.mu.Unlock()
	} else {
		s.log.Warn("attempt history refresh failed", "quiz_id", quizID, "err", herr)
	}

	s.record(events.TypeAttemptCompleted, attemptID, res)
	if onResult != nil {
		onResult(res)
	}
	return nil
}

// onTimerEvent receives ticks and the expiry event from the armed timer.
// Expiry synthesizes a submission with whatever is currently selected
// (possibly nothing) and elapsed = limit + 1; the extra second marks the
// submission as a timeout for the backend and is a contract of the
// assessment API, not a local convention.
func (s *Session) onTimerEvent(gen uint64, value int, expired bool) {
	if !expired {
		s.mu.Lock()
		if gen == s.timerGen && s.phase == PhaseQuestion {
			s.timerValue = value
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if gen != s.timerGen || s.phase != PhaseQuestion || s.attemptID == "" || s.question == nil {
		// Manual submit already moved on, or the session was torn down.
		s.mu.Unlock()
		return
	}
	s.timerValue = 0
	q := s.question
	sel := append([]string(nil), s.selected...)
	attemptID := s.attemptID
	s.phase = PhaseLoading
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
	defer cancel()
	if err := s.submitAndAdvance(ctx, attemptID, q, sel, q.TimeLimitSec+1); err != nil {
		s.log.Warn("timeout submission failed", "attempt_id", attemptID, "question_id", q.ID, "err", err)
	}
}

func (s *Session) armTimerLocked(limitSec int) {
	s.stopTimerLocked()
	s.timerGen++
	if limitSec > 0 {
		s.timerValue = limitSec
	} else {
		s.timerValue = 0
	}
	s.timer = startQuestionTimer(limitSec, s.timerGen, s.tickEvery, s.onTimerEvent)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) canStartLocked() bool {
	return s.info.MaxAttempts == nil || len(s.history) < *s.info.MaxAttempts
}

func (s *Session) record(typ, key string, data interface{}) {
	if s.rec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.rec.Append(ctx, typ, key, data); err != nil {
		s.log.Warn("event append failed", "type", typ, "key", key, "err", err)
	}
}

// Snapshot is a read-only view of the session for the hosting UI.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	QuizID    string           `json:"quiz_id"`
	Phase     Phase            `json:"phase"`
	Notice    string           `json:"notice,omitempty"`
	Info      Info             `json:"info"`
	History   []AttemptSummary `json:"history"`
	CanStart  bool             `json:"can_start"`

	Question   *Question `json:"question,omitempty"`
	Selected   []string  `json:"selected,omitempty"`
	TimerValue int       `json:"timer_value"`
	TimerDown  bool      `json:"timer_down"`

	Result *Result `json:"result,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		SessionID:  s.id,
		QuizID:     s.quizID,
		Phase:      s.phase,
		Notice:     s.notice,
		Info:       s.info,
		History:    append([]AttemptSummary(nil), s.history...),
		CanStart:   s.canStartLocked(),
		Selected:   append([]string(nil), s.selected...),
		TimerValue: s.timerValue,
	}
	if s.question != nil {
		q := *s.question
		snap.Question = &q
		snap.TimerDown = q.TimeLimitSec > 0
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}
