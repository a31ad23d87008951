package course

import (
	"context"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-player/internal/events"
	"github.com/mind-engage/mindengage-player/internal/logging"
)

// reportStep is the bucket width for incremental progress writes. Only
// crossing a bucket boundary (10, 20, ... 90) produces a request.
const reportStep = 10

// Tracker records per-lesson watched percent and completion. Incremental
// writes are best-effort through the queue; completion is recorded exactly
// once per lesson and also feeds the lesson gate via the completion set.
type Tracker struct {
	mu         sync.Mutex
	courseID   string
	api        ProgressAPI
	q          *updateQueue
	done       CompletionSet
	lastBucket map[string]int

	notify func(lessonID string)
	rec    *events.Recorder
	log    *logging.Logger
}

type TrackerOpts struct {
	QueueSize int
	Spool     *Spool
	Notify    func(lessonID string) // user-visible completion notification
	Recorder  *events.Recorder
	Logger    *logging.Logger
}

func NewTracker(courseID string, api ProgressAPI, opts TrackerOpts) *Tracker {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	t := &Tracker{
		courseID:   courseID,
		api:        api,
		done:       CompletionSet{},
		lastBucket: map[string]int{},
		notify:     opts.Notify,
		rec:        opts.Recorder,
		log:        log,
	}
	t.q = newUpdateQueue(api, opts.QueueSize, opts.Spool, t.IsDone, log)
	return t
}

// Hydrate seeds the completion set from backend progress records and
// replays any spooled writes from a previous run.
func (t *Tracker) Hydrate(ctx context.Context) error {
	records, err := t.api.CourseProgress(ctx, t.courseID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	for _, r := range records {
		if r.Status == StatusDone {
			t.done.Add(r.LessonID)
			t.lastBucket[r.LessonID] = 100
		}
	}
	t.mu.Unlock()
	return t.q.Replay(ctx)
}

// IsDone reports whether the lesson has completed.
func (t *Tracker) IsDone(lessonID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done.Has(lessonID)
}

// Completed returns a copy of the completion set for gate evaluation.
func (t *Tracker) Completed() CompletionSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(CompletionSet, len(t.done))
	for id := range t.done {
		out[id] = struct{}{}
	}
	return out
}

// ReportWatched ingests a playback progress tick. Writes fire only when a
// 10-point boundary is crossed; crossing 95 records completion instead,
// once. Repeated ticks after completion are no-ops.
func (t *Tracker) ReportWatched(lessonID string, watchedPercent, timeSpentSec int) {
	if lessonID == "" {
		return
	}
	if watchedPercent < 0 {
		watchedPercent = 0
	}
	if watchedPercent > 100 {
		watchedPercent = 100
	}

	t.mu.Lock()
	if t.done.Has(lessonID) {
		t.mu.Unlock()
		return
	}
	if watchedPercent >= completeThreshold {
		t.completeLocked(lessonID, timeSpentSec)
		return
	}
	bucket := (watchedPercent / reportStep) * reportStep
	if bucket < reportStep || bucket <= t.lastBucket[lessonID] {
		t.mu.Unlock()
		return
	}
	t.lastBucket[lessonID] = bucket
	u := ProgressUpdate{
		LessonID:       lessonID,
		CourseID:       t.courseID,
		Status:         StatusForPercent(watchedPercent),
		WatchedPercent: watchedPercent,
		TimeSpentSec:   timeSpentSec,
	}
	t.mu.Unlock()

	t.q.EnqueueIncremental(u)
}

// CompleteByQuiz marks a lesson done on an explicit quiz-pass signal,
// routed through the same completion path as the watched threshold.
func (t *Tracker) CompleteByQuiz(lessonID string) {
	if lessonID == "" {
		return
	}
	t.mu.Lock()
	if t.done.Has(lessonID) {
		t.mu.Unlock()
		return
	}
	t.completeLocked(lessonID, 0)
}

// completeLocked is called with t.mu held and releases it.
func (t *Tracker) completeLocked(lessonID string, timeSpentSec int) {
	t.done.Add(lessonID)
	t.lastBucket[lessonID] = 100
	u := ProgressUpdate{
		LessonID:       lessonID,
		CourseID:       t.courseID,
		Status:         StatusDone,
		WatchedPercent: 100,
		TimeSpentSec:   timeSpentSec,
	}
	notify := t.notify
	t.mu.Unlock()

	t.q.EnqueueCompletion(u)
	if t.rec != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := t.rec.Append(ctx, events.TypeLessonCompleted, lessonID, u); err != nil {
			t.log.Warn("event append failed", "lesson_id", lessonID, "err", err)
		}
		cancel()
	}
	if notify != nil {
		notify(lessonID)
	}
	t.log.Info("lesson completed", "lesson_id", lessonID, "course_id", t.courseID)
}

// Close drains pending writes.
func (t *Tracker) Close() { t.q.Close() }
