package course

type LessonStatus string

const (
	StatusNotStarted LessonStatus = "not_started"
	StatusInProgress LessonStatus = "in_progress"
	StatusDone       LessonStatus = "done"
)

// completeThreshold is the watched percent at and above which a lesson
// counts as done.
const completeThreshold = 95

// StatusForPercent derives a lesson status from its watched percent.
func StatusForPercent(p int) LessonStatus {
	switch {
	case p <= 0:
		return StatusNotStarted
	case p < completeThreshold:
		return StatusInProgress
	default:
		return StatusDone
	}
}

// Lesson is one entry of a course's ordered lesson list.
type Lesson struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Position int    `json:"position"` // 0-based order within the course
	QuizID   string `json:"quiz_id,omitempty"`
}

// LessonProgress is one backend progress record for the current learner.
type LessonProgress struct {
	LessonID string       `json:"lesson_id"`
	Status   LessonStatus `json:"status"`
}

// ProgressUpdate is one write to the progress API.
type ProgressUpdate struct {
	LessonID       string       `json:"lesson_id"`
	CourseID       string       `json:"course_id"`
	Status         LessonStatus `json:"status"`
	WatchedPercent int          `json:"watched_percent"`
	TimeSpentSec   int          `json:"time_spent_sec"`
}

// CompletionSet holds the lessons the learner has finished. Membership
// only ever grows within a session.
type CompletionSet map[string]struct{}

func (s CompletionSet) Add(lessonID string) { s[lessonID] = struct{}{} }

func (s CompletionSet) Has(lessonID string) bool {
	_, ok := s[lessonID]
	return ok
}
