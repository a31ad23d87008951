package quiz

type Choice struct {
	ID        string `json:"id"`
	LabelHTML string `json:"label_html,omitempty"`
}

// Question is delivered one at a time by the assessment API. A new value
// replaces the previous one; it is never mutated in place.
type Question struct {
	ID           string   `json:"id"`
	PromptHTML   string   `json:"prompt_html,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
	TimeLimitSec int      `json:"time_limit_sec"` // 0 = unlimited
	Position     int      `json:"position"`       // 1..Total
	Total        int      `json:"total"`
}

// Info is the static descriptor of a quiz, fetched once per session open.
type Info struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	TotalQuestions int     `json:"total_questions"`
	TotalPoints    float64 `json:"total_points"`
	PassPercent    float64 `json:"pass_percent"`
	MaxAttempts    *int    `json:"max_attempts,omitempty"` // nil = unlimited
}

// AttemptSummary is one past attempt as reported by the backend.
type AttemptSummary struct {
	ID             string  `json:"id"`
	QuizID         string  `json:"quiz_id"`
	StartedAt      int64   `json:"started_at"`
	CompletedAt    int64   `json:"completed_at"`
	TotalQuestions int     `json:"total_questions"`
	Score          float64 `json:"score"`
	TotalPoints    float64 `json:"total_points"`
	Percent        float64 `json:"percent"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
	Passed         bool    `json:"passed"`
}

// Result is the terminal summary of one attempt.
type Result struct {
	Score       float64 `json:"score"`
	TotalPoints float64 `json:"total_points"`
	Percent     float64 `json:"percent"`
	Passed      bool    `json:"passed"`
}
