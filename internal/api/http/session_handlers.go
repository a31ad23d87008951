package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-player/internal/quiz"

	"github.com/go-chi/chi/v5"
)

// OpenSessionHandler opens a quiz session and returns its intro snapshot.
// When the request names the hosting lesson, a passed attempt completes
// that lesson through the progress tracker.
func OpenSessionHandler(mgr *quiz.Manager, completeLesson func(lessonID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID   string `json:"quiz_id"`
			LessonID string `json:"lesson_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.QuizID == "" {
			http.Error(w, "quiz_id required", 400)
			return
		}
		var extra []quiz.Option
		if req.LessonID != "" && completeLesson != nil {
			lessonID := req.LessonID
			extra = append(extra, quiz.WithOnResult(func(res quiz.Result) {
				if res.Passed {
					completeLesson(lessonID)
				}
			}))
		}
		sess, err := mgr.Open(r.Context(), req.QuizID, extra...)
		if err != nil {
			if errors.Is(err, quiz.ErrSessionOpen) {
				http.Error(w, err.Error(), 409)
				return
			}
			http.Error(w, err.Error(), 502)
			return
		}
		_ = json.NewEncoder(w).Encode(sess.Snapshot())
	}
}

func GetSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mgr.Get(chi.URLParam(r, "sessionID"))
		if !ok {
			http.Error(w, "session not found", 404)
			return
		}
		_ = json.NewEncoder(w).Encode(sess.Snapshot())
	}
}

func StartSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mgr.Get(chi.URLParam(r, "sessionID"))
		if !ok {
			http.Error(w, "session not found", 404)
			return
		}
		if err := sess.Start(r.Context()); err != nil {
			if errors.Is(err, quiz.ErrAttemptsExhausted) {
				http.Error(w, err.Error(), 409)
				return
			}
			http.Error(w, err.Error(), 502)
			return
		}
		_ = json.NewEncoder(w).Encode(sess.Snapshot())
	}
}

func SelectAnswerHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mgr.Get(chi.URLParam(r, "sessionID"))
		if !ok {
			http.Error(w, "session not found", 404)
			return
		}
		var req struct {
			AnswerID string `json:"answer_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := sess.Select(req.AnswerID); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		_ = json.NewEncoder(w).Encode(sess.Snapshot())
	}
}

func SubmitAnswerHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mgr.Get(chi.URLParam(r, "sessionID"))
		if !ok {
			http.Error(w, "session not found", 404)
			return
		}
		if err := sess.Submit(r.Context()); err != nil {
			switch {
			case errors.Is(err, quiz.ErrNoSelection):
				http.Error(w, err.Error(), 422)
			case errors.Is(err, quiz.ErrNoActiveQuestion):
				http.Error(w, err.Error(), 409)
			default:
				http.Error(w, err.Error(), 502)
			}
			return
		}
		_ = json.NewEncoder(w).Encode(sess.Snapshot())
	}
}

func RetrySessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mgr.Get(chi.URLParam(r, "sessionID"))
		if !ok {
			http.Error(w, "session not found", 404)
			return
		}
		if err := sess.Retry(); err != nil {
			http.Error(w, err.Error(), 409)
			return
		}
		_ = json.NewEncoder(w).Encode(sess.Snapshot())
	}
}

// CloseSessionHandler abandons the session and discards its attempt.
func CloseSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr.Close(chi.URLParam(r, "sessionID"))
		w.WriteHeader(204)
	}
}
