package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-player/internal/course"

	"github.com/go-chi/chi/v5"
)

type lessonView struct {
	course.Lesson
	Status     course.LessonStatus `json:"status"`
	Accessible bool                `json:"accessible"`
	CanAdvance bool                `json:"can_advance"`
}

// ListLessonsHandler returns the ordered lesson list with per-lesson
// accessibility derived from the gate and the completion set.
func ListLessonsHandler(cat course.Catalog, tracker *course.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		lessons, err := cat.Lessons(r.Context(), courseID)
		if err != nil {
			http.Error(w, err.Error(), 502)
			return
		}
		done := tracker.Completed()
		out := make([]lessonView, 0, len(lessons))
		for i, l := range lessons {
			status := course.StatusNotStarted
			if done.Has(l.ID) {
				status = course.StatusDone
			}
			out = append(out, lessonView{
				Lesson:     l,
				Status:     status,
				Accessible: course.Accessible(i, lessons, done),
				CanAdvance: course.CanAdvance(i, lessons, done),
			})
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// OpenLessonHandler is the gate check for navigating into a lesson.
// Locked lessons are refused with a user-facing message.
func OpenLessonHandler(cat course.Catalog, tracker *course.Tracker, courseID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lessonID := chi.URLParam(r, "lessonID")
		lessons, err := cat.Lessons(r.Context(), courseID)
		if err != nil {
			http.Error(w, err.Error(), 502)
			return
		}
		idx := -1
		for i, l := range lessons {
			if l.ID == lessonID {
				idx = i
				break
			}
		}
		if idx < 0 {
			http.Error(w, "lesson not found", 404)
			return
		}
		done := tracker.Completed()
		if !course.Accessible(idx, lessons, done) {
			http.Error(w, "finish the previous lesson to unlock this one", 403)
			return
		}
		_ = json.NewEncoder(w).Encode(lessonView{
			Lesson:     lessons[idx],
			Status:     statusFor(done, lessonID),
			Accessible: true,
			CanAdvance: course.CanAdvance(idx, lessons, done),
		})
	}
}

// WatchedHandler ingests playback progress ticks. Always 202: incremental
// writes are best-effort and never block playback.
func WatchedHandler(tracker *course.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lessonID := chi.URLParam(r, "lessonID")
		var req struct {
			Percent      int `json:"percent"`
			TimeSpentSec int `json:"time_spent_sec"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		tracker.ReportWatched(lessonID, req.Percent, req.TimeSpentSec)
		w.WriteHeader(202)
	}
}

func statusFor(done course.CompletionSet, lessonID string) course.LessonStatus {
	if done.Has(lessonID) {
		return course.StatusDone
	}
	return course.StatusNotStarted
}
