package main

import (
	"context"
	"net/http"
	"time"

	api "github.com/mind-engage/mindengage-player/internal/api/http"
	"github.com/mind-engage/mindengage-player/internal/config"
	"github.com/mind-engage/mindengage-player/internal/course"
	"github.com/mind-engage/mindengage-player/internal/db"
	"github.com/mind-engage/mindengage-player/internal/events"
	"github.com/mind-engage/mindengage-player/internal/logging"
	"github.com/mind-engage/mindengage-player/internal/quiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- Local DB (spool + event log) ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "err", err)
	}
	recorder := events.NewRecorder(dbh)

	// --- Upstream clients ---
	attemptAPI := quiz.NewClient(cfg.APIBaseURL, cfg.APIToken)
	lmsClient := course.NewClient(cfg.APIBaseURL, cfg.APIToken)

	// --- Progress tracker + gate state ---
	tracker := course.NewTracker(cfg.CourseID, lmsClient, course.TrackerOpts{
		QueueSize: cfg.ProgressQueueSize,
		Spool:     course.NewSpool(dbh),
		Notify: func(lessonID string) {
			log.Info("lesson completed, next lesson unlocked", "lesson_id", lessonID)
		},
		Recorder: recorder,
		Logger:   log,
	})
	defer tracker.Close()

	if cfg.CourseID != "" {
		if err := tracker.Hydrate(ctx); err != nil {
			log.Warn("progress hydrate failed, gate starts from an empty completion set", "err", err)
		}
	}

	// --- Session engine ---
	mgr := quiz.NewManager(attemptAPI,
		quiz.WithLogger(log),
		quiz.WithRecorder(recorder),
	)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Quiz session surface
	r.Post("/sessions", api.OpenSessionHandler(mgr, tracker.CompleteByQuiz))
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", api.GetSessionHandler(mgr))
		sr.Post("/start", api.StartSessionHandler(mgr))
		sr.Post("/answer", api.SelectAnswerHandler(mgr))
		sr.Post("/submit", api.SubmitAnswerHandler(mgr))
		sr.Post("/retry", api.RetrySessionHandler(mgr))
		sr.Post("/close", api.CloseSessionHandler(mgr))
	})

	// Lesson surface
	r.Get("/courses/{courseID}/lessons", api.ListLessonsHandler(lmsClient, tracker))
	r.Post("/lessons/{lessonID}/open", api.OpenLessonHandler(lmsClient, tracker, cfg.CourseID))
	r.Post("/lessons/{lessonID}/watched", api.WatchedHandler(tracker))

	// Local event log
	r.Get("/events", api.RecentEventsHandler(recorder))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Info("listening", "addr", cfg.HTTPAddr, "api", cfg.APIBaseURL, "db", cfg.DBDriver)
	log.Fatal("server exited", "err", http.ListenAndServe(cfg.HTTPAddr, r))
}
