package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Well-known event types appended by the session engine and tracker.
const (
	TypeAttemptStarted   = "attempt_started"
	TypeAttemptCompleted = "attempt_completed"
	TypeLessonCompleted  = "lesson_completed"
)

type Event struct {
	Seq       int64
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

// Recorder appends session lifecycle events to the local log. Writes are
// best-effort; callers ignore the error or log it.
type Recorder struct{ db *sql.DB }

func NewRecorder(db *sql.DB) *Recorder { return &Recorder{db: db} }

func (r *Recorder) Append(ctx context.Context, typ, key string, data interface{}) error {
	if r == nil || r.db == nil {
		return nil
	}
	payload := "{}"
	if data != nil {
		if buf, err := json.Marshal(data); err == nil {
			payload = string(buf)
		}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_events (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, payload, time.Now().Unix())
	return err
}

// Recent returns the newest events, most recent first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, typ, key, data, created_at FROM session_events
		 ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
