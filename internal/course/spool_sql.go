package course

import (
	"context"
	"database/sql"
	"time"
)

// Spool is the durable backing of the update queue: rows are inserted on
// enqueue, deleted once the backend acknowledged the write, and replayed
// on the next start when the process died with writes outstanding.
type Spool struct{ db *sql.DB }

func NewSpool(db *sql.DB) *Spool { return &Spool{db: db} }

type PendingUpdate struct {
	ID     int64
	Update ProgressUpdate
}

func (s *Spool) Add(ctx context.Context, u ProgressUpdate) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO progress_spool (lesson_id, course_id, status, watched_percent, time_spent_sec, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		u.LessonID, u.CourseID, string(u.Status), u.WatchedPercent, u.TimeSpentSec, time.Now().Unix()).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Spool) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM progress_spool WHERE id=$1`, id)
	return err
}

// Pending returns spooled updates in insertion order.
func (s *Spool) Pending(ctx context.Context) ([]PendingUpdate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lesson_id, course_id, status, watched_percent, time_spent_sec
		 FROM progress_spool ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PendingUpdate
	for rows.Next() {
		var p PendingUpdate
		var status string
		if err := rows.Scan(&p.ID, &p.Update.LessonID, &p.Update.CourseID, &status,
			&p.Update.WatchedPercent, &p.Update.TimeSpentSec); err != nil {
			return nil, err
		}
		p.Update.Status = LessonStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}
