package course

import (
	"context"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-player/internal/logging"
)

const sendTimeout = 10 * time.Second

// queued is one pending write. spoolID is non-zero when the update is
// backed by a spool row that must be deleted on acknowledged send.
type queued struct {
	spoolID    int64
	update     ProgressUpdate
	completion bool
}

// updateQueue serializes progress writes through a single worker so a
// slow network cannot reorder a 90% update after the completion write.
// Incremental updates are best-effort: dropped when the queue is full,
// dropped by the worker once their lesson has completed, and failures are
// logged rather than surfaced. Completion updates are never dropped.
type updateQueue struct {
	api   ProgressAPI
	log   *logging.Logger
	spool *Spool                     // optional
	stale func(lessonID string) bool // incremental writes for done lessons are stale

	ch        chan queued
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newUpdateQueue(api ProgressAPI, size int, spool *Spool, stale func(string) bool, log *logging.Logger) *updateQueue {
	if size <= 0 {
		size = 64
	}
	if log == nil {
		log = logging.Nop()
	}
	q := &updateQueue{
		api:   api,
		log:   log,
		spool: spool,
		stale: stale,
		ch:    make(chan queued, size),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// EnqueueIncremental offers a best-effort write. Returns false when the
// queue is full and the update was dropped.
func (q *updateQueue) EnqueueIncremental(u ProgressUpdate) bool {
	item := queued{update: u}
	item.spoolID = q.persist(u)
	select {
	case q.ch <- item:
		return true
	default:
		q.unpersist(item.spoolID)
		q.log.Debug("progress queue full, dropping incremental update",
			"lesson_id", u.LessonID, "watched_percent", u.WatchedPercent)
		return false
	}
}

// EnqueueCompletion queues a completion write. Blocks if the queue is
// momentarily full; completions are never dropped.
func (q *updateQueue) EnqueueCompletion(u ProgressUpdate) {
	item := queued{update: u, completion: true}
	item.spoolID = q.persist(u)
	q.ch <- item
}

// Replay requeues spooled updates left over from a previous run, oldest
// first.
func (q *updateQueue) Replay(ctx context.Context) error {
	if q.spool == nil {
		return nil
	}
	pending, err := q.spool.Pending(ctx)
	if err != nil {
		return err
	}
	for _, p := range pending {
		item := queued{spoolID: p.ID, update: p.Update, completion: p.Update.Status == StatusDone}
		select {
		case q.ch <- item:
		default:
			// Queue already full; leave the row for the next restart.
			return nil
		}
	}
	return nil
}

// Close drains queued writes and stops the worker.
func (q *updateQueue) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
	q.wg.Wait()
}

func (q *updateQueue) run() {
	defer q.wg.Done()
	for item := range q.ch {
		if !item.completion && q.stale != nil && q.stale(item.update.LessonID) {
			// Completion already recorded; this increment is stale.
			q.unpersist(item.spoolID)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := q.api.UpdateProgress(ctx, item.update)
		cancel()
		if err != nil {
			// Best-effort: keep the spool row (if any) for replay and
			// move on.
			q.log.Warn("progress update failed",
				"lesson_id", item.update.LessonID,
				"status", string(item.update.Status),
				"watched_percent", item.update.WatchedPercent,
				"err", err)
			continue
		}
		q.unpersist(item.spoolID)
	}
}

func (q *updateQueue) persist(u ProgressUpdate) int64 {
	if q.spool == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := q.spool.Add(ctx, u)
	if err != nil {
		q.log.Warn("progress spool insert failed", "lesson_id", u.LessonID, "err", err)
		return 0
	}
	return id
}

func (q *updateQueue) unpersist(id int64) {
	if q.spool == nil || id == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.spool.Delete(ctx, id); err != nil {
		q.log.Warn("progress spool delete failed", "id", id, "err", err)
	}
}
