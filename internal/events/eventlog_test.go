package events_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-player/internal/db"
	"github.com/mind-engage/mindengage-player/internal/events"
)

func TestRecorderAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "player.db") + "?_pragma=busy_timeout(5000)"
	h, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	defer h.Close()

	rec := events.NewRecorder(h)
	require.NoError(t, rec.Append(ctx, events.TypeAttemptStarted, "a-1", map[string]string{"quiz_id": "q-1"}))
	require.NoError(t, rec.Append(ctx, events.TypeAttemptCompleted, "a-1", map[string]int{"score": 8}))
	require.NoError(t, rec.Append(ctx, events.TypeLessonCompleted, "l-1", nil))

	evs, err := rec.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, evs, 2)

	// Most recent first.
	require.Equal(t, events.TypeLessonCompleted, evs[0].Type)
	require.Equal(t, "l-1", evs[0].Key)
	require.Equal(t, "{}", evs[0].DataJSON)
	require.Equal(t, events.TypeAttemptCompleted, evs[1].Type)
	require.JSONEq(t, `{"score":8}`, evs[1].DataJSON)
	require.Greater(t, evs[0].Seq, evs[1].Seq)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *events.Recorder
	require.NoError(t, rec.Append(context.Background(), events.TypeAttemptStarted, "a-1", nil))
}
