package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-player/internal/events"
)

type eventView struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// RecentEventsHandler returns the newest session events, most recent
// first. ?limit= caps the page size (default 50).
func RecentEventsHandler(rec *events.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		evs, err := rec.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		out := make([]eventView, 0, len(evs))
		for _, e := range evs {
			out = append(out, eventView{
				Seq:       e.Seq,
				Type:      e.Type,
				Key:       e.Key,
				Data:      json.RawMessage(e.DataJSON),
				CreatedAt: e.CreatedAt,
			})
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
