package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"
)

var errInvalidRatings = errors.New("priority_ratings must map known dimensions to ratings 1-5")

func muxVar(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}

// Enqueuer is the slice of the worker pool handlers use to schedule
// background work.
type Enqueuer interface {
	Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// enqueue schedules a background job without failing the request; enqueue
// failures are logged and surfaced as 500 by the caller when the job is the
// whole point of the request.
func enqueue(ctx context.Context, q Enqueuer, typ string, payload any) error {
	_, err := q.Enqueue(ctx, typ, payload, 0, 3)
	return err
}
