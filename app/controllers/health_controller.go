package controllers

import (
	"context"
	"net/http"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a handler that reports ok when the store answers a ping.
func Health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			sendError(w, r, err)
			return
		}
		SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
