package handlers

import (
	"net/http"

	"studio/internal/queue"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status": "ok",
		"queue": map[string]int{
			"active": a.Queue.ActiveCount(),
			"limit":  a.Queue.MaxConcurrent(queue.DefaultScope),
		},
	})
}
