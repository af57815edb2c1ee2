package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"studio/internal/generation"
	"studio/internal/history"
	"studio/internal/infra"
	"studio/internal/queue"
	"studio/internal/settings"
	"studio/internal/storage"
)

// App bundles the dependencies the HTTP surface needs. Stores may be nil
// when the service runs without a database; handlers degrade to the
// in-memory queue view.
type App struct {
	Generator *generation.Service
	Queue     *queue.Manager
	History   *history.Store
	Settings  *settings.Store
	Config    infra.Config
	Logger    *infra.Logger

	// Assets fetches generated asset URLs for the zip download; Cache, when
	// set, keeps fetched bytes on disk keyed by generation.
	Assets *http.Client
	Cache  *storage.FileStore
}

func NewApp(svc *generation.Service, q *queue.Manager, cfg infra.Config, logger *infra.Logger) *App {
	return &App{
		Generator: svc,
		Queue:     q,
		Config:    cfg,
		Logger:    logger,
		Assets:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
