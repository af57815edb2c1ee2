package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"studio/internal/dispatch"
	"studio/internal/generation"
	"studio/internal/history"
	"studio/pkg/zip"
)

type generateRequest struct {
	Scope        string         `json:"scope,omitempty"`
	CustomAPIKey string         `json:"custom_api_key,omitempty"`
	Input        map[string]any `json:"input"`
}

// GenerationsCreate admits and submits one generation. The response carries
// the id the client polls with.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Input == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "input required")
		return
	}
	id, err := a.Generator.Begin(r.Context(), generation.Request{
		Scope:        req.Scope,
		Input:        req.Input,
		CustomAPIKey: req.CustomAPIKey,
	})
	switch {
	case errors.Is(err, generation.ErrUnknownModel):
		a.error(w, http.StatusBadRequest, "unknown_model", err.Error())
		return
	case errors.Is(err, generation.ErrTooManyGenerations):
		a.error(w, http.StatusTooManyRequests, "too_many_generations", "concurrent generation limit reached")
		return
	case err != nil:
		a.Logger.Error().Err(err).Msg("handlers: generation submit failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		return
	}
	snap, ok := a.Generator.Lookup(id)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read generation")
		return
	}
	a.json(w, http.StatusAccepted, snap)
}

// GenerationStatus performs one poll for the task. Each HTTP call maps to at
// most one provider status request; the client owns the polling cadence.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "generation_id")
	snap, err := a.Generator.Check(r.Context(), id)
	if err == nil {
		a.json(w, http.StatusOK, snap)
		return
	}
	if !errors.Is(err, generation.ErrNotFound) {
		a.error(w, http.StatusInternalServerError, "internal", "failed to check generation")
		return
	}
	// Evicted from the in-memory window; the database still remembers it.
	if a.History != nil {
		rec, herr := a.History.Get(r.Context(), id)
		if herr == nil {
			a.json(w, http.StatusOK, rec)
			return
		}
		if !errors.Is(herr, history.ErrNotFound) {
			a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
			return
		}
	}
	a.error(w, http.StatusNotFound, "not_found", "generation not found")
}

// GenerationsRecent lists finished and running tasks, newest first.
func (a *App) GenerationsRecent(w http.ResponseWriter, r *http.Request) {
	limit := history.RetainedGenerations
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid limit")
			return
		}
		limit = n
	}
	if a.History != nil {
		records, err := a.History.Recent(r.Context(), limit)
		if err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to load generations")
			return
		}
		a.json(w, http.StatusOK, map[string]any{"items": records})
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": a.Generator.Recent(limit)})
}

// GenerationZip bundles the finished task's assets into one download.
func (a *App) GenerationZip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "generation_id")
	snap, err := a.Generator.Check(r.Context(), id)
	if errors.Is(err, generation.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "generation not found")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to check generation")
		return
	}
	if snap.Outcome == nil || len(snap.Outcome.Assets) == 0 {
		a.error(w, http.StatusConflict, "no_assets", "generation has no downloadable assets")
		return
	}
	archive := zip.ArchiveAssets(a.fetchAssets(r, id, snap.Outcome.Assets))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=generation-%s.zip", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) fetchAssets(r *http.Request, id string, assets []dispatch.Asset) []zip.Asset {
	out := make([]zip.Asset, 0, len(assets))
	for i, asset := range assets {
		name := zip.Filename(fmt.Sprintf("%s-%d", id, i+1), asset.ContentType)
		data := a.cachedAssetData(r, name, asset.URL)
		if data == nil {
			continue
		}
		out = append(out, zip.Asset{
			Filename: name,
			MIME:     asset.ContentType,
			Data:     data,
		})
	}
	return out
}

func (a *App) cachedAssetData(r *http.Request, key, url string) []byte {
	if a.Cache != nil {
		if data, err := a.Cache.Read(r.Context(), key); err == nil && len(data) > 0 {
			return data
		}
	}
	data := a.fetchAssetData(r, url)
	if data != nil && a.Cache != nil {
		if _, err := a.Cache.Write(r.Context(), key, data); err != nil {
			a.Logger.Warn().Err(err).Str("key", key).Msg("handlers: asset cache write failed")
		}
	}
	return data
}

func (a *App) fetchAssetData(r *http.Request, url string) []byte {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := a.Assets.Do(req)
	if err != nil {
		a.Logger.Warn().Err(err).Str("url", url).Msg("handlers: asset download failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return data
}
