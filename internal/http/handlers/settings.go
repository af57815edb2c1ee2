package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type providerKeyRequest struct {
	APIKey string `json:"api_key"`
}

// ProviderKeyPut stores (or clears, with an empty key) the credential used
// for a provider when a request carries no per-call key.
func (a *App) ProviderKeyPut(w http.ResponseWriter, r *http.Request) {
	if a.Settings == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "settings store not configured")
		return
	}
	provider := chi.URLParam(r, "provider")
	var req providerKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Settings.SetProviderAPIKey(r.Context(), provider, strings.TrimSpace(req.APIKey)); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to store provider key")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"provider": provider, "configured": req.APIKey != ""})
}

// ProviderKeyGet reports whether a credential is stored. The key itself is
// never echoed back.
func (a *App) ProviderKeyGet(w http.ResponseWriter, r *http.Request) {
	if a.Settings == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "settings store not configured")
		return
	}
	provider := chi.URLParam(r, "provider")
	key, err := a.Settings.ProviderAPIKey(r.Context(), provider)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load provider key")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"provider": provider, "configured": key != ""})
}
