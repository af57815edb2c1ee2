package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"studio/internal/credits"
	"studio/internal/registry"
	"studio/internal/settings"
)

type modelView struct {
	ID                    string                     `json:"id"`
	Label                 string                     `json:"label"`
	Description           string                     `json:"description,omitempty"`
	Tags                  []string                   `json:"tags,omitempty"`
	Badges                []string                   `json:"badges,omitempty"`
	Type                  registry.ModelType         `json:"type"`
	SupportedAspectRatios []string                   `json:"supported_aspect_ratios,omitempty"`
	CustomParameters      []registry.CustomParameter `json:"custom_parameters,omitempty"`
	FileInputs            []registry.FileInput       `json:"file_inputs,omitempty"`
	UseCredits            float64                    `json:"use_credits"`
	Provider              string                     `json:"provider"`
	AdapterGroups         []registry.AdapterGroup    `json:"adapter_groups,omitempty"`
}

func viewOf(m registry.ModelSetting) modelView {
	return modelView{
		ID:                    m.ID,
		Label:                 m.Label,
		Description:           m.Description,
		Tags:                  m.Tags,
		Badges:                m.Badges,
		Type:                  m.Type,
		SupportedAspectRatios: m.SupportedAspectRatios,
		CustomParameters:      m.CustomParameters,
		FileInputs:            m.FileInputs,
		UseCredits:            m.UseCredits,
		Provider:              m.APIInput.Provider,
		AdapterGroups:         m.AdapterGroups,
	}
}

// ModelsList returns the catalog, optionally filtered by ?type= and ?tag=.
func (a *App) ModelsList(w http.ResponseWriter, r *http.Request) {
	models := registry.All()
	if tag := r.URL.Query().Get("tag"); tag != "" {
		models = registry.FindByTag(tag)
	}
	modelType := strings.ToLower(r.URL.Query().Get("type"))
	items := make([]modelView, 0, len(models))
	for _, m := range models {
		if modelType != "" && string(m.Type) != modelType {
			continue
		}
		items = append(items, viewOf(m))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ModelGet returns one model with user-defined adapters merged in.
func (a *App) ModelGet(w http.ResponseWriter, r *http.Request) {
	m, ok := registry.FindByID(chi.URLParam(r, "model_id"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown model")
		return
	}
	view := viewOf(m)
	if a.Settings != nil {
		groups, err := a.Settings.MergedAdapterGroups(r.Context(), m)
		if err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to load adapters")
			return
		}
		view.AdapterGroups = groups
	}
	a.json(w, http.StatusOK, view)
}

// ModelEstimate prices one request without submitting it. The body is the
// same form-state object a generation request carries.
func (a *App) ModelEstimate(w http.ResponseWriter, r *http.Request) {
	m, ok := registry.FindByID(chi.URLParam(r, "model_id"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown model")
		return
	}
	values := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"model_id": m.ID,
		"credits":  credits.Estimate(m, values),
	})
}

type adapterModelsRequest struct {
	Base   string                  `json:"base"`
	Models []registry.AdapterModel `json:"models"`
}

// AdapterModelsPut stores user-defined adapter models for a base model.
func (a *App) AdapterModelsPut(w http.ResponseWriter, r *http.Request) {
	if a.Settings == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "settings store not configured")
		return
	}
	if _, ok := registry.FindByID(chi.URLParam(r, "model_id")); !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown model")
		return
	}
	var req adapterModelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Base == "" {
		req.Base = chi.URLParam(r, "model_id")
	}
	for _, m := range req.Models {
		if m.ID == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "adapter model id required")
			return
		}
	}
	if err := a.Settings.SetCustomAdapterModels(r.Context(), req.Base, req.Models); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to store adapters")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"base": req.Base, "count": len(req.Models)})
}

// PresetsGet returns the stored prompt presets for a scope.
func (a *App) PresetsGet(w http.ResponseWriter, r *http.Request) {
	if a.Settings == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "settings store not configured")
		return
	}
	presets, err := a.Settings.PromptPresets(r.Context(), chi.URLParam(r, "scope"))
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load presets")
		return
	}
	if presets == nil {
		presets = []settings.PromptPreset{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": presets})
}

// PresetsPut replaces the prompt presets for a scope.
func (a *App) PresetsPut(w http.ResponseWriter, r *http.Request) {
	if a.Settings == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "settings store not configured")
		return
	}
	var presets []settings.PromptPreset
	if err := json.NewDecoder(r.Body).Decode(&presets); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	scope := chi.URLParam(r, "scope")
	if err := a.Settings.SetPromptPresets(r.Context(), scope, presets); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{"scope": scope, "count": len(presets)})
}
