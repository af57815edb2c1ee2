// Package settings is the persisted key-value store for per-user
// customizations: provider API keys, custom adapter models, and prompt
// presets. Values are merged into catalog views at read time and never touch
// the static registry.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"studio/internal/infra"
	"studio/internal/registry"
	"studio/internal/sqlinline"
)

// Store reads and writes studio settings rows.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Storage keys are derived from context so unrelated settings never collide.
func providerKeyKey(provider string) string { return "provider_api_key:" + provider }
func adapterModelsKey(base string) string   { return "custom_models:" + base }
func promptPresetsKey(scope string) string  { return "prompt_presets:" + scope }

// ProviderAPIKey returns the stored credential for a provider. A missing row
// yields the empty string, meaning "use shared credentials".
func (s *Store) ProviderAPIKey(ctx context.Context, provider string) (string, error) {
	var key string
	if err := s.get(ctx, providerKeyKey(provider), &key); err != nil {
		if errors.Is(err, errNoValue) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// SetProviderAPIKey stores a credential for a provider.
func (s *Store) SetProviderAPIKey(ctx context.Context, provider, key string) error {
	provider = strings.TrimSpace(provider)
	key = strings.TrimSpace(key)
	if provider == "" {
		return errors.New("settings: provider is required")
	}
	if key == "" {
		return errors.New("settings: api key is required")
	}
	return s.put(ctx, providerKeyKey(provider), key)
}

// CustomAdapterModels returns the user-defined adapter models for a base
// model. A missing row yields an empty list.
func (s *Store) CustomAdapterModels(ctx context.Context, base string) ([]registry.AdapterModel, error) {
	var models []registry.AdapterModel
	if err := s.get(ctx, adapterModelsKey(base), &models); err != nil {
		if errors.Is(err, errNoValue) {
			return nil, nil
		}
		return nil, err
	}
	return models, nil
}

// SetCustomAdapterModels replaces the user-defined adapter list for a base
// model.
func (s *Store) SetCustomAdapterModels(ctx context.Context, base string, models []registry.AdapterModel) error {
	if strings.TrimSpace(base) == "" {
		return errors.New("settings: base model is required")
	}
	for _, m := range models {
		if strings.TrimSpace(m.ID) == "" {
			return errors.New("settings: adapter model id is required")
		}
	}
	return s.put(ctx, adapterModelsKey(base), models)
}

// MergedAdapterGroups overlays stored custom adapters onto a model's static
// groups. The static registry entry itself is never mutated.
func (s *Store) MergedAdapterGroups(ctx context.Context, m registry.ModelSetting) ([]registry.AdapterGroup, error) {
	custom, err := s.CustomAdapterModels(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	groups := make([]registry.AdapterGroup, len(m.AdapterGroups))
	copy(groups, m.AdapterGroups)
	if len(custom) > 0 {
		groups = append(groups, registry.AdapterGroup{Base: m.ID, Models: custom})
	}
	return groups, nil
}

// PromptPresets returns the stored presets for a scope ("canvas", "panel").
func (s *Store) PromptPresets(ctx context.Context, scope string) ([]PromptPreset, error) {
	var presets []PromptPreset
	if err := s.get(ctx, promptPresetsKey(scope), &presets); err != nil {
		if errors.Is(err, errNoValue) {
			return nil, nil
		}
		return nil, err
	}
	return presets, nil
}

// SetPromptPresets replaces the presets for a scope, normalizing labels.
func (s *Store) SetPromptPresets(ctx context.Context, scope string, presets []PromptPreset) error {
	if strings.TrimSpace(scope) == "" {
		return errors.New("settings: preset scope is required")
	}
	normalized := make([]PromptPreset, 0, len(presets))
	for _, p := range presets {
		p.Normalize()
		if p.Prompt == "" {
			return fmt.Errorf("settings: preset %q has no prompt", p.Name)
		}
		normalized = append(normalized, p)
	}
	return s.put(ctx, promptPresetsKey(scope), normalized)
}

var errNoValue = errors.New("settings: no value")

func (s *Store) get(ctx context.Context, key string, dest any) error {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectSettingValue, key)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if infra.IsNoRows(err) {
			return errNoValue
		}
		return err
	}
	if len(raw) == 0 {
		return errNoValue
	}
	return json.Unmarshal(raw, dest)
}

func (s *Store) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertSettingValue, key, raw)
	return err
}
