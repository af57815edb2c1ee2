package registry

import (
	"fmt"
	"strings"

	"studio/internal/mapping"
)

// All returns the flattened union of the curated catalogs. The slice is
// rebuilt on each call so callers cannot disturb the package data.
func All() []ModelSetting {
	out := make([]ModelSetting, 0, len(imageModels)+len(videoModels))
	out = append(out, imageModels...)
	out = append(out, videoModels...)
	return out
}

// FindByID scans the flattened union for the given id. Unknown ids resolve to
// false, never an error; callers treat that as "feature unavailable".
func FindByID(id string) (ModelSetting, bool) {
	for _, m := range imageModels {
		if m.ID == id {
			return m, true
		}
	}
	for _, m := range videoModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelSetting{}, false
}

// FindByTag collects every model whose tag list contains the substring,
// case-insensitively. Used to build derived sub-catalogs.
func FindByTag(substring string) []ModelSetting {
	needle := strings.ToLower(substring)
	var out []ModelSetting
	for _, m := range All() {
		for _, tag := range m.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// ResolveEndpoint returns the provider endpoint for a model id. The empty
// string is a valid "no remote call" sentinel for unknown ids or models
// without an endpoint.
func ResolveEndpoint(id string) string {
	m, ok := FindByID(id)
	if !ok {
		return ""
	}
	return m.APIInput.Endpoint
}

// Derived sub-catalogs, computed once at package load.
var (
	TextToImageModels  = FindByTag("text-to-image")
	ImageToImageModels = FindByTag("image-to-image")
	TextToVideoModels  = FindByTag("text-to-video")
	ImageToVideoModels = FindByTag("image-to-video")
)

// Validate performs the startup self-check over the full catalog: globally
// unique ids, unique parameter and file-input names per model, and
// well-formed mapping rules. Bad configuration must surface here, before any
// user request is mapped.
func Validate() error {
	seen := make(map[string]string)
	for _, m := range All() {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("registry: model with empty id (label %q)", m.Label)
		}
		if prev, ok := seen[m.ID]; ok {
			return fmt.Errorf("registry: duplicate model id %q (%q and %q)", m.ID, prev, m.Label)
		}
		seen[m.ID] = m.Label
		if m.Type != ModelTypeImage && m.Type != ModelTypeVideo {
			return fmt.Errorf("registry: model %q has unknown type %q", m.ID, m.Type)
		}
		if err := validateNames(m); err != nil {
			return err
		}
		if err := mapping.ValidateRules(m.APIInput.Rules); err != nil {
			return fmt.Errorf("registry: model %q: %w", m.ID, err)
		}
		for _, group := range m.AdapterGroups {
			for _, adapter := range group.Models {
				if strings.TrimSpace(adapter.ID) == "" {
					return fmt.Errorf("registry: model %q has adapter with empty id", m.ID)
				}
			}
		}
	}
	return nil
}

func validateNames(m ModelSetting) error {
	params := make(map[string]struct{}, len(m.CustomParameters))
	for _, p := range m.CustomParameters {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("registry: model %q has parameter with empty name", m.ID)
		}
		if _, ok := params[p.Name]; ok {
			return fmt.Errorf("registry: model %q has duplicate parameter %q", m.ID, p.Name)
		}
		params[p.Name] = struct{}{}
	}
	files := make(map[string]struct{}, len(m.FileInputs))
	for _, f := range m.FileInputs {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("registry: model %q has file input with empty name", m.ID)
		}
		if _, ok := files[f.Name]; ok {
			return fmt.Errorf("registry: model %q has duplicate file input %q", m.ID, f.Name)
		}
		if f.MaxCount < 0 {
			return fmt.Errorf("registry: model %q file input %q has negative max count", m.ID, f.Name)
		}
		files[f.Name] = struct{}{}
	}
	return nil
}
