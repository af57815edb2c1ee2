package registry

import (
	"studio/internal/mapping"
)

// ModelType distinguishes which result handler applies downstream.
type ModelType string

const (
	ModelTypeImage ModelType = "image"
	ModelTypeVideo ModelType = "video"
)

// MediaKind enumerates the media accepted by a file-bearing input.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// ControlKind names the UI control rendered for a custom parameter. The
// registry carries it as presentation metadata only.
type ControlKind string

const (
	ControlSelect ControlKind = "select"
	ControlSlider ControlKind = "slider"
	ControlText   ControlKind = "text"
	ControlToggle ControlKind = "toggle"
)

// Option is one selectable value of a select-style parameter.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CustomParameter declares one additional user-tunable field of a model. Name
// is the key the UI writes into the shared meta_data bag (or a top-level
// field of the same name) and must be unique within a model.
type CustomParameter struct {
	Name    string      `json:"name"`
	Label   string      `json:"label"`
	Control ControlKind `json:"control"`
	Default any         `json:"default,omitempty"`
	Options []Option    `json:"options,omitempty"`
	Min     float64     `json:"min,omitempty"`
	Max     float64     `json:"max,omitempty"`
	Step    float64     `json:"step,omitempty"`
}

// FileInput declares one file-bearing field a model accepts. MaxCount is the
// number of files the field takes; zero means the field is unsupported.
type FileInput struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     MediaKind `json:"kind"`
	Required bool      `json:"required"`
	MaxCount int       `json:"max_count"`
	Options  []Option  `json:"options,omitempty"`
}

// APIInput binds a model to a provider endpoint and the mapping rule set
// that shapes its payload.
type APIInput struct {
	Provider string
	Endpoint string
	Rules    []mapping.Rule
}

// PricingOptions tunes how Estimate derives a cost from the base credit.
type PricingOptions struct {
	// CreditBySecond scales cost by a duration-valued field instead of by
	// discrete tier multipliers.
	CreditBySecond bool
	// CreditsByControl names the file input whose supplied item count
	// multiplies cost: per item in the per-second mode, and as the outputs
	// multiplier in the tiered mode when num_outputs is absent.
	CreditsByControl string
}

// AdapterModel is a secondary style modifier selectable alongside a primary
// model.
type AdapterModel struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Image string  `json:"image,omitempty"`
	Scale float64 `json:"scale,omitempty"`
}

// AdapterGroup groups adapter models by the base model they modify.
type AdapterGroup struct {
	Base   string         `json:"base"`
	Models []AdapterModel `json:"models"`
}

// ModelSetting identifies one invocable generation backend. Entries are
// static process-wide constants created at package load and never mutated;
// per-user customizations live in the settings store and are merged into
// catalog views at read time only.
type ModelSetting struct {
	ID                    string
	Label                 string
	Description           string
	Tags                  []string
	Badges                []string
	Type                  ModelType
	SupportedAspectRatios []string
	CustomParameters      []CustomParameter
	FileInputs            []FileInput
	UseCredits            float64
	Pricing               PricingOptions
	APIInput              APIInput
	AdapterGroups         []AdapterGroup
}

// Parameter returns the custom parameter with the given name.
func (m ModelSetting) Parameter(name string) (CustomParameter, bool) {
	for _, p := range m.CustomParameters {
		if p.Name == name {
			return p, true
		}
	}
	return CustomParameter{}, false
}

// NormalizeAspectRatio clamps a requested aspect ratio to the supported set.
// An empty supported set means the provider default applies and the input is
// returned unchanged; an unsupported value falls back to the first entry.
func (m ModelSetting) NormalizeAspectRatio(ratio string) string {
	if len(m.SupportedAspectRatios) == 0 {
		return ratio
	}
	for _, supported := range m.SupportedAspectRatios {
		if supported == ratio {
			return ratio
		}
	}
	return m.SupportedAspectRatios[0]
}
