package settings

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PromptPreset is one reusable prompt saved by the user.
type PromptPreset struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

var titleCaser = cases.Title(language.Und)

// Normalize trims fields and derives a display label from the name when the
// user left it blank.
func (p *PromptPreset) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Prompt = strings.TrimSpace(p.Prompt)
	p.Label = strings.TrimSpace(p.Label)
	if p.Label == "" && p.Name != "" {
		p.Label = titleCaser.String(strings.ReplaceAll(p.Name, "_", " "))
	}
}
