package registry

import (
	"reflect"
	"testing"

	"studio/internal/mapping"
)

func TestCatalogValidates(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("catalog failed validation: %v", err)
	}
}

func TestModelIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for _, m := range All() {
		if _, ok := seen[m.ID]; ok {
			t.Fatalf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
}

func TestFindByIDUnknownModel(t *testing.T) {
	if _, ok := FindByID("nonexistent-model"); ok {
		t.Fatal("expected unknown id to resolve to false")
	}
}

func TestFindByID(t *testing.T) {
	m, ok := FindByID("flux-dev")
	if !ok {
		t.Fatal("expected flux-dev to exist")
	}
	if m.Type != ModelTypeImage {
		t.Fatalf("unexpected type %q", m.Type)
	}
	if m.APIInput.Provider != "fal" {
		t.Fatalf("unexpected provider %q", m.APIInput.Provider)
	}
}

func TestFindByTagIsCaseInsensitive(t *testing.T) {
	lower := FindByTag("text-to-image")
	upper := FindByTag("TEXT-TO-IMAGE")
	if len(lower) == 0 {
		t.Fatal("expected text-to-image models")
	}
	if len(lower) != len(upper) {
		t.Fatalf("case sensitivity leak: %d vs %d", len(lower), len(upper))
	}
	for _, m := range lower {
		if m.Type != ModelTypeImage {
			t.Fatalf("model %q tagged text-to-image but has type %q", m.ID, m.Type)
		}
	}
}

func TestResolveEndpoint(t *testing.T) {
	if ep := ResolveEndpoint("flux-dev"); ep != "fal-ai/flux/dev" {
		t.Fatalf("unexpected endpoint %q", ep)
	}
	if ep := ResolveEndpoint("nonexistent-model"); ep != "" {
		t.Fatalf("expected empty sentinel, got %q", ep)
	}
}

func TestNormalizeAspectRatio(t *testing.T) {
	m, _ := FindByID("veo-2")
	if got := m.NormalizeAspectRatio("9:16"); got != "9:16" {
		t.Fatalf("supported ratio rewritten to %q", got)
	}
	if got := m.NormalizeAspectRatio("4:3"); got != "16:9" {
		t.Fatalf("expected fallback to first supported ratio, got %q", got)
	}
	unconstrained := ModelSetting{}
	if got := unconstrained.NormalizeAspectRatio("21:9"); got != "21:9" {
		t.Fatalf("expected pass-through, got %q", got)
	}
}

func TestFluxDevPayload(t *testing.T) {
	m, ok := FindByID("flux-dev")
	if !ok {
		t.Fatal("expected flux-dev to exist")
	}
	input := map[string]any{
		"model_id":      "flux-dev",
		"prompt":        "a cat",
		"width":         1024,
		"height":        1024,
		"num_outputs":   2,
		"output_format": "jpg",
	}
	payload, err := mapping.Apply(m.APIInput.Rules, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["prompt"] != "a cat" {
		t.Fatalf("unexpected prompt %#v", payload["prompt"])
	}
	if !reflect.DeepEqual(payload["image_size"], map[string]any{"width": 1024, "height": 1024}) {
		t.Fatalf("unexpected image_size %#v", payload["image_size"])
	}
	if payload["num_images"] != 2 {
		t.Fatalf("unexpected num_images %#v", payload["num_images"])
	}
	if payload["output_format"] != "jpeg" {
		t.Fatalf("expected jpg remapped to jpeg, got %#v", payload["output_format"])
	}
	if payload["num_inference_steps"] != 28 {
		t.Fatalf("expected constant steps, got %#v", payload["num_inference_steps"])
	}
	if payload["guidance_scale"] != 3.5 {
		t.Fatalf("expected constant guidance, got %#v", payload["guidance_scale"])
	}
	if _, ok := payload["seed"]; ok {
		t.Fatalf("expected seed omitted, got %#v", payload["seed"])
	}
}

func TestDerivedCatalogs(t *testing.T) {
	if len(TextToImageModels) == 0 || len(ImageToVideoModels) == 0 {
		t.Fatal("expected derived catalogs to be populated")
	}
	for _, m := range ImageToVideoModels {
		if m.Type != ModelTypeVideo {
			t.Fatalf("model %q in image-to-video catalog has type %q", m.ID, m.Type)
		}
	}
}

func TestParameterLookup(t *testing.T) {
	m, _ := FindByID("kling-1.6-standard")
	p, ok := m.Parameter("resolution")
	if !ok {
		t.Fatal("expected resolution parameter")
	}
	if len(p.Options) != 2 {
		t.Fatalf("unexpected options %#v", p.Options)
	}
	if _, ok := m.Parameter("missing"); ok {
		t.Fatal("expected miss for unknown parameter")
	}
}
