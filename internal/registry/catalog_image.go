package registry

import (
	"studio/internal/mapping"
)

// outputFormatRule normalizes the common jpg/jpeg aliasing before a payload
// reaches a provider.
func outputFormatRule() mapping.Rule {
	return mapping.From("output_format", "output_format", mapping.EnumMap{
		Map: map[string]any{
			"jpg":  "jpeg",
			"jpeg": "jpeg",
			"png":  "png",
			"webp": "webp",
		},
		Default: "jpeg",
	})
}

var imageModels = []ModelSetting{
	{
		ID:          "flux-dev",
		Label:       "FLUX.1 [dev]",
		Description: "General purpose text-to-image with strong prompt adherence.",
		Tags:        []string{"text-to-image", "flux"},
		Badges:      []string{"popular"},
		Type:        ModelTypeImage,
		SupportedAspectRatios: []string{
			"1:1", "4:3", "3:4", "16:9", "9:16",
		},
		CustomParameters: []CustomParameter{
			{Name: "num_outputs", Label: "Outputs", Control: ControlSlider, Default: 1, Min: 1, Max: 4, Step: 1},
			{Name: "output_format", Label: "Format", Control: ControlSelect, Default: "jpeg", Options: []Option{
				{Label: "JPEG", Value: "jpeg"},
				{Label: "PNG", Value: "png"},
				{Label: "WebP", Value: "webp"},
			}},
			{Name: "seed", Label: "Seed", Control: ControlText},
		},
		UseCredits: 2,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/flux/dev",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("image_size.width", "width"),
				mapping.From("image_size.height", "height"),
				mapping.FromAny("num_images", []string{"num_outputs", "meta_data.num_outputs"}),
				outputFormatRule(),
				mapping.FromAny("seed", []string{"seed", "meta_data.seed"}, mapping.ToNumber{}),
				mapping.Const("num_inference_steps", 28),
				mapping.Const("guidance_scale", 3.5),
				mapping.Const("enable_safety_checker", true),
			},
		},
		AdapterGroups: []AdapterGroup{
			{
				Base: "flux-dev",
				Models: []AdapterModel{
					{ID: "flux-lora-anime", Label: "Anime", Scale: 0.8},
					{ID: "flux-lora-watercolor", Label: "Watercolor", Scale: 0.7},
					{ID: "flux-lora-cinematic", Label: "Cinematic", Scale: 1.0},
				},
			},
		},
	},
	{
		ID:          "flux-schnell",
		Label:       "FLUX.1 [schnell]",
		Description: "Fast drafts at reduced quality.",
		Tags:        []string{"text-to-image", "flux", "fast"},
		Type:        ModelTypeImage,
		SupportedAspectRatios: []string{
			"1:1", "4:3", "3:4", "16:9", "9:16",
		},
		CustomParameters: []CustomParameter{
			{Name: "num_outputs", Label: "Outputs", Control: ControlSlider, Default: 1, Min: 1, Max: 4, Step: 1},
			{Name: "output_format", Label: "Format", Control: ControlSelect, Default: "jpeg", Options: []Option{
				{Label: "JPEG", Value: "jpeg"},
				{Label: "PNG", Value: "png"},
			}},
		},
		UseCredits: 1,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/flux/schnell",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("image_size.width", "width"),
				mapping.From("image_size.height", "height"),
				mapping.FromAny("num_images", []string{"num_outputs", "meta_data.num_outputs"}, mapping.Default{Value: 1}),
				outputFormatRule(),
				mapping.Const("num_inference_steps", 4),
			},
		},
	},
	{
		ID:          "flux-pro-1.1",
		Label:       "FLUX 1.1 [pro]",
		Description: "Highest quality FLUX tier, aspect-ratio driven sizing.",
		Tags:        []string{"text-to-image", "flux", "pro"},
		Badges:      []string{"premium"},
		Type:        ModelTypeImage,
		SupportedAspectRatios: []string{
			"1:1", "4:3", "3:4", "16:9", "9:16", "21:9",
		},
		CustomParameters: []CustomParameter{
			{Name: "num_outputs", Label: "Outputs", Control: ControlSlider, Default: 1, Min: 1, Max: 4, Step: 1},
			{Name: "safety_tolerance", Label: "Safety tolerance", Control: ControlSelect, Default: "2", Options: []Option{
				{Label: "Strict", Value: "1"},
				{Label: "Balanced", Value: "2"},
				{Label: "Relaxed", Value: "3"},
			}},
		},
		UseCredits: 4,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/flux-pro/v1.1",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("aspect_ratio", "aspect_ratio", mapping.Default{Value: "1:1"}),
				mapping.FromAny("num_images", []string{"num_outputs", "meta_data.num_outputs"}, mapping.Default{Value: 1}),
				mapping.FromAny("safety_tolerance", []string{"meta_data.safety_tolerance"}, mapping.ToString{}),
				outputFormatRule(),
			},
		},
	},
	{
		ID:          "flux-dev-image-to-image",
		Label:       "FLUX.1 [dev] Redux",
		Description: "Restyle an existing image while keeping its composition.",
		Tags:        []string{"image-to-image", "flux"},
		Type:        ModelTypeImage,
		CustomParameters: []CustomParameter{
			{Name: "strength", Label: "Strength", Control: ControlSlider, Default: 0.85, Min: 0, Max: 1, Step: 0.05},
			{Name: "num_outputs", Label: "Outputs", Control: ControlSlider, Default: 1, Min: 1, Max: 4, Step: 1},
		},
		FileInputs: []FileInput{
			{Name: "control_images", Label: "Source image", Kind: MediaImage, Required: true, MaxCount: 1},
		},
		UseCredits: 2.5,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/flux/dev/image-to-image",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("image_url", "control_images", mapping.Pick{Index: 0}),
				mapping.FromAny("strength", []string{"strength", "meta_data.strength"}, mapping.ToNumber{}, mapping.Default{Value: 0.85}),
				mapping.FromAny("num_images", []string{"num_outputs", "meta_data.num_outputs"}, mapping.Default{Value: 1}),
				outputFormatRule(),
			},
		},
	},
	{
		ID:          "nano-banana-edit",
		Label:       "Nano Banana Edit",
		Description: "Conversational multi-image editing.",
		Tags:        []string{"image-to-image", "edit"},
		Badges:      []string{"new"},
		Type:        ModelTypeImage,
		FileInputs: []FileInput{
			{Name: "control_images", Label: "Images", Kind: MediaImage, Required: true, MaxCount: 2},
		},
		CustomParameters: []CustomParameter{
			{Name: "num_outputs", Label: "Outputs", Control: ControlSlider, Default: 1, Min: 1, Max: 2, Step: 1},
		},
		UseCredits: 3,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/nano-banana/edit",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("image_urls", "control_images", mapping.Slice{Start: 0, End: 2}),
				mapping.FromAny("num_images", []string{"num_outputs", "meta_data.num_outputs"}, mapping.Default{Value: 1}),
				outputFormatRule(),
			},
		},
	},
	{
		ID:          "recraft-v3",
		Label:       "Recraft V3",
		Description: "Design-oriented generation with style presets.",
		Tags:        []string{"text-to-image", "design"},
		Type:        ModelTypeImage,
		SupportedAspectRatios: []string{
			"1:1", "4:3", "3:4", "16:9", "9:16",
		},
		CustomParameters: []CustomParameter{
			{Name: "style", Label: "Style", Control: ControlSelect, Default: "realistic_image", Options: []Option{
				{Label: "Realistic", Value: "realistic_image"},
				{Label: "Digital illustration", Value: "digital_illustration"},
				{Label: "Vector", Value: "vector_illustration"},
			}},
		},
		UseCredits: 4,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/recraft-v3",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("image_size.width", "width"),
				mapping.From("image_size.height", "height"),
				mapping.FromAny("style", []string{"meta_data.style"}, mapping.Default{Value: "realistic_image"}),
			},
		},
	},
	{
		ID:          "ideogram-v2",
		Label:       "Ideogram 2.0",
		Description: "Typography-aware generation.",
		Tags:        []string{"text-to-image", "typography"},
		Type:        ModelTypeImage,
		SupportedAspectRatios: []string{
			"1:1", "4:3", "3:4", "16:9", "9:16",
		},
		CustomParameters: []CustomParameter{
			{Name: "magic_prompt", Label: "Magic prompt", Control: ControlToggle, Default: true},
			{Name: "negative_prompt", Label: "Negative prompt", Control: ControlText},
		},
		UseCredits: 4,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/ideogram/v2",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("aspect_ratio", "aspect_ratio", mapping.Default{Value: "1:1"}),
				mapping.FromAny("expand_prompt", []string{"meta_data.magic_prompt"}, mapping.Default{Value: true}),
				mapping.FromAny("negative_prompt", []string{"meta_data.negative_prompt"}),
			},
		},
	},
	{
		ID:          "stable-diffusion-3.5-large",
		Label:       "Stable Diffusion 3.5 Large",
		Description: "Open-weights workhorse.",
		Tags:        []string{"text-to-image", "stable-diffusion"},
		Type:        ModelTypeImage,
		SupportedAspectRatios: []string{
			"1:1", "4:3", "3:4", "16:9", "9:16",
		},
		CustomParameters: []CustomParameter{
			{Name: "num_outputs", Label: "Outputs", Control: ControlSlider, Default: 1, Min: 1, Max: 4, Step: 1},
			{Name: "guidance_scale", Label: "Guidance", Control: ControlSlider, Default: 4.5, Min: 1, Max: 10, Step: 0.5},
			{Name: "negative_prompt", Label: "Negative prompt", Control: ControlText},
		},
		UseCredits: 3,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/stable-diffusion-v35-large",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.FromAny("negative_prompt", []string{"meta_data.negative_prompt"}),
				mapping.From("image_size.width", "width"),
				mapping.From("image_size.height", "height"),
				mapping.FromAny("num_images", []string{"num_outputs", "meta_data.num_outputs"}, mapping.Default{Value: 1}),
				mapping.FromAny("guidance_scale", []string{"meta_data.guidance_scale"}, mapping.ToNumber{}, mapping.Default{Value: 4.5}),
				outputFormatRule(),
			},
		},
	},
	{
		ID:          "qwen-image-plus",
		Label:       "Qwen Image Plus",
		Description: "Multilingual prompts with strong text rendering.",
		Tags:        []string{"text-to-image", "multilingual"},
		Type:        ModelTypeImage,
		SupportedAspectRatios: []string{
			"1:1", "4:3", "3:4", "16:9", "9:16",
		},
		CustomParameters: []CustomParameter{
			{Name: "negative_prompt", Label: "Negative prompt", Control: ControlText},
			{Name: "prompt_extend", Label: "Prompt extend", Control: ControlToggle, Default: true},
		},
		UseCredits: 2,
		APIInput: APIInput{
			Provider: "dashscope",
			Endpoint: "qwen-image-plus",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.FromAny("negative_prompt", []string{"meta_data.negative_prompt"}),
				mapping.From("size", "aspect_ratio", mapping.EnumMap{
					Map: map[string]any{
						"1:1":  "1328*1328",
						"4:3":  "1472*1140",
						"3:4":  "1140*1472",
						"16:9": "1664*928",
						"9:16": "928*1664",
					},
					Default: "1328*1328",
				}),
				mapping.FromAny("prompt_extend", []string{"meta_data.prompt_extend"}, mapping.Default{Value: true}),
			},
		},
	},
}
