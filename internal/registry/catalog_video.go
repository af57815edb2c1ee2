package registry

import (
	"studio/internal/mapping"
)

var videoModels = []ModelSetting{
	{
		ID:          "kling-1.6-standard",
		Label:       "Kling 1.6 Standard",
		Description: "Image-to-video animation, standard tier.",
		Tags:        []string{"image-to-video", "kling"},
		Type:        ModelTypeVideo,
		SupportedAspectRatios: []string{
			"16:9", "9:16", "1:1",
		},
		CustomParameters: []CustomParameter{
			{Name: "duration", Label: "Duration", Control: ControlSelect, Default: "5", Options: []Option{
				{Label: "5s", Value: "5"},
				{Label: "10s", Value: "10"},
			}},
			{Name: "resolution", Label: "Resolution", Control: ControlSelect, Default: "720p", Options: []Option{
				{Label: "720p", Value: "720p"},
				{Label: "1080p", Value: "1080p"},
			}},
		},
		FileInputs: []FileInput{
			{Name: "control_images", Label: "Start frame", Kind: MediaImage, Required: true, MaxCount: 1},
		},
		UseCredits: 10,
		Pricing:    PricingOptions{CreditsByControl: "control_images"},
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/kling-video/v1.6/standard/image-to-video",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("image_url", "control_images", mapping.Pick{Index: 0}),
				mapping.FromAny("duration", []string{"meta_data.duration"}, mapping.ToString{}, mapping.Default{Value: "5"}),
				mapping.From("aspect_ratio", "aspect_ratio", mapping.Default{Value: "16:9"}),
			},
		},
	},
	{
		ID:          "kling-1.6-pro",
		Label:       "Kling 1.6 Pro",
		Description: "Image-to-video animation, pro tier with start and end frames.",
		Tags:        []string{"image-to-video", "kling", "pro"},
		Badges:      []string{"premium"},
		Type:        ModelTypeVideo,
		SupportedAspectRatios: []string{
			"16:9", "9:16", "1:1",
		},
		CustomParameters: []CustomParameter{
			{Name: "duration", Label: "Duration", Control: ControlSelect, Default: "5", Options: []Option{
				{Label: "5s", Value: "5"},
				{Label: "10s", Value: "10"},
			}},
			{Name: "cfg_scale", Label: "CFG scale", Control: ControlSlider, Default: 0.5, Min: 0, Max: 1, Step: 0.1},
		},
		FileInputs: []FileInput{
			{Name: "control_images", Label: "Start / end frame", Kind: MediaImage, Required: true, MaxCount: 2},
		},
		UseCredits: 20,
		Pricing:    PricingOptions{CreditsByControl: "control_images"},
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/kling-video/v1.6/pro/image-to-video",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("image_url", "control_images", mapping.Pick{Index: 0}),
				mapping.From("tail_image_url", "control_images", mapping.Pick{Index: 1}),
				mapping.FromAny("duration", []string{"meta_data.duration"}, mapping.ToString{}, mapping.Default{Value: "5"}),
				mapping.FromAny("cfg_scale", []string{"meta_data.cfg_scale"}, mapping.ToNumber{}, mapping.Default{Value: 0.5}),
			},
		},
	},
	{
		ID:          "veo-2",
		Label:       "Veo 2",
		Description: "Cinematic text-to-video, billed per second.",
		Tags:        []string{"text-to-video", "veo"},
		Badges:      []string{"premium"},
		Type:        ModelTypeVideo,
		SupportedAspectRatios: []string{
			"16:9", "9:16",
		},
		CustomParameters: []CustomParameter{
			{Name: "duration", Label: "Duration", Control: ControlSlider, Default: 5, Min: 5, Max: 8, Step: 1},
		},
		UseCredits: 2.5,
		Pricing:    PricingOptions{CreditBySecond: true},
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/veo2",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("aspect_ratio", "aspect_ratio", mapping.Default{Value: "16:9"}),
				mapping.FromAny("duration", []string{"meta_data.duration"}, mapping.ToString{}, mapping.Default{Value: "5"}),
			},
		},
	},
	{
		ID:          "minimax-video-01",
		Label:       "MiniMax Video 01",
		Description: "Text or image conditioned video generation.",
		Tags:        []string{"text-to-video", "image-to-video", "minimax"},
		Type:        ModelTypeVideo,
		CustomParameters: []CustomParameter{
			{Name: "prompt_optimizer", Label: "Prompt optimizer", Control: ControlToggle, Default: true},
		},
		FileInputs: []FileInput{
			{Name: "control_images", Label: "First frame", Kind: MediaImage, MaxCount: 1},
		},
		UseCredits: 15,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/minimax/video-01",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("first_frame_image", "control_images", mapping.Pick{Index: 0}),
				mapping.FromAny("prompt_optimizer", []string{"meta_data.prompt_optimizer"}, mapping.Default{Value: true}),
			},
		},
	},
	{
		ID:          "wan-2.1-i2v",
		Label:       "Wan 2.1",
		Description: "Open-weights image-to-video.",
		Tags:        []string{"image-to-video", "wan"},
		Type:        ModelTypeVideo,
		SupportedAspectRatios: []string{
			"16:9", "9:16", "1:1",
		},
		CustomParameters: []CustomParameter{
			{Name: "resolution", Label: "Resolution", Control: ControlSelect, Default: "480p", Options: []Option{
				{Label: "480p", Value: "480p"},
				{Label: "720p", Value: "720p"},
			}},
			{Name: "num_frames", Label: "Frames", Control: ControlSlider, Default: 81, Min: 81, Max: 100, Step: 1},
		},
		FileInputs: []FileInput{
			{Name: "control_images", Label: "Source image", Kind: MediaImage, Required: true, MaxCount: 1},
		},
		UseCredits: 8,
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/wan-i2v",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("image_url", "control_images", mapping.Pick{Index: 0}),
				mapping.FromAny("resolution", []string{"meta_data.resolution"}, mapping.Default{Value: "480p"}),
				mapping.FromAny("num_frames", []string{"meta_data.num_frames"}, mapping.ToNumber{}, mapping.Default{Value: 81}),
			},
		},
	},
	{
		ID:          "mmaudio-v2",
		Label:       "MMAudio V2",
		Description: "Adds a synchronized soundtrack to an existing clip.",
		Tags:        []string{"video-to-audio", "audio"},
		Type:        ModelTypeVideo,
		CustomParameters: []CustomParameter{
			{Name: "duration", Label: "Duration", Control: ControlSlider, Default: 8, Min: 1, Max: 30, Step: 1},
			{Name: "negative_prompt", Label: "Negative prompt", Control: ControlText},
		},
		FileInputs: []FileInput{
			{Name: "control_videos", Label: "Video", Kind: MediaVideo, Required: true, MaxCount: 1},
			{Name: "control_audios", Label: "Reference audio", Kind: MediaAudio, MaxCount: 1},
		},
		UseCredits: 0.5,
		Pricing:    PricingOptions{CreditBySecond: true, CreditsByControl: "control_videos"},
		APIInput: APIInput{
			Provider: "fal",
			Endpoint: "fal-ai/mmaudio-v2",
			Rules: []mapping.Rule{
				mapping.From("prompt", "prompt"),
				mapping.From("video_url", "control_videos", mapping.Pick{Index: 0}),
				mapping.FromAny("negative_prompt", []string{"meta_data.negative_prompt"}),
				mapping.FromAny("duration", []string{"meta_data.duration"}, mapping.ToNumber{}, mapping.Default{Value: 8}),
			},
		},
	},
}
