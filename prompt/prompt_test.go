package prompt

import (
	"testing"

	"github.com/spetersoncode/imagegate"
	"github.com/stretchr/testify/assert"
)

func TestEnhance(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		opts     Options
		expected string
	}{
		{
			name:     "no modifiers",
			raw:      "a red fox",
			expected: "a red fox",
		},
		{
			name:     "unknown style is ignored",
			raw:      "a red fox",
			opts:     Options{Style: "none"},
			expected: "a red fox",
		},
		{
			name:     "hd general adds masterpiece",
			raw:      "a red fox",
			opts:     Options{Quality: imagegate.ImageQualityHD},
			expected: "a red fox, highly detailed, sharp focus, high resolution, masterpiece, best quality, highly detailed",
		},
		{
			name:     "4k with style",
			raw:      "castle",
			opts:     Options{Quality: imagegate.ImageQuality4K, Style: "watercolor"},
			expected: "castle, ultra high definition, extremely detailed, 4K resolution, maximum quality, sharp focus" + generalStyles["watercolor"] + highQualityGeneral,
		},
		{
			name:     "standard quality with style",
			raw:      "castle",
			opts:     Options{Quality: imagegate.ImageQualityStandard, Style: "Anime"},
			expected: "castle" + generalStyles["anime"],
		},
		{
			name:     "avatar style",
			raw:      "portrait of a knight",
			opts:     Options{Type: TypeAvatar, Style: "pixel"},
			expected: "portrait of a knight" + avatarStyles["pixel"],
		},
		{
			name:     "avatar hd skips masterpiece",
			raw:      "me",
			opts:     Options{Type: TypeAvatar, Style: "3d", Quality: imagegate.ImageQualityHD},
			expected: "me" + qualitySuffixes[imagegate.ImageQualityHD] + avatarStyles["3d"],
		},
		{
			name:     "general style not applied to avatars",
			raw:      "me",
			opts:     Options{Type: TypeAvatar, Style: "watercolor"},
			expected: "me",
		},
		{
			name:     "blank prompt unchanged",
			raw:      "  ",
			opts:     Options{Quality: imagegate.ImageQualityHD, Style: "anime"},
			expected: "  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Enhance(tt.raw, tt.opts))
		})
	}
}

func TestStyles(t *testing.T) {
	general := []string{"anime", "digital-art", "oil-painting", "photographic", "watercolor"}
	avatar := []string{"3d", "anime", "pixel", "realistic"}

	// Order is stable across calls.
	for range 20 {
		assert.Equal(t, general, Styles(TypeGeneral))
		assert.Equal(t, avatar, Styles(TypeAvatar))
	}
}

func TestProviderDefaults(t *testing.T) {
	t.Run("general images get nothing", func(t *testing.T) {
		assert.Nil(t, ProviderDefaults(TypeGeneral, imagegate.ProviderOpenAI))
	})

	t.Run("openai avatars", func(t *testing.T) {
		o := imagegate.ApplyImageOptions(ProviderDefaults(TypeAvatar, imagegate.ProviderOpenAI)...)
		assert.Equal(t, "dall-e-3", o.Model)
		assert.Equal(t, imagegate.ImageQualityHD, o.Quality)
		assert.Equal(t, imagegate.ImageStyleVivid, o.Style)
	})

	t.Run("huggingface avatars", func(t *testing.T) {
		o := imagegate.ApplyImageOptions(ProviderDefaults(TypeAvatar, imagegate.ProviderHuggingFace)...)
		assert.Equal(t, "8.5", o.Extra["guidance_scale"])
		assert.Equal(t, "50", o.Extra["num_inference_steps"])
	})

	t.Run("other providers", func(t *testing.T) {
		assert.Nil(t, ProviderDefaults(TypeAvatar, imagegate.ProviderDeepAI))
	})
}

func TestPrepare(t *testing.T) {
	t.Run("general with size and quality", func(t *testing.T) {
		enhanced, opts := Prepare("a red fox", imagegate.ProviderDeepAI, Options{
			Style:   "anime",
			Quality: imagegate.ImageQualityHD,
			Size:    imagegate.ImageSize512x512,
		})
		o := imagegate.ApplyImageOptions(opts...)

		assert.Equal(t, Enhance("a red fox", Options{Style: "anime", Quality: imagegate.ImageQualityHD}), enhanced)
		assert.Equal(t, imagegate.ImageQualityHD, o.Quality)
		assert.Equal(t, imagegate.ImageSize512x512, o.Size)
		assert.Empty(t, o.Style)
	})

	t.Run("render style is not a prompt modifier", func(t *testing.T) {
		enhanced, opts := Prepare("a red fox", imagegate.ProviderOpenAI, Options{Style: "Natural"})
		o := imagegate.ApplyImageOptions(opts...)

		assert.Equal(t, "a red fox", enhanced)
		assert.Equal(t, imagegate.ImageStyleNatural, o.Style)
	})

	t.Run("request quality overrides avatar defaults", func(t *testing.T) {
		_, opts := Prepare("me", imagegate.ProviderOpenAI, Options{
			Type:    TypeAvatar,
			Quality: imagegate.ImageQualityStandard,
		})
		o := imagegate.ApplyImageOptions(opts...)

		assert.Equal(t, "dall-e-3", o.Model)
		assert.Equal(t, imagegate.ImageQualityStandard, o.Quality)
	})

	t.Run("no options", func(t *testing.T) {
		enhanced, opts := Prepare("a red fox", "", Options{})
		assert.Equal(t, "a red fox", enhanced)
		assert.Empty(t, opts)
	})
}
