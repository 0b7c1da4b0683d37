package imagegate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyImageOptions(t *testing.T) {
	t.Run("returns empty options when no options provided", func(t *testing.T) {
		opts := ApplyImageOptions()
		assert.NotNil(t, opts)
		assert.Empty(t, opts.Model)
		assert.Empty(t, opts.Size)
		assert.Empty(t, opts.Quality)
		assert.Empty(t, opts.Style)
		assert.Nil(t, opts.SourceImage)
		assert.Nil(t, opts.Extra)
	})

	t.Run("applies multiple options", func(t *testing.T) {
		src := &SourceImage{Data: []byte{0x89, 0x50}, MIMEType: "image/png"}
		opts := ApplyImageOptions(
			WithImageModel("dall-e-3"),
			WithImageSize(ImageSize1792x1024),
			WithImageQuality(ImageQualityHD),
			WithImageStyle(ImageStyleVivid),
			WithSourceImage(src),
			WithImageExtra("seed", "42"),
		)

		assert.Equal(t, "dall-e-3", opts.Model)
		assert.Equal(t, ImageSize1792x1024, opts.Size)
		assert.Equal(t, ImageQualityHD, opts.Quality)
		assert.Equal(t, ImageStyleVivid, opts.Style)
		assert.Same(t, src, opts.SourceImage)
		assert.Equal(t, map[string]string{"seed": "42"}, opts.Extra)
	})

	t.Run("skips nil options", func(t *testing.T) {
		opts := ApplyImageOptions(nil, WithImageModel("m"), nil)
		assert.Equal(t, "m", opts.Model)
	})

	t.Run("later options override earlier ones", func(t *testing.T) {
		opts := ApplyImageOptions(
			WithImageQuality(ImageQualityStandard),
			WithImageQuality(ImageQuality4K),
		)
		assert.Equal(t, ImageQuality4K, opts.Quality)
	})
}

func TestSizeOrDefault(t *testing.T) {
	assert.Equal(t, DefaultImageSize, ApplyImageOptions().SizeOrDefault())
	assert.Equal(t, ImageSize512x512, ApplyImageOptions(WithImageSize(ImageSize512x512)).SizeOrDefault())
}

func TestImageSizeDimensions(t *testing.T) {
	tests := []struct {
		size   ImageSize
		width  int
		height int
		ok     bool
	}{
		{ImageSize1024x1024, 1024, 1024, true},
		{ImageSize1792x1024, 1792, 1024, true},
		{"640x480", 640, 480, true},
		{"", 0, 0, false},
		{"large", 0, 0, false},
		{"0x512", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.size), func(t *testing.T) {
			w, h, ok := tt.size.Dimensions()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.width, w)
			assert.Equal(t, tt.height, h)
		})
	}
}

func TestImageQualityIsHigh(t *testing.T) {
	assert.False(t, ImageQualityStandard.IsHigh())
	assert.False(t, ImageQuality("").IsHigh())
	assert.True(t, ImageQualityHD.IsHigh())
	assert.True(t, ImageQuality4K.IsHigh())
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,AQID", DataURI("image/jpeg", []byte{1, 2, 3}))
	assert.Equal(t, "data:image/png;base64,AQID", DataURI("", []byte{1, 2, 3}))
}

func TestProviderName(t *testing.T) {
	assert.True(t, ProviderName("").IsFanOut())
	assert.True(t, ProviderAll.IsFanOut())
	assert.False(t, ProviderOpenAI.IsFanOut())
	assert.Equal(t, "openai", ProviderOpenAI.String())
}

func TestParseDataURI(t *testing.T) {
	t.Run("round trips DataURI", func(t *testing.T) {
		img, err := ParseDataURI(DataURI("image/jpeg", []byte{1, 2, 3}))
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, img.Data)
		assert.Equal(t, "image/jpeg", img.MIMEType)
	})

	t.Run("defaults media type", func(t *testing.T) {
		img, err := ParseDataURI("data:;base64,AQID")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MIMEType)
	})

	for name, uri := range map[string]string{
		"plain url":     "https://example.com/a.png",
		"no separator":  "data:image/png;base64",
		"not base64":    "data:image/png,AQID",
		"not an image":  "data:text/plain;base64,AQID",
		"bad payload":   "data:image/png;base64,!!!",
		"empty payload": "data:image/png;base64,",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataURI(uri)
			var imgErr *ImageError
			require.True(t, errors.As(err, &imgErr))
			assert.Equal(t, "decode", imgErr.Op)
		})
	}
}
