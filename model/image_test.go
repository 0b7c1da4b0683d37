package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/imagegate"
)

func TestImagePricingCost(t *testing.T) {
	t.Run("quality tiers", func(t *testing.T) {
		assert.InDelta(t, 0.04, DallE3.Cost(imagegate.ImageQualityStandard), 0.0001)
		assert.InDelta(t, 0.08, DallE3.Cost(imagegate.ImageQualityHD), 0.0001)
		assert.InDelta(t, 0.08, DallE3.Cost(imagegate.ImageQuality4K), 0.0001)
	})

	t.Run("standard only tier", func(t *testing.T) {
		assert.InDelta(t, 0.02, DallE2.Cost(imagegate.ImageQualityHD), 0.0001)
	})

	t.Run("flat pricing ignores quality", func(t *testing.T) {
		assert.True(t, Imagen4.Pricing().HasFlatPricing())
		assert.False(t, Imagen4.Pricing().HasQualityTiers())
		assert.Equal(t, Imagen4.Cost(""), Imagen4.Cost(imagegate.ImageQualityHD))
	})

	t.Run("unknown pricing", func(t *testing.T) {
		assert.False(t, StableDiffusionXL.Pricing().Known())
		assert.Zero(t, MidjourneyV5.Cost(imagegate.ImageQualityHD))
	})
}

func TestLookup(t *testing.T) {
	m, ok := Lookup("imagen-4.0-ultra-generate-001")
	require.True(t, ok)
	assert.Equal(t, Imagen4Ultra, m)
	assert.Equal(t, imagegate.ProviderGoogle, m.Provider())

	_, ok = Lookup("dall-e-4")
	assert.False(t, ok)
}

func TestForProvider(t *testing.T) {
	assert.Equal(t, []ImageModel{DallE3, DallE2}, ForProvider(imagegate.ProviderOpenAI))
	assert.Len(t, ForProvider(imagegate.ProviderGoogle), 3)
	assert.Equal(t, []ImageModel{StableDiffusionXL1024}, ForProvider(imagegate.ProviderStability))
	assert.Equal(t, []ImageModel{FireflyImage3}, ForProvider(imagegate.ProviderFirefly))
	assert.Empty(t, ForProvider("unknown"))

	for _, m := range ImageModels {
		assert.Equal(t, m.SupportsEdit(), m == DallE2, m.String())
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("dall-e-3", imagegate.ImageQualityHD)
	require.True(t, ok)
	assert.InDelta(t, 0.08, cost, 0.0001)

	_, ok = EstimateCost(StableDiffusionXL.String(), imagegate.ImageQualityStandard)
	assert.False(t, ok)

	_, ok = EstimateCost("nope", imagegate.ImageQualityStandard)
	assert.False(t, ok)
}
