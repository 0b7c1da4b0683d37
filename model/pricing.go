package model

import "github.com/spetersoncode/imagegate"

// ImagePricing contains image generation pricing (USD).
// Different providers use different pricing models; all fields are zero when
// the provider publishes no per-image price.
type ImagePricing struct {
	// PerImage is a flat per-image price (Google Imagen).
	PerImage float64
	// Standard is the price for a standard quality image (OpenAI).
	Standard float64
	// HD is the price for a high quality image (OpenAI).
	HD float64
}

// HasQualityTiers returns true if the model has quality-based pricing tiers.
func (p ImagePricing) HasQualityTiers() bool {
	return p.Standard > 0 || p.HD > 0
}

// HasFlatPricing returns true if the model uses flat per-image pricing.
func (p ImagePricing) HasFlatPricing() bool {
	return p.PerImage > 0
}

// Known reports whether any price is published.
func (p ImagePricing) Known() bool {
	return p.HasQualityTiers() || p.HasFlatPricing()
}

// Cost estimates the price of one image at quality q.
func (p ImagePricing) Cost(q imagegate.ImageQuality) float64 {
	if !p.HasQualityTiers() {
		return p.PerImage
	}
	if q.IsHigh() && p.HD > 0 {
		return p.HD
	}
	return p.Standard
}
