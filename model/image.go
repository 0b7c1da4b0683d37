package model

import (
	"github.com/samber/lo"

	"github.com/spetersoncode/imagegate"
)

// ImageModel represents an image generation model from any provider.
type ImageModel struct {
	id       string
	provider imagegate.ProviderName
	pricing  ImagePricing
	edit     bool
}

// String returns the API identifier for this model.
func (m ImageModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m ImageModel) Provider() imagegate.ProviderName { return m.provider }

// Pricing returns the pricing for this model.
func (m ImageModel) Pricing() ImagePricing { return m.pricing }

// SupportsEdit reports whether the model accepts a source image.
func (m ImageModel) SupportsEdit() bool { return m.edit }

// Cost estimates the price of one image at quality q.
func (m ImageModel) Cost(q imagegate.ImageQuality) float64 { return m.pricing.Cost(q) }

// Hugging Face Models
var (
	StableDiffusionXL = ImageModel{id: "stabilityai/stable-diffusion-xl-base-1.0", provider: imagegate.ProviderHuggingFace}

	// DefaultHuggingFaceModel is the recommended default Hugging Face model.
	DefaultHuggingFaceModel = StableDiffusionXL
)

// OpenAI Image Models
// Prices are for 1024x1024 images.
var (
	DallE3 = ImageModel{id: "dall-e-3", provider: imagegate.ProviderOpenAI, pricing: ImagePricing{Standard: 0.04, HD: 0.08}}
	DallE2 = ImageModel{id: "dall-e-2", provider: imagegate.ProviderOpenAI, pricing: ImagePricing{Standard: 0.02}, edit: true}

	// DefaultOpenAIModel is the recommended default OpenAI image model.
	DefaultOpenAIModel = DallE3
)

// Stability AI Engines
var (
	StableDiffusionXL1024 = ImageModel{id: "stable-diffusion-xl-1024-v1-0", provider: imagegate.ProviderStability}

	DefaultStabilityModel = StableDiffusionXL1024
)

// Google Imagen Models
var (
	// Imagen 4 Series
	Imagen4      = ImageModel{id: "imagen-4.0-generate-001", provider: imagegate.ProviderGoogle, pricing: ImagePricing{PerImage: 0.04}}
	Imagen4Fast  = ImageModel{id: "imagen-4.0-fast-generate-001", provider: imagegate.ProviderGoogle, pricing: ImagePricing{PerImage: 0.02}}
	Imagen4Ultra = ImageModel{id: "imagen-4.0-ultra-generate-001", provider: imagegate.ProviderGoogle, pricing: ImagePricing{PerImage: 0.06}}

	// DefaultImagenModel is the recommended default Google image model.
	DefaultImagenModel = Imagen4
)

// DeepAI Models
var (
	DeepAIText2Img = ImageModel{id: "text2img", provider: imagegate.ProviderDeepAI}

	DefaultDeepAIModel = DeepAIText2Img
)

// Adobe Firefly Models
var (
	FireflyImage3 = ImageModel{id: "image3", provider: imagegate.ProviderFirefly}

	DefaultFireflyModel = FireflyImage3
)

// Midjourney Models
var (
	MidjourneyV5 = ImageModel{id: "midjourney-v5", provider: imagegate.ProviderMidjourney}

	DefaultMidjourneyModel = MidjourneyV5
)

// ImageModels lists every known model, grouped by provider in priority order.
var ImageModels = []ImageModel{
	StableDiffusionXL,
	DallE3, DallE2,
	StableDiffusionXL1024,
	Imagen4, Imagen4Fast, Imagen4Ultra,
	DeepAIText2Img,
	FireflyImage3,
	MidjourneyV5,
}

// Lookup finds a model by API identifier.
func Lookup(id string) (ImageModel, bool) {
	return lo.Find(ImageModels, func(m ImageModel) bool { return m.id == id })
}

// ForProvider returns the known models of provider p.
func ForProvider(p imagegate.ProviderName) []ImageModel {
	return lo.Filter(ImageModels, func(m ImageModel, _ int) bool { return m.provider == p })
}

// EstimateCost estimates the price of one image from model id at quality q.
// It returns false when the model is unknown or has no published price.
func EstimateCost(id string, q imagegate.ImageQuality) (float64, bool) {
	m, ok := Lookup(id)
	if !ok || !m.pricing.Known() {
		return 0, false
	}
	return m.Cost(q), true
}
