package imagegate

import "context"

// ProviderName identifies an image generation provider.
type ProviderName string

// String returns the provider identifier.
func (p ProviderName) String() string { return string(p) }

// Supported providers, listed in default priority order.
const (
	ProviderHuggingFace ProviderName = "huggingface"
	ProviderOpenAI      ProviderName = "openai"
	ProviderStability   ProviderName = "stability"
	ProviderGoogle      ProviderName = "google"
	ProviderDeepAI      ProviderName = "deepai"
	ProviderFirefly     ProviderName = "firefly"
	ProviderMidjourney  ProviderName = "midjourney"
)

// ProviderAll is the hint that asks the gateway to try every configured provider.
const ProviderAll ProviderName = "all"

// IsFanOut reports whether the hint selects every configured provider rather than one.
func (p ProviderName) IsFanOut() bool {
	return p == "" || p == ProviderAll
}

// Provider is the capability contract implemented by every provider adapter.
//
// Implementations must be safe for concurrent use. Configuration state is fixed
// at construction; IsConfigured must not perform network I/O.
type Provider interface {
	// Name returns the provider identity, unique within a registry.
	Name() ProviderName

	// IsConfigured reports whether the credentials required by the provider are present.
	IsConfigured() bool

	// GenerateImage creates an image from the prompt. A nil error always comes
	// with a result carrying a non-empty URL.
	GenerateImage(ctx context.Context, prompt string, opts ...ImageOption) (*Result, error)
}

// EditCapable is implemented by providers that can work from a source image.
type EditCapable interface {
	SupportsEdit() bool
}

// SupportsEdit reports whether p declares source-image support.
func SupportsEdit(p Provider) bool {
	ec, ok := p.(EditCapable)
	return ok && ec.SupportsEdit()
}
