// Package google implements the Imagen image provider on the Google GenAI SDK.
package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/model"
	"google.golang.org/genai"
)

const DefaultTimeout = 120 * time.Second

// DefaultModel is used when a request names no model.
var DefaultModel = model.DefaultImagenModel.String()

// Provider generates images with Imagen through the Gemini API.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client

	mu     sync.Mutex
	client *genai.Client
}

// Option configures the provider.
type Option func(*Provider)

// WithModel sets the default Imagen model.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL points the SDK at another API root.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithTimeout bounds a single provider call.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// New creates the provider. The SDK client is built on first use.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  strings.TrimSpace(apiKey),
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() imagegate.ProviderName { return imagegate.ProviderGoogle }
func (p *Provider) IsConfigured() bool           { return p.apiKey != "" }

// getClient returns the SDK client, creating it once.
func (p *Provider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:     p.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	p.client = client
	return client, nil
}

// GenerateImage creates an image from the prompt with Imagen.
func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	options := imagegate.ApplyImageOptions(opts...)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderGoogle, err)
	}

	model := p.model
	if options.Model != "" {
		model = options.Model
	}
	config := buildConfig(options)

	log.FromContextOrDiscard(ctx).Debug("google image request", "model", model, "aspect_ratio", config.AspectRatio)
	resp, err := client.Models.GenerateImages(ctx, model, prompt, config)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderGoogle, wrapError(err))
	}
	return toResult(resp, model, config.AspectRatio)
}

func buildConfig(options *imagegate.ImageOptions) *genai.GenerateImagesConfig {
	config := &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		AspectRatio:      aspectRatio(options.SizeOrDefault()),
		IncludeRAIReason: true,
	}
	if neg := options.Extra["negative_prompt"]; neg != "" {
		config.NegativePrompt = neg
	}
	return config
}

func toResult(resp *genai.GenerateImagesResponse, model, ratio string) (*imagegate.Result, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, imagegate.NewProviderError(imagegate.ProviderGoogle, imagegate.ErrEmptyResult)
	}

	img := resp.GeneratedImages[0]
	if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
		if img != nil && img.RAIFilteredReason != "" {
			return nil, imagegate.NewProviderError(imagegate.ProviderGoogle,
				imagegate.NewUserInputError("image filtered: "+img.RAIFilteredReason, 0, nil))
		}
		return nil, imagegate.NewProviderError(imagegate.ProviderGoogle, imagegate.ErrEmptyResult)
	}

	return &imagegate.Result{
		URL:      imagegate.DataURI(img.Image.MIMEType, img.Image.ImageBytes),
		Provider: imagegate.ProviderGoogle,
		Model:    model,
		Metadata: map[string]string{"aspect_ratio": ratio},
	}, nil
}

// aspectRatio maps a size to the closest Imagen aspect ratio.
func aspectRatio(size imagegate.ImageSize) string {
	w, h, ok := size.Dimensions()
	if !ok {
		return "1:1"
	}
	ratio := float64(w) / float64(h)
	switch {
	case ratio >= 1.6:
		return "16:9"
	case ratio >= 1.2:
		return "4:3"
	case ratio <= 0.625:
		return "9:16"
	case ratio <= 0.83:
		return "3:4"
	default:
		return "1:1"
	}
}
