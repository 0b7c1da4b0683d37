// Package openai implements the DALL-E image provider on the OpenAI SDK.
package openai

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/model"
)

const DefaultTimeout = 120 * time.Second

var (
	// DefaultModel is used for text to image requests.
	DefaultModel = model.DefaultOpenAIModel.String()
	// EditModel is the only model accepting a source image.
	EditModel = model.DallE2.String()
)

// Provider generates images with DALL-E.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	client     openai.Client
}

// Option configures the provider.
type Option func(*Provider)

// WithModel sets the default generation model.
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

// New creates the provider. An empty key leaves it unconfigured.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  strings.TrimSpace(apiKey),
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	// SDK retries stay off; fallback happens in the gateway.
	sdkOpts := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(p.httpClient))
	}
	p.client = openai.NewClient(sdkOpts...)
	return p
}

func (p *Provider) Name() imagegate.ProviderName { return imagegate.ProviderOpenAI }
func (p *Provider) IsConfigured() bool           { return p.apiKey != "" }
func (p *Provider) SupportsEdit() bool           { return true }

// GenerateImage creates an image, or edits the source image when one is given.
func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	options := imagegate.ApplyImageOptions(opts...)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if options.SourceImage != nil {
		return p.edit(ctx, prompt, options)
	}
	return p.generate(ctx, prompt, options)
}

func (p *Provider) generate(ctx context.Context, prompt string, options *imagegate.ImageOptions) (*imagegate.Result, error) {
	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	size := snapSize(options.SizeOrDefault())
	params := openai.ImageGenerateParams{
		Model:          openai.ImageModel(model),
		Prompt:         prompt,
		N:              openai.Int(1),
		Size:           size,
		Quality:        convertQuality(options.Quality),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	}
	if style := convertStyle(options.Style); style != "" {
		params.Style = style
	}

	log.FromContextOrDiscard(ctx).Debug("openai image request", "model", model, "size", size, "quality", params.Quality)
	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderOpenAI, wrapError(err))
	}
	return p.toResult(resp, model, string(size))
}

func (p *Provider) edit(ctx context.Context, prompt string, options *imagegate.ImageOptions) (*imagegate.Result, error) {
	src := options.SourceImage
	mime := src.MIMEType
	if mime == "" {
		mime = "image/png"
	}

	params := openai.ImageEditParams{
		Image: openai.ImageEditParamsImageUnion{
			OfFile: openai.File(bytes.NewReader(src.Data), "image"+extension(mime), mime),
		},
		Prompt:         prompt,
		Model:          openai.ImageModel(EditModel),
		N:              openai.Int(1),
		Size:           openai.ImageEditParamsSize1024x1024,
		ResponseFormat: openai.ImageEditParamsResponseFormatURL,
	}

	log.FromContextOrDiscard(ctx).Debug("openai image edit request", "model", EditModel, "bytes", len(src.Data))
	resp, err := p.client.Images.Edit(ctx, params)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderOpenAI, wrapError(err))
	}
	return p.toResult(resp, EditModel, string(openai.ImageEditParamsSize1024x1024))
}

func (p *Provider) toResult(resp *openai.ImagesResponse, model, size string) (*imagegate.Result, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, imagegate.NewProviderError(imagegate.ProviderOpenAI, imagegate.ErrEmptyResult)
	}

	img := resp.Data[0]
	url := img.URL
	if url == "" && img.B64JSON != "" {
		url = "data:image/png;base64," + img.B64JSON
	}
	if url == "" {
		return nil, imagegate.NewProviderError(imagegate.ProviderOpenAI, imagegate.ErrEmptyResult)
	}

	meta := map[string]string{"size": size}
	if img.RevisedPrompt != "" {
		meta["revised_prompt"] = img.RevisedPrompt
	}
	return &imagegate.Result{
		URL:      url,
		Provider: imagegate.ProviderOpenAI,
		Model:    model,
		Metadata: meta,
	}, nil
}

// snapSize maps any requested size to the closest DALL-E 3 size by aspect ratio.
func snapSize(size imagegate.ImageSize) openai.ImageGenerateParamsSize {
	w, h, ok := size.Dimensions()
	if !ok {
		return openai.ImageGenerateParamsSize1024x1024
	}
	ratio := float64(w) / float64(h)
	switch {
	case ratio > 1.5:
		return openai.ImageGenerateParamsSize1792x1024
	case ratio < 0.67:
		return openai.ImageGenerateParamsSize1024x1792
	default:
		return openai.ImageGenerateParamsSize1024x1024
	}
}

func convertQuality(q imagegate.ImageQuality) openai.ImageGenerateParamsQuality {
	if q.IsHigh() {
		return openai.ImageGenerateParamsQualityHD
	}
	return openai.ImageGenerateParamsQualityStandard
}

func convertStyle(s imagegate.ImageStyle) openai.ImageGenerateParamsStyle {
	switch s {
	case imagegate.ImageStyleVivid:
		return openai.ImageGenerateParamsStyleVivid
	case imagegate.ImageStyleNatural:
		return openai.ImageGenerateParamsStyleNatural
	default:
		return ""
	}
}

func extension(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
