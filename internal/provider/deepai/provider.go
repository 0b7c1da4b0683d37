// Package deepai implements the DeepAI text2img provider.
package deepai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/model"
)

const (
	DefaultBaseURL = "https://api.deepai.org/api"
	DefaultTimeout = 120 * time.Second
)

// Provider generates images with the DeepAI API.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures the provider.
type Option func(*Provider)

// WithBaseURL replaces the API root.
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout bounds a single provider call.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient = &http.Client{Timeout: d}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// New creates the provider. An empty key leaves it unconfigured.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() imagegate.ProviderName { return imagegate.ProviderDeepAI }
func (p *Provider) IsConfigured() bool           { return p.apiKey != "" }

type response struct {
	ID        string `json:"id"`
	OutputURL string `json:"output_url"`
	Err       string `json:"err"`
	Error     string `json:"error"`
	Status    string `json:"status"`
}

func (r response) message() string {
	switch {
	case r.Err != "":
		return r.Err
	case r.Error != "":
		return r.Error
	default:
		return r.Status
	}
}

// GenerateImage submits the prompt and returns the hosted image URL.
func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	options := imagegate.ApplyImageOptions(opts...)

	form := url.Values{"text": {prompt}}
	if w, h, ok := options.SizeOrDefault().Dimensions(); ok {
		form.Set("width", fmt.Sprint(w))
		form.Set("height", fmt.Sprint(h))
	}
	if options.Quality.IsHigh() {
		form.Set("image_generator_version", "hd")
	}
	if neg := options.Extra["negative_prompt"]; neg != "" {
		form.Set("negative_prompt", neg)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+model.DeepAIText2Img.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderDeepAI, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	logger := log.FromContextOrDiscard(ctx)
	logger.Debug("deepai image request", "fields", len(form))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderDeepAI, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderDeepAI, fmt.Errorf("read response: %w", err))
	}

	var out response
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.message() != "" {
			msg = out.message()
		}
		return nil, imagegate.NewProviderError(imagegate.ProviderDeepAI, imagegate.NewStatusErrorWithRetry(msg, resp.StatusCode, imagegate.ParseRetryAfter(resp.Header), nil))
	}
	if decodeErr != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderDeepAI, fmt.Errorf("decode response: %w", decodeErr))
	}
	if out.OutputURL == "" {
		if msg := out.message(); msg != "" {
			return nil, imagegate.NewProviderError(imagegate.ProviderDeepAI, imagegate.NewPermanentError(msg, resp.StatusCode, nil))
		}
		return nil, imagegate.NewProviderError(imagegate.ProviderDeepAI, imagegate.ErrEmptyResult)
	}

	logger.Debug("deepai image received", "id", out.ID)
	meta := map[string]string{}
	if out.ID != "" {
		meta["id"] = out.ID
	}
	return &imagegate.Result{
		URL:      out.OutputURL,
		Provider: imagegate.ProviderDeepAI,
		Model:    model.DeepAIText2Img.String(),
		Metadata: meta,
	}, nil
}
