// Package stability implements the Stability AI text-to-image provider.
package stability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/model"
)

const (
	DefaultBaseURL = "https://api.stability.ai/v1/generation"
	DefaultTimeout = 120 * time.Second

	cfgScale      = 7.5
	defaultSteps  = 30
	highSteps     = 50
	maxImageBytes = 32 << 20
)

// DefaultModel is the engine used when a request names none.
var DefaultModel = model.DefaultStabilityModel.String()

// Provider generates images with the Stability AI REST API.
type Provider struct {
	apiKey     string
	baseURL    string
	engine     string
	httpClient *http.Client
}

// Option configures the provider.
type Option func(*Provider)

// WithEngine sets the engine id, e.g. "stable-diffusion-xl-1024-v1-0".
func WithEngine(engine string) Option {
	return func(p *Provider) {
		p.engine = engine
	}
}

// WithBaseURL replaces the generation API root.
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
		engine:     DefaultModel,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() imagegate.ProviderName { return imagegate.ProviderStability }
func (p *Provider) IsConfigured() bool           { return p.apiKey != "" }

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type request struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Steps       int          `json:"steps"`
	CfgScale    float64      `json:"cfg_scale"`
	Samples     int          `json:"samples"`
	Seed        int64        `json:"seed,omitempty"`
	StylePreset string       `json:"style_preset,omitempty"`
}

type artifact struct {
	Base64       string `json:"base64"`
	Seed         int64  `json:"seed"`
	FinishReason string `json:"finishReason"`
}

type response struct {
	Artifacts []artifact `json:"artifacts"`
}

type errorResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// GenerateImage renders the prompt and returns the first artifact as a data URI.
//
// Extra keys: "negative_prompt", "seed", "style_preset".
func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	options := imagegate.ApplyImageOptions(opts...)

	engine := p.engine
	if options.Model != "" {
		engine = options.Model
	}
	width, height, ok := options.SizeOrDefault().Dimensions()
	if !ok {
		width, height, _ = imagegate.DefaultImageSize.Dimensions()
	}
	steps := defaultSteps
	if options.Quality.IsHigh() {
		steps = highSteps
	}

	body := request{
		TextPrompts: []textPrompt{{Text: prompt, Weight: 1}},
		Width:       width,
		Height:      height,
		Steps:       steps,
		CfgScale:    cfgScale,
		Samples:     1,
		StylePreset: options.Extra["style_preset"],
	}
	if neg := options.Extra["negative_prompt"]; neg != "" {
		body.TextPrompts = append(body.TextPrompts, textPrompt{Text: neg, Weight: -1})
	}
	if v := options.Extra["seed"]; v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, imagegate.NewProviderError(imagegate.ProviderStability,
				imagegate.NewUserInputError("invalid seed "+strconv.Quote(v), 0, err))
		}
		body.Seed = seed
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderStability, fmt.Errorf("encode request: %w", err))
	}
	endpoint := p.baseURL + "/" + engine + "/text-to-image"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderStability, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger := log.FromContextOrDiscard(ctx)
	logger.Debug("stability image request", "engine", engine, "width", width, "height", height, "steps", steps)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderStability, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderStability, fmt.Errorf("read response: %w", err))
	}
	if len(data) > maxImageBytes {
		return nil, imagegate.NewProviderError(imagegate.ProviderStability,
			fmt.Errorf("response exceeds %d bytes", maxImageBytes))
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		return nil, imagegate.NewProviderError(imagegate.ProviderStability,
			imagegate.NewStatusErrorWithRetry(msg, resp.StatusCode, imagegate.ParseRetryAfter(resp.Header), nil))
	}

	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderStability, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Artifacts) == 0 || out.Artifacts[0].Base64 == "" {
		return nil, imagegate.NewProviderError(imagegate.ProviderStability, imagegate.ErrEmptyResult)
	}
	art := out.Artifacts[0]
	if art.FinishReason == "CONTENT_FILTERED" || art.FinishReason == "ERROR" {
		return nil, imagegate.NewProviderError(imagegate.ProviderStability,
			imagegate.NewPermanentError("generation finished with "+art.FinishReason, resp.StatusCode, nil))
	}

	logger.Debug("stability image received", "seed", art.Seed, "finish_reason", art.FinishReason)
	return &imagegate.Result{
		URL:      "data:image/png;base64," + art.Base64,
		Provider: imagegate.ProviderStability,
		Model:    engine,
		Metadata: map[string]string{
			"seed":  strconv.FormatInt(art.Seed, 10),
			"size":  fmt.Sprintf("%dx%d", width, height),
			"steps": strconv.Itoa(steps),
		},
	}, nil
}
