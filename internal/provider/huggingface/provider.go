// Package huggingface implements the Stable Diffusion provider on the
// Hugging Face inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/model"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co/models"
	DefaultTimeout = 120 * time.Second

	standardSteps = 30
	highSteps     = 50
	guidanceScale = 7.5

	maxImageBytes = 32 << 20
)

// DefaultModel is the model repository used when a request names none.
var DefaultModel = model.DefaultHuggingFaceModel.String()

// Provider generates images through a hosted diffusion model.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	maxBytes   int64
	httpClient *http.Client
}

// Option configures the provider.
type Option func(*Provider)

// WithModel sets the model repository, e.g. "stabilityai/stable-diffusion-xl-base-1.0".
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL replaces the inference API root.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithMaxImageBytes caps the size of a returned image (default: 32 MiB).
func WithMaxImageBytes(n int64) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxBytes = n
		}
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

// New creates the provider. An empty token leaves it unconfigured.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxBytes:   maxImageBytes,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() imagegate.ProviderName { return imagegate.ProviderHuggingFace }
func (p *Provider) IsConfigured() bool           { return p.apiKey != "" }

type parameters struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type errorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// GenerateImage runs the model and returns the image as a data URI.
func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	options := imagegate.ApplyImageOptions(opts...)
	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	size := options.SizeOrDefault()
	width, height, ok := size.Dimensions()
	if !ok {
		size = imagegate.DefaultImageSize
		width, height, _ = size.Dimensions()
	}
	steps := standardSteps
	if options.Quality.IsHigh() {
		steps = highSteps
	}
	if v, err := strconv.Atoi(options.Extra["num_inference_steps"]); err == nil && v > 0 {
		steps = v
	}
	guidance := guidanceScale
	if v, err := strconv.ParseFloat(options.Extra["guidance_scale"], 64); err == nil && v > 0 {
		guidance = v
	}

	body, err := json.Marshal(request{
		Inputs: prompt,
		Parameters: parameters{
			Width:             width,
			Height:            height,
			NumInferenceSteps: steps,
			GuidanceScale:     guidance,
			NegativePrompt:    options.Extra["negative_prompt"],
		},
	})
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png, image/jpeg, application/json")

	logger := log.FromContextOrDiscard(ctx)
	logger.Debug("huggingface image request", "model", model, "size", size, "steps", steps)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace, fmt.Errorf("read response: %w", err))
	}
	if int64(len(data)) > p.maxBytes {
		return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace,
			fmt.Errorf("response exceeds %d bytes", p.maxBytes))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace, statusError(resp, data))
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace, imagegate.NewPermanentError(e.Error, resp.StatusCode, nil))
		}
		return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace, imagegate.ErrEmptyResult)
	}
	if len(data) == 0 {
		return nil, imagegate.NewProviderError(imagegate.ProviderHuggingFace, imagegate.ErrEmptyResult)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/jpeg"
	}

	logger.Debug("huggingface image received", "bytes", len(data), "content_type", mediaType)
	return &imagegate.Result{
		URL:      imagegate.DataURI(mediaType, data),
		Provider: imagegate.ProviderHuggingFace,
		Model:    model,
		Metadata: map[string]string{
			"size":  fmt.Sprintf("%dx%d", width, height),
			"steps": fmt.Sprint(steps),
		},
	}, nil
}

// statusError turns a non-200 response into a categorized error.
// A 503 means the model is still loading on the inference cluster.
func statusError(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	var e errorResponse
	msg := http.StatusText(code)
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	if code == http.StatusServiceUnavailable {
		if e.EstimatedTime > 0 {
			return imagegate.NewTransientErrorWithRetry("model is loading: "+msg, code,
				time.Duration(e.EstimatedTime*float64(time.Second)), nil)
		}
		return imagegate.NewTransientError("model is loading: "+msg, code, nil)
	}
	return imagegate.NewStatusErrorWithRetry(msg, code, imagegate.ParseRetryAfter(resp.Header), nil)
}
