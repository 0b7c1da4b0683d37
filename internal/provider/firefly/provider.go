// Package firefly implements the Adobe Firefly image generation provider.
//
// Firefly authenticates with two credentials: the client id sent as
// x-api-key and an OAuth access token sent as a bearer token.
package firefly

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
	DefaultBaseURL = "https://firefly-api.adobe.io/v3"
	DefaultTimeout = 120 * time.Second
)

// DefaultModel is the model version requested when a request names none.
var DefaultModel = model.DefaultFireflyModel.String()

// Provider generates images with the Firefly Services API.
type Provider struct {
	clientID    string
	accessToken string
	baseURL     string
	model       string
	httpClient  *http.Client
}

// Option configures the provider.
type Option func(*Provider)

// WithModel sets the model version header, e.g. "image3".
func WithModel(m string) Option {
	return func(p *Provider) {
		p.model = m
	}
}

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

// New creates the provider. It is configured only when both credentials are set.
func New(clientID, accessToken string, opts ...Option) *Provider {
	p := &Provider{
		clientID:    strings.TrimSpace(clientID),
		accessToken: strings.TrimSpace(accessToken),
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() imagegate.ProviderName { return imagegate.ProviderFirefly }
func (p *Provider) IsConfigured() bool           { return p.clientID != "" && p.accessToken != "" }

type size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type request struct {
	Prompt         string  `json:"prompt"`
	NumVariations  int     `json:"numVariations"`
	Size           size    `json:"size"`
	ContentClass   string  `json:"contentClass,omitempty"`
	NegativePrompt string  `json:"negativePrompt,omitempty"`
	Seeds          []int64 `json:"seeds,omitempty"`
}

type output struct {
	Seed  int64 `json:"seed"`
	Image struct {
		URL string `json:"url"`
	} `json:"image"`
	// URL is the flat shape returned by the older generate endpoint.
	URL string `json:"url"`
}

func (o output) url() string {
	if o.Image.URL != "" {
		return o.Image.URL
	}
	return o.URL
}

type response struct {
	Outputs      []output `json:"outputs"`
	ContentClass string   `json:"contentClass"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e errorResponse) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error.Message
}

// GenerateImage renders the prompt and returns the hosted URL of the first output.
//
// Extra keys: "content_class" (photo or art), "negative_prompt", "seed".
func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	options := imagegate.ApplyImageOptions(opts...)

	modelVersion := p.model
	if options.Model != "" {
		modelVersion = options.Model
	}
	width, height, ok := options.SizeOrDefault().Dimensions()
	if !ok {
		width, height, _ = imagegate.DefaultImageSize.Dimensions()
	}

	body := request{
		Prompt:         prompt,
		NumVariations:  1,
		Size:           size{Width: width, Height: height},
		ContentClass:   options.Extra["content_class"],
		NegativePrompt: options.Extra["negative_prompt"],
	}
	if v := options.Extra["seed"]; v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, imagegate.NewProviderError(imagegate.ProviderFirefly,
				imagegate.NewUserInputError("invalid seed "+strconv.Quote(v), 0, err))
		}
		body.Seeds = []int64{seed}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderFirefly, fmt.Errorf("encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/images/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderFirefly, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("x-api-key", p.clientID)
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("x-model-version", modelVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger := log.FromContextOrDiscard(ctx)
	logger.Debug("firefly image request", "model", modelVersion, "width", width, "height", height)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderFirefly, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderFirefly, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.message() != "" {
			msg = e.message()
		}
		return nil, imagegate.NewProviderError(imagegate.ProviderFirefly,
			imagegate.NewStatusErrorWithRetry(msg, resp.StatusCode, imagegate.ParseRetryAfter(resp.Header), nil))
	}

	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderFirefly, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Outputs) == 0 || out.Outputs[0].url() == "" {
		return nil, imagegate.NewProviderError(imagegate.ProviderFirefly, imagegate.ErrEmptyResult)
	}
	first := out.Outputs[0]

	logger.Debug("firefly image received", "seed", first.Seed, "content_class", out.ContentClass)
	meta := map[string]string{
		"seed": strconv.FormatInt(first.Seed, 10),
		"size": fmt.Sprintf("%dx%d", width, height),
	}
	if out.ContentClass != "" {
		meta["content_class"] = out.ContentClass
	}
	return &imagegate.Result{
		URL:      first.url(),
		Provider: imagegate.ProviderFirefly,
		Model:    modelVersion,
		Metadata: meta,
	}, nil
}
