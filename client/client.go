package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/gateway"
	"github.com/spetersoncode/imagegate/internal/provider/deepai"
	"github.com/spetersoncode/imagegate/internal/provider/firefly"
	"github.com/spetersoncode/imagegate/internal/provider/google"
	"github.com/spetersoncode/imagegate/internal/provider/huggingface"
	"github.com/spetersoncode/imagegate/internal/provider/midjourney"
	"github.com/spetersoncode/imagegate/internal/provider/openai"
	"github.com/spetersoncode/imagegate/internal/provider/stability"
	"github.com/spetersoncode/imagegate/poll"
	"github.com/spetersoncode/imagegate/registry"
)

// APIKeys holds API keys for different providers.
// A provider without a key is registered but left unconfigured.
type APIKeys struct {
	HuggingFace string
	OpenAI      string
	Stability   string
	Google      string
	DeepAI      string
	Midjourney  string

	// Firefly is the Adobe client id; FireflyToken the OAuth access token.
	// Both are required.
	Firefly      string
	FireflyToken string
}

// BaseURLs overrides provider API roots, e.g. for proxies or tests.
// Empty fields keep the provider default.
type BaseURLs struct {
	HuggingFace string
	OpenAI      string
	Stability   string
	Google      string
	DeepAI      string
	Firefly     string
	Midjourney  string
}

// DefaultProviderTimeout bounds a single provider request.
const DefaultProviderTimeout = 120 * time.Second

// Config holds configuration for creating a unified client.
type Config struct {
	// APIKeys contains authentication keys for each provider.
	APIKeys APIKeys

	// BaseURLs optionally overrides provider endpoints.
	BaseURLs BaseURLs

	// ProviderTimeout bounds each provider request (default: 120s).
	// For job based providers it bounds each submit and status request.
	ProviderTimeout time.Duration

	// PollConfig sets the job polling budget.
	// If nil, uses poll.DefaultConfig (30 attempts, 10s apart).
	PollConfig *poll.Config

	// HTTPClient is shared by the raw HTTP adapters when set.
	HTTPClient *http.Client

	// Events is an optional channel for receiving orchestration events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- gateway.Event

	// PollEvents is an optional channel for receiving job poller events.
	PollEvents chan<- poll.Event
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	defaultImageOpts []imagegate.ImageOption
	providers        []imagegate.Provider
}

// WithDefaultImageOptions sets default options for all generations.
// Per-request options override these defaults.
func WithDefaultImageOptions(opts ...imagegate.ImageOption) ClientOption {
	return func(o *clientOptions) {
		o.defaultImageOpts = append(o.defaultImageOpts, opts...)
	}
}

// WithProviders replaces the built-in adapters with providers, in priority order.
func WithProviders(providers ...imagegate.Provider) ClientOption {
	return func(o *clientOptions) {
		o.providers = providers
	}
}

// Client is the unified entry point: every adapter registered in priority
// order behind one gateway.
type Client struct {
	registry         *registry.Registry
	gateway          *gateway.Gateway
	defaultImageOpts []imagegate.ImageOption
}

// New builds the adapters from cfg, registers them in priority order
// (huggingface, openai, stability, google, deepai, firefly, midjourney) and
// returns the client.
// Missing keys never fail construction.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	providers := o.providers
	if providers == nil {
		providers = buildProviders(cfg)
	}
	reg, err := registry.New(providers...)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	var gwOpts []gateway.Option
	if cfg.Events != nil {
		gwOpts = append(gwOpts, gateway.WithEvents(cfg.Events))
	}
	return &Client{
		registry:         reg,
		gateway:          gateway.New(reg, gwOpts...),
		defaultImageOpts: o.defaultImageOpts,
	}, nil
}

func buildProviders(cfg Config) []imagegate.Provider {
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	pollCfg := poll.DefaultConfig()
	if cfg.PollConfig != nil {
		pollCfg = *cfg.PollConfig
	}

	hfOpts := []huggingface.Option{huggingface.WithTimeout(timeout)}
	oaOpts := []openai.Option{openai.WithTimeout(timeout)}
	stOpts := []stability.Option{stability.WithTimeout(timeout)}
	ggOpts := []google.Option{google.WithTimeout(timeout)}
	daOpts := []deepai.Option{deepai.WithTimeout(timeout)}
	ffOpts := []firefly.Option{firefly.WithTimeout(timeout)}
	mjOpts := []midjourney.Option{midjourney.WithTimeout(timeout), midjourney.WithPollConfig(pollCfg)}

	if cfg.HTTPClient != nil {
		hfOpts = append(hfOpts, huggingface.WithHTTPClient(cfg.HTTPClient))
		oaOpts = append(oaOpts, openai.WithHTTPClient(cfg.HTTPClient))
		stOpts = append(stOpts, stability.WithHTTPClient(cfg.HTTPClient))
		ggOpts = append(ggOpts, google.WithHTTPClient(cfg.HTTPClient))
		daOpts = append(daOpts, deepai.WithHTTPClient(cfg.HTTPClient))
		ffOpts = append(ffOpts, firefly.WithHTTPClient(cfg.HTTPClient))
		mjOpts = append(mjOpts, midjourney.WithHTTPClient(cfg.HTTPClient))
	}
	if u := cfg.BaseURLs.HuggingFace; u != "" {
		hfOpts = append(hfOpts, huggingface.WithBaseURL(u))
	}
	if u := cfg.BaseURLs.OpenAI; u != "" {
		oaOpts = append(oaOpts, openai.WithBaseURL(u))
	}
	if u := cfg.BaseURLs.Stability; u != "" {
		stOpts = append(stOpts, stability.WithBaseURL(u))
	}
	if u := cfg.BaseURLs.Google; u != "" {
		ggOpts = append(ggOpts, google.WithBaseURL(u))
	}
	if u := cfg.BaseURLs.DeepAI; u != "" {
		daOpts = append(daOpts, deepai.WithBaseURL(u))
	}
	if u := cfg.BaseURLs.Firefly; u != "" {
		ffOpts = append(ffOpts, firefly.WithBaseURL(u))
	}
	if u := cfg.BaseURLs.Midjourney; u != "" {
		mjOpts = append(mjOpts, midjourney.WithBaseURL(u))
	}
	if cfg.PollEvents != nil {
		mjOpts = append(mjOpts, midjourney.WithPollEvents(cfg.PollEvents))
	}

	return []imagegate.Provider{
		huggingface.New(cfg.APIKeys.HuggingFace, hfOpts...),
		openai.New(cfg.APIKeys.OpenAI, oaOpts...),
		stability.New(cfg.APIKeys.Stability, stOpts...),
		google.New(cfg.APIKeys.Google, ggOpts...),
		deepai.New(cfg.APIKeys.DeepAI, daOpts...),
		firefly.New(cfg.APIKeys.Firefly, cfg.APIKeys.FireflyToken, ffOpts...),
		midjourney.New(cfg.APIKeys.Midjourney, mjOpts...),
	}
}

// Generate produces an image for prompt. See gateway.Gateway.Generate for the
// selection rules of hint.
func (c *Client) Generate(ctx context.Context, prompt string, hint imagegate.ProviderName, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	if len(c.defaultImageOpts) > 0 {
		opts = append(append([]imagegate.ImageOption{}, c.defaultImageOpts...), opts...)
	}
	return c.gateway.Generate(ctx, prompt, hint, opts...)
}

// Registry returns the provider registry.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

// Providers reports the status of every registered provider in priority order.
func (c *Client) Providers() []registry.ProviderStatus {
	return c.registry.Status()
}

// Configured reports whether at least one provider has credentials.
func (c *Client) Configured() bool {
	return len(c.registry.Configured()) > 0
}
