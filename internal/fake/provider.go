// Package fake provides a scriptable imagegate.Provider for tests.
package fake

import (
	"context"
	"sync"

	"github.com/spetersoncode/imagegate"
)

// Provider is an in-memory provider whose behavior is set by its fields.
type Provider struct {
	ID         imagegate.ProviderName
	Configured bool
	Edit       bool

	// Result and Err are returned by GenerateImage unless Fn is set.
	Result *imagegate.Result
	Err    error
	Fn     func(ctx context.Context, prompt string, opts *imagegate.ImageOptions) (*imagegate.Result, error)

	mu      sync.Mutex
	calls   int
	prompts []string
	opts    []*imagegate.ImageOptions
}

// Succeeding returns a configured provider that answers with url.
func Succeeding(name imagegate.ProviderName, url string) *Provider {
	return &Provider{
		ID:         name,
		Configured: true,
		Result:     &imagegate.Result{URL: url, Provider: name},
	}
}

// Failing returns a configured provider that answers with err.
func Failing(name imagegate.ProviderName, err error) *Provider {
	return &Provider{ID: name, Configured: true, Err: err}
}

// Unconfigured returns a provider without credentials.
func Unconfigured(name imagegate.ProviderName) *Provider {
	return &Provider{ID: name}
}

func (p *Provider) Name() imagegate.ProviderName { return p.ID }
func (p *Provider) IsConfigured() bool           { return p.Configured }
func (p *Provider) SupportsEdit() bool           { return p.Edit }

func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	o := imagegate.ApplyImageOptions(opts...)

	p.mu.Lock()
	p.calls++
	p.prompts = append(p.prompts, prompt)
	p.opts = append(p.opts, o)
	p.mu.Unlock()

	if p.Fn != nil {
		return p.Fn(ctx, prompt, o)
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Result, nil
}

// Calls returns the number of GenerateImage invocations.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Prompts returns the prompts received, in call order.
func (p *Provider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

// LastOptions returns the options of the most recent call, or nil.
func (p *Provider) LastOptions() *imagegate.ImageOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.opts) == 0 {
		return nil
	}
	return p.opts[len(p.opts)-1]
}
