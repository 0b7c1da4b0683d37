// Package gateway selects providers for a prompt and runs the generation,
// either against one named provider or across every configured provider.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/registry"
)

// Gateway orchestrates generations over a registry. It holds no per-request
// state and is safe for concurrent use.
type Gateway struct {
	registry *registry.Registry
	events   chan<- Event
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithEvents sets a channel that receives orchestration events.
// Events are sent non-blocking; if the channel is full, events are dropped.
func WithEvents(ch chan<- Event) Option {
	return func(g *Gateway) {
		g.events = ch
	}
}

// New creates a gateway over reg.
func New(reg *registry.Registry, opts ...Option) *Gateway {
	g := &Gateway{registry: reg}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry returns the registry the gateway selects from.
func (g *Gateway) Registry() *registry.Registry {
	return g.registry
}

// Generate produces an image for prompt.
//
// An empty hint or imagegate.ProviderAll tries every configured provider in
// priority order, strictly one after another, and returns the first success.
// Any other hint targets that provider alone. A source image in opts limits
// the candidates to edit capable providers.
func (g *Gateway) Generate(ctx context.Context, prompt string, hint imagegate.ProviderName, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is empty", imagegate.ErrInvalidPrompt)
	}
	if !utf8.ValidString(prompt) {
		return nil, fmt.Errorf("%w: prompt is not valid UTF-8 text", imagegate.ErrInvalidPrompt)
	}

	edit := imagegate.ApplyImageOptions(opts...).SourceImage != nil
	if hint.IsFanOut() {
		return g.fanOut(ctx, prompt, edit, opts)
	}
	return g.targeted(ctx, prompt, hint, edit, opts)
}

func (g *Gateway) targeted(ctx context.Context, prompt string, name imagegate.ProviderName, edit bool, opts []imagegate.ImageOption) (*imagegate.Result, error) {
	p, err := g.registry.Get(name)
	if err != nil {
		return nil, err
	}
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s has no credentials", imagegate.ErrProviderNotConfigured, name)
	}
	if edit && !imagegate.SupportsEdit(p) {
		return nil, fmt.Errorf("%w: %s does not accept a source image", imagegate.ErrUnsupportedOperation, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	return g.attempt(ctx, p, prompt, opts, attemptInfo{mode: ModeTargeted, n: 1, of: 1, edit: edit})
}

func (g *Gateway) fanOut(ctx context.Context, prompt string, edit bool, opts []imagegate.ImageOption) (*imagegate.Result, error) {
	logger := log.FromContextOrDiscard(ctx)

	candidates := make([]imagegate.Provider, 0)
	for _, name := range g.registry.Configured() {
		p, err := g.registry.Get(name)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, imagegate.ErrNoProvidersConfigured
	}
	if edit {
		candidates = lo.Filter(candidates, func(p imagegate.Provider, _ int) bool {
			return imagegate.SupportsEdit(p)
		})
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no configured provider accepts a source image", imagegate.ErrUnsupportedOperation)
		}
	}

	var attempts []imagegate.AttemptError
	for i, p := range candidates {
		if err := ctx.Err(); err != nil {
			if len(attempts) == 0 {
				return nil, cancelled(err)
			}
			return nil, attempts[len(attempts)-1].Err
		}

		res, err := g.attempt(ctx, p, prompt, opts, attemptInfo{mode: ModeFanOut, n: i + 1, of: len(candidates), edit: edit})
		if err == nil {
			return res, nil
		}
		attempts = append(attempts, imagegate.AttemptError{Provider: p.Name(), Err: err})
		if ctx.Err() != nil {
			return nil, err
		}
	}

	err := &imagegate.AllProvidersFailedError{Attempts: attempts}
	emit(g.events, Event{
		Type:       EventExhausted,
		Mode:       ModeFanOut,
		Candidates: len(candidates),
		Edit:       edit,
		Error:      err,
	})
	logger.Warn("all providers failed", "attempts", len(attempts))
	return nil, err
}

type attemptInfo struct {
	mode Mode
	n    int
	of   int
	edit bool
}

// attempt calls one provider and normalizes its outcome. A nil result or an
// empty URL is a failure even without an error.
func (g *Gateway) attempt(ctx context.Context, p imagegate.Provider, prompt string, opts []imagegate.ImageOption, info attemptInfo) (*imagegate.Result, error) {
	name := p.Name()
	logger := log.FromContextOrDiscard(ctx).With("provider", name, "mode", info.mode)
	base := Event{
		Mode:       info.mode,
		Provider:   name,
		Attempt:    info.n,
		Candidates: info.of,
		Edit:       info.edit,
	}

	ev := base
	ev.Type = EventAttemptStart
	emit(g.events, ev)
	logger.Info("attempting provider", "attempt", info.n, "candidates", info.of, log.Prompt(prompt))

	start := time.Now()
	res, err := p.GenerateImage(ctx, prompt, opts...)
	elapsed := time.Since(start)
	if err == nil && (res == nil || res.URL == "") {
		err = imagegate.ErrEmptyResult
	}
	if err != nil {
		pe := imagegate.NewProviderError(name, err)
		ev := base
		ev.Type = EventAttemptFailed
		ev.Duration = elapsed
		ev.Error = pe
		emit(g.events, ev)
		logger.Warn("provider failed", "attempt", info.n, "duration", elapsed, "error", pe.Cause)
		return nil, pe
	}

	out := *res
	if out.Provider == "" {
		out.Provider = name
	}
	ev = base
	ev.Type = EventSuccess
	ev.Model = out.Model
	ev.Duration = elapsed
	emit(g.events, ev)
	logger.Info("provider succeeded", "attempt", info.n, "duration", elapsed)
	return &out, nil
}

// cancelled reports a generation abandoned before any provider was called.
func cancelled(ctxErr error) error {
	return fmt.Errorf("%w: %w", imagegate.ErrCancelled, ctxErr)
}
