// Package registry holds the fixed set of provider adapters known to the gateway.
package registry

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spetersoncode/imagegate"
)

// ProviderStatus describes one registered provider.
type ProviderStatus struct {
	Name         imagegate.ProviderName `json:"name"`
	Configured   bool                   `json:"configured"`
	SupportsEdit bool                   `json:"supportsEdit"`
}

// Registry maps provider names to adapters. Registration order is priority order.
// It is immutable after New and safe for concurrent readers.
type Registry struct {
	order     []imagegate.Provider
	providers map[imagegate.ProviderName]imagegate.Provider
}

// New creates a registry from providers in priority order.
// It rejects nil providers, empty names and duplicate names.
func New(providers ...imagegate.Provider) (*Registry, error) {
	r := &Registry{
		order:     make([]imagegate.Provider, 0, len(providers)),
		providers: make(map[imagegate.ProviderName]imagegate.Provider, len(providers)),
	}
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("registry: provider at position %d is nil", i)
		}
		name := p.Name()
		if name == "" || name.IsFanOut() {
			return nil, fmt.Errorf("registry: provider at position %d has reserved name %q", i, name)
		}
		if _, dup := r.providers[name]; dup {
			return nil, fmt.Errorf("registry: duplicate provider %q", name)
		}
		r.providers[name] = p
		r.order = append(r.order, p)
	}
	return r, nil
}

// Get returns the provider registered under name, configured or not.
func (r *Registry) Get(name imagegate.ProviderName) (imagegate.Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", imagegate.ErrProviderNotFound, name)
	}
	return p, nil
}

// Names returns every registered provider name in priority order.
func (r *Registry) Names() []imagegate.ProviderName {
	return lo.Map(r.order, func(p imagegate.Provider, _ int) imagegate.ProviderName {
		return p.Name()
	})
}

// Configured returns the names of providers whose credentials are present, in priority order.
func (r *Registry) Configured() []imagegate.ProviderName {
	configured := lo.Filter(r.order, func(p imagegate.Provider, _ int) bool {
		return p.IsConfigured()
	})
	return lo.Map(configured, func(p imagegate.Provider, _ int) imagegate.ProviderName {
		return p.Name()
	})
}

// Status reports configuration and edit support for every provider in priority order.
func (r *Registry) Status() []ProviderStatus {
	return lo.Map(r.order, func(p imagegate.Provider, _ int) ProviderStatus {
		return ProviderStatus{
			Name:         p.Name(),
			Configured:   p.IsConfigured(),
			SupportsEdit: imagegate.SupportsEdit(p),
		}
	})
}

// IsNotFound reports whether err is a lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, imagegate.ErrProviderNotFound)
}
