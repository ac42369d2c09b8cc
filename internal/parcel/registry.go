package parcel

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/parcel-geo/internal/county"
)

// Registry maps county names to their providers. Lookups fold case,
// accents and whitespace so "Miami-Dade" and "miami-dade" resolve alike.
type Registry struct {
	providers map[string]Provider
	order     []string // folded keys in insertion order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider under its county. Registering a second provider
// for the same county is an error.
func (r *Registry) Register(p Provider) error {
	key := county.Fold(p.County())
	if key == "" {
		return eris.New("parcel: provider has empty county")
	}
	if _, dup := r.providers[key]; dup {
		return eris.Errorf("parcel: county %q already registered", p.County())
	}
	r.providers[key] = p
	r.order = append(r.order, key)
	return nil
}

// Get returns the provider for a county.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[county.Fold(name)]
	if !ok {
		return nil, eris.Errorf("parcel: unknown county %q", name)
	}
	return p, nil
}

// All returns all providers in registration order.
func (r *Registry) All() []Provider {
	result := make([]Provider, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.providers[key])
	}
	return result
}

// Counties returns the registered county labels in registration order.
func (r *Registry) Counties() []string {
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.providers[key].County())
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int { return len(r.order) }

// LoadAll loads every provider, at most limit at a time (limit <= 0 means
// unbounded), and returns the first failure.
func (r *Registry) LoadAll(ctx context.Context, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, p := range r.All() {
		g.Go(func() error {
			if err := p.Load(gctx); err != nil {
				zap.L().Warn("parcel: provider load failed",
					zap.String("county", p.County()),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
