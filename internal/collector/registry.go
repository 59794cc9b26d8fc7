package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/stocksage/internal/core"
)

// Registry manages data providers in registration order
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry, replacing one with the same name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// GetAll returns all registered providers in registration order
func (r *Registry) GetAll() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.providers[name])
	}
	return result
}

// Fallback returns a Provider over the registered providers. Series are asked
// of each provider in order and the first non-empty answer wins; if any
// provider failed and none had bars, the joined errors are returned so a
// failure is never reported as missing data. The current price only ever
// comes from the first provider: a later source cannot stand in for a live
// quote.
func (r *Registry) Fallback() Provider {
	return &fallback{registry: r}
}

type fallback struct {
	registry *Registry
}

func (f *fallback) Name() string { return "fallback" }

func (f *fallback) FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error) {
	providers := f.registry.GetAll()
	if len(providers) == 0 {
		return core.StockSeries{}, fmt.Errorf("no providers registered")
	}

	var errs []error
	var empty core.StockSeries
	for _, p := range providers {
		series, err := p.FetchSeries(ctx, ticker, start, end)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if !series.IsEmpty() {
			return series, nil
		}
		empty = series
	}
	if len(errs) > 0 {
		return core.StockSeries{}, errors.Join(errs...)
	}
	return empty, nil
}

func (f *fallback) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	providers := f.registry.GetAll()
	if len(providers) == 0 {
		return 0, fmt.Errorf("no providers registered")
	}

	primary := providers[0]
	price, err := primary.FetchCurrentPrice(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", primary.Name(), err)
	}
	return price, nil
}
