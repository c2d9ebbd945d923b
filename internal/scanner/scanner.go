package scanner

import (
	"context"
	"fmt"
	"sort"

	"DesignCatalog/internal/domain"
)

// Adapter queries one repository's search interface.
type Adapter interface {
	Name() string
	Search(ctx context.Context, term string, maxPages int) ([]domain.RawRecord, error)
}

// Registry keeps a mapping from adapter keys to their implementations.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds or replaces an adapter implementation.
func (r *Registry) Register(adapter Adapter) {
	if r.adapters == nil {
		r.adapters = map[string]Adapter{}
	}
	r.adapters[adapter.Name()] = adapter
}

// Resolve returns an adapter by key or an error if it is absent.
func (r *Registry) Resolve(name string) (Adapter, error) {
	if adapter, ok := r.adapters[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("adapter %s is not registered", name)
}

// Names lists registered keys in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
