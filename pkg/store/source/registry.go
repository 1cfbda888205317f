package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/de-tools/job-pulse/pkg/models/domain"
)

// Loader materialises one dataset into a frame
type Loader interface {
	Load(ctx context.Context, spec domain.SourceSpec) (domain.Frame, error)
}

// Registry dispatches a source spec to the loader registered for its kind
type Registry interface {
	Loader
	// Register adds a loader for a source kind
	Register(kind domain.SourceKind, loader Loader) error
	// ListKinds returns the registered kinds
	ListKinds() []domain.SourceKind
}

type registry struct {
	mu      sync.RWMutex
	loaders map[domain.SourceKind]Loader
}

func NewRegistry(loaders map[domain.SourceKind]Loader) Registry {
	r := &registry{loaders: make(map[domain.SourceKind]Loader, len(loaders))}
	for kind, l := range loaders {
		r.loaders[kind] = l
	}
	return r
}

func (r *registry) Register(kind domain.SourceKind, loader Loader) error {
	if kind == "" {
		return fmt.Errorf("source kind cannot be empty")
	}
	if loader == nil {
		return fmt.Errorf("loader cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[kind]; exists {
		return fmt.Errorf("source kind %q is already registered", kind)
	}

	r.loaders[kind] = loader
	return nil
}

func (r *registry) Load(ctx context.Context, spec domain.SourceSpec) (domain.Frame, error) {
	r.mu.RLock()
	loader, exists := r.loaders[spec.Kind]
	r.mu.RUnlock()

	if !exists {
		return domain.Frame{}, fmt.Errorf("source kind %q is not registered", spec.Kind)
	}

	return loader.Load(ctx, spec)
}

func (r *registry) ListKinds() []domain.SourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.SourceKind, 0, len(r.loaders))
	for kind := range r.loaders {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
