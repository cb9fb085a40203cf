// Package source routes configured sources to the backend that can read them.
package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"github.com/Veraticus/posko/internal/pipeline"
)

var _ pipeline.Fetcher = (*Registry)(nil)

// Registry dispatches Fetch calls by the source's backend.
type Registry struct {
	backends map[model.Backend]pipeline.Fetcher
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[model.Backend]pipeline.Fetcher),
	}
}

// Register installs f as the reader for backend, replacing any previous one.
func (r *Registry) Register(backend model.Backend, f pipeline.Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[backend] = f
}

// Has reports whether backend has a reader.
func (r *Registry) Has(backend model.Backend) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.backends[backend]
	return ok
}

// Fetch implements pipeline.Fetcher.
func (r *Registry) Fetch(ctx context.Context, src model.Source) (model.RawSheet, error) {
	r.mu.RLock()
	f, ok := r.backends[src.Backend]
	r.mu.RUnlock()

	if !ok {
		return model.RawSheet{}, fmt.Errorf("%w: no reader for backend %q (source %s)", common.ErrUnknownSource, src.Backend, src.ID)
	}
	return f.Fetch(ctx, src)
}
