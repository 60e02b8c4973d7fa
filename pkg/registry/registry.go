// Package registry maps capability names to executable factories so pipeline
// definitions can refer to agents by name instead of wiring Go values.
package registry

import (
	"fmt"
	"sync"

	"github.com/pbarbosa/espalier/pkg/domain"
)

// Factory builds an Executable from the raw parameters of a pipeline node.
// Factories validate their parameters eagerly so a bad definition fails at
// load time, not mid-run.
type Factory func(params map[string]any) (domain.Executable, error)

// Registry manages the available capabilities.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a capability to the registry.
// If a capability with the same name exists, it is overwritten.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Build looks up a capability by name and instantiates it with params.
// Returns an error if the capability is not found.
func (r *Registry) Build(name string, params map[string]any) (domain.Executable, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("capability not found: %s", name)
	}

	return factory(params)
}

// Names returns the registered capability names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
