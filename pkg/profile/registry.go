// Package profile provides the ExecutionProfile registry: a fixed, named set
// of resilience presets consumed by the engine.
//
// The registry is an immutable value built at process start and passed
// explicitly into the engine (dependency injection), never a hidden global,
// so tests can substitute custom profile sets.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pbarbosa/espalier/pkg/domain"
)

// ErrUnknownProfile is returned by Get for unregistered names.
var ErrUnknownProfile = errors.New("espalier: unknown execution profile")

// Built-in presets.
var (
	// Balanced favors throughput: generous retries, no timeouts, degraded
	// branches keep running.
	Balanced = domain.ExecutionProfile{
		Name:        "balanced",
		MaxRetries:  3,
		FailFast:    false,
		RetryDelay:  200 * time.Millisecond,
		Description: "Default preset: retries transient failures, no timeouts, best-effort completion.",
	}

	// IncidentSafe favors fast feedback: tight timeout, a single retry, and
	// the whole run aborts on the first unrecoverable failure.
	IncidentSafe = domain.ExecutionProfile{
		Name:        "incident-safe",
		MaxRetries:  1,
		Timeout:     45 * time.Second,
		FailFast:    true,
		RetryDelay:  200 * time.Millisecond,
		Description: "Conservative preset: 45s node timeout, one retry, abort on first failure.",
	}

	// Resilient favors completion of long pipelines over latency.
	Resilient = domain.ExecutionProfile{
		Name:        "resilient",
		MaxRetries:  5,
		Timeout:     180 * time.Second,
		FailFast:    false,
		RetryDelay:  500 * time.Millisecond,
		Description: "Persistent preset: 180s node timeout, five retries, best-effort completion.",
	}
)

// Registry is an immutable name → profile map. The zero value is unusable;
// build one with NewRegistry or Default.
type Registry struct {
	profiles map[string]domain.ExecutionProfile
	names    []string
}

// NewRegistry builds a registry from the given profiles. Names must be
// non-empty and unique; MaxRetries must be non-negative.
func NewRegistry(profiles ...domain.ExecutionProfile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]domain.ExecutionProfile, len(profiles))}
	for _, p := range profiles {
		if p.Name == "" {
			return nil, errors.New("espalier: profile name must not be empty")
		}
		if p.MaxRetries < 0 {
			return nil, fmt.Errorf("espalier: profile %s: max retries must be >= 0", p.Name)
		}
		if _, dup := r.profiles[p.Name]; dup {
			return nil, fmt.Errorf("espalier: duplicate profile name: %s", p.Name)
		}
		r.profiles[p.Name] = p
		r.names = append(r.names, p.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Default returns the registry of built-in presets.
func Default() *Registry {
	r, err := NewRegistry(Balanced, IncidentSafe, Resilient)
	if err != nil {
		// The built-ins are constants of this package; a failure here is a
		// programmer error.
		panic(err)
	}
	return r
}

// Get resolves a profile by name. The error for unknown names enumerates all
// valid ones, so a typo in a pipeline definition is self-explanatory.
func (r *Registry) Get(name string) (domain.ExecutionProfile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return domain.ExecutionProfile{}, fmt.Errorf("%w: %q (valid profiles: %s)",
			ErrUnknownProfile, name, strings.Join(r.names, ", "))
	}
	return p, nil
}

// Names returns the registered profile names, sorted.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Profiles returns all registered profiles in name order.
func (r *Registry) Profiles() []domain.ExecutionProfile {
	out := make([]domain.ExecutionProfile, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.profiles[name])
	}
	return out
}
