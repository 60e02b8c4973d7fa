// Package inmemory implements ports.PipelineLoader for pipelines defined in
// Go code. It is the loader of choice for tests and for programs that embed
// the engine directly.
package inmemory

import (
	"context"
	"fmt"

	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/ports"
)

// Loader implements ports.PipelineLoader over a pre-built graph.
type Loader struct {
	pipeline *ports.Pipeline
}

// NewLoader wraps an existing graph as a loadable pipeline.
func NewLoader(name, profile string, graph *domain.Graph) *Loader {
	return &Loader{pipeline: &ports.Pipeline{Name: name, Profile: profile, Graph: graph}}
}

// Load returns the wrapped pipeline after validating its graph.
func (l *Loader) Load(ctx context.Context) (*ports.Pipeline, error) {
	if l.pipeline.Graph == nil {
		return nil, fmt.Errorf("pipeline %s: graph must not be nil", l.pipeline.Name)
	}
	if err := l.pipeline.Graph.Validate(); err != nil {
		return nil, err
	}
	return l.pipeline, nil
}

// Builder assembles a pipeline fluently. Errors are accumulated and reported
// once by Build, so call chains stay readable.
type Builder struct {
	name    string
	profile string
	graph   *domain.Graph
	errs    []error
}

// NewBuilder starts a pipeline definition.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, graph: domain.NewGraph()}
}

// WithProfile selects the execution profile the pipeline runs under.
func (b *Builder) WithProfile(profile string) *Builder {
	b.profile = profile
	return b
}

// Node registers an agent with an optional per-node config.
func (b *Builder) Node(id string, exec domain.Executable, cfg *domain.NodeConfig) *Builder {
	if err := b.graph.AddNode(id, exec, cfg); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Edge declares that target depends on source.
func (b *Builder) Edge(source, target string) *Builder {
	if err := b.graph.AddEdge(source, target); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Build returns the loader, or the first error the chain accumulated.
func (b *Builder) Build() (*Loader, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("pipeline %s: %w", b.name, b.errs[0])
	}
	return NewLoader(b.name, b.profile, b.graph), nil
}
