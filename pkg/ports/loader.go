package ports

import (
	"context"

	"github.com/pbarbosa/espalier/pkg/domain"
)

// Pipeline is the loaded form of a declarative workflow definition: a ready
// graph plus the run defaults the definition asked for.
type Pipeline struct {
	// Name labels the pipeline for logs and tooling.
	Name string

	// Profile is the name of the execution profile the definition selected.
	// Empty means the caller's default applies.
	Profile string

	// Graph is the validated dependency graph. The engine consumes it as-is;
	// it never re-parses the source.
	Graph *domain.Graph
}

// PipelineLoader builds a Pipeline from a declarative source (YAML file,
// in-memory definition, remote catalog). Loaders own all parsing; the engine
// only ever sees the finished graph.
type PipelineLoader interface {
	Load(ctx context.Context) (*Pipeline, error)
}
