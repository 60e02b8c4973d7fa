// Package yamlpipeline implements ports.PipelineLoader for declarative YAML
// pipeline definitions. A definition names its agents, binds each to a
// registered capability, and lists dependencies; the loader turns that into a
// validated graph bound to real executables.
package yamlpipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/ports"
	"github.com/pbarbosa/espalier/pkg/registry"
)

// nodeDef is the YAML shape of a single agent entry.
type nodeDef struct {
	ID     string         `yaml:"id"`
	Uses   string         `yaml:"uses"`
	With   map[string]any `yaml:"with"`
	Needs  []string       `yaml:"needs"`
	Config map[string]any `yaml:"config"`
}

// pipelineDef is the YAML shape of a pipeline file.
type pipelineDef struct {
	Name    string    `yaml:"name"`
	Profile string    `yaml:"profile"`
	Nodes   []nodeDef `yaml:"nodes"`
}

// nodeConfig is the decoded per-node policy override.
type nodeConfig struct {
	MaxRetries *int           `mapstructure:"max_retries"`
	Timeout    *time.Duration `mapstructure:"timeout"`
	RetryDelay *time.Duration `mapstructure:"retry_delay"`
}

// Loader reads a pipeline definition from a YAML file and resolves its
// capabilities against a registry.
type Loader struct {
	path     string
	registry *registry.Registry
}

// NewLoader creates a loader for the given file. A nil registry falls back to
// the builtin capabilities.
func NewLoader(path string, reg *registry.Registry) *Loader {
	if reg == nil {
		reg = registry.NewDefaultRegistry()
	}
	return &Loader{path: path, registry: reg}
}

// Load parses the file, binds capabilities and builds the graph. All
// definition errors surface here; a loaded pipeline is ready to run.
func (l *Loader) Load(ctx context.Context) (*ports.Pipeline, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	return l.parse(data)
}

func (l *Loader) parse(data []byte) (*ports.Pipeline, error) {
	var def pipelineDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline yaml: %w", err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("pipeline name is required")
	}
	if len(def.Nodes) == 0 {
		return nil, fmt.Errorf("pipeline %s: at least one node is required", def.Name)
	}

	graph := domain.NewGraph()

	for _, n := range def.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("pipeline %s: node missing id", def.Name)
		}
		if n.Uses == "" {
			return nil, fmt.Errorf("pipeline %s: node %s missing capability (uses)", def.Name, n.ID)
		}

		exec, err := l.registry.Build(n.Uses, n.With)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: node %s: %w", def.Name, n.ID, err)
		}

		cfg, err := decodeNodeConfig(n.Config)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: node %s: %w", def.Name, n.ID, err)
		}

		if err := graph.AddNode(n.ID, exec, cfg); err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", def.Name, err)
		}
	}

	// Edges after all nodes so needs can reference agents declared later in
	// the file. Listed order is preserved; it decides merge precedence.
	for _, n := range def.Nodes {
		for _, dep := range n.Needs {
			if err := graph.AddEdge(dep, n.ID); err != nil {
				return nil, fmt.Errorf("pipeline %s: node %s needs %s: %w", def.Name, n.ID, dep, err)
			}
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", def.Name, err)
	}

	return &ports.Pipeline{Name: def.Name, Profile: def.Profile, Graph: graph}, nil
}

// decodeNodeConfig maps the raw config block onto the domain override,
// parsing durations from strings ("30s", "200ms").
func decodeNodeConfig(raw map[string]any) (*domain.NodeConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var cfg nodeConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("invalid config: max_retries must not be negative")
	}

	return &domain.NodeConfig{
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.Timeout,
		RetryDelay: cfg.RetryDelay,
	}, nil
}
