package espalier

import (
	"context"
	"log/slog"

	"github.com/pbarbosa/espalier/internal/logging"
	"github.com/pbarbosa/espalier/internal/runtime"
	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/ports"
	"github.com/pbarbosa/espalier/pkg/profile"
)

// Engine is the high-level entry point for the Espalier library.
// It wraps the internal scheduler and provides a simplified API for consumers:
// execute a graph directly, or load and run a declarative pipeline.
type Engine struct {
	runtime        *runtime.Engine
	runtimeOpts    []runtime.EngineOption
	profiles       *profile.Registry
	logger         *slog.Logger
	dispatcher     ports.Dispatcher
	ownsDispatcher bool
	defaultProfile string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. Repeated use chains the
// hook sets in registration order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProfiles replaces the builtin profile registry.
func WithProfiles(profiles *profile.Registry) Option {
	return func(e *Engine) {
		if profiles != nil {
			e.profiles = profiles
		}
	}
}

// WithDefaultProfile selects the profile Execute uses. Default "balanced".
func WithDefaultProfile(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.defaultProfile = name
		}
	}
}

// WithConcurrencyLimit caps the number of nodes running at once across the
// whole engine by backing it with a fixed worker pool. Zero or negative means
// unbounded (the default).
func WithConcurrencyLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.dispatcher = runtime.NewWorkerPoolDispatcher(limit)
			e.ownsDispatcher = true
		}
	}
}

// WithDispatcher injects a custom dispatcher. The caller keeps ownership and
// is responsible for stopping it.
func WithDispatcher(d ports.Dispatcher) Option {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
			e.ownsDispatcher = false
		}
	}
}

// WithMergeFunc overrides how predecessor outputs are merged into a node's
// input. Default is last-writer-wins in dependency registration order.
func WithMergeFunc(merge domain.MergeFunc) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMergeFunc(merge))
	}
}

// New initializes a new Espalier Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		profiles:       profile.Default(),
		logger:         logging.NewNop(),
		defaultProfile: profile.Balanced.Name,
	}
	for _, opt := range opts {
		opt(eng)
	}

	runtimeOpts := append([]runtime.EngineOption{runtime.WithLogger(eng.logger)}, eng.runtimeOpts...)
	if eng.dispatcher != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithDispatcher(eng.dispatcher))
	}
	eng.runtime = runtime.NewEngine(runtimeOpts...)
	return eng
}

// Execute runs the graph under the engine's default profile.
func (e *Engine) Execute(ctx context.Context, g *domain.Graph, input *domain.ExecutionContext) (*domain.ExecutionResult, error) {
	return e.ExecuteProfile(ctx, g, input, e.defaultProfile)
}

// ExecuteProfile runs the graph under the named profile.
func (e *Engine) ExecuteProfile(ctx context.Context, g *domain.Graph, input *domain.ExecutionContext, profileName string) (*domain.ExecutionResult, error) {
	prof, err := e.profiles.Get(profileName)
	if err != nil {
		return nil, err
	}
	return e.runtime.Execute(ctx, g, input, prof)
}

// Run executes a loaded pipeline. An empty profile name falls back to the
// pipeline's own selection, then to the engine default.
func (e *Engine) Run(ctx context.Context, pipeline *ports.Pipeline, profileName string) (*domain.ExecutionResult, error) {
	if profileName == "" {
		profileName = pipeline.Profile
	}
	if profileName == "" {
		profileName = e.defaultProfile
	}
	return e.ExecuteProfile(ctx, pipeline.Graph, nil, profileName)
}

// RunPipeline loads a pipeline from the loader and executes it.
func (e *Engine) RunPipeline(ctx context.Context, loader ports.PipelineLoader, input *domain.ExecutionContext) (*domain.ExecutionResult, error) {
	pipeline, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	profileName := pipeline.Profile
	if profileName == "" {
		profileName = e.defaultProfile
	}
	return e.ExecuteProfile(ctx, pipeline.Graph, input, profileName)
}

// Profiles exposes the engine's profile registry.
func (e *Engine) Profiles() *profile.Registry {
	return e.profiles
}

// Close releases resources the engine owns, such as the worker pool created
// by WithConcurrencyLimit. Safe to call more than once.
func (e *Engine) Close() {
	if e.ownsDispatcher && e.dispatcher != nil {
		e.dispatcher.Stop()
	}
}
