package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/pbarbosa/espalier/pkg/domain"
)

// NewDefaultRegistry returns a registry preloaded with the builtin
// capabilities used for pipeline rehearsal and smoke tests:
//
//   - echo: copies its "set" parameters into the execution context
//   - sleep: waits for "duration" then passes the context through
//   - fail: always fails, optionally flagged retryable
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("echo", EchoFactory)
	r.Register("sleep", SleepFactory)
	r.Register("fail", FailFactory)
	return r
}

type echoParams struct {
	Set map[string]any `mapstructure:"set"`
}

// EchoFactory builds a capability that writes fixed values into the context.
func EchoFactory(params map[string]any) (domain.Executable, error) {
	var cfg echoParams
	if err := mapstructure.Decode(params, &cfg); err != nil {
		return nil, fmt.Errorf("echo: invalid params: %w", err)
	}
	return domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
		out := domain.ContextFrom(in)
		for k, v := range cfg.Set {
			out.Set(k, v)
		}
		return out, nil
	}), nil
}

type sleepParams struct {
	Duration string `mapstructure:"duration"`
}

// SleepFactory builds a capability that waits for a fixed duration. Useful
// for rehearsing timeout and concurrency behaviour.
func SleepFactory(params map[string]any) (domain.Executable, error) {
	var cfg sleepParams
	if err := mapstructure.Decode(params, &cfg); err != nil {
		return nil, fmt.Errorf("sleep: invalid params: %w", err)
	}
	if cfg.Duration == "" {
		return nil, errors.New("sleep: duration is required")
	}
	d, err := time.ParseDuration(cfg.Duration)
	if err != nil {
		return nil, fmt.Errorf("sleep: invalid duration %q: %w", cfg.Duration, err)
	}
	return domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
		select {
		case <-time.After(d):
			return in, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}), nil
}

type failParams struct {
	Message   string `mapstructure:"message"`
	Retryable bool   `mapstructure:"retryable"`
	After     int    `mapstructure:"after"`
}

// FailFactory builds a capability that fails every invocation, or the first
// "after" invocations when set. Exists to rehearse retry and failure policy.
func FailFactory(params map[string]any) (domain.Executable, error) {
	var cfg failParams
	if err := mapstructure.Decode(params, &cfg); err != nil {
		return nil, fmt.Errorf("fail: invalid params: %w", err)
	}
	if cfg.Message == "" {
		cfg.Message = "injected failure"
	}

	var calls int
	return domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
		calls++
		if cfg.After > 0 && calls > cfg.After {
			return in, nil
		}
		return nil, domain.NewAgentError("fail", errors.New(cfg.Message), cfg.Retryable)
	}), nil
}
