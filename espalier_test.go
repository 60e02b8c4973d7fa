package espalier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	espalier "github.com/pbarbosa/espalier"
	"github.com/pbarbosa/espalier/pkg/adapters/inmemory"
	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/profile"
)

func setKey(key string) domain.Executable {
	return domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
		return domain.ContextFrom(in).Set(key, true), nil
	})
}

func TestEngine_ExecuteDefaultProfile(t *testing.T) {
	eng := espalier.New()
	defer eng.Close()

	g := domain.NewGraph()
	require.NoError(t, g.AddNode("a", setKey("a"), nil))
	require.NoError(t, g.AddNode("b", setKey("b"), nil))
	require.NoError(t, g.AddEdge("a", "b"))

	result, err := eng.Execute(context.Background(), g, domain.NewExecutionContext())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Succeeded)
}

func TestEngine_ExecuteUnknownProfile(t *testing.T) {
	eng := espalier.New()
	defer eng.Close()

	g := domain.NewGraph()
	require.NoError(t, g.AddNode("a", setKey("a"), nil))

	_, err := eng.ExecuteProfile(context.Background(), g, nil, "turbo")
	require.Error(t, err)
	assert.ErrorIs(t, err, profile.ErrUnknownProfile)
}

func TestEngine_RunPipeline(t *testing.T) {
	loader, err := inmemory.NewBuilder("demo").
		WithProfile("incident-safe").
		Node("a", setKey("a"), nil).
		Node("b", setKey("b"), nil).
		Edge("a", "b").
		Build()
	require.NoError(t, err)

	eng := espalier.New()
	defer eng.Close()

	result, err := eng.RunPipeline(context.Background(), loader, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestEngine_ConcurrencyLimit(t *testing.T) {
	eng := espalier.New(espalier.WithConcurrencyLimit(1))
	defer eng.Close()

	g := domain.NewGraph()
	block := domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
		time.Sleep(10 * time.Millisecond)
		return in, nil
	})
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddNode(id, block, nil))
	}

	result, err := eng.Execute(context.Background(), g, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.MaxConcurrency)
}

func TestEngine_CustomProfiles(t *testing.T) {
	custom, err := profile.NewRegistry(domain.ExecutionProfile{
		Name:       "one-shot",
		MaxRetries: 0,
		FailFast:   true,
	})
	require.NoError(t, err)

	eng := espalier.New(
		espalier.WithProfiles(custom),
		espalier.WithDefaultProfile("one-shot"),
	)
	defer eng.Close()

	g := domain.NewGraph()
	require.NoError(t, g.AddNode("flaky", domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
		return nil, domain.NewAgentError("flaky", errors.New("down"), true)
	}), nil))

	result, err := eng.Execute(context.Background(), g, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)

	outcome, _ := result.Outcome("flaky")
	assert.Equal(t, 1, outcome.Attempts, "one-shot profile must not retry")
}

func TestEngine_HooksObserveRun(t *testing.T) {
	var finished []string
	hooks := domain.LifecycleHooks{
		OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) {
			finished = append(finished, e.NodeID)
		},
	}

	eng := espalier.New(
		espalier.WithLifecycleHooks(hooks),
		espalier.WithConcurrencyLimit(1),
	)
	defer eng.Close()

	g := domain.NewGraph()
	require.NoError(t, g.AddNode("only", setKey("only"), nil))

	_, err := eng.Execute(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, finished)
}
