package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbarbosa/espalier/pkg/domain"
)

func TestRegistry_BuildUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build("nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capability not found")
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("x", func(map[string]any) (domain.Executable, error) {
		return domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
			return domain.NewExecutionContext().Set("v", 1), nil
		}), nil
	})
	r.Register("x", func(map[string]any) (domain.Executable, error) {
		return domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
			return domain.NewExecutionContext().Set("v", 2), nil
		}), nil
	})

	exec, err := r.Build("x", nil)
	require.NoError(t, err)
	out, err := exec.Invoke(context.Background(), nil)
	require.NoError(t, err)
	v, _ := out.Get("v")
	assert.Equal(t, 2, v)
}

func TestEcho(t *testing.T) {
	exec, err := EchoFactory(map[string]any{"set": map[string]any{"region": "porto"}})
	require.NoError(t, err)

	out, err := exec.Invoke(context.Background(), domain.NewExecutionContext().Set("seed", 1))
	require.NoError(t, err)

	region, _ := out.Get("region")
	assert.Equal(t, "porto", region)
	seed, _ := out.Get("seed")
	assert.Equal(t, 1, seed, "echo must preserve its input")
}

func TestSleep(t *testing.T) {
	_, err := SleepFactory(map[string]any{})
	require.Error(t, err, "missing duration must fail at build time")

	_, err = SleepFactory(map[string]any{"duration": "not-a-duration"})
	require.Error(t, err)

	exec, err := SleepFactory(map[string]any{"duration": "5ms"})
	require.NoError(t, err)

	start := time.Now()
	_, err = exec.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestSleep_Cancellable(t *testing.T) {
	exec, err := SleepFactory(map[string]any{"duration": "10s"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = exec.Invoke(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFail(t *testing.T) {
	exec, err := FailFactory(map[string]any{"message": "boom", "retryable": true})
	require.NoError(t, err)

	_, err = exec.Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestFail_AfterSucceedsEventually(t *testing.T) {
	exec, err := FailFactory(map[string]any{"after": 2, "retryable": true})
	require.NoError(t, err)

	_, err = exec.Invoke(context.Background(), nil)
	require.Error(t, err)
	_, err = exec.Invoke(context.Background(), nil)
	require.Error(t, err)
	_, err = exec.Invoke(context.Background(), nil)
	assert.NoError(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	for _, name := range []string{"echo", "sleep", "fail"} {
		_, err := r.Build(name, map[string]any{"duration": "1ms"})
		assert.NoError(t, err, "builtin %q must be registered", name)
	}
}
