package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbarbosa/espalier/pkg/domain"
)

func TestEngine_RunTimeoutSkipsUnfinished(t *testing.T) {
	// "quick" completes inside the run budget; "stuck" does not. The run
	// ends at the deadline with quick recorded and stuck skipped.
	g := mustGraph(t,
		map[string]domain.Executable{
			"quick": sleeper("quick", 10*time.Millisecond),
			"stuck": sleeper("stuck", 2*time.Second),
			"after": passThrough("after"),
		},
		[]string{"quick", "stuck", "after"},
		[][2]string{{"stuck", "after"}},
	)

	prof := quickProfile(false)
	prof.RunTimeout = 100 * time.Millisecond

	engine := NewEngine()
	start := time.Now()
	result, err := engine.Execute(context.Background(), g, nil, prof)

	require.NoError(t, err, "run timeout is recorded in the result, not returned")
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, result.Success)

	quickOutcome, _ := result.Outcome("quick")
	assert.Equal(t, domain.StatusSucceeded, quickOutcome.Status)

	stuckOutcome, _ := result.Outcome("stuck")
	require.Equal(t, domain.StatusSkipped, stuckOutcome.Status)
	assert.ErrorIs(t, stuckOutcome.Err, domain.ErrRunTimeout)

	afterOutcome, _ := result.Outcome("after")
	assert.Equal(t, domain.StatusSkipped, afterOutcome.Status)
}

func TestEngine_ExternalCancellationReturnsPartialResult(t *testing.T) {
	g := mustGraph(t,
		map[string]domain.Executable{
			"first": sleeper("first", 5*time.Millisecond),
			"slow":  sleeper("slow", 2*time.Second),
		},
		[]string{"first", "slow"},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	engine := NewEngine()
	result, err := engine.Execute(ctx, g, nil, quickProfile(false))

	require.ErrorIs(t, err, context.Canceled, "caller cancellation surfaces as the returned error")
	require.NotNil(t, result, "partial progress must still be returned")

	firstOutcome, _ := result.Outcome("first")
	assert.Equal(t, domain.StatusSucceeded, firstOutcome.Status)

	slowOutcome, _ := result.Outcome("slow")
	assert.Equal(t, domain.StatusSkipped, slowOutcome.Status)
	assert.False(t, result.Success)
}

func TestEngine_LifecycleHooksFire(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(name string) func(context.Context, *domain.NodeEvent) {
		return func(_ context.Context, e *domain.NodeEvent) {
			mu.Lock()
			events = append(events, name+":"+e.NodeID)
			mu.Unlock()
		}
	}

	var runStarts, runFinishes int
	hooks := domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			mu.Lock()
			runStarts++
			mu.Unlock()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			mu.Lock()
			runFinishes++
			mu.Unlock()
			require.NotNil(t, e.Result)
		},
		OnNodeStart:  record("start"),
		OnNodeFinish: record("finish"),
		OnNodeSkip:   record("skip"),
	}

	g := mustGraph(t,
		map[string]domain.Executable{
			"ok":   passThrough("ok"),
			"bad":  failing("bad"),
			"dead": passThrough("dead"),
		},
		[]string{"ok", "bad", "dead"},
		[][2]string{{"bad", "dead"}},
	)

	engine := NewEngine(WithLifecycleHooks(hooks))
	_, err := engine.Execute(context.Background(), g, nil, quickProfile(false))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, runStarts)
	assert.Equal(t, 1, runFinishes)
	assert.Contains(t, events, "start:ok")
	assert.Contains(t, events, "finish:ok")
	assert.Contains(t, events, "finish:bad")
	assert.Contains(t, events, "skip:dead")
	assert.NotContains(t, events, "start:dead", "skipped nodes never start")
}

func TestEngine_HooksMergeChains(t *testing.T) {
	var mu sync.Mutex
	var order []string
	mark := func(tag string) domain.LifecycleHooks {
		return domain.LifecycleHooks{
			OnNodeFinish: func(context.Context, *domain.NodeEvent) {
				mu.Lock()
				order = append(order, tag)
				mu.Unlock()
			},
		}
	}

	g := mustGraph(t,
		map[string]domain.Executable{"a": passThrough("a")},
		[]string{"a"},
		nil,
	)

	engine := NewEngine(WithLifecycleHooks(mark("one")), WithLifecycleHooks(mark("two")))
	_, err := engine.Execute(context.Background(), g, nil, quickProfile(false))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, order)
}

func TestEngine_SkipReasonDistinguishesCancelFromTimeout(t *testing.T) {
	g := mustGraph(t,
		map[string]domain.Executable{"slow": sleeper("slow", 2*time.Second)},
		[]string{"slow"},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	engine := NewEngine()
	result, err := engine.Execute(ctx, g, nil, quickProfile(false))
	require.Error(t, err)

	outcome, _ := result.Outcome("slow")
	require.Equal(t, domain.StatusSkipped, outcome.Status)
	assert.NotErrorIs(t, outcome.Err, domain.ErrRunTimeout)
	assert.True(t, errors.Is(outcome.Err, context.Canceled))
}
