package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pbarbosa/espalier/internal/logging"
	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/ports"
)

var runCounter atomic.Uint64

// Engine is the DAG scheduler. It walks a validated graph, launches every
// ready node concurrently through the dispatcher, merges predecessor outputs
// into successor inputs, and applies the profile's failure policy.
//
// The engine holds no per-run state between calls; Execute builds a fresh
// result each time, so one engine can serve many graphs and many runs.
type Engine struct {
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	merge      domain.MergeFunc
	dispatcher ports.Dispatcher
	executor   *Executor
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks, merged after any
// previously registered set.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMergeFunc overrides the input-merge policy for multi-predecessor nodes.
func WithMergeFunc(merge domain.MergeFunc) EngineOption {
	return func(e *Engine) {
		if merge != nil {
			e.merge = merge
		}
	}
}

// WithDispatcher supplies a custom dispatcher (e.g. a worker pool acting as
// the global concurrency limit).
func WithDispatcher(d ports.Dispatcher) EngineOption {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

// NewEngine creates a scheduler with the given options. Defaults: discard
// logger, last-writer-wins merge, one goroutine per ready node.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:     logging.NewNop(),
		merge:      domain.MergeLastWins,
		dispatcher: goroutineDispatcher{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.executor = NewExecutor(e.logger)
	return e
}

// nodeState tracks scheduling bookkeeping for one node within a run.
type nodeState struct {
	node      *domain.Node
	remaining int
	blocked   bool
	blockErr  error
	queued    bool
}

type taskResult struct {
	id     string
	status domain.NodeStatus
}

// run carries the mutable state of a single Execute call.
type run struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	prof   domain.ExecutionProfile
	graph  *domain.Graph
	input  *domain.ExecutionContext

	mu       sync.Mutex
	outcomes map[string]domain.NodeOutcome

	active         atomic.Int64
	maxConcurrency atomic.Int64
}

// Execute runs the graph to completion under the given profile.
//
// Structural errors (invalid graph, nil arguments) return (nil, error).
// Runtime failures never do: they are captured per node in the result so the
// caller can inspect partial progress. If the caller's context ends early the
// partial result is returned together with the context's error.
func (e *Engine) Execute(ctx context.Context, graph *domain.Graph, input *domain.ExecutionContext, prof domain.ExecutionProfile) (*domain.ExecutionResult, error) {
	if graph == nil {
		return nil, fmt.Errorf("espalier: graph must not be nil")
	}

	release := graph.AcquireRun()
	defer release()

	// Lazy validation: first execution pays for it.
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if prof.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, prof.RunTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	r := &run{
		id:       fmt.Sprintf("run-%d", runCounter.Add(1)),
		ctx:      runCtx,
		cancel:   cancel,
		prof:     prof,
		graph:    graph,
		input:    input,
		outcomes: make(map[string]domain.NodeOutcome, graph.Len()),
	}

	startedAt := time.Now()
	e.logger.Info("run started", "run", r.id, "profile", prof.Name, "nodes", graph.Len())
	e.fireRunEvent(runCtx, domain.EventRunStart, r, nil)

	e.schedule(r)

	result := e.collect(r, startedAt)
	e.logger.Info("run finished", "run", r.id, "success", result.Success,
		"succeeded", result.Succeeded, "failed", result.Failed, "skipped", result.Skipped,
		"duration", result.Duration)
	e.fireRunEvent(ctx, domain.EventRunFinish, r, result)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// schedule is the core loop: seed ready roots, launch them through the
// dispatcher, and as each task completes unlock its successors. Blocked
// nodes (upstream failure or dead run context) are skipped inline.
func (e *Engine) schedule(r *run) {
	nodes := r.graph.Nodes()
	states := make(map[string]*nodeState, len(nodes))
	ready := make([]*nodeState, 0)

	// Registration order keeps root launch order reproducible.
	for _, node := range nodes {
		state := &nodeState{
			node:      node,
			remaining: len(r.graph.Predecessors(node.ID)),
		}
		states[node.ID] = state
		if state.remaining == 0 {
			state.queued = true
			ready = append(ready, state)
		}
	}

	if len(states) == 0 {
		return
	}

	doneCh := make(chan taskResult, len(states))
	var wg sync.WaitGroup
	pending := len(states)

	for pending > 0 {
		for len(ready) > 0 {
			state := ready[0]
			ready = ready[1:]

			if state.blocked {
				doneCh <- e.skipNode(r, state, state.blockErr)
				continue
			}
			if err := r.ctx.Err(); err != nil {
				doneCh <- e.skipNode(r, state, skipReason(r, err))
				continue
			}

			wg.Add(1)
			st := state
			e.dispatcher.Submit(func() {
				defer wg.Done()
				doneCh <- e.runNode(r, st)
			})
		}

		result := <-doneCh
		pending--

		for _, succ := range r.graph.Successors(result.id) {
			depState := states[succ]
			depState.remaining--
			if result.status != domain.StatusSucceeded && depState.blockErr == nil {
				depState.blocked = true
				depState.blockErr = &domain.SkippedDependencyError{
					NodeID: succ,
					Reason: fmt.Errorf("upstream dependency %s %s", result.id, result.status),
				}
			}
			if depState.remaining <= 0 && !depState.queued {
				depState.queued = true
				ready = append(ready, depState)
			}
		}
	}

	wg.Wait()
}

// runNode executes one node task: build its input from predecessor outputs,
// delegate to the node executor, record the outcome, apply fail-fast.
func (e *Engine) runNode(r *run, state *nodeState) taskResult {
	node := state.node

	current := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		observed := r.maxConcurrency.Load()
		if current <= observed || r.maxConcurrency.CompareAndSwap(observed, current) {
			break
		}
	}

	input := e.buildInput(r, node.ID)

	e.logger.Debug("node started", "run", r.id, "node", node.ID)
	e.fireNodeEvent(r.ctx, domain.EventNodeStart, r, node.ID, nil)

	outcome := e.executor.Execute(r.ctx, node, input, r.prof)

	// A task torn down by run cancellation is not a node failure; it is
	// recorded SKIPPED with the run-level reason.
	if outcome.Status == domain.StatusFailed && r.ctx.Err() != nil && isContextError(outcome.Err) {
		outcome.Status = domain.StatusSkipped
		outcome.Err = &domain.SkippedDependencyError{NodeID: node.ID, Reason: skipReason(r, r.ctx.Err())}
	}

	r.mu.Lock()
	r.outcomes[node.ID] = outcome
	r.mu.Unlock()

	switch outcome.Status {
	case domain.StatusSucceeded:
		e.logger.Debug("node succeeded", "run", r.id, "node", node.ID,
			"attempts", outcome.Attempts, "duration", outcome.Duration)
	case domain.StatusFailed:
		e.logger.Error("node failed", "run", r.id, "node", node.ID,
			"attempts", outcome.Attempts, "err", outcome.Err)
		if r.prof.FailFast {
			e.logger.Warn("fail-fast: cancelling remaining work", "run", r.id, "node", node.ID)
			r.cancel()
		}
	}

	e.fireNodeEvent(r.ctx, domain.EventNodeFinish, r, node.ID, &outcome)
	return taskResult{id: node.ID, status: outcome.Status}
}

// skipNode records a node that never ran.
func (e *Engine) skipNode(r *run, state *nodeState, reason error) taskResult {
	node := state.node
	state.blocked = true

	if reason == nil {
		reason = &domain.SkippedDependencyError{NodeID: node.ID, Reason: errors.New("upstream dependency unresolved")}
	}

	now := time.Now()
	outcome := domain.NodeOutcome{
		NodeID:      node.ID,
		Status:      domain.StatusSkipped,
		Err:         reason,
		StartedAt:   now,
		CompletedAt: now,
	}

	r.mu.Lock()
	r.outcomes[node.ID] = outcome
	r.mu.Unlock()

	e.logger.Warn("node skipped", "run", r.id, "node", node.ID, "reason", reason)
	e.fireNodeEvent(r.ctx, domain.EventNodeSkip, r, node.ID, &outcome)
	return taskResult{id: node.ID, status: domain.StatusSkipped}
}

// buildInput resolves the node's input: roots get the run's initial context,
// everything else gets its predecessors' outputs merged in edge-registration
// order. Predecessors are guaranteed SUCCEEDED by the scheduling invariant.
func (e *Engine) buildInput(r *run, nodeID string) *domain.ExecutionContext {
	preds := r.graph.Predecessors(nodeID)
	if len(preds) == 0 {
		return r.input
	}

	outputs := make([]*domain.ExecutionContext, 0, len(preds))
	r.mu.Lock()
	for _, pred := range preds {
		outputs = append(outputs, r.outcomes[pred].Output)
	}
	r.mu.Unlock()

	return e.merge(outputs)
}

// collect assembles the final result from the per-node records.
func (e *Engine) collect(r *run, startedAt time.Time) *domain.ExecutionResult {
	result := &domain.ExecutionResult{
		Outcomes:       make(map[string]domain.NodeOutcome, len(r.outcomes)),
		StartedAt:      startedAt,
		CompletedAt:    time.Now(),
		MaxConcurrency: int(r.maxConcurrency.Load()),
	}
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	r.mu.Lock()
	for id, outcome := range r.outcomes {
		result.Outcomes[id] = outcome
		switch outcome.Status {
		case domain.StatusSucceeded:
			result.Succeeded++
		case domain.StatusFailed:
			result.Failed++
		case domain.StatusSkipped:
			result.Skipped++
		}
	}
	r.mu.Unlock()

	result.Success = result.Failed == 0 && result.Skipped == 0
	return result
}

func (e *Engine) fireRunEvent(ctx context.Context, eventType domain.EventType, r *run, result *domain.ExecutionResult) {
	hook := e.hooks.OnRunStart
	if eventType == domain.EventRunFinish {
		hook = e.hooks.OnRunFinish
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: eventType, RunID: r.id},
		Profile:   r.prof.Name,
		Nodes:     r.graph.Len(),
		Result:    result,
	})
}

func (e *Engine) fireNodeEvent(ctx context.Context, eventType domain.EventType, r *run, nodeID string, outcome *domain.NodeOutcome) {
	var hook func(context.Context, *domain.NodeEvent)
	switch eventType {
	case domain.EventNodeStart:
		hook = e.hooks.OnNodeStart
	case domain.EventNodeFinish:
		hook = e.hooks.OnNodeFinish
	case domain.EventNodeSkip:
		hook = e.hooks.OnNodeSkip
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: eventType, RunID: r.id},
		NodeID:    nodeID,
		Outcome:   outcome,
	})
}

// skipReason translates a dead run context into the recorded reason.
func skipReason(r *run, ctxErr error) error {
	if r.prof.RunTimeout > 0 && errors.Is(ctxErr, context.DeadlineExceeded) {
		return domain.ErrRunTimeout
	}
	return ctxErr
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
