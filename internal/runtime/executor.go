package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pbarbosa/espalier/pkg/domain"
)

// Executor wraps a single node's capability with the run's resilience policy:
// per-attempt timeout, bounded retries of retryable failures, panic recovery.
//
// Execute never returns an error for expected runtime failures; the outcome
// carries the status, error, attempt count and timing instead, so the engine
// can always account for partial progress.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor logging through the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

// PanicError wraps a panic recovered from a capability invocation. Panics are
// treated as non-retryable failures: the capability's state is unknown.
type PanicError struct {
	NodeID string
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in node %s: %v", e.NodeID, e.Value)
}

// Execute invokes the node's capability under the effective policy (profile
// merged with the node's override) and returns a fully populated outcome.
func (x *Executor) Execute(ctx context.Context, node *domain.Node, input *domain.ExecutionContext, prof domain.ExecutionProfile) domain.NodeOutcome {
	maxRetries, timeout, retryDelay := effectivePolicy(node, prof)

	outcome := domain.NodeOutcome{
		NodeID:    node.ID,
		StartedAt: time.Now(),
	}

	var lastErr error
	attempt := 0
	for {
		attempt++
		output, err := x.invokeOnce(ctx, node, input, timeout)
		if err == nil {
			outcome.Status = domain.StatusSucceeded
			outcome.Output = output
			break
		}
		lastErr = err

		// Cancellation of the run is final; so are non-retryable errors
		// (timeouts included) and exhausted budgets.
		if ctx.Err() != nil || !domain.IsRetryable(err) || attempt > maxRetries {
			outcome.Status = domain.StatusFailed
			break
		}

		delay := backoffDelay(retryDelay, attempt)
		x.logger.Warn("node attempt failed, retrying",
			"node", node.ID, "attempt", attempt, "max_retries", maxRetries, "delay", delay, "err", err)
		if !sleepCtx(ctx, delay) {
			// Run cancelled while backing off; keep the real failure.
			outcome.Status = domain.StatusFailed
			break
		}
	}

	outcome.Attempts = attempt
	outcome.Err = nil
	if outcome.Status == domain.StatusFailed {
		outcome.Err = lastErr
	}
	outcome.CompletedAt = time.Now()
	outcome.Duration = outcome.CompletedAt.Sub(outcome.StartedAt)
	return outcome
}

// invokeOnce runs a single attempt. The capability executes on its own
// goroutine so a per-node timeout or cancellation can preempt it even when
// the implementation ignores its context; the orphaned goroutine then drains
// into the buffered channel.
func (x *Executor) invokeOnce(ctx context.Context, node *domain.Node, input *domain.ExecutionContext, timeout time.Duration) (*domain.ExecutionContext, error) {
	invokeCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		invokeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type invokeResult struct {
		output *domain.ExecutionContext
		err    error
	}
	done := make(chan invokeResult, 1)

	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				done <- invokeResult{err: &PanicError{NodeID: node.ID, Value: recovered}}
			}
		}()
		output, err := node.Executable.Invoke(invokeCtx, input)
		done <- invokeResult{output: output, err: err}
	}()

	select {
	case r := <-done:
		return r.output, r.err
	case <-invokeCtx.Done():
		// Distinguish the per-node budget from a dying run: only the former
		// is a TimeoutError. Sibling nodes are unaffected either way.
		if timeout > 0 && errors.Is(invokeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &domain.TimeoutError{NodeID: node.ID, Limit: timeout}
		}
		return nil, ctx.Err()
	}
}

// effectivePolicy resolves the node's override on top of the run profile.
func effectivePolicy(node *domain.Node, prof domain.ExecutionProfile) (maxRetries int, timeout, retryDelay time.Duration) {
	maxRetries = prof.MaxRetries
	timeout = prof.Timeout
	retryDelay = prof.RetryDelay

	if cfg := node.Config; cfg != nil {
		if cfg.MaxRetries != nil {
			maxRetries = *cfg.MaxRetries
		}
		if cfg.Timeout != nil {
			timeout = *cfg.Timeout
		}
		if cfg.RetryDelay != nil {
			retryDelay = *cfg.RetryDelay
		}
	}
	return maxRetries, timeout, retryDelay
}

// backoffDelay doubles the base delay per completed attempt (fixed
// exponential schedule, no jitter: reproducibility over smoothing).
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sleepCtx waits for the delay, returning false if ctx ends first.
func sleepCtx(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
