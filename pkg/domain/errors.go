package domain

import (
	"errors"
	"fmt"
	"time"
)

// Structural errors are raised synchronously by the mutating graph calls.
// They indicate a programming error in graph construction, not a runtime
// condition, so callers are expected to treat them as fatal.
var (
	// ErrDuplicateNode is returned when a node ID is registered twice.
	ErrDuplicateNode = errors.New("espalier: duplicate node id")

	// ErrNodeNotFound is returned when an edge references an unknown node.
	ErrNodeNotFound = errors.New("espalier: node not found")

	// ErrCycleDetected is returned when an edge would close a cycle, or when
	// ordering an already-cyclic graph.
	ErrCycleDetected = errors.New("espalier: cycle detected")

	// ErrGraphBusy is returned when a mutation is attempted while the graph
	// has at least one run in flight.
	ErrGraphBusy = errors.New("espalier: graph has runs in flight")

	// ErrNilExecutable is returned when a node is registered without a capability.
	ErrNilExecutable = errors.New("espalier: node executable must not be nil")
)

// ErrRunTimeout is the skip reason recorded when the whole-run timeout
// elapses before a node could finish.
var ErrRunTimeout = errors.New("espalier: run timeout elapsed")

// AgentError is a runtime failure raised by an Executable. It carries a
// retryable flag set by the capability itself: only the implementation knows
// whether re-invoking with identical input is safe.
type AgentError struct {
	Agent string
	Err   error
	Retry bool
}

// NewAgentError wraps err as a failure of the named agent.
func NewAgentError(agent string, err error, retryable bool) *AgentError {
	return &AgentError{Agent: agent, Err: err, Retry: retryable}
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s: %v", e.Agent, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is safe to retry with the same input.
func (e *AgentError) Retryable() bool {
	return e.Retry
}

// TimeoutError records that a single node invocation exceeded its time budget.
// Timeouts are treated as non-retryable by default.
type TimeoutError struct {
	NodeID string
	Limit  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("node %s: invocation exceeded timeout of %s", e.NodeID, e.Limit)
}

// SkippedDependencyError records why a node never ran: an upstream dependency
// failed or the run was cancelled before the node became ready.
type SkippedDependencyError struct {
	NodeID string
	Reason error
}

func (e *SkippedDependencyError) Error() string {
	return fmt.Sprintf("node %s skipped: %v", e.NodeID, e.Reason)
}

func (e *SkippedDependencyError) Unwrap() error {
	return e.Reason
}

// IsRetryable reports whether an error opted into retry semantics by exposing
// a Retryable() bool method anywhere in its chain. Errors without the method
// are non-retryable.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
