package domain

import (
	"context"
	"time"
)

// Executable is the single capability contract the engine consumes. The
// engine is agnostic to what the implementation does (LLM call, tool call,
// shell command); it only invokes it and inspects the returned error.
//
// Implementations signal that a failure is safe to retry by returning an
// error exposing a Retryable() bool method (see AgentError).
type Executable interface {
	Invoke(ctx context.Context, input *ExecutionContext) (*ExecutionContext, error)
}

// ExecutableFunc adapts a plain function to the Executable interface.
type ExecutableFunc func(ctx context.Context, input *ExecutionContext) (*ExecutionContext, error)

// Invoke implements Executable.
func (f ExecutableFunc) Invoke(ctx context.Context, input *ExecutionContext) (*ExecutionContext, error) {
	return f(ctx, input)
}

// NodeConfig overrides selected fields of the run's ExecutionProfile for a
// single node. Nil pointers mean "inherit from the profile".
type NodeConfig struct {
	MaxRetries *int
	Timeout    *time.Duration
	RetryDelay *time.Duration
}

// Node is a unit of work in the graph: a unique ID, the capability to invoke,
// and an optional per-node resilience override.
type Node struct {
	ID         string
	Executable Executable
	Config     *NodeConfig

	// index preserves registration order for deterministic scheduling ties.
	index int
}

// Index returns the node's registration position within its graph.
func (n *Node) Index() int {
	return n.index
}

// Edge declares that Target's input depends on Source's output. Edges are
// recorded in registration order; that order drives input merging.
type Edge struct {
	Source string
	Target string
}
