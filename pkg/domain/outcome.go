package domain

import "time"

// NodeStatus captures the lifecycle state of a node within a run.
//
// The transitions are PENDING → READY → RUNNING → {SUCCEEDED | FAILED}.
// A node whose upstream dependency failed (or whose run was cancelled before
// it became ready) goes straight from PENDING to SKIPPED. Retries happen
// inside RUNNING; they are not separate states.
type NodeStatus string

const (
	StatusPending   NodeStatus = "pending"
	StatusReady     NodeStatus = "ready"
	StatusRunning   NodeStatus = "running"
	StatusSucceeded NodeStatus = "succeeded"
	StatusFailed    NodeStatus = "failed"
	StatusSkipped   NodeStatus = "skipped"
)

// Terminal reports whether the status is an end state.
func (s NodeStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// NodeOutcome is the per-node record of a run. It is written exactly once,
// by the task that completes the node, and never mutated afterwards.
type NodeOutcome struct {
	NodeID      string
	Status      NodeStatus
	Output      *ExecutionContext
	Err         error
	Attempts    int
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

// ExecutionResult aggregates one call to Execute. It is a fresh value per
// run; the engine holds no state across runs.
type ExecutionResult struct {
	// Success is true only when every node SUCCEEDED. A failed node flips
	// it directly; a cancelled or timed-out run flips it through the nodes
	// it left SKIPPED.
	Success bool

	// Outcomes maps node ID to its final record. Every node of the graph is
	// present once the run ends, whatever its terminal status.
	Outcomes map[string]NodeOutcome

	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration

	Succeeded int
	Failed    int
	Skipped   int

	// MaxConcurrency is the highest number of node tasks observed running
	// at the same time.
	MaxConcurrency int
}

// Outcome returns the record for a node ID.
func (r *ExecutionResult) Outcome(id string) (NodeOutcome, bool) {
	o, ok := r.Outcomes[id]
	return o, ok
}

// FirstError returns the error of the first FAILED node by completion time,
// the root cause of a degraded run. Skip reasons are symptoms, not causes,
// and are ignored here.
func (r *ExecutionResult) FirstError() error {
	var earliest time.Time
	var cause error
	for _, o := range r.Outcomes {
		if o.Status != StatusFailed || o.Err == nil {
			continue
		}
		if cause == nil || o.CompletedAt.Before(earliest) {
			earliest = o.CompletedAt
			cause = o.Err
		}
	}
	return cause
}
