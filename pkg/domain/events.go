package domain

import (
	"context"
	"time"
)

// EventType defines the category of the lifecycle event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunFinish  EventType = "run_finish"
	EventNodeStart  EventType = "node_start"
	EventNodeFinish EventType = "node_finish"
	EventNodeSkip   EventType = "node_skip"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// RunEvent describes the start or end of a whole run.
type RunEvent struct {
	EventBase
	Profile string `json:"profile"`
	Nodes   int    `json:"nodes"`

	// Result is populated on EventRunFinish only.
	Result *ExecutionResult `json:"-"`
}

// NodeEvent describes the lifecycle of a single node task.
type NodeEvent struct {
	EventBase
	NodeID string `json:"node_id"`

	// Outcome is populated on EventNodeFinish and EventNodeSkip.
	Outcome *NodeOutcome `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability. All fields are
// optional. Hooks run synchronously on the scheduler or task goroutine, so
// implementations must be fast and must not block.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunFinish  func(context.Context, *RunEvent)
	OnNodeStart  func(context.Context, *NodeEvent)
	OnNodeFinish func(context.Context, *NodeEvent)
	OnNodeSkip   func(context.Context, *NodeEvent)
}

// Merge combines two hook sets, running the receiver's callbacks first.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart:   chainRunHooks(h.OnRunStart, other.OnRunStart),
		OnRunFinish:  chainRunHooks(h.OnRunFinish, other.OnRunFinish),
		OnNodeStart:  chainNodeHooks(h.OnNodeStart, other.OnNodeStart),
		OnNodeFinish: chainNodeHooks(h.OnNodeFinish, other.OnNodeFinish),
		OnNodeSkip:   chainNodeHooks(h.OnNodeSkip, other.OnNodeSkip),
	}
}

func chainRunHooks(first, second func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	default:
		return func(ctx context.Context, ev *RunEvent) {
			first(ctx, ev)
			second(ctx, ev)
		}
	}
}

func chainNodeHooks(first, second func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	default:
		return func(ctx context.Context, ev *NodeEvent) {
			first(ctx, ev)
			second(ctx, ev)
		}
	}
}
