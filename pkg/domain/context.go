package domain

// ExecutionContext is the opaque payload threaded through the graph. Nodes
// with no predecessors receive the run's initial context; every Executable
// produces a new context consumed by its successors.
//
// The engine never interprets the values; it only clones and merges them.
type ExecutionContext struct {
	Values map[string]any
}

// NewExecutionContext creates an empty context.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{Values: make(map[string]any)}
}

// ContextFrom builds a new context seeded with another's values. The map is
// copied so executables can extend their input without mutating it. A nil
// parent yields an empty context.
func ContextFrom(parent *ExecutionContext) *ExecutionContext {
	ec := NewExecutionContext()
	if parent != nil {
		for k, v := range parent.Values {
			ec.Values[k] = v
		}
	}
	return ec
}

// Set stores a value under key, allocating the map if needed.
func (c *ExecutionContext) Set(key string, value any) *ExecutionContext {
	if c.Values == nil {
		c.Values = make(map[string]any)
	}
	c.Values[key] = value
	return c
}

// Get retrieves a value by key.
func (c *ExecutionContext) Get(key string) (any, bool) {
	if c == nil || c.Values == nil {
		return nil, false
	}
	v, ok := c.Values[key]
	return v, ok
}

// Clone returns a shallow copy of the context. Values themselves are shared:
// executables are expected to treat their input as read-only.
func (c *ExecutionContext) Clone() *ExecutionContext {
	return ContextFrom(c)
}

// MergeFunc combines the outputs of a node's predecessors, given in
// edge-registration order, into the node's input context.
type MergeFunc func(ordered []*ExecutionContext) *ExecutionContext

// MergeLastWins is the default merge policy: predecessor outputs are folded
// in edge-registration order and on key collision the later-registered
// predecessor's value wins. This makes the merged input deterministic for a
// fixed graph construction sequence.
func MergeLastWins(ordered []*ExecutionContext) *ExecutionContext {
	merged := NewExecutionContext()
	for _, ec := range ordered {
		if ec == nil {
			continue
		}
		for k, v := range ec.Values {
			merged.Values[k] = v
		}
	}
	return merged
}
