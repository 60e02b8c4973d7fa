package domain

import (
	"fmt"
	"sync"
)

// Graph is the structural model of a workflow: a set of uniquely identified
// nodes plus directed edges, kept acyclic at all times. It is built once via
// AddNode/AddEdge and is read-only for the duration of any run derived from
// it; mutating a graph with runs in flight fails with ErrGraphBusy instead of
// silently racing.
type Graph struct {
	mu sync.Mutex

	nodes map[string]*Node
	order []string // node IDs in registration order
	edges []Edge   // edges in registration order

	// Adjacency indexes, maintained incrementally on AddEdge. Slices keep
	// edge-registration order, which drives deterministic input merging.
	preds map[string][]string
	succs map[string][]string

	inFlight int
}

// NewGraph constructs an empty workflow graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		preds: make(map[string][]string),
		succs: make(map[string][]string),
	}
}

// AddNode registers a unit of work under a unique ID with an optional
// per-node profile override. It fails with ErrDuplicateNode if the ID is
// taken and ErrNilExecutable if no capability is given.
func (g *Graph) AddNode(id string, executable Executable, config *NodeConfig) error {
	if executable == nil {
		return fmt.Errorf("%w: %s", ErrNilExecutable, id)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight > 0 {
		return ErrGraphBusy
	}
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}

	g.nodes[id] = &Node{
		ID:         id,
		Executable: executable,
		Config:     config,
		index:      len(g.order),
	}
	g.order = append(g.order, id)
	return nil
}

// AddEdge declares that target's input depends on source's output. It fails
// with ErrNodeNotFound if either endpoint is missing and ErrCycleDetected if
// the edge would close a cycle. On failure the graph is left unchanged: the
// cycle check runs before any insertion.
func (g *Graph) AddEdge(source, target string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight > 0 {
		return ErrGraphBusy
	}
	if _, ok := g.nodes[source]; !ok {
		return fmt.Errorf("%w: edge source %s", ErrNodeNotFound, source)
	}
	if _, ok := g.nodes[target]; !ok {
		return fmt.Errorf("%w: edge target %s", ErrNodeNotFound, target)
	}
	if source == target {
		return fmt.Errorf("%w: self edge %s -> %s", ErrCycleDetected, source, target)
	}

	// The new edge closes a cycle iff source is already reachable from
	// target through existing edges.
	if g.reachable(target, source) {
		return fmt.Errorf("%w: edge %s -> %s", ErrCycleDetected, source, target)
	}

	g.edges = append(g.edges, Edge{Source: source, Target: target})
	g.preds[target] = append(g.preds[target], source)
	g.succs[source] = append(g.succs[source], target)
	return nil
}

// reachable walks successors depth-first. Caller holds g.mu.
func (g *Graph) reachable(from, to string) bool {
	visited := make(map[string]bool, len(g.nodes))
	stack := []string{from}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == to {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, g.succs[current]...)
	}
	return false
}

// Node returns the registered node for an ID.
func (g *Graph) Node(id string) (*Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in registration order.
func (g *Graph) Nodes() []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in registration order.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Predecessors returns the IDs of the nodes id depends on, in
// edge-registration order.
func (g *Graph) Predecessors(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.preds[id]...)
}

// Successors returns the IDs of the nodes depending on id, in
// edge-registration order.
func (g *Graph) Successors(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.succs[id]...)
}

// TopologicalOrder computes a linear order via Kahn's algorithm. Ties between
// simultaneously-ready nodes are broken by registration order so the result
// is reproducible across runs. Returns ErrCycleDetected if nodes remain with
// non-zero in-degree (only possible if invariants were bypassed).
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	indegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		indegree[id] = len(g.preds[id])
	}

	order := make([]string, 0, len(g.nodes))
	emitted := make(map[string]bool, len(g.nodes))

	for len(order) < len(g.nodes) {
		// Pick the earliest-registered ready node. The linear scan keeps
		// tie-breaking trivially correct; graphs here are small.
		next := ""
		for _, id := range g.order {
			if !emitted[id] && indegree[id] == 0 {
				next = id
				break
			}
		}
		if next == "" {
			return nil, fmt.Errorf("%w: %d nodes unresolvable", ErrCycleDetected, len(g.nodes)-len(order))
		}

		emitted[next] = true
		order = append(order, next)
		for _, succ := range g.succs[next] {
			indegree[succ]--
		}
	}

	return order, nil
}

// Validate checks the structural invariants (acyclicity; endpoints are
// enforced at insertion time). It is called lazily by the engine before the
// first execution and may be called explicitly.
func (g *Graph) Validate() error {
	_, err := g.TopologicalOrder()
	return err
}

// AcquireRun marks the graph as having a run in flight and returns the
// release function. Multiple concurrent runs are allowed — the graph is
// read-only during execution — but mutations fail until every run released.
func (g *Graph) AcquireRun() func() {
	g.mu.Lock()
	g.inFlight++
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.inFlight--
			g.mu.Unlock()
		})
	}
}
