package pipeline

import "fmt"

// End is the implicit terminal marker. An edge pointing at End completes
// the run.
const End = "end"

// Graph is a registry of steps plus directed edges and one entry step.
// Edges are unconditional: a step transitions to its single successor as
// soon as its delta is applied. Fan-out is expressed with the parallel
// group step kind, never with multiple edges.
type Graph struct {
	steps map[string]Step
	edges map[string]string
	entry string
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		steps: make(map[string]Step),
		edges: make(map[string]string),
	}
}

// AddStep registers a step. Step ids must be unique and must not shadow
// the terminal marker.
func (g *Graph) AddStep(s Step) error {
	if s == nil {
		return fmt.Errorf("cannot add nil step")
	}
	id := s.ID()
	if id == End {
		return fmt.Errorf("step id %q is reserved for the terminal marker", End)
	}
	if _, exists := g.steps[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, id)
	}
	g.steps[id] = s
	return nil
}

// AddEdge registers the unconditional transition from one step to another
// step or to End. A step may have at most one outgoing edge.
func (g *Graph) AddEdge(from, to string) error {
	if _, exists := g.edges[from]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEdge, from)
	}
	g.edges[from] = to
	return nil
}

// SetEntryPoint designates the step where execution begins.
func (g *Graph) SetEntryPoint(id string) error {
	if id == "" {
		return ErrNoEntryPoint
	}
	g.entry = id
	return nil
}

// Compile validates the graph's structure and returns it in executable
// form. Every edge endpoint must name a registered step or End, the entry
// point must be registered, and every step must carry an outgoing edge so
// no run can stall short of the terminal marker. Cycles are not rejected
// here; the runner's step ceiling bounds them at execution time.
func (g *Graph) Compile() (*CompiledGraph, error) {
	if g.entry == "" {
		return nil, ErrNoEntryPoint
	}
	if _, ok := g.steps[g.entry]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrUndefinedStep, g.entry)
	}

	for from, to := range g.edges {
		if _, ok := g.steps[from]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrUndefinedStep, from)
		}
		if to != End {
			if _, ok := g.steps[to]; !ok {
				return nil, fmt.Errorf("%w: edge target %s", ErrUndefinedStep, to)
			}
		}
	}

	for id := range g.steps {
		if _, ok := g.edges[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoTerminal, id)
		}
	}

	return &CompiledGraph{
		steps: g.steps,
		edges: g.edges,
		entry: g.entry,
	}, nil
}

// CompiledGraph is a structurally validated graph ready for execution.
type CompiledGraph struct {
	steps map[string]Step
	edges map[string]string
	entry string
}

// Entry returns the id of the entry step.
func (c *CompiledGraph) Entry() string {
	return c.entry
}

// Step returns the registered step for an id.
func (c *CompiledGraph) Step(id string) (Step, bool) {
	s, ok := c.steps[id]
	return s, ok
}

// Next returns the successor of a step id.
func (c *CompiledGraph) Next(id string) string {
	return c.edges[id]
}
