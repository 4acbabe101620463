package internal

import "fmt"

type PassState int

const (
	PassIdle PassState = iota
	PassSeeded
	PassRunning
)

func (s PassState) String() string {
	switch s {
	case PassSeeded:
		return "seeded"
	case PassRunning:
		return "running"
	default:
		return "idle"
	}
}

// PassResult is what a pass exposes to collaborators once it drained.
type PassResult struct {
	// nodes evaluated, in evaluation order, each at most once
	Evaluated []NodeID

	// output ports whose loop changed
	ChangedOutputs []PortID
}

func (r PassResult) WasEvaluated(id NodeID) bool {
	for _, e := range r.Evaluated {
		if e == id {
			return true
		}
	}
	return false
}

func (r PassResult) Changed(port PortID) bool {
	for _, p := range r.ChangedOutputs {
		if p == port {
			return true
		}
	}
	return false
}

type Scheduler struct {
	// incremented each time a pass drains
	clock int

	state PassState
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		clock: 0,
		state: PassIdle,
	}
}

func (s *Scheduler) State() PassState { return s.state }

func (s *Scheduler) Time() int { return s.clock }

// Seed moves an idle scheduler to Seeded. It reports false if a pass is in flight.
func (s *Scheduler) Seed() bool {
	if s.state != PassIdle {
		return false
	}
	s.state = PassSeeded
	return true
}

// Run drains a seeded pass. There is no mid-pass cancellation.
func (s *Scheduler) Run(fn func()) {
	if s.state != PassSeeded {
		return
	}

	s.state = PassRunning
	defer func() {
		s.clock++
		s.state = PassIdle
	}()

	fn()
}

// pass is the bookkeeping of one draining pass over a graph.
type pass struct {
	graph   *Graph
	visited map[NodeID]bool
	result  PassResult
}

// run evaluates the seed set and everything whose inputs actually changed
// downstream of it. Unknown seeds are ignored.
func (g *Graph) run(seeds []NodeID) (PassResult, error) {
	if err := g.checkGoroutine("run"); err != nil {
		return PassResult{}, err
	}

	if !g.scheduler.Seed() {
		return PassResult{}, g.rt.violate("run", ErrPassInFlight,
			"graph %s is %s", g.id, g.scheduler.State())
	}

	if checksGoroutine {
		g.busy.Store(currentGoroutine())
		defer g.busy.Store(0)
	}

	g.heap.Clear()

	p := &pass{
		graph:   g,
		visited: make(map[NodeID]bool, len(seeds)),
	}

	seedSet := make(map[NodeID]bool, len(seeds))
	for _, id := range seeds {
		seedSet[id] = true
	}
	for _, id := range g.order {
		if seedSet[id] {
			g.heap.Insert(g.nodes[id], g.rank(id))
		}
	}

	g.scheduler.Run(func() {
		g.heap.Drain(p.evaluate)
	})

	g.lastPass = p.result
	g.log.Trace("pass drained",
		"graph", g.id,
		"clock", g.scheduler.Time(),
		"seeds", len(seedSet),
		"evaluated", len(p.result.Evaluated),
		"changed", len(p.result.ChangedOutputs),
	)

	return p.result, nil
}

func (p *pass) evaluate(node *Node) {
	if p.visited[node.id] {
		return
	}
	p.visited[node.id] = true
	p.result.Evaluated = append(p.result.Evaluated, node.id)

	g := p.graph
	previous := outputValues(node.Outputs())

	results, ok := g.evaluateNode(node)
	if !ok {
		return
	}

	outputs := node.Outputs()
	if node.component == nil && len(results) != len(outputs) {
		g.rt.violate("evaluate", nil, "node %s (%s) returned %d outputs, has %d",
			node.id, node.kind, len(results), len(outputs))
	}

	for i, o := range outputs {
		if i < len(results) {
			o.SetValues(results[i])
		}

		if i < len(previous) && previous[i].Equal(o.values) {
			continue
		}

		port := o.id
		p.result.ChangedOutputs = append(p.result.ChangedOutputs, port)
		p.push(port, o.values)
	}
}

// push mirrors a changed output into every connected input and enqueues the
// consumers not yet evaluated this pass.
func (p *pass) push(port PortID, values LoopedValue) {
	g := p.graph

	for _, in := range g.consumers(port) {
		consumer, ok := g.nodes[in.Node]
		if !ok {
			continue
		}

		if o, ok := consumer.Input(in.Port); ok {
			o.SetValues(values)
		}

		if !p.visited[consumer.id] {
			g.heap.Insert(consumer, g.rank(consumer.id))
		}
	}
}

// evaluateNode dispatches on the node kind. It reports false when the
// evaluator panicked in lenient mode, outputs are then left untouched.
func (g *Graph) evaluateNode(node *Node) ([]LoopedValue, bool) {
	spec, ok := g.rt.kinds.Lookup(node.kind)
	if !ok || spec.Eval == nil {
		g.rt.violate("evaluate", nil, "no evaluator for kind %q", node.kind)
		return nil, false
	}

	ec := EvalContext{
		Graph:       g,
		Node:        node,
		Time:        g.time,
		ActiveIndex: g.activeIndex,
	}

	var results []LoopedValue
	ok = g.rt.guard(fmt.Sprintf("evaluate %s", node.kind), func() {
		results = spec.Eval(ec, inputValues(node.Inputs()))
	})
	return results, ok
}
