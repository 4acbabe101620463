package internal

import (
	"fmt"
	"slices"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

type Graph struct {
	rt  *Runtime
	log hclog.Logger

	id   uuid.UUID
	name string

	// component ids from the top-level graph down to this one, empty at the top
	saveLocation []uuid.UUID

	nodes map[NodeID]*Node
	order []NodeID // insertion order, used for export and tie breaks

	// connection index, derived from the per-input upstream fields
	downstream map[PortID][]PortID
	upstream   map[PortID]PortID

	// longest-path rank per node, nil when stale
	ranks map[NodeID]int

	// set on embedded graphs, never owning
	parent     weak.Pointer[Graph]
	parentNode NodeID
	embedded   bool

	time        float64
	activeIndex ActiveIndex
	external    map[NodeID]LoopedValue

	heap      *PriorityHeap
	scheduler *Scheduler
	batcher   *Batcher

	lifetime *Owner
	lastPass PassResult

	// goroutine draining a pass over this graph, zero when idle
	busy atomic.Int64
}

func (rt *Runtime) newGraph(id uuid.UUID, name string, saveLocation []uuid.UUID) *Graph {
	return &Graph{
		rt:           rt,
		log:          rt.log.Named("scheduler"),
		id:           id,
		name:         name,
		saveLocation: slices.Clone(saveLocation),
		nodes:        make(map[NodeID]*Node),
		downstream:   make(map[PortID][]PortID),
		upstream:     make(map[PortID]PortID),
		external:     make(map[NodeID]LoopedValue),
		heap:         NewHeap(),
		scheduler:    NewScheduler(),
		batcher:      NewBatcher(),
		lifetime:     NewOwner(),
	}
}

func (g *Graph) ID() uuid.UUID { return g.id }

func (g *Graph) Name() string { return g.name }

func (g *Graph) Runtime() *Runtime { return g.rt }

// SaveLocation returns the component path of this graph, empty at the top level.
func (g *Graph) SaveLocation() []uuid.UUID { return slices.Clone(g.saveLocation) }

func (g *Graph) IsEmbedded() bool { return g.embedded }

// Parent resolves the graph embedding this one and the component node owning
// it. It reports false at the top level, or once the parent is gone.
func (g *Graph) Parent() (*Graph, *Node, bool) {
	if !g.embedded {
		return nil, nil, false
	}

	parent := g.parent.Value()
	if parent == nil {
		return nil, nil, false
	}

	node, ok := parent.nodes[g.parentNode]
	if !ok || node.component == nil || node.component.graph != g {
		return parent, nil, false
	}

	return parent, node, true
}

func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

func (g *Graph) NodeIDs() []NodeID { return slices.Clone(g.order) }

func (g *Graph) Len() int { return len(g.order) }

// LastPass returns the result of the most recent pass over this graph.
func (g *Graph) LastPass() PassResult { return g.lastPass }

// Clock counts the passes this graph ran.
func (g *Graph) Clock() int { return g.scheduler.Time() }

func (g *Graph) Time() float64 { return g.time }

func (g *Graph) ActiveIndex() ActiveIndex { return g.activeIndex }

// SetActiveIndex selects the lane evaluators see as active, down the whole tree.
func (g *Graph) SetActiveIndex(ai ActiveIndex) {
	g.activeIndex = ai
	for _, n := range g.nodes {
		if n.component != nil {
			n.component.graph.SetActiveIndex(ai)
		}
	}
}

// Consumers returns the inputs fed by an output port.
func (g *Graph) Consumers(port PortID) []PortID {
	return slices.Clone(g.downstream[port])
}

func (g *Graph) consumers(port PortID) []PortID {
	return g.downstream[port]
}

// UpstreamOf returns the output feeding an input port.
func (g *Graph) UpstreamOf(input PortID) (PortID, bool) {
	up, ok := g.upstream[input]
	return up, ok
}

// Input looks up an input observer by port id.
func (g *Graph) Input(port PortID) (*InputObserver, bool) {
	n, ok := g.nodes[port.Node]
	if !ok {
		return nil, false
	}
	return n.Input(port.Port)
}

// Output looks up an output observer by port id.
func (g *Graph) Output(port PortID) (*OutputObserver, bool) {
	n, ok := g.nodes[port.Node]
	if !ok {
		return nil, false
	}
	return n.Output(port.Port)
}

func (g *Graph) resolveOutput(port PortID) (LoopedValue, bool) {
	o, ok := g.Output(port)
	if !ok {
		return nil, false
	}
	return o.values, true
}

func (g *Graph) externalValue(id NodeID) LoopedValue {
	if v, ok := g.external[id]; ok {
		return v
	}
	return Loop()
}

// rebuildIndex derives the connection index from the per-input upstream fields.
// An input whose upstream port no longer exists becomes a literal holding its
// last value.
func (g *Graph) rebuildIndex() {
	clear(g.downstream)
	clear(g.upstream)

	for _, id := range g.order {
		for _, in := range g.nodes[id].Inputs() {
			up, ok := in.Upstream()
			if !ok {
				continue
			}
			if _, ok := g.Output(up); !ok {
				in.setUpstream(nil)
				continue
			}
			g.upstream[in.id] = up
			g.downstream[up] = append(g.downstream[up], in.id)
		}
	}

	g.ranks = nil
}

// syncConnections pulls every connected input from its upstream output.
func (g *Graph) syncConnections() {
	for _, id := range g.order {
		for _, in := range g.nodes[id].Inputs() {
			up, ok := in.Upstream()
			if !ok {
				continue
			}
			if values, ok := g.resolveOutput(up); ok {
				in.SetValues(values)
			}
		}
	}
}

func (g *Graph) rank(id NodeID) int {
	if g.ranks == nil {
		g.ranks = g.computeRanks()
	}
	return g.ranks[id]
}

// computeRanks assigns each node its longest path from a source. Ties keep
// insertion order; a cycle is broken at its first node in insertion order,
// whose back edge then lags one pass behind.
func (g *Graph) computeRanks() map[NodeID]int {
	index := make(map[NodeID]int, len(g.order))
	for i, id := range g.order {
		index[id] = i
	}

	indegree := make([]int, len(g.order))
	edges := make([][]int, len(g.order))
	for i, id := range g.order {
		for _, in := range g.nodes[id].Inputs() {
			up, ok := in.Upstream()
			if !ok {
				continue
			}
			from, ok := index[up.Node]
			if !ok || from == i {
				continue
			}
			edges[from] = append(edges[from], i)
			indegree[i]++
		}
	}

	rank := make([]int, len(g.order))
	done := make([]bool, len(g.order))
	queue := make([]int, 0, len(g.order))
	for i := range g.order {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	resolved := 0
	next := 0
	for resolved < len(g.order) {
		if len(queue) == 0 {
			for done[next] {
				next++
			}
			indegree[next] = 0
			queue = append(queue, next)
		}

		i := queue[0]
		queue = queue[1:]
		if done[i] {
			continue
		}
		done[i] = true
		resolved++

		for _, to := range edges[i] {
			if done[to] {
				continue
			}
			if rank[i]+1 > rank[to] {
				rank[to] = rank[i] + 1
			}
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	ranks := make(map[NodeID]int, len(g.order))
	for i, id := range g.order {
		ranks[id] = rank[i]
	}
	return ranks
}

// checkGoroutine refuses use of the graph from another goroutine while a pass
// is draining. Between passes the graph may change hands freely.
func (g *Graph) checkGoroutine(op string) error {
	if !checksGoroutine {
		return nil
	}

	gid := currentGoroutine()
	if busy := g.busy.Load(); busy != 0 && busy != gid {
		return g.rt.violate(op, ErrWrongGoroutine,
			"graph %s is running a pass on goroutine %d, used from %d", g.id, busy, gid)
	}
	return nil
}

// OnDispose registers fn to run when the graph is disposed.
func (g *Graph) OnDispose(fn func()) {
	g.lifetime.OnCleanup(fn)
}

// Dispose tears the graph down along with every embedded graph.
func (g *Graph) Dispose() {
	g.lifetime.Dispose()
}

func (g *Graph) Disposed() bool { return g.lifetime.Disposed() }

// schedule queues seeds while batching, otherwise runs a pass right away.
func (g *Graph) schedule(seeds ...NodeID) error {
	g.enqueue(seeds...)

	if g.batcher.IsBatching() {
		return nil
	}

	_, err := g.flushPending()
	return err
}

func (g *Graph) enqueue(seeds ...NodeID) {
	g.batcher.Enqueue(seeds...)
}

func (g *Graph) flush() {
	g.flushPending()
}

func (g *Graph) flushPending() (PassResult, error) {
	seeds := g.batcher.Take()
	if len(seeds) == 0 {
		return PassResult{}, nil
	}

	return g.recalculate(seeds)
}

// recalculate runs a pass and, for an embedded graph whose output splitters
// changed, carries the change up to the parent.
func (g *Graph) recalculate(seeds []NodeID) (PassResult, error) {
	result, err := g.run(seeds)
	if err != nil {
		return result, err
	}

	if g.embedded && g.outputSplittersChanged(result) {
		if _, err := g.EvaluateComponentOutputs(); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (g *Graph) outputSplittersChanged(result PassResult) bool {
	for _, port := range result.ChangedOutputs {
		if n, ok := g.nodes[port.Node]; ok && n.kind == KindSplitterOutput {
			return true
		}
	}
	return false
}

// Recalculate runs one pass seeded with ids. Inside a batch the seeds are
// queued and an empty result is returned.
func (g *Graph) Recalculate(ids ...NodeID) (PassResult, error) {
	if err := g.checkGoroutine("recalculate"); err != nil {
		return PassResult{}, err
	}

	g.enqueue(ids...)
	if g.batcher.IsBatching() {
		return PassResult{}, nil
	}

	return g.flushPending()
}

// RecalculateAll runs one pass seeded with the whole graph.
func (g *Graph) RecalculateAll() (PassResult, error) {
	return g.Recalculate(g.order...)
}

func (g *Graph) lookupNode(op string, id NodeID) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s", ErrNodeNotFound, op, id)
	}
	return n, nil
}

func (g *Graph) lookupInput(op string, port PortID) (*Node, *InputObserver, error) {
	n, err := g.lookupNode(op, port.Node)
	if err != nil {
		return nil, nil, err
	}
	in, ok := n.Input(port.Port)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s: input %s", ErrPortNotFound, op, port)
	}
	return n, in, nil
}

// buildNode materializes a node from its snapshot without linking it into the graph.
func (g *Graph) buildNode(e NodeEntity) (*Node, error) {
	spec, ok := g.rt.kinds.Lookup(e.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: node %s: unknown kind %q", ErrInvalidSnapshot, e.ID, e.Kind)
	}

	n := &Node{
		id:     e.ID,
		kind:   e.Kind,
		canvas: e.Canvas,
		order:  e.Order,
		graph:  g,
	}

	if e.Kind == KindComponent {
		inst, err := g.rt.newComponentInstance(g, n, e)
		if err != nil {
			return nil, err
		}
		n.component = inst
		return n, nil
	}

	inputs, err := g.rt.refreshInputs(n.id, inputCount(spec, e), e.Inputs, nil, spec.defaultInput, g.resolveOutput)
	if err != nil {
		return nil, err
	}
	n.inputs = inputs

	n.outputs = make([]*OutputObserver, spec.Outputs)
	for i := range n.outputs {
		n.outputs[i] = NewOutputObserver(PortID{Node: n.id, Port: i}, nil)
	}

	return n, nil
}

func inputCount(spec KindSpec, e NodeEntity) int {
	if spec.Variadic && len(e.Inputs) > 0 {
		return len(e.Inputs)
	}
	return len(spec.Inputs)
}

func (g *Graph) link(n *Node) {
	g.nodes[n.id] = n
	g.order = append(g.order, n.id)
}

// AddNode builds a node from its snapshot, links it and evaluates it. A zero
// id is replaced by a fresh one.
func (g *Graph) AddNode(e NodeEntity) (*Node, error) {
	if err := g.checkGoroutine("addNode"); err != nil {
		return nil, err
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if _, exists := g.nodes[e.ID]; exists {
		return nil, g.rt.violate("addNode", nil, "node %s already exists", e.ID)
	}

	for i, conn := range e.Inputs {
		if conn.Upstream == nil {
			continue
		}
		if _, ok := g.Output(*conn.Upstream); !ok {
			return nil, fmt.Errorf("%w: addNode: input %d of %s references %s",
				ErrPortNotFound, i, e.ID, conn.Upstream)
		}
	}

	n, err := g.buildNode(e)
	if err != nil {
		return nil, err
	}

	g.link(n)
	g.rebuildIndex()

	return n, g.schedule(n.id)
}

// RemoveNode unlinks a node. Consumers keep their last value as a literal.
func (g *Graph) RemoveNode(id NodeID) error {
	if err := g.checkGoroutine("removeNode"); err != nil {
		return err
	}

	n, err := g.lookupNode("removeNode", id)
	if err != nil {
		return err
	}

	var seeds []NodeID
	for _, other := range g.order {
		if other == id {
			continue
		}
		for _, in := range g.nodes[other].Inputs() {
			if up, ok := in.Upstream(); ok && up.Node == id {
				in.setUpstream(nil)
				if !slices.Contains(seeds, other) {
					seeds = append(seeds, other)
				}
			}
		}
	}

	if n.component != nil {
		n.component.dispose()
	}

	delete(g.nodes, id)
	delete(g.external, id)
	g.order = slices.DeleteFunc(g.order, func(o NodeID) bool { return o == id })
	g.rebuildIndex()

	return g.schedule(seeds...)
}

// SetInputValues authors the loop of an unconnected input.
func (g *Graph) SetInputValues(port PortID, values LoopedValue) error {
	if err := g.checkGoroutine("setInputValues"); err != nil {
		return err
	}

	n, in, err := g.lookupInput("setInputValues", port)
	if err != nil {
		return err
	}

	if in.IsConnected() {
		return g.rt.violate("setInputValues", nil, "input %s is connected", port)
	}

	if !in.SetValues(values) {
		return nil
	}
	return g.schedule(n.id)
}

// Connect feeds an input from an output, replacing any previous connection.
func (g *Graph) Connect(from, to PortID) error {
	if err := g.checkGoroutine("connect"); err != nil {
		return err
	}

	out, ok := g.Output(from)
	if !ok {
		return fmt.Errorf("%w: connect: output %s", ErrPortNotFound, from)
	}
	n, in, err := g.lookupInput("connect", to)
	if err != nil {
		return err
	}

	in.setUpstream(&from)
	in.SetValues(out.values)
	g.rebuildIndex()

	return g.schedule(n.id)
}

// Disconnect turns a connected input back into a literal holding its last value.
func (g *Graph) Disconnect(to PortID) error {
	if err := g.checkGoroutine("disconnect"); err != nil {
		return err
	}

	n, in, err := g.lookupInput("disconnect", to)
	if err != nil {
		return err
	}
	if !in.IsConnected() {
		return nil
	}

	in.setUpstream(nil)
	g.rebuildIndex()

	return g.schedule(n.id)
}

// SetExternalValue records the last known value of an external node, e.g. an
// asset finishing to load, and re-evaluates from it.
func (g *Graph) SetExternalValue(id NodeID, values LoopedValue) error {
	if err := g.checkGoroutine("setExternalValue"); err != nil {
		return err
	}

	n, err := g.lookupNode("setExternalValue", id)
	if err != nil {
		return err
	}
	if n.kind != KindExternal {
		return g.rt.violate("setExternalValue", nil, "node %s is %s", id, n.kind)
	}

	current, ok := g.external[id]
	if ok && current.Equal(values) {
		return nil
	}
	g.external[id] = Loop(values...)

	return g.schedule(id)
}

// Step advances graph time down the tree and evaluates what depends on it.
func (g *Graph) Step(t float64) (PassResult, error) {
	g.setTime(t)
	return g.Recalculate(g.timeDriven()...)
}

func (g *Graph) setTime(t float64) {
	g.time = t
	for _, n := range g.nodes {
		if n.component != nil {
			n.component.graph.setTime(t)
		}
	}
}

func (g *Graph) timeDriven() []NodeID {
	var ids []NodeID
	for _, id := range g.order {
		n := g.nodes[id]
		switch {
		case n.kind == KindTime:
			ids = append(ids, id)
		case n.component != nil && len(n.component.graph.timeDriven()) > 0:
			ids = append(ids, id)
		}
	}
	return ids
}

// splitters returns the splitter nodes of a kind ordered by declaration index,
// then insertion order.
func (g *Graph) splitters(kind NodeKind) []*Node {
	var nodes []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.kind == kind {
			nodes = append(nodes, n)
		}
	}

	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return a.order - b.order
	})
	return nodes
}
