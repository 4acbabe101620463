package internal

import (
	"fmt"
	"slices"
	"weak"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// ComponentInstance binds a component node to the graph it embeds. It owns the
// ports the parent sees, which mirror the embedded splitters by index.
type ComponentInstance struct {
	componentID uuid.UUID

	// owning node in the parent graph, a lookup key only
	node NodeID

	inputs  []*InputObserver
	outputs []*OutputObserver

	graph *Graph

	log hclog.Logger
}

func (c *ComponentInstance) ComponentID() uuid.UUID { return c.componentID }

func (c *ComponentInstance) NodeID() NodeID { return c.node }

// Graph returns the embedded graph, e.g. to deliver an out-of-band stimulus to it.
func (c *ComponentInstance) Graph() *Graph { return c.graph }

func (c *ComponentInstance) Inputs() []*InputObserver { return c.inputs }

func (c *ComponentInstance) Outputs() []*OutputObserver { return c.outputs }

func (rt *Runtime) resolveDefinition(op string, id uuid.UUID) (ComponentDefinition, error) {
	def, ok := rt.registry.Lookup(id)
	if !ok {
		return ComponentDefinition{}, rt.violate(op, ErrDefinitionNotFound, "component %s", id)
	}
	return def, nil
}

func (rt *Runtime) newComponentInstance(parent *Graph, n *Node, e NodeEntity) (*ComponentInstance, error) {
	if e.Component == nil {
		return nil, fmt.Errorf("%w: component node %s has no component id", ErrInvalidSnapshot, e.ID)
	}

	id := e.Component.ComponentID
	def, err := rt.resolveDefinition("instantiate", id)
	if err != nil {
		return nil, err
	}

	inner, err := rt.importGraph(def.Graph, append(slices.Clone(parent.saveLocation), id))
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", id, err)
	}

	inner.embedded = true
	inner.parent = weak.Make(parent)
	inner.parentNode = n.id
	inner.setTime(parent.time)
	inner.SetActiveIndex(parent.activeIndex)

	c := &ComponentInstance{
		componentID: id,
		node:        n.id,
		graph:       inner,
		log:         rt.log.Named("component"),
	}

	if err := c.refreshPorts(parent, e.Inputs); err != nil {
		inner.Dispose()
		return nil, err
	}

	parent.lifetime.AddChild(inner.lifetime)

	c.log.Debug("instantiated",
		"component", id,
		"node", n.id,
		"inputs", len(c.inputs),
		"outputs", len(c.outputs),
	)

	return c, nil
}

// refreshPorts reconciles the parent-side ports with the embedded splitters.
func (c *ComponentInstance) refreshPorts(parent *Graph, schema []PortConnection) error {
	splitters := c.graph.splitters(KindSplitterInput)

	fallback := func(i int) LoopedValue {
		return splitters[i].splitterValue()
	}

	inputs, err := c.graph.rt.refreshInputs(c.node, len(splitters), schema, c.inputs, fallback, parent.resolveOutput)
	if err != nil {
		return err
	}
	c.inputs = inputs

	c.evaluateOutputSplitters()
	return nil
}

// Evaluate runs the embedded graph end to end from the parent-side inputs and
// returns the output splitter loops, which are also mirrored into the outputs.
func (c *ComponentInstance) Evaluate() []LoopedValue {
	splitters := c.graph.splitters(KindSplitterInput)

	n := len(splitters)
	if n != len(c.inputs) {
		c.graph.rt.violate("evaluateComponent", nil, "component %s: %d input splitters for %d inputs",
			c.componentID, len(splitters), len(c.inputs))
		n = min(n, len(c.inputs))
	}

	for i := 0; i < n; i++ {
		if in, ok := splitters[i].Input(0); ok {
			in.SetValues(c.inputs[i].values)
		}
	}

	if _, err := c.graph.run(c.graph.order); err != nil {
		c.log.Warn("embedded pass refused", "component", c.componentID, "error", err)
	}

	return c.evaluateOutputSplitters()
}

// evaluateOutputSplitters copies the output splitter loops into the parent-side
// outputs, reusing observers by index.
func (c *ComponentInstance) evaluateOutputSplitters() []LoopedValue {
	splitters := c.graph.splitters(KindSplitterOutput)

	values := make([]LoopedValue, len(splitters))
	for i, s := range splitters {
		values[i] = s.splitterValue()
	}

	c.outputs = refreshOutputs(c.node, values, c.outputs)
	return values
}

// Update resyncs the instance with the current definition and the node
// snapshot. Existing ports and embedded nodes keep their identity.
func (c *ComponentInstance) Update(e NodeEntity) error {
	parent, _, ok := c.graph.Parent()
	if !ok {
		return c.graph.rt.violate("updateComponent", ErrNodeNotFound,
			"component %s is not attached to a parent graph", c.componentID)
	}

	if err := c.update(parent, e); err != nil {
		return err
	}

	parent.rebuildIndex()
	return nil
}

func (c *ComponentInstance) update(parent *Graph, e NodeEntity) error {
	rt := c.graph.rt

	if e.Component == nil {
		return fmt.Errorf("%w: component node %s has no component id", ErrInvalidSnapshot, e.ID)
	}

	id := e.Component.ComponentID
	def, err := rt.resolveDefinition("resyncComponent", id)
	if err != nil {
		return err
	}

	splitters := 0
	for _, n := range def.Graph.Nodes {
		if n.Kind == KindSplitterInput {
			splitters++
		}
	}
	if i, missing := missingSchemaInput(splitters, schemaOrCurrent(e.Inputs, c.inputs), c.inputs); missing {
		return rt.violate("resyncComponent", nil,
			"node %s: missing schema input %d for existing observer", c.node, i)
	}

	if err := c.graph.update(def.Graph); err != nil {
		return fmt.Errorf("component %s: %w", id, err)
	}

	c.componentID = id
	c.graph.setSaveLocation(append(slices.Clone(parent.saveLocation), id))

	return c.refreshPorts(parent, e.Inputs)
}

func (c *ComponentInstance) dispose() {
	c.graph.lifetime.Detach()
	c.graph.Dispose()
	c.graph.parent = weak.Pointer[Graph]{}
}

func (g *Graph) setSaveLocation(location []uuid.UUID) {
	g.saveLocation = location
	for _, n := range g.nodes {
		if n.component != nil {
			n.component.graph.setSaveLocation(append(slices.Clone(location), n.component.componentID))
		}
	}
}
