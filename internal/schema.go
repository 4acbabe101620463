package internal

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

type ComponentEntity struct {
	ComponentID uuid.UUID `yaml:"componentId"`
}

// NodeEntity is the snapshot of one node. Inputs are positional.
type NodeEntity struct {
	ID        NodeID           `yaml:"id"`
	Kind      NodeKind         `yaml:"kind"`
	Canvas    Canvas           `yaml:"canvas"`
	Order     int              `yaml:"order,omitempty"`
	Inputs    []PortConnection `yaml:"inputs,omitempty"`
	Component *ComponentEntity `yaml:"component,omitempty"`
}

type GraphEntity struct {
	ID    uuid.UUID    `yaml:"id"`
	Name  string       `yaml:"name,omitempty"`
	Nodes []NodeEntity `yaml:"nodes"`
}

// ComponentDefinition is the last encoded graph of a reusable component.
type ComponentDefinition struct {
	ID    uuid.UUID   `yaml:"id"`
	Name  string      `yaml:"name,omitempty"`
	Graph GraphEntity `yaml:"graph"`
}

// Validate reports every problem of a snapshot at once.
func (rt *Runtime) Validate(e GraphEntity) error {
	return Validate(e, rt.kinds)
}

func Validate(e GraphEntity, kinds KindTable) error {
	var result *multierror.Error

	outputs := make(map[NodeID]int, len(e.Nodes))
	for _, n := range e.Nodes {
		if n.ID == uuid.Nil {
			result = multierror.Append(result, fmt.Errorf("node with nil id (kind %q)", n.Kind))
			continue
		}
		if _, dup := outputs[n.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("duplicate node id %s", n.ID))
			continue
		}

		spec, ok := kinds.Lookup(n.Kind)
		switch {
		case !ok:
			result = multierror.Append(result, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind))
			outputs[n.ID] = -1
		case n.Kind == KindComponent:
			// output count lives in the definition
			outputs[n.ID] = -1
		default:
			outputs[n.ID] = spec.Outputs
		}
	}

	for _, n := range e.Nodes {
		spec, ok := kinds.Lookup(n.Kind)
		if !ok {
			continue
		}

		component := n.Kind == KindComponent
		if component && n.Component == nil {
			result = multierror.Append(result, fmt.Errorf("node %s: component node without component id", n.ID))
		}
		if !component && n.Component != nil {
			result = multierror.Append(result, fmt.Errorf("node %s: %s node carries a component id", n.ID, n.Kind))
		}
		if !spec.Variadic && len(n.Inputs) != len(spec.Inputs) {
			result = multierror.Append(result, fmt.Errorf("node %s: %s takes %d inputs, snapshot declares %d",
				n.ID, n.Kind, len(spec.Inputs), len(n.Inputs)))
		}

		for i, conn := range n.Inputs {
			switch {
			case conn.Upstream != nil && len(conn.Values) > 0:
				result = multierror.Append(result, fmt.Errorf("node %s: input %d has both upstream and values", n.ID, i))
			case conn.isEmpty() && !component:
				result = multierror.Append(result, fmt.Errorf("node %s: input %d has neither upstream nor values", n.ID, i))
			}

			if conn.Upstream == nil {
				continue
			}

			count, ok := outputs[conn.Upstream.Node]
			switch {
			case !ok:
				result = multierror.Append(result, fmt.Errorf("node %s: input %d references missing node %s",
					n.ID, i, conn.Upstream.Node))
			case conn.Upstream.Port < 0 || (count >= 0 && conn.Upstream.Port >= count):
				result = multierror.Append(result, fmt.Errorf("node %s: input %d references missing port %s",
					n.ID, i, conn.Upstream))
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return nil
}

// Import builds a top-level graph from a snapshot. No pass runs.
func (rt *Runtime) Import(e GraphEntity) (*Graph, error) {
	return rt.importGraph(e, nil)
}

func (rt *Runtime) importGraph(e GraphEntity, location []uuid.UUID) (*Graph, error) {
	if err := rt.Validate(e); err != nil {
		return nil, err
	}

	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	g := rt.newGraph(id, e.Name, location)
	for _, ne := range e.Nodes {
		n, err := g.buildNode(ne)
		if err != nil {
			g.Dispose()
			return nil, err
		}
		g.link(n)
	}

	g.syncConnections()
	g.rebuildIndex()

	rt.log.Named("schema").Debug("imported graph",
		"graph", g.id,
		"nodes", len(g.order),
		"location", fmt.Sprint(location),
	)

	return g, nil
}

// Export snapshots the graph, nodes in insertion order.
func (g *Graph) Export() GraphEntity {
	e := GraphEntity{
		ID:   g.id,
		Name: g.name,
	}

	for _, n := range g.Nodes() {
		e.Nodes = append(e.Nodes, n.Schema())
	}
	return e
}

// Update resyncs the graph with a snapshot in place. Nodes keeping their id
// and kind keep their identity and their observers; others are created or
// dropped. No pass runs.
func (g *Graph) Update(e GraphEntity) error {
	if err := g.checkGoroutine("update"); err != nil {
		return err
	}
	return g.update(e)
}

func (g *Graph) update(e GraphEntity) error {
	if err := g.rt.Validate(e); err != nil {
		return err
	}

	var result *multierror.Error

	nodes := make(map[NodeID]*Node, len(e.Nodes))
	order := make([]NodeID, 0, len(e.Nodes))
	for _, ne := range e.Nodes {
		existing, ok := g.nodes[ne.ID]

		if ok && existing.kind == ne.Kind {
			if err := g.updateNode(existing, ne); err != nil {
				result = multierror.Append(result, err)
			}
			nodes[ne.ID] = existing
			order = append(order, ne.ID)
			continue
		}

		n, err := g.buildNode(ne)
		if err != nil {
			result = multierror.Append(result, err)
			if ok {
				nodes[ne.ID] = existing
				order = append(order, ne.ID)
			}
			continue
		}

		if ok && existing.component != nil {
			existing.component.dispose()
		}
		nodes[ne.ID] = n
		order = append(order, ne.ID)
	}

	for id, n := range g.nodes {
		if _, kept := nodes[id]; kept {
			continue
		}
		if n.component != nil {
			n.component.dispose()
		}
		delete(g.external, id)
	}

	g.name = e.Name
	g.nodes = nodes
	g.order = order

	g.syncConnections()
	g.rebuildIndex()

	return result.ErrorOrNil()
}

func (g *Graph) updateNode(n *Node, e NodeEntity) error {
	if n.component != nil {
		if err := n.component.update(g, e); err != nil {
			return err
		}
	} else {
		spec, _ := g.rt.kinds.Lookup(n.kind)
		count := inputCount(spec, e)
		if spec.Variadic && len(e.Inputs) == 0 && len(n.inputs) > 0 {
			count = len(n.inputs)
		}
		inputs, err := g.rt.refreshInputs(n.id, count, e.Inputs, n.inputs, spec.defaultInput, g.resolveOutput)
		if err != nil {
			return err
		}
		n.inputs = inputs
	}

	n.canvas = e.Canvas
	n.order = e.Order
	return nil
}
