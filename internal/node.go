package internal

type NodeKind string

const (
	KindValue             NodeKind = "value"
	KindAdd               NodeKind = "add"
	KindSubtract          NodeKind = "subtract"
	KindMultiply          NodeKind = "multiply"
	KindLoopBuilder       NodeKind = "loopBuilder"
	KindLoopCount         NodeKind = "loopCount"
	KindTime              NodeKind = "time"
	KindExternal          NodeKind = "external"
	KindSplitterInput     NodeKind = "splitterInput"
	KindSplitterOutput    NodeKind = "splitterOutput"
	KindDragInteraction   NodeKind = "dragInteraction"
	KindPressInteraction  NodeKind = "pressInteraction"
	KindScrollInteraction NodeKind = "scrollInteraction"
	KindMouse             NodeKind = "mouse"
	KindComponent         NodeKind = "component"
)

// Canvas is layout metadata. It never affects evaluation.
type Canvas struct {
	Position Point2D `yaml:"position"`
	ZIndex   float64 `yaml:"zIndex,omitempty"`
}

type Node struct {
	id     NodeID
	kind   NodeKind
	canvas Canvas

	// declaration index, orders splitters inside an embedded graph
	order int

	inputs  []*InputObserver
	outputs []*OutputObserver

	// set on component nodes only, the instance then owns the ports
	component *ComponentInstance

	// last interaction parameters delivered to this node
	interaction InteractionState

	// owning graph, reverse lookup only
	graph *Graph
}

func (n *Node) ID() NodeID { return n.id }

func (n *Node) Kind() NodeKind { return n.kind }

func (n *Node) Canvas() Canvas { return n.canvas }

func (n *Node) Order() int { return n.order }

func (n *Node) Graph() *Graph { return n.graph }

func (n *Node) Inputs() []*InputObserver {
	if n.component != nil {
		return n.component.inputs
	}
	return n.inputs
}

func (n *Node) Outputs() []*OutputObserver {
	if n.component != nil {
		return n.component.outputs
	}
	return n.outputs
}

// Input returns the input observer at index i.
func (n *Node) Input(i int) (*InputObserver, bool) {
	inputs := n.Inputs()
	if i < 0 || i >= len(inputs) {
		return nil, false
	}
	return inputs[i], true
}

// Output returns the output observer at index i.
func (n *Node) Output(i int) (*OutputObserver, bool) {
	outputs := n.Outputs()
	if i < 0 || i >= len(outputs) {
		return nil, false
	}
	return outputs[i], true
}

func (n *Node) Component() (*ComponentInstance, bool) {
	return n.component, n.component != nil
}

func (n *Node) Interaction() InteractionState { return n.interaction }

// splitterValue is the loop a splitter row holds. Its input is kept in sync
// with upstream so it is never older than the output.
func (n *Node) splitterValue() LoopedValue {
	if len(n.inputs) > 0 {
		return n.inputs[0].values
	}
	if len(n.outputs) > 0 {
		return n.outputs[0].values
	}
	return Loop()
}

// Schema snapshots the node. Connected inputs are emitted as upstream refs only.
func (n *Node) Schema() NodeEntity {
	inputs := n.Inputs()

	entity := NodeEntity{
		ID:     n.id,
		Kind:   n.kind,
		Canvas: n.canvas,
		Order:  n.order,
	}

	if len(inputs) > 0 {
		entity.Inputs = make([]PortConnection, len(inputs))
		for i, o := range inputs {
			entity.Inputs[i] = o.Schema().Connection
		}
	}

	if n.component != nil {
		entity.Component = &ComponentEntity{ComponentID: n.component.componentID}
	}

	return entity
}
