package internal

type InteractionKind string

const (
	InteractionDrag   InteractionKind = "drag"
	InteractionPress  InteractionKind = "press"
	InteractionScroll InteractionKind = "scroll"
)

type InteractionPhase string

const (
	PhaseChanged InteractionPhase = "changed"
	PhaseEnded   InteractionPhase = "ended"
)

// Interaction is a gesture delivered on a layer. Its UI semantics belong to
// the caller; the graph only maps it to seeds.
type Interaction struct {
	Kind  InteractionKind
	Phase InteractionPhase

	Layer NodeID

	Location    Point2D
	Translation Point2D
	Velocity    Point2D
}

// InteractionState is what an interaction node reads when evaluated.
type InteractionState struct {
	Active      bool
	Location    Point2D
	Translation Point2D
	Velocity    Point2D
}

func (ev Interaction) state() InteractionState {
	if ev.Phase == PhaseEnded {
		return InteractionState{Location: ev.Location}
	}

	return InteractionState{
		Active:      true,
		Location:    ev.Location,
		Translation: ev.Translation,
		Velocity:    ev.Velocity,
	}
}

func (k InteractionKind) nodeKind() (NodeKind, bool) {
	switch k {
	case InteractionDrag:
		return KindDragInteraction, true
	case InteractionPress:
		return KindPressInteraction, true
	case InteractionScroll:
		return KindScrollInteraction, true
	}
	return "", false
}

// InteractionSeeds maps an interaction to the nodes it dirties: the
// interaction nodes of its kind bound to its layer, plus every mouse node.
// Drag nodes only count while enabled.
func (g *Graph) InteractionSeeds(ev Interaction) []NodeID {
	kind, ok := ev.Kind.nodeKind()

	var seeds []NodeID
	for _, id := range g.order {
		n := g.nodes[id]

		switch {
		case n.kind == KindMouse:
			seeds = append(seeds, id)
		case ok && n.kind == kind && n.boundTo(ev.Layer):
			if kind == KindDragInteraction && !n.enabled() {
				continue
			}
			seeds = append(seeds, id)
		}
	}
	return seeds
}

// Interact delivers an interaction and evaluates from the nodes it dirties.
func (g *Graph) Interact(ev Interaction) (PassResult, error) {
	if err := g.checkGoroutine("interact"); err != nil {
		return PassResult{}, err
	}

	seeds := g.InteractionSeeds(ev)

	state := ev.state()
	for _, id := range seeds {
		g.nodes[id].interaction = state
	}

	g.rt.log.Named("interaction").Trace("interaction",
		"kind", ev.Kind,
		"phase", ev.Phase,
		"layer", ev.Layer,
		"seeds", len(seeds),
	)

	return g.Recalculate(seeds...)
}

// boundTo reports whether the layer input references layer.
func (n *Node) boundTo(layer NodeID) bool {
	in, ok := n.Input(0)
	if !ok {
		return false
	}
	ref, ok := in.values.At(0).(LayerRef)
	return ok && ref.Node == layer
}

func (n *Node) enabled() bool {
	in, ok := n.Input(1)
	if !ok {
		return true
	}
	b, ok := in.values.At(0).(Bool)
	return !ok || bool(b)
}
