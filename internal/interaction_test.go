package internal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteraction(t *testing.T) {
	layer := uuid.New()
	other := uuid.New()
	on := func(id uuid.UUID) PortConnection { return Literal(Loop(LayerRef{Node: id})) }

	mouse := newNode(KindMouse)
	press := newNode(KindPressInteraction, on(layer))
	elsewhere := newNode(KindPressInteraction, on(other))
	drag := newNode(KindDragInteraction, on(layer), Literal(Loop(Bool(true))))
	disabled := newNode(KindDragInteraction, on(layer), Literal(Loop(Bool(false))))
	scroll := newNode(KindScrollInteraction, on(layer))

	setup := func(t *testing.T) *Graph {
		t.Helper()
		return mustImport(t, newTestRuntime(), graphOf(mouse, press, elsewhere, drag, disabled, scroll))
	}

	t.Run("seeds", func(t *testing.T) {
		g := setup(t)

		tests := []struct {
			name string
			ev   Interaction
			want []NodeID
		}{
			{"press on layer", Interaction{Kind: InteractionPress, Layer: layer}, ids(mouse, press)},
			{"press elsewhere", Interaction{Kind: InteractionPress, Layer: other}, ids(mouse, elsewhere)},
			{"drag skips disabled nodes", Interaction{Kind: InteractionDrag, Layer: layer}, ids(mouse, drag)},
			{"scroll", Interaction{Kind: InteractionScroll, Layer: layer}, ids(mouse, scroll)},
			{"unbound layer", Interaction{Kind: InteractionPress, Layer: uuid.New()}, ids(mouse)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, g.InteractionSeeds(tt.ev))
			})
		}
	})

	t.Run("press toggles active", func(t *testing.T) {
		g := setup(t)
		at := Point2D{X: 3, Y: 4}

		result, err := g.Interact(Interaction{Kind: InteractionPress, Phase: PhaseChanged, Layer: layer, Location: at})
		require.NoError(t, err)

		assert.Equal(t, ids(mouse, press), result.Evaluated)
		assert.True(t, Loop(at).Equal(outputOf(t, g, port(press, 0))))
		assert.True(t, Loop(Bool(true)).Equal(outputOf(t, g, port(press, 1))))
		assert.True(t, Loop(Bool(true)).Equal(outputOf(t, g, port(mouse, 1))))

		_, err = g.Interact(Interaction{Kind: InteractionPress, Phase: PhaseEnded, Layer: layer, Location: at})
		require.NoError(t, err)

		assert.True(t, Loop(Bool(false)).Equal(outputOf(t, g, port(press, 1))))
		assert.True(t, Loop(at).Equal(outputOf(t, g, port(press, 0))))
	})

	t.Run("drag reports translation and velocity", func(t *testing.T) {
		g := setup(t)

		_, err := g.Interact(Interaction{
			Kind:        InteractionDrag,
			Phase:       PhaseChanged,
			Layer:       layer,
			Location:    Point2D{X: 10, Y: 10},
			Translation: Point2D{X: 2, Y: -1},
			Velocity:    Point2D{X: 0.5},
		})
		require.NoError(t, err)

		assert.True(t, Loop(Point2D{X: 2, Y: -1}).Equal(outputOf(t, g, port(drag, 1))))
		assert.True(t, Loop(Point2D{X: 0.5}).Equal(outputOf(t, g, port(drag, 2))))

		n, _ := g.Node(disabled.ID)
		assert.False(t, n.Interaction().Active)
	})
}
