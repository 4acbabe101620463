package internal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(opts ...Option) *Runtime {
	base := []Option{
		WithLogger(hclog.NewNullLogger()),
		WithStrictness(Lenient),
	}
	return NewRuntime(append(base, opts...)...)
}

func newNode(kind NodeKind, inputs ...PortConnection) NodeEntity {
	return NodeEntity{ID: uuid.New(), Kind: kind, Inputs: inputs}
}

func lit(ns ...float64) PortConnection {
	return Literal(Numbers(ns...))
}

func from(e NodeEntity, port int) PortConnection {
	return Upstream(PortID{Node: e.ID, Port: port})
}

func port(e NodeEntity, i int) PortID {
	return PortID{Node: e.ID, Port: i}
}

func graphOf(nodes ...NodeEntity) GraphEntity {
	return GraphEntity{ID: uuid.New(), Name: "test", Nodes: nodes}
}

func mustImport(t *testing.T, rt *Runtime, e GraphEntity) *Graph {
	t.Helper()

	g, err := rt.Import(e)
	require.NoError(t, err)
	return g
}

func outputOf(t *testing.T, g *Graph, p PortID) LoopedValue {
	t.Helper()

	o, ok := g.Output(p)
	require.True(t, ok, "no output %s", p)
	return o.AllLoopedValues()
}

func inputOf(t *testing.T, g *Graph, p PortID) LoopedValue {
	t.Helper()

	in, ok := g.Input(p)
	require.True(t, ok, "no input %s", p)
	return in.AllLoopedValues()
}

func ids(nodes ...NodeEntity) []NodeID {
	out := make([]NodeID, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
