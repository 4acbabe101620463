package schemafile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnatoleLucet/stitch/internal"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() internal.GraphEntity {
	x := internal.NodeEntity{
		ID:     uuid.New(),
		Kind:   internal.KindValue,
		Canvas: internal.Canvas{Position: internal.Point2D{X: 12, Y: -3}, ZIndex: 1},
		Inputs: []internal.PortConnection{
			internal.Literal(internal.Loop(internal.Number(1), internal.Text("a"), internal.Color{R: 1, A: 0.5})),
		},
	}
	y := internal.NodeEntity{
		ID:   uuid.New(),
		Kind: internal.KindAdd,
		Inputs: []internal.PortConnection{
			internal.Upstream(internal.PortID{Node: x.ID}),
			internal.Literal(internal.Loop(internal.LayerRef{Node: uuid.New()}, internal.None{})),
		},
	}
	comp := internal.NodeEntity{
		ID:        uuid.New(),
		Kind:      internal.KindComponent,
		Order:     3,
		Component: &internal.ComponentEntity{ComponentID: uuid.New()},
	}

	return internal.GraphEntity{
		ID:    uuid.New(),
		Name:  "sample",
		Nodes: []internal.NodeEntity{x, y, comp},
	}
}

func component(name string) internal.ComponentDefinition {
	in := internal.NodeEntity{
		ID:     uuid.New(),
		Kind:   internal.KindSplitterInput,
		Inputs: []internal.PortConnection{internal.Literal(internal.Numbers(0))},
	}
	return internal.ComponentDefinition{
		ID:    uuid.New(),
		Name:  name,
		Graph: internal.GraphEntity{ID: uuid.New(), Nodes: []internal.NodeEntity{in}},
	}
}

func writeComponent(t *testing.T, dir, file string, def internal.ComponentDefinition) {
	t.Helper()

	data, err := EncodeComponent(def)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), data, 0o644))
}

func TestGraphRoundTrip(t *testing.T) {
	want := sampleGraph()
	path := filepath.Join(t.TempDir(), "graph.yaml")

	require.NoError(t, WriteGraph(path, want))
	got, err := ReadGraph(path)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestDecodeGraph(t *testing.T) {
	t.Run("unknown fields", func(t *testing.T) {
		_, err := DecodeGraph([]byte("id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8\nnodez: []\n"))
		assert.ErrorContains(t, err, "decode graph")
	})

	t.Run("unknown value type", func(t *testing.T) {
		data := []byte(`id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8
nodes:
  - id: 6ba7b811-9dad-11d1-80b4-00c04fd430c8
    kind: value
    canvas:
      position: {x: 0, y: 0}
    inputs:
      - values:
          - {type: quaternion, value: [1, 2, 3, 4]}
`)
		_, err := DecodeGraph(data)
		assert.ErrorContains(t, err, `unknown value type "quaternion"`)
	})

	t.Run("arity", func(t *testing.T) {
		data := []byte(`id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8
nodes:
  - id: 6ba7b811-9dad-11d1-80b4-00c04fd430c8
    kind: value
    canvas:
      position: {x: 0, y: 0}
    inputs:
      - values:
          - {type: point2d, value: [1, 2, 3]}
`)
		_, err := DecodeGraph(data)
		assert.ErrorContains(t, err, "point2d takes 2 components, got 3")
	})

	t.Run("imports", func(t *testing.T) {
		data := []byte(`id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8
name: doubled
nodes:
  - id: 6ba7b811-9dad-11d1-80b4-00c04fd430c8
    kind: value
    canvas:
      position: {x: 0, y: 0}
    inputs:
      - values:
          - {type: number, value: 21}
  - id: 6ba7b812-9dad-11d1-80b4-00c04fd430c8
    kind: multiply
    canvas:
      position: {x: 100, y: 0}
    inputs:
      - upstream: {node: 6ba7b811-9dad-11d1-80b4-00c04fd430c8, port: 0}
      - values:
          - {type: number, value: 2}
`)
		e, err := DecodeGraph(data)
		require.NoError(t, err)

		rt := internal.NewRuntime(internal.WithStrictness(internal.Lenient))
		g, err := rt.Import(e)
		require.NoError(t, err)
		_, err = g.RecalculateAll()
		require.NoError(t, err)

		o, ok := g.Output(internal.PortID{Node: uuid.MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")})
		require.True(t, ok)
		assert.True(t, internal.Numbers(42).Equal(o.AllLoopedValues()))
	})
}

func TestLoadComponents(t *testing.T) {
	ctx := context.Background()

	t.Run("file name order", func(t *testing.T) {
		dir := t.TempDir()
		b, a := component("b"), component("a")
		writeComponent(t, dir, "b.yaml", b)
		writeComponent(t, dir, "a.yml", a)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not yaml"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

		defs, err := LoadComponents(ctx, dir)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Equal(t, a.ID, defs[0].ID)
		assert.Equal(t, b.ID, defs[1].ID)
	})

	t.Run("reports every broken file", func(t *testing.T) {
		dir := t.TempDir()
		writeComponent(t, dir, "ok.yaml", component("ok"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"), []byte("id: [\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "two.yaml"), []byte("bogus: 1\n"), 0o644))

		_, err := LoadComponents(ctx, dir)
		require.Error(t, err)
		assert.ErrorContains(t, err, "one.yaml")
		assert.ErrorContains(t, err, "two.yaml")
	})

	t.Run("missing dir", func(t *testing.T) {
		_, err := LoadComponents(ctx, filepath.Join(t.TempDir(), "nope"))
		assert.ErrorContains(t, err, "read components")
	})

	t.Run("cancelled", func(t *testing.T) {
		dir := t.TempDir()
		writeComponent(t, dir, "a.yaml", component("a"))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := LoadComponents(cancelled, dir)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	def := component("passthrough")
	writeComponent(t, dir, "passthrough.yaml", def)

	r, err := LoadRegistry(context.Background(), dir)
	require.NoError(t, err)

	got, ok := r.Lookup(def.ID)
	require.True(t, ok)
	assert.Equal(t, "passthrough", got.Name)
	assert.Equal(t, []uuid.UUID{def.ID}, r.IDs())
}
