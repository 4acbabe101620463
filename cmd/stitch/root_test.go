package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnatoleLucet/stitch"
	"github.com/AnatoleLucet/stitch/internal/schemafile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignment(t *testing.T) {
	id := uuid.New()

	t.Run("valid", func(t *testing.T) {
		a, err := parseAssignment(id.String() + ":1=1, 2.5,3")
		require.NoError(t, err)

		assert.Equal(t, stitch.Port(id, 1), a.port)
		assert.True(t, stitch.Numbers(1, 2.5, 3).Equal(a.values))
	})

	tests := []struct {
		name  string
		input string
		err   string
	}{
		{"no values", id.String() + ":0", "want <node>:<port>=<values>"},
		{"no port", id.String() + "=1", "want <node>:<port>"},
		{"bad node", "nope:0=1", "node"},
		{"bad port", id.String() + ":x=1", "port"},
		{"bad value", id.String() + ":0=1,two", "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAssignment(tt.input)
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func writeGraph(t *testing.T) (string, stitch.NodeEntity, stitch.NodeEntity) {
	t.Helper()

	x := stitch.NewNode(stitch.KindValue, stitch.Literal(stitch.Number(2)))
	double := stitch.NewNode(stitch.KindMultiply, stitch.Upstream(stitch.Port(x.ID, 0)), stitch.Literal(stitch.Number(2)))

	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, schemafile.WriteGraph(path, stitch.GraphEntity{
		ID:    uuid.New(),
		Name:  "cli",
		Nodes: []stitch.NodeEntity{x, double},
	}))
	return path, x, double
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("STITCH_LOG_LEVEL", "off")

	t.Run("validate", func(t *testing.T) {
		path, _, _ := writeGraph(t)

		out, err := execute(t, "validate", "--graph", path)
		require.NoError(t, err)
		assert.Contains(t, out, "2 nodes ok")
	})

	t.Run("run", func(t *testing.T) {
		path, x, double := writeGraph(t)

		out, err := execute(t, "run", "--graph", path, "--set", x.ID.String()+":0=3,4")
		require.NoError(t, err)

		assert.Contains(t, out, "evaluated 2 nodes, 2 outputs changed")
		assert.Contains(t, out, stitch.Port(double.ID, 0).String()+" = [6, 8]")
	})

	t.Run("export", func(t *testing.T) {
		path, x, _ := writeGraph(t)
		target := filepath.Join(t.TempDir(), "out.yaml")

		_, err := execute(t, "export", "--graph", path, "--set", x.ID.String()+":0=7", "-o", target)
		require.NoError(t, err)

		_, err = os.Stat(target)
		require.NoError(t, err)

		e, err := schemafile.ReadGraph(target)
		require.NoError(t, err)
		assert.True(t, stitch.Numbers(7).Equal(e.Nodes[0].Inputs[0].Values))
	})
}
