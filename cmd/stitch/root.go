package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AnatoleLucet/stitch"
	"github.com/AnatoleLucet/stitch/internal/schemafile"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	strict   bool
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "stitch",
	Short: "Evaluate dataflow graph snapshots",
	Long:  "stitch imports graph snapshots, resolves their components and runs\nincremental evaluation passes over them.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.BoolVar(&rootFlags.strict, "strict", false, "Panic on consistency violations instead of logging them")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error), defaults to $STITCH_LOG_LEVEL or warn")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.Version = version
}

// graphFlags are shared by every command reading a snapshot.
type graphFlags struct {
	graph      string
	components string
}

func (g *graphFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&g.graph, "graph", "", "Graph snapshot file (required)")
	f.StringVar(&g.components, "components", "", "Directory of component definitions")

	_ = cmd.MarkFlagRequired("graph")
}

func newEngine(ctx context.Context, components string) (*stitch.Engine, error) {
	cfg := stitch.ConfigFromEnv()
	if rootFlags.strict {
		cfg.Strictness = stitch.Strict
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}

	opts := cfg.Options()

	if components != "" {
		registry, err := schemafile.LoadRegistry(ctx, components)
		if err != nil {
			return nil, fmt.Errorf("load components: %w", err)
		}
		opts = append(opts, stitch.WithRegistry(registry))
	}

	return stitch.New(opts...), nil
}

func openDocument(ctx context.Context, flags graphFlags) (*stitch.Document, error) {
	snapshot, err := schemafile.ReadGraph(flags.graph)
	if err != nil {
		return nil, err
	}

	engine, err := newEngine(ctx, flags.components)
	if err != nil {
		return nil, err
	}

	doc, err := engine.Import(snapshot)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", flags.graph, err)
	}
	return doc, nil
}

// assignment is one --set flag: an input port and the numbers it takes.
type assignment struct {
	port   stitch.PortID
	values stitch.LoopedValue
}

// parseAssignment reads <node-id>:<port>=<n>[,<n>...].
func parseAssignment(s string) (assignment, error) {
	target, raw, ok := strings.Cut(s, "=")
	if !ok {
		return assignment{}, fmt.Errorf("--set %q: want <node>:<port>=<values>", s)
	}

	node, port, ok := strings.Cut(target, ":")
	if !ok {
		return assignment{}, fmt.Errorf("--set %q: want <node>:<port>", s)
	}

	id, err := uuid.Parse(node)
	if err != nil {
		return assignment{}, fmt.Errorf("--set %q: node: %w", s, err)
	}

	index, err := strconv.Atoi(port)
	if err != nil {
		return assignment{}, fmt.Errorf("--set %q: port: %w", s, err)
	}

	var numbers []float64
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return assignment{}, fmt.Errorf("--set %q: value: %w", s, err)
		}
		numbers = append(numbers, n)
	}

	return assignment{port: stitch.Port(id, index), values: stitch.Numbers(numbers...)}, nil
}

func applyAssignments(doc *stitch.Document, raw []string) error {
	var parsed []assignment
	for _, s := range raw {
		a, err := parseAssignment(s)
		if err != nil {
			return err
		}
		parsed = append(parsed, a)
	}

	var err error
	doc.Batch(func() {
		for _, a := range parsed {
			if err = doc.SetInputValues(a.port, a.values); err != nil {
				return
			}
		}
	})
	return err
}
