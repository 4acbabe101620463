package main

import (
	"fmt"
	"io"

	"github.com/AnatoleLucet/stitch"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runFlags struct {
	graphFlags

	seeds []string
	sets  []string
	step  float64
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Import a graph, evaluate it and print the outputs that changed",
	RunE:  runRun,
}

func init() {
	runFlags.register(runCmd)

	f := runCmd.Flags()
	f.StringSliceVar(&runFlags.seeds, "seed", nil, "Node id to seed the pass with (repeatable), defaults to the whole graph")
	f.StringArrayVar(&runFlags.sets, "set", nil, "Input assignment <node>:<port>=<n,...> applied after the first pass (repeatable)")
	f.Float64Var(&runFlags.step, "step", 0, "Advance graph time to this value after the first pass")
}

func runRun(cmd *cobra.Command, _ []string) error {
	doc, err := openDocument(cmd.Context(), runFlags.graphFlags)
	if err != nil {
		return err
	}
	defer doc.Dispose()

	var seeds []stitch.NodeID
	for _, s := range runFlags.seeds {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("--seed %q: %w", s, err)
		}
		seeds = append(seeds, id)
	}

	var result stitch.PassResult
	if len(seeds) == 0 {
		result, err = doc.RecalculateAll()
	} else {
		result, err = doc.Recalculate(seeds...)
	}
	if err != nil {
		return err
	}

	if len(runFlags.sets) > 0 {
		if err := applyAssignments(doc, runFlags.sets); err != nil {
			return err
		}
		result = doc.LastPass()
	}

	if cmd.Flags().Changed("step") {
		if result, err = doc.Step(runFlags.step); err != nil {
			return err
		}
	}

	printResult(cmd.OutOrStdout(), doc, result)
	return nil
}

func printResult(w io.Writer, doc *stitch.Document, result stitch.PassResult) {
	fmt.Fprintf(w, "evaluated %d nodes, %d outputs changed\n", len(result.Evaluated), len(result.ChangedOutputs))
	for _, port := range result.ChangedOutputs {
		values, ok := doc.Value(port)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s = %s\n", port, values)
	}
}
