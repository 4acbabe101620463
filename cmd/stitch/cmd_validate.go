package main

import (
	"fmt"

	"github.com/AnatoleLucet/stitch/internal/schemafile"
	"github.com/spf13/cobra"
)

var validateFlags graphFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a graph snapshot and resolve its components",
	RunE:  runValidate,
}

func init() {
	validateFlags.register(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	snapshot, err := schemafile.ReadGraph(validateFlags.graph)
	if err != nil {
		return err
	}

	engine, err := newEngine(cmd.Context(), validateFlags.components)
	if err != nil {
		return err
	}

	if err := engine.Validate(snapshot); err != nil {
		return err
	}

	// resolving components catches what the snapshot alone cannot tell
	doc, err := engine.Import(snapshot)
	if err != nil {
		return err
	}
	defer doc.Dispose()

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes ok\n", validateFlags.graph, doc.Len())
	return nil
}
