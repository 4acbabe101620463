package main

import (
	"github.com/AnatoleLucet/stitch/internal/schemafile"
	"github.com/spf13/cobra"
)

var exportFlags struct {
	graphFlags

	sets   []string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Import a graph, apply input assignments and write the snapshot back",
	RunE:  runExport,
}

func init() {
	exportFlags.register(exportCmd)

	f := exportCmd.Flags()
	f.StringArrayVar(&exportFlags.sets, "set", nil, "Input assignment <node>:<port>=<n,...> (repeatable)")
	f.StringVarP(&exportFlags.output, "output", "o", "", "Output file, defaults to stdout")
}

func runExport(cmd *cobra.Command, _ []string) error {
	doc, err := openDocument(cmd.Context(), exportFlags.graphFlags)
	if err != nil {
		return err
	}
	defer doc.Dispose()

	if err := applyAssignments(doc, exportFlags.sets); err != nil {
		return err
	}

	snapshot := doc.Export()

	if exportFlags.output != "" {
		return schemafile.WriteGraph(exportFlags.output, snapshot)
	}

	data, err := schemafile.EncodeGraph(snapshot)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
