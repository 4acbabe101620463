// stitch evaluates graph snapshots from the command line.
//
// Usage:
//
//	stitch run --graph=<file> [--components=<dir>] [--seed=<node-id>]... [--set=<node>:<port>=<n,...>]... [--step=<t>]
//	stitch validate --graph=<file> [--components=<dir>]
//	stitch export --graph=<file> [--components=<dir>] [--set=...]... [-o <file>]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
