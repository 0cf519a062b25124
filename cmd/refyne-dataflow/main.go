// Package main is the entry point for the refyne-dataflow CLI.
package main

import (
	"os"

	"github.com/jmylchreest/refyne-dataflow/cmd/refyne-dataflow/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
