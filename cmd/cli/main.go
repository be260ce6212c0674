// Package main is the entry point for the warehouse-cost CLI.
package main

import (
	"os"

	"warehouse-cost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
