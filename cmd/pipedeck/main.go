// Package main provides the entry point for the PipeDeck CLI.
package main

import (
	"fmt"
	"os"

	"github.com/pipedeck/pipedeck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
