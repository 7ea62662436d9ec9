// Package main is the entry point for the graviti CLI.
package main

import (
	"fmt"
	"os"

	"github.com/shjno191/graviti/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
