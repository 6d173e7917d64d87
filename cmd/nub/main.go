// Command nub compresses a file, directory, or stdin stream into a
// fixed character budget, preserving the structural landmarks a reader
// needs to orient themselves.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/horiacristescu/nub/internal/engine"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nub:", err)
		return exitCodeFor(err)
	}
	return 0
}

// exitCodeFor maps an error to the CLI's documented exit codes:
// 1 for a parse failure that survived even the text-format fallback,
// 2 for bad arguments, 1 for anything else unexpected.
func exitCodeFor(err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		return 2
	}
	var parseErr *engine.ParseError
	if errors.As(err, &parseErr) {
		return 1
	}
	return 1
}
