// cmd/cellbt/main.go
//
// cellbt CLI - interactive shell for cellbt store files.
//
// Usage:
//
//	cellbt [store-file]
//
// If no store file is specified, opens an in-memory store.
// Use .help for available commands.
package main

import (
	"fmt"
	"os"

	"cellbt/pkg/cellbt"
	"cellbt/pkg/cli"
)

func main() {
	// Determine store path from command line
	dbPath := cellbt.MemoryPath
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	// Create and run the REPL
	repl, err := cli.NewREPL(dbPath, cellbt.Options{}, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer repl.Close()

	repl.Run()
}
