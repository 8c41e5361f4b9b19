// pkg/cli/repl.go

// Package cli implements the interactive shell for cellbt store
// files: dot-commands for point operations, integrity checks, and
// store statistics.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"cellbt/pkg/cellbt"
)

// REPL provides a read-eval-print loop over one open store.
type REPL struct {
	// db is the open store
	db *cellbt.DB

	// shell handles input and history
	shell *Shell

	// output is where results are written
	output io.Writer

	// errOutput is where errors are written
	errOutput io.Writer

	// exitRequested indicates that .exit was called
	exitRequested bool
}

// NewREPL creates a new REPL for the store at dbPath, reading
// commands from stdin.
func NewREPL(dbPath string, opts cellbt.Options, output, errOutput io.Writer) (*REPL, error) {
	return NewREPLWithInput(dbPath, opts, os.Stdin, output, errOutput)
}

// NewREPLWithInput creates a new REPL with custom input/output
// streams. This is useful for testing or scripted operation.
func NewREPLWithInput(dbPath string, opts cellbt.Options, input io.Reader, output, errOutput io.Writer) (*REPL, error) {
	db, err := cellbt.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return &REPL{
		db:        db,
		shell:     NewShell(input, output, errOutput),
		output:    output,
		errOutput: errOutput,
	}, nil
}

// Close closes the REPL and the underlying store.
func (r *REPL) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Run reads and executes commands until EOF or .exit.
func (r *REPL) Run() {
	fmt.Fprintln(r.output, "cellbt interactive shell")
	fmt.Fprintln(r.output, "Enter \".help\" for usage hints.")

	for !r.exitRequested {
		cmd, eof := r.shell.ReadCommand()

		if cmd != "" {
			if err := r.Execute(cmd); err != nil {
				fmt.Fprintf(r.errOutput, "Error: %v\n", err)
			}
		}

		if eof {
			fmt.Fprintln(r.output)
			break
		}
	}
}

// Execute runs a single command line.
func (r *REPL) Execute(cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case ".set":
		key, value, err := parseKeyValue(fields[1:])
		if err != nil {
			return err
		}
		if err := r.db.Insert(key, value); err != nil {
			return err
		}
		fmt.Fprintln(r.output, "ok")
		return nil

	case ".get":
		key, err := parseKey(fields[1:])
		if err != nil {
			return err
		}
		value, err := r.db.Search(key)
		if errors.Is(err, cellbt.ErrKeyNotFound) {
			fmt.Fprintf(r.output, "%d: not found\n", key)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(r.output, "%d = %d\n", key, value)
		return nil

	case ".del":
		key, err := parseKey(fields[1:])
		if err != nil {
			return err
		}
		if err := r.db.Delete(key); err != nil {
			return err
		}
		fmt.Fprintln(r.output, "ok")
		return nil

	case ".check":
		if err := r.db.Check(); err != nil {
			return err
		}
		fmt.Fprintln(r.output, "ok")
		return nil

	case ".dump":
		return r.db.Display(r.output)

	case ".stats":
		return r.printStats()

	case ".help":
		r.printHelp()
		return nil

	case ".exit", ".quit":
		r.exitRequested = true
		return nil

	default:
		return fmt.Errorf("unknown command %q (try .help)", fields[0])
	}
}

func (r *REPL) printStats() error {
	stats, err := r.db.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(r.output, "order:  %d\n", stats.Order)
	fmt.Fprintf(r.output, "keys:   %s\n", humanize.Comma(stats.Keys))
	fmt.Fprintf(r.output, "nodes:  %s\n", humanize.Comma(stats.Nodes))
	fmt.Fprintf(r.output, "height: %d\n", stats.Height)
	fmt.Fprintf(r.output, "size:   %s\n", humanize.IBytes(uint64(stats.FileBytes)))
	return nil
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.output, `.set KEY VALUE  store a key/value pair
.get KEY        look up a key
.del KEY        delete a key (no-op if absent)
.check          verify the tree invariants
.dump           print the tree, one node per line
.stats          print store statistics
.help           show this help
.exit           quit
`)
}

func parseKey(args []string) (int32, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one key argument")
	}
	return parseInt32(args[0])
}

func parseKeyValue(args []string) (int32, int32, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("expected key and value arguments")
	}
	key, err := parseInt32(args[0])
	if err != nil {
		return 0, 0, err
	}
	value, err := parseInt32(args[1])
	if err != nil {
		return 0, 0, err
	}
	return key, value, nil
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid 32-bit integer %q", s)
	}
	if v == -1 {
		return 0, errors.New("-1 is reserved as the unused-cell sentinel")
	}
	return int32(v), nil
}
