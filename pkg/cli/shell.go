// pkg/cli/shell.go
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Shell handles line input for the interactive store shell: prompt
// printing, line reading, and command history.
type Shell struct {
	// reader reads input lines
	reader *bufio.Reader

	// output writes normal output
	output io.Writer

	// errOutput writes error messages
	errOutput io.Writer

	// prompt is shown before each command
	prompt string

	// history stores entered commands for recall
	history []string

	// maxHistory is the maximum number of history entries to keep
	maxHistory int
}

// NewShell creates a new shell with the given input/output streams.
// If errOutput is nil, errors are written to output.
func NewShell(input io.Reader, output, errOutput io.Writer) *Shell {
	var reader *bufio.Reader
	if input != nil {
		reader = bufio.NewReader(input)
	}

	if errOutput == nil {
		errOutput = output
	}

	return &Shell{
		reader:     reader,
		output:     output,
		errOutput:  errOutput,
		prompt:     "cellbt> ",
		maxHistory: 1000,
	}
}

// SetPrompt changes the prompt string.
func (s *Shell) SetPrompt(prompt string) {
	s.prompt = prompt
}

// ReadCommand prints the prompt and reads one command line, stripping
// surrounding whitespace. It returns the line and whether EOF was
// reached.
func (s *Shell) ReadCommand() (string, bool) {
	if s.reader == nil {
		return "", true
	}

	fmt.Fprint(s.output, s.prompt)

	line, err := s.reader.ReadString('\n')
	eof := err == io.EOF
	if err != nil && !eof {
		fmt.Fprintf(s.errOutput, "read error: %v\n", err)
		return "", true
	}

	line = strings.TrimSpace(line)
	if line != "" {
		s.addHistory(line)
	}
	return line, eof
}

// History returns the entered commands, oldest first.
func (s *Shell) History() []string {
	return s.history
}

func (s *Shell) addHistory(line string) {
	s.history = append(s.history, line)
	if len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}
}
