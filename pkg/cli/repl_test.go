// pkg/cli/repl_test.go
package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"cellbt/pkg/cellbt"
)

func runScript(t *testing.T, script string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	var out, errOut bytes.Buffer
	repl, err := NewREPLWithInput(path, cellbt.Options{Order: 2}, strings.NewReader(script), &out, &errOut)
	if err != nil {
		t.Fatalf("new repl: %v", err)
	}
	defer repl.Close()

	repl.Run()
	return out.String(), errOut.String()
}

func TestSetGetDelete(t *testing.T) {
	out, errOut := runScript(t, ".set 10 100\n.get 10\n.del 10\n.get 10\n.exit\n")

	if errOut != "" {
		t.Fatalf("unexpected errors: %s", errOut)
	}
	if !strings.Contains(out, "10 = 100") {
		t.Errorf("missing get output, got:\n%s", out)
	}
	if !strings.Contains(out, "10: not found") {
		t.Errorf("missing not-found output, got:\n%s", out)
	}
}

func TestCheckAndStats(t *testing.T) {
	script := ".set 1 1\n.set 2 2\n.set 3 3\n.check\n.stats\n.exit\n"
	out, errOut := runScript(t, script)

	if errOut != "" {
		t.Fatalf("unexpected errors: %s", errOut)
	}
	if !strings.Contains(out, "keys:   3") {
		t.Errorf("missing stats output, got:\n%s", out)
	}
	if !strings.Contains(out, "order:  2") {
		t.Errorf("missing order in stats, got:\n%s", out)
	}
}

func TestUnknownCommandReportsError(t *testing.T) {
	_, errOut := runScript(t, ".bogus\n.exit\n")

	if !strings.Contains(errOut, "unknown command") {
		t.Errorf("missing error output, got:\n%s", errOut)
	}
}

func TestSentinelKeyRejected(t *testing.T) {
	_, errOut := runScript(t, ".set -1 5\n.exit\n")

	if !strings.Contains(errOut, "reserved") {
		t.Errorf("sentinel key should be rejected, got:\n%s", errOut)
	}
}

func TestDumpShowsTree(t *testing.T) {
	out, errOut := runScript(t, ".set 4 4\n.set 8 8\n.dump\n.exit\n")

	if errOut != "" {
		t.Fatalf("unexpected errors: %s", errOut)
	}
	if !strings.Contains(out, "order: 2") {
		t.Errorf("missing dump header, got:\n%s", out)
	}
}
