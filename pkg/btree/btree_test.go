// pkg/btree/btree_test.go
package btree

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"cellbt/pkg/cellfile"
)

// newTestTree opens a tree of the given order on an in-memory store.
func newTestTree(t *testing.T, order int) *Tree {
	t.Helper()

	store, err := cellfile.OpenFs(afero.NewMemMapFs(), "test.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	tree, err := OpenStore(store, order)
	if err != nil {
		t.Fatalf("open tree: %v", err)
	}
	return tree
}

func TestBootstrapEmptyStore(t *testing.T) {
	tree := newTestTree(t, 2)

	if tree.Order() != 2 {
		t.Errorf("order = %d, want 2", tree.Order())
	}
	if tree.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", tree.NodeCount())
	}
	// order cell plus one root record
	if want := int64(1 + tree.recordLen()); tree.FileCells() != want {
		t.Errorf("file length = %d cells, want %d", tree.FileCells(), want)
	}

	if _, err := tree.Search(42); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("search on empty tree: %v, want ErrKeyNotFound", err)
	}
}

func TestBadOrderRejected(t *testing.T) {
	store, err := cellfile.OpenFs(afero.NewMemMapFs(), "test.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := OpenStore(store, 1); !errors.Is(err, ErrBadOrder) {
		t.Fatalf("order 1: %v, want ErrBadOrder", err)
	}
}

func TestInsertAndSearch(t *testing.T) {
	tree := newTestTree(t, 2)

	keys := []int32{10, 20, 5, 6, 12, 30, 7, 17}
	for _, k := range keys {
		if err := tree.Insert(k, k*10); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}

	for _, k := range keys {
		v, err := tree.Search(k)
		if err != nil {
			t.Fatalf("search %d: %v", k, err)
		}
		if v != k*10 {
			t.Errorf("search %d = %d, want %d", k, v, k*10)
		}
	}

	if _, err := tree.Search(99); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("search 99: %v, want ErrKeyNotFound", err)
	}
	if err := tree.Check(); err != nil {
		t.Errorf("check: %v", err)
	}
}

func TestReopenPreservesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	tree, err := Open(path, 3)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for k := int32(1); k <= 50; k++ {
		if err := tree.Insert(k, k+1000); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	tree, err = Open(path, 3)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tree.Close()

	for k := int32(1); k <= 50; k++ {
		v, err := tree.Search(k)
		if err != nil {
			t.Fatalf("search %d after reopen: %v", k, err)
		}
		if v != k+1000 {
			t.Errorf("search %d = %d, want %d", k, v, k+1000)
		}
	}
	if err := tree.Check(); err != nil {
		t.Errorf("check after reopen: %v", err)
	}
}

func TestStoredOrderWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	tree, err := Open(path, 60)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := tree.Insert(7, 7); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopen with a different order argument: the stored order wins.
	tree, err = Open(path, 5)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tree.Close()

	if tree.Order() != 60 {
		t.Errorf("order after reopen = %d, want 60", tree.Order())
	}
	if v, err := tree.Search(7); err != nil || v != 7 {
		t.Errorf("search 7 = %d, %v", v, err)
	}
}

func TestClosedTree(t *testing.T) {
	tree := newTestTree(t, 2)
	if err := tree.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := tree.Insert(1, 1); !errors.Is(err, ErrTreeClosed) {
		t.Errorf("insert after close: %v, want ErrTreeClosed", err)
	}
	if _, err := tree.Search(1); !errors.Is(err, ErrTreeClosed) {
		t.Errorf("search after close: %v, want ErrTreeClosed", err)
	}
	if err := tree.Delete(1); !errors.Is(err, ErrTreeClosed) {
		t.Errorf("delete after close: %v, want ErrTreeClosed", err)
	}
	if err := tree.Close(); err != nil {
		t.Errorf("double close: %v", err)
	}
}

func TestDisplayDoesNotError(t *testing.T) {
	tree := newTestTree(t, 2)
	for k := int32(1); k <= 10; k++ {
		if err := tree.Insert(k, k); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}

	var sink testWriter
	if err := tree.Display(&sink); err != nil {
		t.Fatalf("display: %v", err)
	}
	if sink.n == 0 {
		t.Error("display wrote nothing")
	}
}

type testWriter struct{ n int }

func (w *testWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}
