// pkg/cellbt/db.go

// Package cellbt wraps the B-tree engine in a database handle: it
// owns the store file, fences off other processes with a lock file,
// and exposes the key/value operations plus a stats surface.
package cellbt

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/afero"

	"cellbt/internal/encoding"
	"cellbt/pkg/btree"
	"cellbt/pkg/cellfile"
)

var (
	// ErrKeyNotFound is returned by Search when the key is absent.
	ErrKeyNotFound = btree.ErrKeyNotFound

	// ErrDatabaseLocked is returned when the store file is already
	// held by another process.
	ErrDatabaseLocked = errors.New("cellbt: database is locked by another process")
)

// DefaultOrder is the B-tree order used when Options.Order is zero
// and the store file does not exist yet.
const DefaultOrder = 60

// MemoryPath opens an in-memory database instead of a file.
const MemoryPath = ":memory:"

// Options configures database opening behavior.
type Options struct {
	// Order is the B-tree order for a newly created store. An
	// existing store keeps the order it was created with.
	Order int
}

// DB is an open database. One process at a time may hold a given
// store file; the exclusive lock enforces that contract.
type DB struct {
	path     string
	lockFile *os.File
	tree     *btree.Tree
	closed   bool
}

// Open opens or creates the database at path. Pass MemoryPath for a
// throwaway in-memory database (no lock file, nothing touches disk).
func Open(path string, opts Options) (*DB, error) {
	order := opts.Order
	if order == 0 {
		order = DefaultOrder
	}

	if path == MemoryPath {
		store, err := cellfile.OpenFs(afero.NewMemMapFs(), "memory.db")
		if err != nil {
			return nil, err
		}
		tree, err := btree.OpenStore(store, order)
		if err != nil {
			store.Close()
			return nil, err
		}
		return &DB{path: path, tree: tree}, nil
	}

	// Acquire the exclusive lock before touching the store.
	lockPath := path + ".lock"
	lf, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	if err := lockFile(lf); err != nil {
		lf.Close()
		return nil, err
	}

	tree, err := btree.Open(path, order)
	if err != nil {
		unlockFile(lf)
		lf.Close()
		return nil, err
	}

	return &DB{
		path:     path,
		lockFile: lf,
		tree:     tree,
	}, nil
}

// Insert stores a key/value pair.
func (db *DB) Insert(key, value int32) error {
	return db.tree.Insert(key, value)
}

// Search returns the value stored under key, or ErrKeyNotFound.
func (db *DB) Search(key int32) (int32, error) {
	return db.tree.Search(key)
}

// Delete removes the entry stored under key; absent keys are a no-op.
func (db *DB) Delete(key int32) error {
	return db.tree.Delete(key)
}

// Check verifies the structural invariants of the tree.
func (db *DB) Check() error {
	return db.tree.Check()
}

// Display writes a human-readable dump of the tree to w.
func (db *DB) Display(w io.Writer) error {
	return db.tree.Display(w)
}

// Stats describes the current shape and size of the store.
type Stats struct {
	Order     int
	Keys      int64
	Nodes     int64
	Height    int
	FileBytes int64
}

// Stats collects the current store statistics.
func (db *DB) Stats() (Stats, error) {
	keys, err := db.tree.Count()
	if err != nil {
		return Stats{}, err
	}
	height, err := db.tree.Height()
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Order:     db.tree.Order(),
		Keys:      keys,
		Nodes:     db.tree.NodeCount(),
		Height:    height,
		FileBytes: db.tree.FileCells() * encoding.CellSize,
	}, nil
}

// Close flushes the store, releases it, and drops the lock file.
func (db *DB) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true

	err := db.tree.Sync()
	if cerr := db.tree.Close(); err == nil {
		err = cerr
	}

	if db.lockFile != nil {
		unlockFile(db.lockFile)
		db.lockFile.Close()
		db.lockFile = nil
	}
	return err
}
