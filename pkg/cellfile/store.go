// pkg/cellfile/store.go

// Package cellfile implements a flat store of fixed-width signed
// 32-bit integer cells backed by a single file. It owns no domain
// logic; higher layers address it purely by cell offset.
package cellfile

import "errors"

// ErrOutOfRange is returned when a read, write, or truncate addresses
// cells beyond the current length of the store.
var ErrOutOfRange = errors.New("cellfile: offset out of range")

// Store is the interface between the B-tree engine and the backing
// file. Offsets and lengths are counted in cells, not bytes.
// Writes become visible to subsequent reads through the same store.
type Store interface {
	// Read returns the cell at offset off.
	Read(off int64) (int32, error)

	// ReadMany returns n consecutive cells starting at offset off.
	ReadMany(off int64, n int) ([]int32, error)

	// Write overwrites the cell at offset off. The offset must be
	// within the current length.
	Write(off int64, v int32) error

	// Append extends the store with the given cells.
	Append(vs []int32) error

	// Truncate removes the last n cells.
	Truncate(n int64) error

	// Len returns the current length of the store in cells.
	Len() int64

	// Sync flushes pending writes to the backing file.
	Sync() error

	// Close releases the backing file.
	Close() error
}
