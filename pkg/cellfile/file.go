// pkg/cellfile/file.go
package cellfile

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"cellbt/internal/encoding"
)

// File is the file-backed Store implementation. It works against any
// afero filesystem, so tests can run on an in-memory fs while
// production stores live on the OS filesystem.
type File struct {
	f     afero.File
	cells int64
}

// Open opens or creates a cell file on the OS filesystem.
func Open(path string) (*File, error) {
	return OpenFs(afero.NewOsFs(), path)
}

// OpenFs opens or creates a cell file on the given filesystem.
// The file size must be a whole number of cells.
func OpenFs(fs afero.Fs, path string) (*File, error) {
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.Size()%encoding.CellSize != 0 {
		f.Close()
		return nil, fmt.Errorf("cellfile: %s: size %d is not cell-aligned", path, st.Size())
	}

	return &File{
		f:     f,
		cells: st.Size() / encoding.CellSize,
	}, nil
}

// Len returns the current length of the store in cells.
func (s *File) Len() int64 {
	return s.cells
}

// Read returns the cell at offset off.
func (s *File) Read(off int64) (int32, error) {
	if off < 0 || off >= s.cells {
		return 0, fmt.Errorf("%w: cell %d, length %d", ErrOutOfRange, off, s.cells)
	}

	var buf [encoding.CellSize]byte
	if _, err := s.f.ReadAt(buf[:], off*encoding.CellSize); err != nil {
		return 0, err
	}
	return encoding.GetInt32(buf[:]), nil
}

// ReadMany returns n consecutive cells starting at offset off.
func (s *File) ReadMany(off int64, n int) ([]int32, error) {
	if off < 0 || n < 0 || off+int64(n) > s.cells {
		return nil, fmt.Errorf("%w: cells [%d, %d), length %d", ErrOutOfRange, off, off+int64(n), s.cells)
	}

	buf := make([]byte, n*encoding.CellSize)
	if _, err := s.f.ReadAt(buf, off*encoding.CellSize); err != nil {
		return nil, err
	}
	return encoding.GetInt32s(buf, n), nil
}

// Write overwrites the cell at offset off.
func (s *File) Write(off int64, v int32) error {
	if off < 0 || off >= s.cells {
		return fmt.Errorf("%w: cell %d, length %d", ErrOutOfRange, off, s.cells)
	}

	var buf [encoding.CellSize]byte
	encoding.PutInt32(buf[:], v)
	_, err := s.f.WriteAt(buf[:], off*encoding.CellSize)
	return err
}

// Append extends the store with the given cells.
func (s *File) Append(vs []int32) error {
	if len(vs) == 0 {
		return nil
	}

	buf := make([]byte, len(vs)*encoding.CellSize)
	encoding.PutInt32s(buf, vs)
	if _, err := s.f.WriteAt(buf, s.cells*encoding.CellSize); err != nil {
		return err
	}
	s.cells += int64(len(vs))
	return nil
}

// Truncate removes the last n cells.
func (s *File) Truncate(n int64) error {
	if n < 0 || n > s.cells {
		return fmt.Errorf("%w: truncate %d cells, length %d", ErrOutOfRange, n, s.cells)
	}

	if err := s.f.Truncate((s.cells - n) * encoding.CellSize); err != nil {
		return err
	}
	s.cells -= n
	return nil
}

// Sync flushes pending writes to the backing file.
func (s *File) Sync() error {
	return s.f.Sync()
}

// Close releases the backing file.
func (s *File) Close() error {
	return s.f.Close()
}
