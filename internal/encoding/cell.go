// internal/encoding/cell.go
package encoding

import "encoding/binary"

// CellSize is the width in bytes of one storage cell: a little-endian
// signed 32-bit integer. Every file produced by this module is a flat
// array of such cells.
const CellSize = 4

// PutInt32 encodes v into the first CellSize bytes of buf.
func PutInt32(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

// GetInt32 decodes a cell from the first CellSize bytes of buf.
func GetInt32(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf))
}

// PutInt32s encodes vs back-to-back into buf.
// buf must be at least len(vs)*CellSize bytes.
func PutInt32s(buf []byte, vs []int32) {
	for i, v := range vs {
		PutInt32(buf[i*CellSize:], v)
	}
}

// GetInt32s decodes n cells from buf.
func GetInt32s(buf []byte, n int) []int32 {
	vs := make([]int32, n)
	for i := range vs {
		vs[i] = GetInt32(buf[i*CellSize:])
	}
	return vs
}
