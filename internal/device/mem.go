package device

import "io"

// MemDevice is an in-memory Device used by tests. Writes past the current
// end grow the buffer.
type MemDevice struct {
	buf []byte
}

// NewMem returns a MemDevice pre-sized to size bytes of zeros.
func NewMem(size int64) *MemDevice {
	return &MemDevice{buf: make([]byte, size)}
}

func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(d.buf)) {
		return 0, io.EOF
	}
	n := copy(p, d.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(d.buf)) {
		grown := make([]byte, end)
		copy(grown, d.buf)
		d.buf = grown
	}
	return copy(d.buf[off:], p), nil
}

func (d *MemDevice) Sync() error { return nil }

func (d *MemDevice) Size() (int64, error) { return int64(len(d.buf)), nil }

func (d *MemDevice) Close() error { return nil }
