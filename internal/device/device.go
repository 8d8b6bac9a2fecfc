// Package device provides byte-level access to filesystem image backends.
package device

import "io"

// Device is the backing storage for a filesystem image.
// All offsets are absolute byte positions within the image.
type Device interface {
	io.ReaderAt
	io.WriterAt

	// Sync flushes buffered writes to stable storage.
	Sync() error

	// Size returns the current size of the image in bytes.
	Size() (int64, error)

	// Close releases the device and any locks held on it.
	Close() error
}
