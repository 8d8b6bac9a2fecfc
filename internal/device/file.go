// Copyright 2026 Blockfs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package device

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// FileDevice is a Device backed by a regular file. The file is held under
// an advisory flock for the lifetime of the device so that two processes
// cannot operate on the same image at once.
type FileDevice struct {
	f    *os.File
	lock *flock.Flock
}

// OpenFile opens an existing image file read-write and takes an exclusive
// lock on it.
func OpenFile(path string) (*FileDevice, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s is in use by another process", path)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &FileDevice{f: f, lock: lock}, nil
}

// OpenFileReadOnly opens an existing image file read-only under a shared
// lock. Used by inspection commands that must not disturb a mounted image.
func OpenFileReadOnly(path string) (*FileDevice, error) {
	lock := flock.New(path)
	locked, err := lock.TryRLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s is locked for writing by another process", path)
	}

	f, err := os.Open(path)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &FileDevice{f: f, lock: lock}, nil
}

// CreateFile creates a new image file of the given size and locks it.
// Refuses to overwrite an existing file unless force is set.
func CreateFile(path string, size int64, force bool) (*FileDevice, error) {
	flags := os.O_RDWR | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size %s: %w", path, err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s after create: %w", path, err)
	}
	return &FileDevice{f: f, lock: lock}, nil
}

func (d *FileDevice) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

func (d *FileDevice) WriteAt(p []byte, off int64) (int, error) {
	return d.f.WriteAt(p, off)
}

func (d *FileDevice) Sync() error {
	return d.f.Sync()
}

func (d *FileDevice) Size() (int64, error) {
	fi, err := d.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Close closes the file and drops the lock.
func (d *FileDevice) Close() error {
	err := d.f.Close()
	if unlockErr := d.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
