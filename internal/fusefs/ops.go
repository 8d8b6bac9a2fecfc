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

package fusefs

import (
	"fmt"

	"bazil.org/fuse"

	"blockfs/internal/common"
	"blockfs/internal/store"
)

// Lookup finds the named child of the directory inode parent and records
// the parent hint for later data requests.
func (s *Session) Lookup(parent uint64, name string) (store.Entity, error) {
	s.log.WithFields(map[string]interface{}{"parent": parent, "name": name}).Debug("lookup")
	ent, _, err := s.childByName(parent, name)
	if err != nil {
		return store.Entity{}, err
	}
	s.parents.record(parent, ent.StartBlock)
	return ent, nil
}

// GetAttr returns the attribute record for ino. The root has a fixed
// record; everything else is resolved by walking the tree.
func (s *Session) GetAttr(ino uint64) (fuse.Attr, error) {
	s.log.WithField("ino", ino).Debug("getattr")
	if ino == rootIno {
		return rootAttr(), nil
	}
	ent, ok := s.findByIno(ino)
	if !ok {
		return fuse.Attr{}, fmt.Errorf("inode %d: %w", ino, common.ErrNotFound)
	}
	return entityAttr(ent, s.store.BlockSize()), nil
}

// SetAttr applies an attribute change to ino. Only size shrinking is
// supported; everything else is accepted and ignored by returning the
// current attributes.
func (s *Session) SetAttr(ino uint64, size *uint64) (fuse.Attr, error) {
	s.log.WithField("ino", ino).Debug("setattr")
	if ino == rootIno {
		return rootAttr(), nil
	}
	ent, ok := s.findByIno(ino)
	if !ok {
		return fuse.Attr{}, fmt.Errorf("inode %d: %w", ino, common.ErrNotFound)
	}

	if size != nil && *size != ent.Size {
		if *size > ent.Size {
			return fuse.Attr{}, fmt.Errorf("grow via setattr: %w", common.ErrNotSupported)
		}
		parent, okParent := s.parents.resolve(ino)
		if !okParent {
			return fuse.Attr{}, fmt.Errorf("inode %d: %w", ino, common.ErrNoParent)
		}
		dir, err := s.dirBlock(parent)
		if err != nil {
			return fuse.Attr{}, err
		}
		updated := ent
		updated.Size = *size
		if err := s.store.OverwriteHeader(dir, ent, updated); err != nil {
			return fuse.Attr{}, err
		}
		ent = updated
	}
	return entityAttr(ent, s.store.BlockSize()), nil
}

// MkDir creates a directory named name under the directory inode parent.
func (s *Session) MkDir(parent uint64, name string) (store.Entity, error) {
	s.log.WithFields(map[string]interface{}{"parent": parent, "name": name}).Debug("mkdir")
	dir, err := s.dirBlock(parent)
	if err != nil {
		return store.Entity{}, err
	}
	ent, err := s.store.CreateDirectory(dir, name)
	if err != nil {
		return store.Entity{}, err
	}
	s.parents.record(parent, ent.StartBlock)
	return ent, nil
}

// Create makes a new empty file under the directory inode parent and
// opens it, returning the entity and the new file handle.
func (s *Session) Create(parent uint64, name string) (store.Entity, uint64, error) {
	s.log.WithFields(map[string]interface{}{"parent": parent, "name": name}).Debug("create")
	dir, err := s.dirBlock(parent)
	if err != nil {
		return store.Entity{}, 0, err
	}
	ent, err := s.store.CreateFile(dir, name)
	if err != nil {
		return store.Entity{}, 0, err
	}
	s.parents.record(parent, ent.StartBlock)
	fh := s.handles.allocate()
	s.handles.bind(fh, ent.StartBlock)
	return ent, fh, nil
}

// Unlink removes the named child of the directory inode parent.
func (s *Session) Unlink(parent uint64, name string) error {
	s.log.WithFields(map[string]interface{}{"parent": parent, "name": name}).Debug("unlink")
	ent, dir, err := s.childByName(parent, name)
	if err != nil {
		return err
	}
	return s.store.Delete(dir, ent)
}

// Open opens the file inode ino and returns a new handle. Truncate-on-open
// is rejected; the kernel falls back to open followed by setattr.
func (s *Session) Open(ino uint64, truncate bool) (uint64, error) {
	s.log.WithFields(map[string]interface{}{"ino": ino, "truncate": truncate}).Debug("open")
	if truncate {
		return 0, fmt.Errorf("truncate on open: %w", common.ErrInvalidArgument)
	}
	fh := s.handles.allocate()
	s.handles.bind(fh, ino)
	return fh, nil
}

// OpenDir opens the directory inode ino and returns a new handle.
func (s *Session) OpenDir(ino uint64) (uint64, error) {
	s.log.WithField("ino", ino).Debug("opendir")
	if ino != rootIno {
		ent, ok := s.findByIno(ino)
		if !ok || !ent.IsDir() {
			return 0, fmt.Errorf("inode %d: %w", ino, common.ErrNotFound)
		}
	}
	fh := s.handles.allocate()
	s.handles.bind(fh, ino)
	return fh, nil
}

// Read returns up to size bytes of the file inode ino at offset off.
func (s *Session) Read(ino, fh uint64, off int64, size int) ([]byte, error) {
	s.log.WithFields(map[string]interface{}{"ino": ino, "off": off, "size": size}).Trace("read")
	ent, _, err := s.dataEntity(ino)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := s.store.ReadContent(ent, buf, uint64(off))
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Write stores data at offset off in the file inode ino and returns the
// number of bytes accepted.
func (s *Session) Write(ino, fh uint64, off int64, data []byte) (int, error) {
	s.log.WithFields(map[string]interface{}{"ino": ino, "off": off, "size": len(data)}).Trace("write")
	ent, dir, err := s.dataEntity(ino)
	if err != nil {
		return 0, err
	}
	if err := s.store.WriteContent(dir, ent, data, uint64(off)); err != nil {
		return 0, err
	}
	return len(data), nil
}

// ReadDir returns the children of the directory inode ino. The protocol is
// single shot: the first call on an open handle returns the full listing
// and releases the handle, and any further call on the now-closed handle
// returns an empty listing so the kernel sees end of directory.
func (s *Session) ReadDir(ino, fh uint64) ([]store.Entity, error) {
	s.log.WithFields(map[string]interface{}{"ino": ino, "fh": fh}).Debug("readdir")
	if !s.handles.isOpen(fh) {
		return nil, nil
	}
	dir, err := s.dirBlock(ino)
	if err != nil {
		return nil, err
	}
	children, err := s.store.ListChildren(dir)
	if err != nil {
		return nil, err
	}
	out := children[:0]
	for _, child := range children {
		if child.Name == "." || child.Name == ".." {
			continue
		}
		out = append(out, child)
	}
	s.handles.release(fh)
	return out, nil
}

// Release drops the handle binding. Always succeeds.
func (s *Session) Release(fh uint64) {
	s.log.WithField("fh", fh).Debug("release")
	s.handles.release(fh)
}

// Access reports whether ino exists. Permission bits are fixed, so
// existence is the only thing to check.
func (s *Session) Access(ino uint64) error {
	s.log.WithField("ino", ino).Debug("access")
	if ino == rootIno {
		return nil
	}
	if _, ok := s.findByIno(ino); !ok {
		return fmt.Errorf("inode %d: %w", ino, common.ErrNotFound)
	}
	return nil
}
