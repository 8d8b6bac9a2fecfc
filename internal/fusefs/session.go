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

// Package fusefs bridges kernel inode/handle addressing to the
// block-addressed entity store. The kernel speaks inode numbers and file
// handles; the store speaks (directory block, entity) pairs. The session
// keeps just enough state to translate between the two: a bounded FIFO
// cache of parent hints and a table of open handles.
package fusefs

import (
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"blockfs/internal/common"
	"blockfs/internal/store"
)

// Store is the entity store the session serves. *store.Store implements it.
type Store interface {
	Root() (store.Entity, error)
	ListChildren(dirBlock uint64) ([]store.Entity, error)
	CreateFile(parent uint64, name string) (store.Entity, error)
	CreateDirectory(parent uint64, name string) (store.Entity, error)
	Delete(parent uint64, ent store.Entity) error
	ReadContent(ent store.Entity, p []byte, off uint64) (int, error)
	WriteContent(parent uint64, ent store.Entity, p []byte, off uint64) error
	OverwriteHeader(parent uint64, old, updated store.Entity) error
	BlockSize() uint32
}

// Session holds the per-mount translation state. All methods are called
// from the serve loop one request at a time, so none of the state is
// locked.
type Session struct {
	store   Store
	handles *handleTable
	parents *inoCache
	log     *log.Entry
}

// NewSession returns a session over st with a fresh handle table and
// parent cache.
func NewSession(st Store) *Session {
	return &Session{
		store:   st,
		handles: newHandleTable(),
		parents: newInoCache(),
		log:     log.WithField("session", uuid.New().String()),
	}
}

// dirBlock maps a kernel directory inode to its store block. The mount
// root uses the synthetic inode 1.
func (s *Session) dirBlock(ino uint64) (uint64, error) {
	if ino == rootIno {
		root, err := s.store.Root()
		if err != nil {
			return 0, err
		}
		return root.StartBlock, nil
	}
	return ino, nil
}

// childByName finds the named child of the directory inode parent.
func (s *Session) childByName(parent uint64, name string) (store.Entity, uint64, error) {
	dir, err := s.dirBlock(parent)
	if err != nil {
		return store.Entity{}, 0, err
	}
	children, err := s.store.ListChildren(dir)
	if err != nil {
		return store.Entity{}, 0, err
	}
	for _, child := range children {
		if child.Name == name {
			return child, dir, nil
		}
	}
	return store.Entity{}, dir, fmt.Errorf("%s: %w", name, common.ErrNotFound)
}

// dataEntity resolves a file inode through the parent-hint cache. Data
// requests arrive only after a lookup or create recorded the hint, so a
// miss here means the cache evicted it and the request cannot be served.
func (s *Session) dataEntity(ino uint64) (store.Entity, uint64, error) {
	parent, ok := s.parents.resolve(ino)
	if !ok {
		return store.Entity{}, 0, fmt.Errorf("inode %d: %w", ino, common.ErrNoParent)
	}
	dir, err := s.dirBlock(parent)
	if err != nil {
		return store.Entity{}, 0, err
	}
	children, err := s.store.ListChildren(dir)
	if err != nil {
		return store.Entity{}, 0, err
	}
	for _, child := range children {
		if child.StartBlock == ino {
			return child, dir, nil
		}
	}
	return store.Entity{}, dir, fmt.Errorf("inode %d not in directory %d: %w", ino, dir, common.ErrNotFound)
}
