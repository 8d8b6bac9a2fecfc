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

// Package store implements the blockfs image format: a superblock, a block
// allocation table, and entity content stored as singly linked block chains.
//
// Layout:
//
//	block 0        superblock
//	blocks 1..T    allocation table, one uint64 per block
//	blocks T+1..   content blocks
//
// A table entry of 0 means free, chainEnd terminates a chain, reservedBlock
// marks blocks that are never handed out (the superblock and the table
// itself), and any other value is the next block in the chain. An entity's
// identifier is the first block of its chain, so identifiers are stable and
// never 0 or 1.
package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"blockfs/internal/common"
	"blockfs/internal/device"
)

const (
	magic   = "BLFS"
	version = 1

	superblockSize = 36

	// MinBlockSize is the smallest supported block size.
	MinBlockSize = 512
	// DefaultBlockSize is used when mkfs is not given one.
	DefaultBlockSize = 4096

	chainEnd      = math.MaxUint64
	reservedBlock = math.MaxUint64 - 1
)

// Store provides entity-level access to a formatted device.
type Store struct {
	dev device.Device

	blockSize   uint32
	totalBlocks uint64
	tableBlocks uint64
	rootBlock   uint64
}

// Open validates the superblock on dev and returns a Store over it.
func Open(dev device.Device) (*Store, error) {
	sb := make([]byte, superblockSize)
	if _, err := dev.ReadAt(sb, 0); err != nil {
		return nil, fmt.Errorf("failed to read superblock: %w", err)
	}
	if string(sb[0:4]) != magic {
		return nil, fmt.Errorf("bad magic: %w", common.ErrBadImage)
	}
	if v := binary.LittleEndian.Uint32(sb[4:8]); v != version {
		return nil, fmt.Errorf("unsupported version %d: %w", v, common.ErrBadImage)
	}

	s := &Store{
		dev:         dev,
		blockSize:   binary.LittleEndian.Uint32(sb[8:12]),
		totalBlocks: binary.LittleEndian.Uint64(sb[12:20]),
		tableBlocks: binary.LittleEndian.Uint64(sb[20:28]),
		rootBlock:   binary.LittleEndian.Uint64(sb[28:36]),
	}
	if s.blockSize < MinBlockSize || s.blockSize&(s.blockSize-1) != 0 {
		return nil, fmt.Errorf("bad block size %d: %w", s.blockSize, common.ErrBadImage)
	}
	if s.rootBlock <= s.tableBlocks || s.rootBlock >= s.totalBlocks {
		return nil, fmt.Errorf("root block %d out of range: %w", s.rootBlock, common.ErrBadImage)
	}
	return s, nil
}

// BlockSize returns the image's block size in bytes.
func (s *Store) BlockSize() uint32 {
	return s.blockSize
}

// Root returns the root directory entity.
func (s *Store) Root() (Entity, error) {
	return Entity{
		StartBlock: s.rootBlock,
		Name:       "/",
		Flags:      FlagDirectory,
	}, nil
}

// Stats describe image capacity and usage.
type Stats struct {
	BlockSize   uint32
	TotalBlocks uint64
	FreeBlocks  uint64
	TableBlocks uint64
	RootBlock   uint64
}

// Stats scans the allocation table and returns usage counters.
func (s *Store) Stats() (Stats, error) {
	st := Stats{
		BlockSize:   s.blockSize,
		TotalBlocks: s.totalBlocks,
		TableBlocks: s.tableBlocks,
		RootBlock:   s.rootBlock,
	}
	for b := uint64(0); b < s.totalBlocks; b++ {
		ptr, err := s.readPtr(b)
		if err != nil {
			return Stats{}, err
		}
		if ptr == 0 {
			st.FreeBlocks++
		}
	}
	return st, nil
}

// blockOff returns the byte offset of block b.
func (s *Store) blockOff(b uint64) int64 {
	return int64(b) * int64(s.blockSize)
}

// ptrOff returns the byte offset of block b's allocation table entry.
func (s *Store) ptrOff(b uint64) int64 {
	return int64(s.blockSize) + int64(b)*8
}

func (s *Store) readPtr(b uint64) (uint64, error) {
	if b >= s.totalBlocks {
		return 0, fmt.Errorf("block %d out of range: %w", b, common.ErrIO)
	}
	var buf [8]byte
	if _, err := s.dev.ReadAt(buf[:], s.ptrOff(b)); err != nil {
		return 0, fmt.Errorf("failed to read table entry %d: %w", b, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (s *Store) writePtr(b, ptr uint64) error {
	if b >= s.totalBlocks {
		return fmt.Errorf("block %d out of range: %w", b, common.ErrIO)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], ptr)
	if _, err := s.dev.WriteAt(buf[:], s.ptrOff(b)); err != nil {
		return fmt.Errorf("failed to write table entry %d: %w", b, err)
	}
	return nil
}

func (s *Store) firstDataBlock() uint64 {
	return 1 + s.tableBlocks
}

// allocBlock finds a free block, marks it as a chain end, and zeroes it.
func (s *Store) allocBlock() (uint64, error) {
	for b := s.firstDataBlock(); b < s.totalBlocks; b++ {
		ptr, err := s.readPtr(b)
		if err != nil {
			return 0, err
		}
		if ptr != 0 {
			continue
		}
		if err := s.writePtr(b, chainEnd); err != nil {
			return 0, err
		}
		zero := make([]byte, s.blockSize)
		if _, err := s.dev.WriteAt(zero, s.blockOff(b)); err != nil {
			return 0, fmt.Errorf("failed to zero block %d: %w", b, err)
		}
		return b, nil
	}
	return 0, common.ErrNoSpace
}

// chain returns the blocks of the chain starting at start, in order.
func (s *Store) chain(start uint64) ([]uint64, error) {
	var blocks []uint64
	b := start
	for {
		blocks = append(blocks, b)
		if uint64(len(blocks)) > s.totalBlocks {
			return nil, fmt.Errorf("chain cycle at block %d: %w", start, common.ErrIO)
		}
		ptr, err := s.readPtr(b)
		if err != nil {
			return nil, err
		}
		if ptr == 0 || ptr == reservedBlock {
			return nil, fmt.Errorf("broken chain at block %d: %w", b, common.ErrIO)
		}
		if ptr == chainEnd {
			return blocks, nil
		}
		b = ptr
	}
}

// extendChain appends one block to the chain whose current last block is
// last, and returns the new block.
func (s *Store) extendChain(last uint64) (uint64, error) {
	b, err := s.allocBlock()
	if err != nil {
		return 0, err
	}
	if err := s.writePtr(last, b); err != nil {
		return 0, err
	}
	return b, nil
}

// freeChain releases every block of the chain starting at start.
func (s *Store) freeChain(start uint64) error {
	blocks, err := s.chain(start)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if err := s.writePtr(b, 0); err != nil {
			return err
		}
	}
	return nil
}

// ReadContent reads up to len(p) bytes of ent's content at offset off,
// clamped to the entity's size. Returns the number of bytes read.
func (s *Store) ReadContent(ent Entity, p []byte, off uint64) (int, error) {
	if off >= ent.Size {
		return 0, nil
	}
	want := uint64(len(p))
	if off+want > ent.Size {
		want = ent.Size - off
	}

	blocks, err := s.chain(ent.StartBlock)
	if err != nil {
		return 0, err
	}

	bs := uint64(s.blockSize)
	read := uint64(0)
	for read < want {
		pos := off + read
		idx := pos / bs
		if idx >= uint64(len(blocks)) {
			break
		}
		inBlock := pos % bs
		n := bs - inBlock
		if n > want-read {
			n = want - read
		}
		at := s.blockOff(blocks[idx]) + int64(inBlock)
		if _, err := s.dev.ReadAt(p[read:read+n], at); err != nil {
			return int(read), fmt.Errorf("failed to read block %d: %w", blocks[idx], err)
		}
		read += n
	}
	return int(read), nil
}

// WriteContent writes p at offset off in ent, extending the chain as
// needed and updating the directory entry in parent if the entity grew.
func (s *Store) WriteContent(parent uint64, ent Entity, p []byte, off uint64) error {
	end := off + uint64(len(p))
	bs := uint64(s.blockSize)

	blocks, err := s.chain(ent.StartBlock)
	if err != nil {
		return err
	}
	needed := (end + bs - 1) / bs
	if needed == 0 {
		needed = 1
	}
	for uint64(len(blocks)) < needed {
		b, err := s.extendChain(blocks[len(blocks)-1])
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}

	written := uint64(0)
	for written < uint64(len(p)) {
		pos := off + written
		idx := pos / bs
		inBlock := pos % bs
		n := bs - inBlock
		if n > uint64(len(p))-written {
			n = uint64(len(p)) - written
		}
		at := s.blockOff(blocks[idx]) + int64(inBlock)
		if _, err := s.dev.WriteAt(p[written:written+n], at); err != nil {
			return fmt.Errorf("failed to write block %d: %w", blocks[idx], err)
		}
		written += n
	}

	if end > ent.Size {
		grown := ent
		grown.Size = end
		if err := s.OverwriteHeader(parent, ent, grown); err != nil {
			return err
		}
	}
	return nil
}

// createEntity allocates a chain and appends a directory entry to parent.
func (s *Store) createEntity(parent uint64, name string, flags Flags) (Entity, error) {
	if err := validName(name); err != nil {
		return Entity{}, err
	}
	if _, err := s.findChild(parent, name); err == nil {
		return Entity{}, fmt.Errorf("%s: %w", name, common.ErrExists)
	}

	start, err := s.allocBlock()
	if err != nil {
		return Entity{}, err
	}
	ent := Entity{StartBlock: start, Name: name, Flags: flags}
	if err := s.addEntry(parent, ent); err != nil {
		s.writePtr(start, 0)
		return Entity{}, err
	}
	return ent, nil
}

// CreateFile creates an empty file named name in the directory at parent.
func (s *Store) CreateFile(parent uint64, name string) (Entity, error) {
	return s.createEntity(parent, name, 0)
}

// CreateDirectory creates an empty directory named name in the directory
// at parent.
func (s *Store) CreateDirectory(parent uint64, name string) (Entity, error) {
	return s.createEntity(parent, name, FlagDirectory)
}

// Delete removes ent from the directory at parent and frees its chain.
// Directories are deleted recursively.
func (s *Store) Delete(parent uint64, ent Entity) error {
	off, stored, err := s.findChildByBlock(parent, ent.StartBlock)
	if err != nil {
		return err
	}
	if stored.IsDir() {
		children, err := s.ListChildren(stored.StartBlock)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := s.Delete(stored.StartBlock, child); err != nil {
				return err
			}
		}
	}
	if err := s.freeChain(stored.StartBlock); err != nil {
		return err
	}
	return s.clearSlot(off)
}

// OverwriteHeader rewrites the directory entry of old in parent with the
// header fields of updated. The content chain is untouched.
func (s *Store) OverwriteHeader(parent uint64, old, updated Entity) error {
	off, _, err := s.findChildByBlock(parent, old.StartBlock)
	if err != nil {
		return err
	}
	slot, err := encodeDirent(updated)
	if err != nil {
		return err
	}
	if _, err := s.dev.WriteAt(slot, off); err != nil {
		return fmt.Errorf("failed to rewrite entry: %w", err)
	}
	return nil
}
