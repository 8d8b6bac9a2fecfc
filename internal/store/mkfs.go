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

package store

import (
	"encoding/binary"
	"fmt"

	"blockfs/internal/common"
	"blockfs/internal/device"
)

// MkfsOptions configure image formatting.
type MkfsOptions struct {
	// BlockSize in bytes. Power of two, at least MinBlockSize.
	// Defaults to DefaultBlockSize.
	BlockSize uint32
	// Blocks is the total block count. Zero derives it from the device size.
	Blocks uint64
}

// Mkfs formats dev as an empty blockfs image and returns a Store over it.
func Mkfs(dev device.Device, opts MkfsOptions) (*Store, error) {
	bs := opts.BlockSize
	if bs == 0 {
		bs = DefaultBlockSize
	}
	if bs < MinBlockSize || bs&(bs-1) != 0 {
		return nil, fmt.Errorf("block size %d must be a power of two >= %d: %w",
			bs, MinBlockSize, common.ErrInvalidArgument)
	}

	blocks := opts.Blocks
	if blocks == 0 {
		size, err := dev.Size()
		if err != nil {
			return nil, fmt.Errorf("failed to size device: %w", err)
		}
		blocks = uint64(size) / uint64(bs)
	}

	tableBlocks := (blocks*8 + uint64(bs) - 1) / uint64(bs)
	// Superblock, table, and at least the root directory must fit.
	if blocks < 1+tableBlocks+1 {
		return nil, fmt.Errorf("%d blocks of %d bytes is too small: %w",
			blocks, bs, common.ErrInvalidArgument)
	}

	s := &Store{
		dev:         dev,
		blockSize:   bs,
		totalBlocks: blocks,
		tableBlocks: tableBlocks,
	}

	// Zero the superblock and the whole table region.
	zero := make([]byte, bs)
	for b := uint64(0); b <= tableBlocks; b++ {
		if _, err := dev.WriteAt(zero, s.blockOff(b)); err != nil {
			return nil, fmt.Errorf("failed to zero block %d: %w", b, err)
		}
	}

	// Reserve the superblock and table blocks so allocation skips them.
	for b := uint64(0); b <= tableBlocks; b++ {
		if err := s.writePtr(b, reservedBlock); err != nil {
			return nil, err
		}
	}

	rootBlock, err := s.allocBlock()
	if err != nil {
		return nil, err
	}
	s.rootBlock = rootBlock

	sb := make([]byte, superblockSize)
	copy(sb[0:4], magic)
	binary.LittleEndian.PutUint32(sb[4:8], version)
	binary.LittleEndian.PutUint32(sb[8:12], bs)
	binary.LittleEndian.PutUint64(sb[12:20], blocks)
	binary.LittleEndian.PutUint64(sb[20:28], tableBlocks)
	binary.LittleEndian.PutUint64(sb[28:36], rootBlock)
	if _, err := dev.WriteAt(sb, 0); err != nil {
		return nil, fmt.Errorf("failed to write superblock: %w", err)
	}

	if err := dev.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync device: %w", err)
	}
	return s, nil
}
