package store

import (
	"encoding/binary"
	"fmt"
	"strings"

	"blockfs/internal/common"
)

// Directory content is a packed array of fixed-size entries:
//
//	[0]     status (0 = free, 1 = used)
//	[1]     name length
//	[4:8]   flags, little endian
//	[8:16]  start block
//	[16:24] size in bytes
//	[24:64] name, NUL padded
const (
	direntSize = 64
	maxNameLen = direntSize - 24

	slotFree = 0
	slotUsed = 1
)

func validName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%q: %w", name, common.ErrInvalidName)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%q is longer than %d bytes: %w", name, maxNameLen, common.ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%q: %w", name, common.ErrInvalidName)
	}
	return nil
}

func encodeDirent(ent Entity) ([]byte, error) {
	if err := validName(ent.Name); err != nil {
		return nil, err
	}
	slot := make([]byte, direntSize)
	slot[0] = slotUsed
	slot[1] = byte(len(ent.Name))
	binary.LittleEndian.PutUint32(slot[4:8], uint32(ent.Flags))
	binary.LittleEndian.PutUint64(slot[8:16], ent.StartBlock)
	binary.LittleEndian.PutUint64(slot[16:24], ent.Size)
	copy(slot[24:], ent.Name)
	return slot, nil
}

func decodeDirent(slot []byte) Entity {
	nameLen := int(slot[1])
	if nameLen > maxNameLen {
		nameLen = maxNameLen
	}
	return Entity{
		StartBlock: binary.LittleEndian.Uint64(slot[8:16]),
		Name:       string(slot[24 : 24+nameLen]),
		Size:       binary.LittleEndian.Uint64(slot[16:24]),
		Flags:      Flags(binary.LittleEndian.Uint32(slot[4:8])),
	}
}

// eachSlot walks every entry slot of the directory chain starting at
// dirStart, calling fn with the slot's absolute byte offset and contents.
// Iteration stops when fn returns false or an error.
func (s *Store) eachSlot(dirStart uint64, fn func(off int64, slot []byte) (bool, error)) error {
	blocks, err := s.chain(dirStart)
	if err != nil {
		return err
	}
	perBlock := int64(s.blockSize) / direntSize
	buf := make([]byte, direntSize)
	for _, b := range blocks {
		base := s.blockOff(b)
		for i := int64(0); i < perBlock; i++ {
			off := base + i*direntSize
			if _, err := s.dev.ReadAt(buf, off); err != nil {
				return fmt.Errorf("failed to read directory block %d: %w", b, err)
			}
			cont, err := fn(off, buf)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
	}
	return nil
}

// ListChildren returns the entities stored in the directory at dirBlock.
func (s *Store) ListChildren(dirBlock uint64) ([]Entity, error) {
	var children []Entity
	err := s.eachSlot(dirBlock, func(_ int64, slot []byte) (bool, error) {
		if slot[0] == slotUsed {
			children = append(children, decodeDirent(slot))
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

// findChild looks up a child of the directory at parent by name.
func (s *Store) findChild(parent uint64, name string) (Entity, error) {
	var found *Entity
	err := s.eachSlot(parent, func(_ int64, slot []byte) (bool, error) {
		if slot[0] != slotUsed {
			return true, nil
		}
		ent := decodeDirent(slot)
		if ent.Name != name {
			return true, nil
		}
		found = &ent
		return false, nil
	})
	if err != nil {
		return Entity{}, err
	}
	if found == nil {
		return Entity{}, fmt.Errorf("%s: %w", name, common.ErrNotFound)
	}
	return *found, nil
}

// findChildByBlock looks up a child of the directory at parent by its
// start block and returns the entry's byte offset alongside it.
func (s *Store) findChildByBlock(parent, startBlock uint64) (int64, Entity, error) {
	var (
		found    *Entity
		foundOff int64
	)
	err := s.eachSlot(parent, func(off int64, slot []byte) (bool, error) {
		if slot[0] != slotUsed {
			return true, nil
		}
		ent := decodeDirent(slot)
		if ent.StartBlock != startBlock {
			return true, nil
		}
		found = &ent
		foundOff = off
		return false, nil
	})
	if err != nil {
		return 0, Entity{}, err
	}
	if found == nil {
		return 0, Entity{}, fmt.Errorf("block %d: %w", startBlock, common.ErrNotFound)
	}
	return foundOff, *found, nil
}

// addEntry writes ent into the first free slot of the directory at parent,
// extending the directory chain when all slots are taken.
func (s *Store) addEntry(parent uint64, ent Entity) error {
	slot, err := encodeDirent(ent)
	if err != nil {
		return err
	}

	freeOff := int64(-1)
	err = s.eachSlot(parent, func(off int64, cur []byte) (bool, error) {
		if cur[0] == slotFree {
			freeOff = off
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	if freeOff < 0 {
		blocks, err := s.chain(parent)
		if err != nil {
			return err
		}
		b, err := s.extendChain(blocks[len(blocks)-1])
		if err != nil {
			return err
		}
		freeOff = s.blockOff(b)
	}

	if _, err := s.dev.WriteAt(slot, freeOff); err != nil {
		return fmt.Errorf("failed to write directory entry: %w", err)
	}
	return nil
}

// clearSlot marks the entry at off as free.
func (s *Store) clearSlot(off int64) error {
	zero := make([]byte, direntSize)
	if _, err := s.dev.WriteAt(zero, off); err != nil {
		return fmt.Errorf("failed to clear directory entry: %w", err)
	}
	return nil
}
