package fusefs

import (
	"os"
	"time"

	"bazil.org/fuse"

	"blockfs/internal/store"
)

// rootIno is the kernel's inode number for the mount root. Block 1 is
// always an allocation table block, so no entity's start block can
// collide with it.
const rootIno = 1

// entityAttr maps a stored entity to the attribute record the kernel sees.
// Ownership is always root and permissions are fixed; the store has no
// notion of either.
func entityAttr(ent store.Entity, blockSize uint32) fuse.Attr {
	mode := os.FileMode(0o755)
	if ent.IsDir() {
		mode |= os.ModeDir
	}
	return fuse.Attr{
		Inode: ent.StartBlock,
		Size:  ent.Size,
		// TODO: Blocks is size*blockSize, which looks inverted relative to
		// stat(2) semantics. Preserved until the store pins down what it
		// reports.
		Blocks: ent.Size * uint64(blockSize),
		Atime:  time.Now(),
		Mode:   mode,
		Nlink:  1,
	}
}

// rootAttr returns the fixed attribute record for the mount root.
func rootAttr() fuse.Attr {
	now := time.Now()
	return fuse.Attr{
		Inode:  rootIno,
		Size:   4096,
		Blocks: 1,
		Atime:  now,
		Mtime:  now,
		Ctime:  now,
		Mode:   os.ModeDir | 0o666,
		Nlink:  1,
	}
}
