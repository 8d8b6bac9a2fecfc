package fusefs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"blockfs/internal/store"
)

func TestEntityAttrFile(t *testing.T) {
	t.Parallel()

	ent := store.Entity{StartBlock: 17, Name: "f", Size: 100}
	attr := entityAttr(ent, 4096)

	assert.Equal(t, uint64(17), attr.Inode)
	assert.Equal(t, uint64(100), attr.Size)
	assert.Equal(t, uint64(100*4096), attr.Blocks)
	assert.Equal(t, os.FileMode(0o755), attr.Mode)
	assert.Zero(t, attr.Uid)
	assert.Zero(t, attr.Gid)
	assert.False(t, attr.Atime.IsZero())
	assert.True(t, attr.Mtime.IsZero())
}

func TestEntityAttrDirectory(t *testing.T) {
	t.Parallel()

	ent := store.Entity{StartBlock: 9, Name: "d", Flags: store.FlagDirectory}
	attr := entityAttr(ent, 4096)

	assert.True(t, attr.Mode.IsDir())
	assert.Equal(t, os.FileMode(0o755), attr.Mode.Perm())
	assert.Zero(t, attr.Blocks)
}

func TestRootAttr(t *testing.T) {
	t.Parallel()

	attr := rootAttr()
	assert.Equal(t, uint64(rootIno), attr.Inode)
	assert.Equal(t, uint64(4096), attr.Size)
	assert.Equal(t, uint64(1), attr.Blocks)
	assert.True(t, attr.Mode.IsDir())
	assert.Equal(t, os.FileMode(0o666), attr.Mode.Perm())
	assert.False(t, attr.Atime.IsZero())
	assert.False(t, attr.Mtime.IsZero())
}
