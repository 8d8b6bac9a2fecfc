package fusefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleTableAllocatesMonotonicallyFromZero(t *testing.T) {
	t.Parallel()

	ht := newHandleTable()
	assert.Equal(t, uint64(0), ht.allocate())
	assert.Equal(t, uint64(1), ht.allocate())
	assert.Equal(t, uint64(2), ht.allocate())
}

func TestHandleTableNoReuseAfterRelease(t *testing.T) {
	t.Parallel()

	ht := newHandleTable()
	fh := ht.allocate()
	ht.bind(fh, 42)
	ht.release(fh)

	assert.Equal(t, uint64(1), ht.allocate())
}

func TestHandleTableBindInodeRelease(t *testing.T) {
	t.Parallel()

	ht := newHandleTable()
	fh := ht.allocate()
	ht.bind(fh, 42)

	assert.True(t, ht.isOpen(fh))
	ino, ok := ht.inode(fh)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), ino)

	ht.release(fh)
	assert.False(t, ht.isOpen(fh))
	_, ok = ht.inode(fh)
	assert.False(t, ok)

	// Releasing again is a no-op.
	ht.release(fh)
	assert.False(t, ht.isOpen(fh))
}
