package fusefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInoCacheRecordResolve(t *testing.T) {
	t.Parallel()

	c := newInoCache()
	c.record(1, 10)
	c.record(1, 11)
	c.record(10, 12)

	parent, ok := c.resolve(12)
	assert.True(t, ok)
	assert.Equal(t, uint64(10), parent)

	_, ok = c.resolve(99)
	assert.False(t, ok)
}

func TestInoCacheEvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	c := newInoCache()
	for i := 0; i < inoCacheCap; i++ {
		c.record(1, uint64(1000+i))
	}

	// Still present at capacity.
	_, ok := c.resolve(1000)
	assert.True(t, ok)

	// One more insert pushes out the oldest entry only.
	c.record(2, 5000)
	_, ok = c.resolve(1000)
	assert.False(t, ok)
	_, ok = c.resolve(1001)
	assert.True(t, ok)
	parent, ok := c.resolve(5000)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), parent)
}

func TestInoCacheDuplicatesResolveToOldest(t *testing.T) {
	t.Parallel()

	c := newInoCache()
	c.record(1, 10)
	c.record(2, 10)

	parent, ok := c.resolve(10)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), parent)
}
