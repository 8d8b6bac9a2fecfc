package fusefs

// inoCacheCap bounds the parent-hint cache.
const inoCacheCap = 256

type inoEntry struct {
	ino    uint64
	parent uint64
}

// inoCache remembers which directory a child inode was last seen in, so
// read and write requests can find the entity without walking the tree.
// It is a bounded FIFO: once full, recording a new pair evicts the oldest
// one. Duplicate pairs for the same inode are allowed and resolve returns
// the oldest surviving match. Entries are never invalidated on delete;
// a stale hint surfaces later as a lookup failure, not a crash.
type inoCache struct {
	entries []inoEntry
}

func newInoCache() *inoCache {
	return &inoCache{entries: make([]inoEntry, 0, inoCacheCap)}
}

// record remembers that ino was seen under parent.
func (c *inoCache) record(parent, ino uint64) {
	if len(c.entries) >= inoCacheCap {
		c.entries = c.entries[1:]
	}
	c.entries = append(c.entries, inoEntry{ino: ino, parent: parent})
}

// resolve returns the parent hint for ino, if one is cached.
func (c *inoCache) resolve(ino uint64) (uint64, bool) {
	for _, e := range c.entries {
		if e.ino == ino {
			return e.parent, true
		}
	}
	return 0, false
}
