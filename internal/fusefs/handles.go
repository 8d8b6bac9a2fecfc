package fusefs

// handleTable issues file handles and tracks which inode each open handle
// refers to. Identifiers start at 0 and strictly increase for the life of
// the session; a released handle's id is never reused. No locking: the
// serve loop answers requests one at a time.
type handleTable struct {
	next uint64
	open map[uint64]uint64
}

func newHandleTable() *handleTable {
	return &handleTable{open: make(map[uint64]uint64)}
}

// allocate returns the next handle id.
func (t *handleTable) allocate() uint64 {
	fh := t.next
	t.next++
	return fh
}

// bind marks fh as open against ino.
func (t *handleTable) bind(fh, ino uint64) {
	t.open[fh] = ino
}

// isOpen reports whether fh is currently bound.
func (t *handleTable) isOpen(fh uint64) bool {
	_, ok := t.open[fh]
	return ok
}

// inode returns the inode bound to fh.
func (t *handleTable) inode(fh uint64) (uint64, bool) {
	ino, ok := t.open[fh]
	return ino, ok
}

// release drops the binding for fh. Releasing an unknown handle is a no-op.
func (t *handleTable) release(fh uint64) {
	delete(t.open, fh)
}
