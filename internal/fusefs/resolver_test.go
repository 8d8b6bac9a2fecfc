package fusefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockfs/internal/device"
	"blockfs/internal/store"
)

func newTestSession(t *testing.T) (*Session, *store.Store) {
	t.Helper()
	dev := device.NewMem(4 << 20)
	st, err := store.Mkfs(dev, store.MkfsOptions{})
	require.NoError(t, err)
	return NewSession(st), st
}

func TestFindByInoRoot(t *testing.T) {
	t.Parallel()

	s, st := newTestSession(t)
	root, err := st.Root()
	require.NoError(t, err)

	ent, ok := s.findByIno(rootIno)
	assert.True(t, ok)
	assert.Equal(t, root.StartBlock, ent.StartBlock)
}

func TestFindByInoNestedFile(t *testing.T) {
	t.Parallel()

	s, st := newTestSession(t)
	root, err := st.Root()
	require.NoError(t, err)

	a, err := st.CreateDirectory(root.StartBlock, "a")
	require.NoError(t, err)
	b, err := st.CreateDirectory(a.StartBlock, "b")
	require.NoError(t, err)
	leaf, err := st.CreateFile(b.StartBlock, "leaf")
	require.NoError(t, err)

	ent, ok := s.findByIno(leaf.StartBlock)
	assert.True(t, ok)
	assert.Equal(t, "leaf", ent.Name)
	assert.Equal(t, leaf.StartBlock, ent.StartBlock)
}

func TestFindByInoVisitsSiblingsAfterEmptyDir(t *testing.T) {
	t.Parallel()

	// The target sits in a sibling of an empty directory that is walked
	// first. The walk must continue past the dead end.
	s, st := newTestSession(t)
	root, err := st.Root()
	require.NoError(t, err)

	_, err = st.CreateDirectory(root.StartBlock, "empty")
	require.NoError(t, err)
	other, err := st.CreateDirectory(root.StartBlock, "other")
	require.NoError(t, err)
	target, err := st.CreateFile(other.StartBlock, "target")
	require.NoError(t, err)

	ent, ok := s.findByIno(target.StartBlock)
	assert.True(t, ok)
	assert.Equal(t, "target", ent.Name)
}

func TestFindByInoMiss(t *testing.T) {
	t.Parallel()

	s, st := newTestSession(t)
	root, err := st.Root()
	require.NoError(t, err)
	_, err = st.CreateFile(root.StartBlock, "f")
	require.NoError(t, err)

	_, ok := s.findByIno(12345)
	assert.False(t, ok)
}
