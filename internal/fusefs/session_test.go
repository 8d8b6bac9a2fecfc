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

package fusefs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockfs/internal/common"
)

func TestLookupRecordsParentForRead(t *testing.T) {
	t.Parallel()

	s, st := newTestSession(t)
	root, err := st.Root()
	require.NoError(t, err)

	file, err := st.CreateFile(root.StartBlock, "hello.txt")
	require.NoError(t, err)
	require.NoError(t, st.WriteContent(root.StartBlock, file, []byte("hello world"), 0))

	ent, err := s.Lookup(rootIno, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, file.StartBlock, ent.StartBlock)

	fh, err := s.Open(ent.StartBlock, false)
	require.NoError(t, err)
	data, err := s.Read(ent.StartBlock, fh, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestLookupMiss(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	_, err := s.Lookup(rootIno, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReadWithoutParentHint(t *testing.T) {
	t.Parallel()

	_, st := newTestSession(t)
	root, err := st.Root()
	require.NoError(t, err)

	file, err := st.CreateFile(root.StartBlock, "orphan")
	require.NoError(t, err)

	// A fresh session over the same store has no hint for this inode, so
	// data requests cannot locate it even though the entity exists.
	fresh := NewSession(st)
	fh, err := fresh.Open(file.StartBlock, false)
	require.NoError(t, err)
	_, err = fresh.Read(file.StartBlock, fh, 0, 10)
	assert.ErrorIs(t, err, common.ErrNoParent)
	_, err = fresh.Write(file.StartBlock, fh, 0, []byte("x"))
	assert.ErrorIs(t, err, common.ErrNoParent)
}

func TestCreateWriteReadRoundtrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)

	ent, fh, err := s.Create(rootIno, "data.bin")
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("blockfs!"), 2048)
	n, err := s.Write(ent.StartBlock, fh, 0, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	data, err := s.Read(ent.StartBlock, fh, 0, len(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// Read at offset.
	data, err = s.Read(ent.StartBlock, fh, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, "blockfs!", string(data))

	s.Release(fh)
}

func TestOpenTruncateRejected(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ent, _, err := s.Create(rootIno, "f")
	require.NoError(t, err)

	_, err = s.Open(ent.StartBlock, true)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestReadDirIsSingleShot(t *testing.T) {
	t.Parallel()

	s, st := newTestSession(t)
	root, err := st.Root()
	require.NoError(t, err)
	_, err = st.CreateFile(root.StartBlock, "a")
	require.NoError(t, err)
	_, err = st.CreateDirectory(root.StartBlock, "b")
	require.NoError(t, err)

	fh, err := s.OpenDir(rootIno)
	require.NoError(t, err)

	ents, err := s.ReadDir(rootIno, fh)
	require.NoError(t, err)
	assert.Len(t, ents, 2)

	// The first call released the handle; the kernel's continuation read
	// sees an empty listing.
	ents, err = s.ReadDir(rootIno, fh)
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestMkdirAndNestedListing(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)

	dir, err := s.MkDir(rootIno, "sub")
	require.NoError(t, err)
	assert.True(t, dir.IsDir())

	_, _, err = s.Create(dir.StartBlock, "inner")
	require.NoError(t, err)

	fh, err := s.OpenDir(dir.StartBlock)
	require.NoError(t, err)
	ents, err := s.ReadDir(dir.StartBlock, fh)
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, "inner", ents[0].Name)
}

func TestUnlinkThenReadDir(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	_, _, err := s.Create(rootIno, "doomed")
	require.NoError(t, err)

	require.NoError(t, s.Unlink(rootIno, "doomed"))
	assert.ErrorIs(t, s.Unlink(rootIno, "doomed"), common.ErrNotFound)

	fh, err := s.OpenDir(rootIno)
	require.NoError(t, err)
	ents, err := s.ReadDir(rootIno, fh)
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestGetAttr(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)

	attr, err := s.GetAttr(rootIno)
	require.NoError(t, err)
	assert.True(t, attr.Mode.IsDir())

	ent, fh, err := s.Create(rootIno, "f")
	require.NoError(t, err)
	_, err = s.Write(ent.StartBlock, fh, 0, []byte("1234"))
	require.NoError(t, err)

	attr, err = s.GetAttr(ent.StartBlock)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), attr.Size)
	assert.Equal(t, ent.StartBlock, attr.Inode)

	_, err = s.GetAttr(99999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetAttrShrink(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ent, fh, err := s.Create(rootIno, "f")
	require.NoError(t, err)
	_, err = s.Write(ent.StartBlock, fh, 0, []byte("0123456789"))
	require.NoError(t, err)

	size := uint64(4)
	attr, err := s.SetAttr(ent.StartBlock, &size)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), attr.Size)

	data, err := s.Read(ent.StartBlock, fh, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(data))
}

func TestSetAttrGrowNotSupported(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ent, _, err := s.Create(rootIno, "f")
	require.NoError(t, err)

	size := uint64(1000)
	_, err = s.SetAttr(ent.StartBlock, &size)
	assert.ErrorIs(t, err, common.ErrNotSupported)
}

func TestSetAttrWithoutSizeChange(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ent, _, err := s.Create(rootIno, "f")
	require.NoError(t, err)

	attr, err := s.SetAttr(ent.StartBlock, nil)
	require.NoError(t, err)
	assert.Equal(t, ent.StartBlock, attr.Inode)
}

func TestSetAttrShrinkWithoutParentHint(t *testing.T) {
	t.Parallel()

	s, st := newTestSession(t)
	root, err := st.Root()
	require.NoError(t, err)
	file, err := st.CreateFile(root.StartBlock, "f")
	require.NoError(t, err)
	require.NoError(t, st.WriteContent(root.StartBlock, file, []byte("0123456789"), 0))

	size := uint64(2)
	_, err = s.SetAttr(file.StartBlock, &size)
	assert.ErrorIs(t, err, common.ErrNoParent)
}

func TestOpenDirOnMissingInode(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	_, err := s.OpenDir(77777)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAccess(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	require.NoError(t, s.Access(rootIno))

	ent, _, err := s.Create(rootIno, "f")
	require.NoError(t, err)
	require.NoError(t, s.Access(ent.StartBlock))

	assert.ErrorIs(t, s.Access(424242), common.ErrNotFound)
}

func TestHandleIdsAdvanceAcrossOperations(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)

	_, fh0, err := s.Create(rootIno, "a")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), fh0)

	fh1, err := s.OpenDir(rootIno)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), fh1)

	s.Release(fh0)
	ent, err := s.Lookup(rootIno, "a")
	require.NoError(t, err)
	fh2, err := s.Open(ent.StartBlock, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fh2)
}
