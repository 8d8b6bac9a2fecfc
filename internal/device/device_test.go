package device

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDeviceReadWrite(t *testing.T) {
	t.Parallel()

	d := NewMem(16)
	n, err := d.WriteAt([]byte("hello"), 4)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = d.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestMemDeviceGrowsOnWritePastEnd(t *testing.T) {
	t.Parallel()

	d := NewMem(8)
	_, err := d.WriteAt([]byte("world"), 20)
	require.NoError(t, err)

	size, err := d.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(25), size)
}

func TestMemDeviceReadPastEnd(t *testing.T) {
	t.Parallel()

	d := NewMem(8)
	buf := make([]byte, 4)

	_, err := d.ReadAt(buf, 100)
	assert.ErrorIs(t, err, io.EOF)

	n, err := d.ReadAt(buf, 6)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
}

func TestFileDeviceCreateAndReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "img.blockfs")
	d, err := CreateFile(path, 1<<16, false)
	require.NoError(t, err)

	_, err = d.WriteAt([]byte("data"), 0)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// Exclusive create must refuse an existing file without force.
	_, err = CreateFile(path, 1<<16, false)
	assert.Error(t, err)

	d2, err := OpenFile(path)
	require.NoError(t, err)
	defer d2.Close()

	buf := make([]byte, 4)
	_, err = d2.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "data", string(buf))
}

func TestFileDeviceLockConflict(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "img.blockfs")
	d, err := CreateFile(path, 1<<16, false)
	require.NoError(t, err)
	defer d.Close()

	_, err = OpenFile(path)
	assert.ErrorContains(t, err, "in use")
}
