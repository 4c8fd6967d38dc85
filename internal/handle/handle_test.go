package handle

import (
	"testing"

	"github.com/diskfuse/diskfuse/internal/vfsop"
	"github.com/stretchr/testify/require"
)

func TestOpenRecordsInfo(t *testing.T) {
	a := New()
	h := a.Open(5, true, false, false)

	info, ok := a.Lookup(h)
	require.True(t, ok)
	require.Equal(t, vfsop.InodeID(5), info.Inode)
	require.True(t, info.Read)
	require.False(t, info.Write)
	require.False(t, info.Dir)
}

func TestOpenEncodesReadWriteBits(t *testing.T) {
	a := New()

	ro := a.Open(1, true, false, false)
	require.True(t, CanRead(ro))
	require.False(t, CanWrite(ro))

	wo := a.Open(1, false, true, false)
	require.False(t, CanRead(wo))
	require.True(t, CanWrite(wo))

	rw := a.Open(1, true, true, false)
	require.True(t, CanRead(rw))
	require.True(t, CanWrite(rw))
}

func TestHandlesAreDistinct(t *testing.T) {
	a := New()
	h1 := a.Open(1, true, true, false)
	h2 := a.Open(1, true, true, false)
	require.NotEqual(t, h1, h2)
}

func TestReleaseForgetsHandle(t *testing.T) {
	a := New()
	h := a.Open(9, true, true, true)

	info, ok := a.Release(h)
	require.True(t, ok)
	require.Equal(t, vfsop.InodeID(9), info.Inode)

	_, ok = a.Lookup(h)
	require.False(t, ok)
}

func TestDoubleReleaseReportsNotOutstanding(t *testing.T) {
	a := New()
	h := a.Open(9, true, false, false)

	_, ok := a.Release(h)
	require.True(t, ok)

	_, ok = a.Release(h)
	require.False(t, ok)
}
