package store

import (
	"syscall"
	"testing"

	"github.com/diskfuse/diskfuse/internal/vfsop"
	"github.com/stretchr/testify/require"
)

func TestContentsWriteAtExtendsAndReadAt(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	const id vfsop.InodeID = 3
	require.NoError(t, s.Contents.CreateEmpty(id))

	n, err := s.Contents.WriteAt(id, []byte("hello"), 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 3)
	n, err = s.Contents.ReadAt(id, buf, 1)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "ell", string(buf))
}

func TestContentsReadAtBeyondEOF(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	const id vfsop.InodeID = 4
	require.NoError(t, s.Contents.CreateEmpty(id))
	require.NoError(t, s.Inodes.Write(&Attributes{Inode: id, Kind: vfsop.KindFile}))

	buf := make([]byte, 10)
	n, err := s.Contents.ReadAt(id, buf, 100)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestContentsWriteAtMissingIsEBADF(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.Contents.WriteAt(77, []byte("x"), 0)
	require.ErrorIs(t, err, syscall.EBADF)
}

func TestContentsTruncateShrinksAndGrows(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	const id vfsop.InodeID = 6
	require.NoError(t, s.Contents.CreateEmpty(id))
	_, err = s.Contents.WriteAt(id, []byte("0123456789"), 0)
	require.NoError(t, err)

	require.NoError(t, s.Contents.Truncate(id, 4))
	buf := make([]byte, 10)
	n, err := s.Contents.ReadAt(id, buf, 0)
	require.NoError(t, err)
	require.Equal(t, "0123", string(buf[:n]))

	require.NoError(t, s.Contents.Truncate(id, 6))
	n, err = s.Contents.ReadAt(id, buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{'0', '1', '2', '3', 0, 0}, buf[:n])
}
