package server

import (
	"os"
	"syscall"
	"testing"

	"github.com/diskfuse/diskfuse/internal/groups"
	"github.com/diskfuse/diskfuse/internal/store"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

func newTestFS(t *testing.T) *FileSystem {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)

	fs, err := New(st, groups.Static{}, &timeutil.SimulatedClock{})
	require.NoError(t, err)
	return fs
}

func header(uid, gid uint32) vfsop.RequestHeader {
	return vfsop.RequestHeader{Uid: uid, Gid: gid, Pid: 1}
}

var ctx = context.Background()

// Scenario 1: Mkdir/lookup.
func TestScenarioMkdirLookup(t *testing.T) {
	fs := newTestFS(t)

	_, err := fs.MkDir(ctx, &vfsop.MkDirRequest{
		Header: header(1000, 1000),
		Parent: vfsop.RootInodeID,
		Name:   "a",
		Mode:   0o755,
	})
	require.NoError(t, err)

	resp, err := fs.LookUpInode(ctx, &vfsop.LookUpInodeRequest{
		Header: header(1000, 1000),
		Parent: vfsop.RootInodeID,
		Name:   "a",
	})
	require.NoError(t, err)
	require.Equal(t, os.ModeDir|0o755, resp.Entry.Attributes.Mode)
	require.Equal(t, uint32(1000), resp.Entry.Attributes.Uid)
	require.Equal(t, uint32(2), resp.Entry.Attributes.Nlink)
}

// Scenario 2: create + write + read.
func TestScenarioCreateWriteRead(t *testing.T) {
	fs := newTestFS(t)

	created, err := fs.CreateFile(ctx, &vfsop.CreateFileRequest{
		Header: header(1000, 1000),
		Parent: vfsop.RootInodeID,
		Name:   "f",
		Mode:   0o644,
		Flags:  vfsop.OpenReadWrite,
	})
	require.NoError(t, err)
	ino := created.Entry.Child
	h := created.Handle

	wr, err := fs.WriteFile(ctx, &vfsop.WriteFileRequest{
		Header: header(1000, 1000),
		Inode:  ino,
		Handle: h,
		Offset: 0,
		Data:   []byte("hello"),
	})
	require.NoError(t, err)
	require.Equal(t, 5, wr.Size)

	rr, err := fs.ReadFile(ctx, &vfsop.ReadFileRequest{
		Header: header(1000, 1000),
		Inode:  ino,
		Handle: h,
		Offset: 1,
		Size:   3,
	})
	require.NoError(t, err)
	require.Equal(t, "ell", string(rr.Data))

	attrs, err := fs.GetInodeAttributes(ctx, &vfsop.GetInodeAttributesRequest{
		Header: header(1000, 1000),
		Inode:  ino,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(5), attrs.Attributes.Size)
}

// Scenario 3: sticky delete.
func TestScenarioStickyDelete(t *testing.T) {
	fs := newTestFS(t)

	_, err := fs.SetInodeAttributes(ctx, &vfsop.SetInodeAttributesRequest{
		Header: header(0, 0),
		Inode:  vfsop.RootInodeID,
		Mode:   modePtr(0o1777),
	})
	require.NoError(t, err)

	_, err = fs.CreateFile(ctx, &vfsop.CreateFileRequest{
		Header: header(1000, 1000),
		Parent: vfsop.RootInodeID,
		Name:   "owned-by-1000",
		Mode:   0o644,
		Flags:  vfsop.OpenReadWrite,
	})
	require.NoError(t, err)

	_, err = fs.Unlink(ctx, &vfsop.UnlinkRequest{
		Header: header(1001, 1001),
		Parent: vfsop.RootInodeID,
		Name:   "owned-by-1000",
	})
	require.ErrorIs(t, err, syscall.EACCES)

	_, err = fs.Unlink(ctx, &vfsop.UnlinkRequest{
		Header: header(1000, 1000),
		Parent: vfsop.RootInodeID,
		Name:   "owned-by-1000",
	})
	require.NoError(t, err)
}

// Scenario 4: rename over empty dir.
func TestScenarioRenameOverEmptyDir(t *testing.T) {
	fs := newTestFS(t)

	mkA, err := fs.MkDir(ctx, &vfsop.MkDirRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "a", Mode: 0o755})
	require.NoError(t, err)
	_, err = fs.MkDir(ctx, &vfsop.MkDirRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "b", Mode: 0o755})
	require.NoError(t, err)

	_, err = fs.Rename(ctx, &vfsop.RenameRequest{
		Header:    header(0, 0),
		OldParent: vfsop.RootInodeID,
		OldName:   "a",
		NewParent: vfsop.RootInodeID,
		NewName:   "b",
	})
	require.NoError(t, err)

	_, err = fs.LookUpInode(ctx, &vfsop.LookUpInodeRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "a"})
	require.ErrorIs(t, err, syscall.ENOENT)

	got, err := fs.LookUpInode(ctx, &vfsop.LookUpInodeRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "b"})
	require.NoError(t, err)
	require.Equal(t, mkA.Entry.Child, got.Entry.Child)
}

// Scenario 5: rename over non-empty dir.
func TestScenarioRenameOverNonEmptyDir(t *testing.T) {
	fs := newTestFS(t)

	_, err := fs.MkDir(ctx, &vfsop.MkDirRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "a", Mode: 0o755})
	require.NoError(t, err)
	mkB, err := fs.MkDir(ctx, &vfsop.MkDirRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "b", Mode: 0o755})
	require.NoError(t, err)
	_, err = fs.CreateFile(ctx, &vfsop.CreateFileRequest{
		Header: header(0, 0), Parent: mkB.Entry.Child, Name: "inside", Mode: 0o644, Flags: vfsop.OpenReadWrite,
	})
	require.NoError(t, err)

	_, err = fs.Rename(ctx, &vfsop.RenameRequest{
		Header:    header(0, 0),
		OldParent: vfsop.RootInodeID,
		OldName:   "a",
		NewParent: vfsop.RootInodeID,
		NewName:   "b",
	})
	require.ErrorIs(t, err, syscall.ENOTEMPTY)
}

// Scenario 6: handle preserves truncate.
func TestScenarioHandlePreservesTruncate(t *testing.T) {
	fs := newTestFS(t)

	created, err := fs.CreateFile(ctx, &vfsop.CreateFileRequest{
		Header: header(1000, 1000),
		Parent: vfsop.RootInodeID,
		Name:   "f",
		Mode:   0o644,
		Flags:  vfsop.OpenWriteOnly,
	})
	require.NoError(t, err)
	ino, h := created.Entry.Child, created.Handle

	_, err = fs.WriteFile(ctx, &vfsop.WriteFileRequest{
		Header: header(1000, 1000), Inode: ino, Handle: h, Offset: 0, Data: []byte("0123456789"),
	})
	require.NoError(t, err)

	_, err = fs.SetInodeAttributes(ctx, &vfsop.SetInodeAttributesRequest{
		Header: header(1000, 1000),
		Inode:  ino,
		Mode:   modePtr(0o400),
	})
	require.NoError(t, err)

	size := uint64(0)
	_, err = fs.SetInodeAttributes(ctx, &vfsop.SetInodeAttributesRequest{
		Header: header(1000, 1000),
		Inode:  ino,
		Size:   &size,
		Handle: &h,
	})
	require.NoError(t, err)

	attrs, err := fs.GetInodeAttributes(ctx, &vfsop.GetInodeAttributesRequest{Header: header(0, 0), Inode: ino})
	require.NoError(t, err)
	require.Equal(t, uint64(0), attrs.Attributes.Size)
}

func modePtr(m os.FileMode) *os.FileMode { return &m }

func TestLookupNameTooLong(t *testing.T) {
	fs := newTestFS(t)

	name := make([]byte, 256)
	for i := range name {
		name[i] = 'x'
	}

	_, err := fs.LookUpInode(ctx, &vfsop.LookUpInodeRequest{
		Header: header(0, 0),
		Parent: vfsop.RootInodeID,
		Name:   string(name),
	})
	require.ErrorIs(t, err, syscall.ENAMETOOLONG)
}

func TestReadBeyondEOFIsZeroLength(t *testing.T) {
	fs := newTestFS(t)

	created, err := fs.CreateFile(ctx, &vfsop.CreateFileRequest{
		Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "f", Mode: 0o644, Flags: vfsop.OpenReadWrite,
	})
	require.NoError(t, err)

	rr, err := fs.ReadFile(ctx, &vfsop.ReadFileRequest{
		Header: header(0, 0), Inode: created.Entry.Child, Handle: created.Handle, Offset: 100, Size: 10,
	})
	require.NoError(t, err)
	require.Empty(t, rr.Data)
}

func TestRmdirNonEmptyFails(t *testing.T) {
	fs := newTestFS(t)

	mkA, err := fs.MkDir(ctx, &vfsop.MkDirRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "a", Mode: 0o755})
	require.NoError(t, err)
	_, err = fs.CreateFile(ctx, &vfsop.CreateFileRequest{
		Header: header(0, 0), Parent: mkA.Entry.Child, Name: "f", Mode: 0o644, Flags: vfsop.OpenReadWrite,
	})
	require.NoError(t, err)

	_, err = fs.RmDir(ctx, &vfsop.RmDirRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "a"})
	require.ErrorIs(t, err, syscall.ENOTEMPTY)
}

func TestGCReclaimsAfterUnlinkAndRelease(t *testing.T) {
	fs := newTestFS(t)

	created, err := fs.CreateFile(ctx, &vfsop.CreateFileRequest{
		Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "f", Mode: 0o644, Flags: vfsop.OpenReadWrite,
	})
	require.NoError(t, err)
	ino, h := created.Entry.Child, created.Handle

	_, err = fs.Unlink(ctx, &vfsop.UnlinkRequest{Header: header(0, 0), Parent: vfsop.RootInodeID, Name: "f"})
	require.NoError(t, err)

	// The inode survives unlink while the handle is still open.
	_, err = fs.GetInodeAttributes(ctx, &vfsop.GetInodeAttributesRequest{Header: header(0, 0), Inode: ino})
	require.NoError(t, err)

	_, err = fs.ReleaseFileHandle(ctx, &vfsop.ReleaseFileHandleRequest{Header: header(0, 0), Handle: h})
	require.NoError(t, err)

	_, err = fs.GetInodeAttributes(ctx, &vfsop.GetInodeAttributesRequest{Header: header(0, 0), Inode: ino})
	require.ErrorIs(t, err, syscall.ENOENT)
}
