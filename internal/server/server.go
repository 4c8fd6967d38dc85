// Package server implements the request dispatcher: a vfsop.FileSystem
// backed by a persistent store.Store.
package server

import (
	"os"
	"syscall"
	"unicode/utf8"

	"github.com/diskfuse/diskfuse/internal/groups"
	"github.com/diskfuse/diskfuse/internal/handle"
	"github.com/diskfuse/diskfuse/internal/perm"
	"github.com/diskfuse/diskfuse/internal/store"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"github.com/golang/glog"
	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
)

const maxNameLen = 255

// FileSystem implements vfsop.FileSystem. A single coarse mutex serialises
// every upcall, matching a single-threaded cooperative dispatch model.
type FileSystem struct {
	clock       timeutil.Clock
	groupLookup groups.Lookup

	mu      syncutil.InvariantMutex
	store   *store.Store
	handles *handle.Allocator
}

// New wraps st as a vfsop.FileSystem, creating the root inode if the
// backing directory is freshly initialised.
func New(st *store.Store, groupLookup groups.Lookup, clock timeutil.Clock) (*FileSystem, error) {
	fs := &FileSystem{
		clock:       clock,
		groupLookup: groupLookup,
		store:       st,
		handles:     handle.New(),
	}
	fs.mu = syncutil.NewInvariantMutex(fs.checkInvariants)

	if err := fs.ensureRoot(); err != nil {
		return nil, err
	}
	return fs, nil
}

// checkInvariants is a no-op: this engine keeps no in-memory cache of
// inode state for Lock/Unlock to validate. The store package's own tests
// cover on-disk invariants directly.
func (fs *FileSystem) checkInvariants() {}

func (fs *FileSystem) ensureRoot() error {
	if _, err := fs.store.Inodes.Get(vfsop.RootInodeID); err == nil {
		return nil
	} else if err != syscall.ENOENT {
		return err
	}

	now := fs.clock.Now()
	attrs := &store.Attributes{
		Inode:     vfsop.RootInodeID,
		Kind:      vfsop.KindDirectory,
		Mode:      0o777,
		Hardlinks: 2,
		Atime:     now,
		Mtime:     now,
		Ctime:     now,
	}

	dir := store.NewDirectory()
	dir.Entries["."] = store.DirEntry{Inode: vfsop.RootInodeID, Kind: vfsop.KindDirectory}
	dir.Entries[".."] = store.DirEntry{Inode: vfsop.RootInodeID, Kind: vfsop.KindDirectory}

	if err := fs.store.Directories.Write(vfsop.RootInodeID, dir); err != nil {
		return err
	}
	return fs.store.Inodes.Write(attrs)
}

////////////////////////////////////////////////////////////////////////
// Shared helpers
////////////////////////////////////////////////////////////////////////

// mustNotInternal converts a store error into a POSIX errno if it already
// is one, and aborts the process otherwise: on-disk corruption and host
// I/O failure are outside the fault model this dispatcher handles.
func mustNotInternal(err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok {
		return errno
	}
	glog.Fatalf("diskfused: unexpected internal store error: %v", err)
	panic("unreachable")
}

func (fs *FileSystem) getAttrs(id vfsop.InodeID) (*store.Attributes, error) {
	attrs, err := fs.store.Inodes.Get(id)
	if err != nil {
		return nil, mustNotInternal(err)
	}
	return attrs, nil
}

func (fs *FileSystem) putAttrs(attrs *store.Attributes) {
	if err := fs.store.Inodes.Write(attrs); err != nil {
		glog.Fatalf("diskfused: writing inode %d: %v", attrs.Inode, err)
	}
}

func (fs *FileSystem) getDir(id vfsop.InodeID) (*store.Directory, error) {
	dir, err := fs.store.Directories.Read(id)
	if err != nil {
		return nil, mustNotInternal(err)
	}
	return dir, nil
}

func (fs *FileSystem) putDir(id vfsop.InodeID, dir *store.Directory) {
	if err := fs.store.Directories.Write(id, dir); err != nil {
		glog.Fatalf("diskfused: writing directory %d: %v", id, err)
	}
}

// gc invokes component H after any mutation that could have made attrs
// collectable, writing back first so the on-disk counts match what was
// just decremented.
func (fs *FileSystem) gc(attrs *store.Attributes) {
	fs.putAttrs(attrs)
	if _, err := fs.store.GC(attrs); err != nil {
		glog.Fatalf("diskfused: GC inode %d: %v", attrs.Inode, err)
	}
}

func validateName(name string) error {
	if len(name) > maxNameLen {
		return syscall.ENAMETOOLONG
	}
	if !utf8.ValidString(name) {
		return syscall.EINVAL
	}
	return nil
}

// validateMutationName is validateName plus a rejection of "." and "..",
// which lookup treats as ordinary entries but create/mkdir/symlink/link/
// unlink/rmdir/rename must not be able to target directly.
func validateMutationName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if name == "." || name == ".." {
		return syscall.EINVAL
	}
	return nil
}

func allocChild(fs *FileSystem, kind vfsop.FileKind, mode os.FileMode, header vfsop.RequestHeader, hardlinks uint32) (*store.Attributes, error) {
	id, err := fs.store.Superblock.AllocateNextInode()
	if err != nil {
		return nil, mustNotInternal(err)
	}

	now := fs.clock.Now()
	attrs := &store.Attributes{
		Inode: id,
		Kind:  kind,
		// SUID/SGID are stripped on create; the sticky bit is not.
		Mode:      mode & 0o1777,
		Hardlinks: hardlinks,
		Uid:       header.Uid,
		Gid:       header.Gid,
		Atime:     now,
		Mtime:     now,
		Ctime:     now,
	}
	return attrs, nil
}

func childEntry(attrs *store.Attributes) vfsop.ChildInodeEntry {
	return vfsop.ChildInodeEntry{
		Child:      attrs.Inode,
		Attributes: attrs.ToWire(),
	}
}

// checkAccess is the component-F wrapper around perm.Check for a given
// inode's attributes and a request header, returning EACCES on denial.
func checkAccess(attrs *store.Attributes, header vfsop.RequestHeader, mask uint32) error {
	if !perm.Check(attrs.Uid, attrs.Gid, uint32(attrs.Mode), header.Uid, header.Gid, mask) {
		return syscall.EACCES
	}
	return nil
}

// checkSticky is the component-F wrapper around perm.Sticky, returning
// EACCES when the sticky bit on parent blocks header's caller from acting
// on victimUID.
func checkSticky(parent *store.Attributes, victimUID uint32, header vfsop.RequestHeader) error {
	if perm.Sticky(uint32(parent.Mode), parent.Uid, victimUID, header.Uid) {
		return syscall.EACCES
	}
	return nil
}

func kindOf(mode os.FileMode) (vfsop.FileKind, bool) {
	switch {
	case mode&os.ModeDir != 0:
		return vfsop.KindDirectory, true
	case mode&os.ModeSymlink != 0:
		return vfsop.KindSymlink, true
	case mode&os.ModeType == 0:
		return vfsop.KindFile, true
	default:
		return 0, false
	}
}
