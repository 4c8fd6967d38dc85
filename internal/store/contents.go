package store

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

// Contents is the raw content-file store backing regular files and
// symlink targets. Directory content is a structured blob and is handled
// by Directories instead, even though both live beneath the same
// contents/ subtree.
type Contents struct {
	layout *Layout
}

// NewContents wraps the content files beneath layout's backing directory.
func NewContents(layout *Layout) *Contents {
	return &Contents{layout: layout}
}

// CreateEmpty creates a zero-length content file for a newly allocated
// inode. Every inode (file, directory, symlink) has a content file from
// the moment it is created.
func (c *Contents) CreateEmpty(id vfsop.InodeID) error {
	f, err := os.OpenFile(c.layout.ContentPath(id), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: creating content file for inode %d: %w", id, err)
	}
	return f.Close()
}

// ReadAt reads up to len(p) bytes from the content file for id starting
// at off. It never returns an error for reads at or beyond EOF; a read
// with an offset beyond EOF should produce a zero-length reply, and the
// caller (internal/server) is responsible for clamping size against the
// inode's recorded Size before calling this.
func (c *Contents) ReadAt(id vfsop.InodeID, p []byte, off int64) (int, error) {
	f, err := os.Open(c.layout.ContentPath(id))
	if os.IsNotExist(err) {
		return 0, syscall.EBADF
	}
	if err != nil {
		return 0, fmt.Errorf("store: opening content for inode %d: %w", id, err)
	}
	defer f.Close()

	n, err := f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("store: reading content for inode %d: %w", id, err)
	}
	return n, nil
}

// WriteAt writes data to the content file for id at offset off, extending
// the file if necessary, and returns the number of bytes written. It does
// not update Attributes.Size; the caller does that. A missing content file is
// reported as EBADF.
func (c *Contents) WriteAt(id vfsop.InodeID, data []byte, off int64) (int, error) {
	f, err := os.OpenFile(c.layout.ContentPath(id), os.O_RDWR, 0o644)
	if os.IsNotExist(err) {
		return 0, syscall.EBADF
	}
	if err != nil {
		return 0, fmt.Errorf("store: opening content for inode %d: %w", id, err)
	}
	defer f.Close()

	n, err := f.WriteAt(data, off)
	if err != nil {
		return n, fmt.Errorf("store: writing content for inode %d: %w", id, err)
	}
	return n, nil
}

// Truncate sets the content file for id to exactly size bytes.
func (c *Contents) Truncate(id vfsop.InodeID, size int64) error {
	if err := os.Truncate(c.layout.ContentPath(id), size); err != nil {
		return fmt.Errorf("store: truncating content for inode %d: %w", id, err)
	}
	return nil
}

// ReadAll reads the entire content file for id, used for symlink targets.
func (c *Contents) ReadAll(id vfsop.InodeID) ([]byte, error) {
	b, err := os.ReadFile(c.layout.ContentPath(id))
	if os.IsNotExist(err) {
		return nil, syscall.ENOENT
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading content for inode %d: %w", id, err)
	}
	return b, nil
}

// WriteAll replaces the entire content file for id via truncate-replace,
// used to set a symlink's target bytes at creation time.
func (c *Contents) WriteAll(id vfsop.InodeID, data []byte) error {
	path := c.layout.ContentPath(id)
	tmp := fmt.Sprintf("%s.tmp", path)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: writing content for inode %d: %w", id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: replacing content for inode %d: %w", id, err)
	}
	return nil
}

// Remove deletes the content file for id. Used only by GC.
func (c *Contents) Remove(id vfsop.InodeID) error {
	if err := os.Remove(c.layout.ContentPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: removing content for inode %d: %w", id, err)
	}
	return nil
}
