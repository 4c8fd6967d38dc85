package store

import (
	"fmt"
	"os"
	"syscall"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

// Inodes is the inode metadata store: get/write InodeAttributes by id,
// backed by one file per inode beneath layout.InodePath.
type Inodes struct {
	layout *Layout
}

// NewInodes wraps the inode metadata files beneath layout's backing
// directory.
func NewInodes(layout *Layout) *Inodes {
	return &Inodes{layout: layout}
}

// Get loads the attributes for inode id. Absence of the file maps to
// syscall.ENOENT; a present-but-unparseable file is fatal (ErrCorrupt).
func (s *Inodes) Get(id vfsop.InodeID) (*Attributes, error) {
	b, err := os.ReadFile(s.layout.InodePath(id))
	if os.IsNotExist(err) {
		return nil, syscall.ENOENT
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading inode %d: %w", id, err)
	}

	attrs, err := decodeAttributes(b)
	if err != nil {
		return nil, fmt.Errorf("store: inode %d: %w", id, err)
	}
	return attrs, nil
}

// Write replaces the metadata file for attrs.Inode, creating it if
// necessary, via truncate-replace.
func (s *Inodes) Write(attrs *Attributes) error {
	b, err := encodeAttributes(attrs)
	if err != nil {
		return err
	}

	path := s.layout.InodePath(attrs.Inode)
	tmp := fmt.Sprintf("%s.tmp", path)
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("store: writing inode %d: %w", attrs.Inode, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: replacing inode %d: %w", attrs.Inode, err)
	}
	return nil
}

// Remove deletes the metadata file for id. Used only by GC.
func (s *Inodes) Remove(id vfsop.InodeID) error {
	if err := os.Remove(s.layout.InodePath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: removing inode %d: %w", id, err)
	}
	return nil
}
