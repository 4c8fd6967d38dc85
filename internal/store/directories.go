package store

import (
	"fmt"
	"os"
	"syscall"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

// Directories is the directory-descriptor store: the content blob of a
// directory inode, reinterpreted as name -> (inode, kind). Callers must
// read-modify-write; there is no in-place mutation.
type Directories struct {
	layout *Layout
}

// NewDirectories wraps the directory content files beneath layout's
// backing directory.
func NewDirectories(layout *Layout) *Directories {
	return &Directories{layout: layout}
}

// Read deserialises the directory descriptor for inode id.
func (s *Directories) Read(id vfsop.InodeID) (*Directory, error) {
	b, err := os.ReadFile(s.layout.ContentPath(id))
	if os.IsNotExist(err) {
		return nil, syscall.ENOENT
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading directory %d: %w", id, err)
	}

	dir, err := decodeDirectory(b)
	if err != nil {
		return nil, fmt.Errorf("store: directory %d: %w", id, err)
	}
	return dir, nil
}

// Write replaces the directory descriptor for inode id via
// truncate-replace.
func (s *Directories) Write(id vfsop.InodeID, dir *Directory) error {
	b, err := encodeDirectory(dir)
	if err != nil {
		return err
	}

	path := s.layout.ContentPath(id)
	tmp := fmt.Sprintf("%s.tmp", path)
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("store: writing directory %d: %w", id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: replacing directory %d: %w", id, err)
	}
	return nil
}
