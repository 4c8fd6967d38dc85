// Package store implements the on-disk filesystem state engine: path
// layout, the metadata/directory codec, the inode superblock allocator,
// and the inode/directory stores themselves.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

// Layout maps inode ids to the on-disk files beneath one backing
// directory:
//
//	D/inodes/<n>, serialised InodeAttributes for inode n
//	D/contents/<n>, raw bytes (files), target bytes (symlinks), or a
//	                serialised Directory (directories)
//	D/superblock, serialised uint64 last-allocated inode id
type Layout struct {
	root string
}

// NewLayout creates the inodes/, contents/ subdirectories and the
// superblock's parent beneath root if they don't already exist.
func NewLayout(root string) (*Layout, error) {
	l := &Layout{root: root}
	for _, dir := range []string{l.inodesDir(), l.contentsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: creating %s: %w", dir, err)
		}
	}
	return l, nil
}

func (l *Layout) inodesDir() string   { return filepath.Join(l.root, "inodes") }
func (l *Layout) contentsDir() string { return filepath.Join(l.root, "contents") }

// InodePath is the metadata file for inode id.
func (l *Layout) InodePath(id vfsop.InodeID) string {
	return filepath.Join(l.inodesDir(), fmt.Sprintf("%d", id))
}

// ContentPath is the content file for inode id.
func (l *Layout) ContentPath(id vfsop.InodeID) string {
	return filepath.Join(l.contentsDir(), fmt.Sprintf("%d", id))
}

// SuperblockPath is the single file holding the last-allocated inode id.
func (l *Layout) SuperblockPath() string {
	return filepath.Join(l.root, "superblock")
}
