package store

import (
	"os"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

// Store bundles the persistence components (A-E, H) beneath one backing
// directory. internal/server holds exactly one Store for the lifetime of
// the mount.
type Store struct {
	Layout      *Layout
	Superblock  *Superblock
	Inodes      *Inodes
	Contents    *Contents
	Directories *Directories
}

// Open creates (if absent) the on-disk layout beneath root and returns a
// Store ready for use.
func Open(root string) (*Store, error) {
	layout, err := NewLayout(root)
	if err != nil {
		return nil, err
	}

	sb := NewSuperblock(layout)
	if _, err := os.Stat(layout.SuperblockPath()); os.IsNotExist(err) {
		if err := sb.write(vfsop.RootInodeID); err != nil {
			return nil, err
		}
	}

	return &Store{
		Layout:      layout,
		Superblock:  sb,
		Inodes:      NewInodes(layout),
		Contents:    NewContents(layout),
		Directories: NewDirectories(layout),
	}, nil
}
