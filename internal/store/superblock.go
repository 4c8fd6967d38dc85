package store

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

// Superblock is the persistent monotonic inode counter. It is not safe
// under concurrent callers; internal/server serialises access to it the
// same way it serialises every other mutation.
type Superblock struct {
	layout *Layout
}

// NewSuperblock wraps the superblock file beneath layout's backing
// directory.
func NewSuperblock(layout *Layout) *Superblock {
	return &Superblock{layout: layout}
}

// AllocateNextInode reads the current value (defaulting to
// vfsop.RootInodeID if the file is absent), writes current+1 back via
// truncate-replace, and returns current+1.
func (s *Superblock) AllocateNextInode() (vfsop.InodeID, error) {
	current, err := s.read()
	if err != nil {
		return 0, err
	}

	next := current + 1
	if err := s.write(next); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Superblock) read() (vfsop.InodeID, error) {
	b, err := os.ReadFile(s.layout.SuperblockPath())
	if os.IsNotExist(err) {
		return vfsop.RootInodeID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: reading superblock: %w", err)
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: superblock length %d", ErrCorrupt, len(b))
	}
	return vfsop.InodeID(binary.LittleEndian.Uint64(b)), nil
}

func (s *Superblock) write(id vfsop.InodeID) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(id))

	tmp := s.layout.SuperblockPath() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("store: writing superblock: %w", err)
	}
	if err := os.Rename(tmp, s.layout.SuperblockPath()); err != nil {
		return fmt.Errorf("store: replacing superblock: %w", err)
	}
	return nil
}
