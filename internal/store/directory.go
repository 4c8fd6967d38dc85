package store

import (
	"sort"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

// DirEntry is one name's target within a directory.
type DirEntry struct {
	Inode vfsop.InodeID  `msgpack:"inode"`
	Kind  vfsop.FileKind `msgpack:"kind"`
}

// Directory is the content blob of a directory inode: a name -> (inode,
// kind) mapping. "." and ".." are ordinary entries of this map; callers
// are responsible for keeping them consistent.
type Directory struct {
	Entries map[string]DirEntry `msgpack:"entries"`
}

// NewDirectory returns an empty directory descriptor.
func NewDirectory() *Directory {
	return &Directory{Entries: make(map[string]DirEntry)}
}

// Names returns the entry names in canonical (sorted) order, so that
// readdir offsets survive a restart.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.Entries))
	for name := range d.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries excluding "." and "..", used by rmdir
// and rename to decide emptiness.
func (d *Directory) Len() int {
	n := 0
	for name := range d.Entries {
		if name != "." && name != ".." {
			n++
		}
	}
	return n
}
