package store

import (
	"os"
	"time"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

// MaxFileSize bounds regular-file size (1 TiB).
const MaxFileSize = 1 << 40

// Attributes is the persisted superset of vfsop.InodeAttributes, stored
// as the metadata file for one inode.
type Attributes struct {
	Inode       vfsop.InodeID     `msgpack:"inode"`
	Kind        vfsop.FileKind    `msgpack:"kind"`
	Mode        os.FileMode       `msgpack:"mode"`
	Size        uint64            `msgpack:"size"`
	Hardlinks   uint32            `msgpack:"hardlinks"`
	OpenHandles uint32            `msgpack:"open_handles"`
	Uid         uint32            `msgpack:"uid"`
	Gid         uint32            `msgpack:"gid"`
	Atime       time.Time         `msgpack:"atime"`
	Mtime       time.Time         `msgpack:"mtime"`
	Ctime       time.Time         `msgpack:"ctime"`
	Xattrs      map[string][]byte `msgpack:"xattrs"`
}

// ToWire projects the persisted attributes onto the wire type returned by
// lookup/getattr/setattr. Mode carries the type bits (os.ModeDir /
// os.ModeSymlink) alongside the permission bits, matching how os.FileMode
// is conventionally used, even though Attributes.Mode itself stores only
// the low 12 permission/sticky bits.
func (a Attributes) ToWire() vfsop.InodeAttributes {
	mode := a.Mode & 0o7777
	switch a.Kind {
	case vfsop.KindDirectory:
		mode |= os.ModeDir
	case vfsop.KindSymlink:
		mode |= os.ModeSymlink
	}

	return vfsop.InodeAttributes{
		Size:  a.Size,
		Nlink: a.Hardlinks,
		Mode:  mode,
		Atime: a.Atime,
		Mtime: a.Mtime,
		Ctime: a.Ctime,
		Uid:   a.Uid,
		Gid:   a.Gid,
	}
}

// IsDir, IsSymlink, IsRegular classify an inode's kind.
func (a Attributes) IsDir() bool     { return a.Kind == vfsop.KindDirectory }
func (a Attributes) IsSymlink() bool { return a.Kind == vfsop.KindSymlink }
func (a Attributes) IsRegular() bool { return a.Kind == vfsop.KindFile }

// Collectable reports whether both the link count and the open-handle
// count have reached zero.
func (a Attributes) Collectable() bool {
	return a.Hardlinks == 0 && a.OpenHandles == 0
}
