package server

import (
	"syscall"
	"time"

	"github.com/diskfuse/diskfuse/internal/perm"
	"github.com/diskfuse/diskfuse/internal/store"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"github.com/golang/glog"
	"golang.org/x/net/context"
)

// Init sets the root inode's ownership to the mounting process's
// credentials.
func (fs *FileSystem) Init(ctx context.Context, req *vfsop.InitRequest) (*vfsop.InitResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	root, err := fs.getAttrs(vfsop.RootInodeID)
	if err != nil {
		return nil, err
	}
	root.Uid = req.Header.Uid
	root.Gid = req.Header.Gid
	fs.putAttrs(root)

	return &vfsop.InitResponse{}, nil
}

func (fs *FileSystem) LookUpInode(ctx context.Context, req *vfsop.LookUpInodeRequest) (*vfsop.LookUpInodeResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := validateName(req.Name); err != nil {
		return nil, err
	}

	// "." and ".." are ordinary entries of a directory's own map and are
	// valid lookup targets, unlike in the mutating ops.
	parent, err := fs.getAttrs(req.Parent)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(parent, req.Header, perm.XOK); err != nil {
		return nil, err
	}

	dir, err := fs.getDir(req.Parent)
	if err != nil {
		return nil, err
	}
	entry, ok := dir.Entries[req.Name]
	if !ok {
		return nil, syscall.ENOENT
	}

	child, err := fs.getAttrs(entry.Inode)
	if err != nil {
		return nil, err
	}

	return &vfsop.LookUpInodeResponse{Entry: childEntry(child)}, nil
}

func (fs *FileSystem) GetInodeAttributes(ctx context.Context, req *vfsop.GetInodeAttributesRequest) (*vfsop.GetInodeAttributesResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	attrs, err := fs.getAttrs(req.Inode)
	if err != nil {
		return nil, err
	}

	return &vfsop.GetInodeAttributesResponse{Attributes: attrs.ToWire()}, nil
}

func (fs *FileSystem) SetInodeAttributes(ctx context.Context, req *vfsop.SetInodeAttributesRequest) (*vfsop.SetInodeAttributesResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	attrs, err := fs.getAttrs(req.Inode)
	if err != nil {
		return nil, err
	}

	handleGrantsWrite := false
	if req.Handle != nil {
		if info, ok := fs.handles.Lookup(*req.Handle); ok {
			handleGrantsWrite = info.Write
		}
	}

	if req.Mode != nil {
		if req.Header.Uid != 0 && req.Header.Uid != attrs.Uid {
			return nil, syscall.EPERM
		}
		attrs.Mode = *req.Mode & 0o7777
	}

	if req.Uid != nil {
		if req.Header.Uid != 0 && *req.Uid != attrs.Uid {
			return nil, syscall.EPERM
		}
		attrs.Uid = *req.Uid
	}

	if req.Gid != nil {
		if req.Header.Uid != 0 && req.Header.Uid != attrs.Uid {
			return nil, syscall.EPERM
		}
		if req.Header.Uid != 0 {
			gids, err := fs.groupLookup.Groups(req.Header.Pid)
			if err != nil {
				return nil, mustNotInternal(err)
			}
			if !containsGID(gids, *req.Gid) && *req.Gid != req.Header.Gid {
				return nil, syscall.EPERM
			}
		}
		attrs.Gid = *req.Gid
	}

	if req.Size != nil {
		if *req.Size > store.MaxFileSize {
			return nil, syscall.EFBIG
		}
		if !handleGrantsWrite {
			if err := checkAccess(attrs, req.Header, perm.WOK); err != nil {
				return nil, err
			}
		}
		if err := fs.store.Contents.Truncate(attrs.Inode, int64(*req.Size)); err != nil {
			glog.Fatalf("diskfused: truncating inode %d to %d: %v", attrs.Inode, *req.Size, err)
		}
		attrs.Size = *req.Size
	}

	if req.Atime != nil || req.AtimeNow {
		if err := setTimeField(fs, attrs, req.Header, req.Atime, req.AtimeNow, &attrs.Atime); err != nil {
			return nil, err
		}
	}
	if req.Mtime != nil || req.MtimeNow {
		if err := setTimeField(fs, attrs, req.Header, req.Mtime, req.MtimeNow, &attrs.Mtime); err != nil {
			return nil, err
		}
	}

	attrs.Ctime = fs.clock.Now()
	fs.putAttrs(attrs)

	return &vfsop.SetInodeAttributesResponse{Attributes: attrs.ToWire()}, nil
}

// setTimeField applies an atime/mtime change: an explicit value requires
// owner or root, "now" requires only W_OK.
func setTimeField(fs *FileSystem, attrs *store.Attributes, header vfsop.RequestHeader, explicit *time.Time, now bool, field *time.Time) error {
	if now {
		if err := checkAccess(attrs, header, perm.WOK); err != nil {
			return err
		}
		*field = fs.clock.Now()
		return nil
	}

	if header.Uid != 0 && header.Uid != attrs.Uid {
		return syscall.EPERM
	}
	*field = *explicit
	return nil
}

func containsGID(gids []uint32, gid uint32) bool {
	for _, g := range gids {
		if g == gid {
			return true
		}
	}
	return false
}

func (fs *FileSystem) ForgetInode(ctx context.Context, req *vfsop.ForgetInodeRequest) (*vfsop.ForgetInodeResponse, error) {
	// No kernel inode cache is maintained here, so there is nothing to
	// release beyond what ReleaseFileHandle and ReleaseDirHandle already do.
	return &vfsop.ForgetInodeResponse{}, nil
}

func (fs *FileSystem) ReadSymlink(ctx context.Context, req *vfsop.ReadSymlinkRequest) (*vfsop.ReadSymlinkResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	attrs, err := fs.getAttrs(req.Inode)
	if err != nil {
		return nil, err
	}
	if !attrs.IsSymlink() {
		return nil, syscall.EINVAL
	}

	target, err := fs.store.Contents.ReadAll(req.Inode)
	if err != nil {
		return nil, mustNotInternal(err)
	}

	return &vfsop.ReadSymlinkResponse{Target: string(target)}, nil
}

func (fs *FileSystem) Access(ctx context.Context, req *vfsop.AccessRequest) (*vfsop.AccessResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	attrs, err := fs.getAttrs(req.Inode)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(attrs, req.Header, req.Mask); err != nil {
		return nil, err
	}

	return &vfsop.AccessResponse{}, nil
}
