package server

import (
	"syscall"

	"github.com/diskfuse/diskfuse/internal/perm"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"golang.org/x/net/context"
)

func (fs *FileSystem) OpenDir(ctx context.Context, req *vfsop.OpenDirRequest) (*vfsop.OpenDirResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	attrs, err := fs.getAttrs(req.Inode)
	if err != nil {
		return nil, err
	}
	if !attrs.IsDir() {
		return nil, syscall.EINVAL
	}
	if err := checkAccess(attrs, req.Header, perm.ROK|perm.XOK); err != nil {
		return nil, err
	}

	attrs.OpenHandles++
	fs.putAttrs(attrs)
	h := fs.handles.Open(req.Inode, true, false, true)

	return &vfsop.OpenDirResponse{Handle: h}, nil
}

func (fs *FileSystem) ReadDir(ctx context.Context, req *vfsop.ReadDirRequest) (*vfsop.ReadDirResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.getAttrs(req.Inode); err != nil {
		return nil, err
	}

	dir, err := fs.getDir(req.Inode)
	if err != nil {
		return nil, err
	}

	names := dir.Names()
	start := int(req.Offset)
	if start >= len(names) {
		return &vfsop.ReadDirResponse{}, nil
	}

	entries := make([]vfsop.Dirent, 0, len(names)-start)
	for i := start; i < len(names); i++ {
		if req.Size > 0 && len(entries) >= req.Size {
			break
		}
		name := names[i]
		entry := dir.Entries[name]
		entries = append(entries, vfsop.Dirent{
			Offset: vfsop.DirOffset(i + 1),
			Inode:  entry.Inode,
			Name:   name,
			Kind:   entry.Kind,
		})
	}

	return &vfsop.ReadDirResponse{Entries: entries}, nil
}

func (fs *FileSystem) ReleaseDirHandle(ctx context.Context, req *vfsop.ReleaseDirHandleRequest) (*vfsop.ReleaseDirHandleResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	info, ok := fs.handles.Release(req.Handle)
	if !ok {
		return &vfsop.ReleaseDirHandleResponse{}, nil
	}

	attrs, err := fs.getAttrs(info.Inode)
	if err != nil {
		return nil, err
	}
	if attrs.OpenHandles > 0 {
		attrs.OpenHandles--
	}
	fs.gc(attrs)

	return &vfsop.ReleaseDirHandleResponse{}, nil
}
