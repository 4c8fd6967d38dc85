package server

import (
	"syscall"

	"github.com/diskfuse/diskfuse/internal/perm"
	"github.com/diskfuse/diskfuse/internal/store"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"golang.org/x/net/context"
)

func (fs *FileSystem) OpenFile(ctx context.Context, req *vfsop.OpenFileRequest) (*vfsop.OpenFileResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	attrs, err := fs.getAttrs(req.Inode)
	if err != nil {
		return nil, err
	}
	if attrs.IsDir() {
		return nil, syscall.EINVAL
	}

	read, write, err := flagsToAccess(req.Flags)
	if err != nil {
		return nil, err
	}
	if req.Flags&vfsop.OpenTruncate != 0 && !write {
		return nil, syscall.EACCES
	}

	var mask uint32
	if read {
		mask |= perm.ROK
	}
	if write {
		mask |= perm.WOK
	}
	if req.Flags&vfsop.OpenExec != 0 && !write {
		mask |= perm.XOK
	}
	if err := checkAccess(attrs, req.Header, mask); err != nil {
		return nil, err
	}

	if req.Flags&vfsop.OpenTruncate != 0 {
		if err := fs.store.Contents.Truncate(req.Inode, 0); err != nil {
			return nil, mustNotInternal(err)
		}
		attrs.Size = 0
		attrs.Mtime = fs.clock.Now()
		attrs.Ctime = attrs.Mtime
	}

	attrs.OpenHandles++
	fs.putAttrs(attrs)
	h := fs.handles.Open(req.Inode, read, write, false)

	return &vfsop.OpenFileResponse{Handle: h}, nil
}

func (fs *FileSystem) ReadFile(ctx context.Context, req *vfsop.ReadFileRequest) (*vfsop.ReadFileResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	info, ok := fs.handles.Lookup(req.Handle)
	if !ok || !info.Read {
		return nil, syscall.EACCES
	}

	attrs, err := fs.getAttrs(req.Inode)
	if err != nil {
		return nil, err
	}

	size := req.Size
	remaining := int64(attrs.Size) - req.Offset
	if remaining < 0 {
		remaining = 0
	}
	if int64(size) > remaining {
		size = int(remaining)
	}
	if size <= 0 {
		return &vfsop.ReadFileResponse{Data: nil}, nil
	}

	buf := make([]byte, size)
	n, err := fs.store.Contents.ReadAt(req.Inode, buf, req.Offset)
	if err != nil {
		return nil, mustNotInternal(err)
	}

	attrs.Atime = fs.clock.Now()
	fs.putAttrs(attrs)

	return &vfsop.ReadFileResponse{Data: buf[:n]}, nil
}

func (fs *FileSystem) WriteFile(ctx context.Context, req *vfsop.WriteFileRequest) (*vfsop.WriteFileResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	info, ok := fs.handles.Lookup(req.Handle)
	if !ok || !info.Write {
		return nil, syscall.EACCES
	}

	attrs, err := fs.getAttrs(req.Inode)
	if err != nil {
		return nil, err
	}

	end := req.Offset + int64(len(req.Data))
	if end > store.MaxFileSize {
		return nil, syscall.EFBIG
	}

	n, err := fs.store.Contents.WriteAt(req.Inode, req.Data, req.Offset)
	if err != nil {
		return nil, mustNotInternal(err)
	}

	if end > int64(attrs.Size) {
		attrs.Size = uint64(end)
	}
	now := fs.clock.Now()
	attrs.Mtime = now
	attrs.Ctime = now
	fs.putAttrs(attrs)

	return &vfsop.WriteFileResponse{Size: n}, nil
}

func (fs *FileSystem) ReleaseFileHandle(ctx context.Context, req *vfsop.ReleaseFileHandleRequest) (*vfsop.ReleaseFileHandleResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	info, ok := fs.handles.Release(req.Handle)
	if !ok {
		return &vfsop.ReleaseFileHandleResponse{}, nil
	}

	attrs, err := fs.getAttrs(info.Inode)
	if err != nil {
		return nil, err
	}
	if attrs.OpenHandles > 0 {
		attrs.OpenHandles--
	}
	fs.gc(attrs)

	return &vfsop.ReleaseFileHandleResponse{}, nil
}
