package server

import (
	"syscall"

	"github.com/diskfuse/diskfuse/internal/perm"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"golang.org/x/net/context"
)

func (fs *FileSystem) RmDir(ctx context.Context, req *vfsop.RmDirRequest) (*vfsop.RmDirResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := validateMutationName(req.Name); err != nil {
		return nil, err
	}

	parentAttrs, err := fs.getAttrs(req.Parent)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(parentAttrs, req.Header, perm.WOK); err != nil {
		return nil, err
	}

	parentDir, err := fs.getDir(req.Parent)
	if err != nil {
		return nil, err
	}
	entry, ok := parentDir.Entries[req.Name]
	if !ok {
		return nil, syscall.ENOENT
	}

	victim, err := fs.getAttrs(entry.Inode)
	if err != nil {
		return nil, err
	}
	if !victim.IsDir() {
		return nil, syscall.EINVAL
	}

	victimDir, err := fs.getDir(entry.Inode)
	if err != nil {
		return nil, err
	}
	if victimDir.Len() > 0 {
		return nil, syscall.ENOTEMPTY
	}

	if err := checkSticky(parentAttrs, victim.Uid, req.Header); err != nil {
		return nil, err
	}

	victim.Hardlinks = 0
	delete(parentDir.Entries, req.Name)

	parentAttrs.Mtime = fs.clock.Now()
	parentAttrs.Ctime = parentAttrs.Mtime
	fs.putDir(req.Parent, parentDir)
	fs.putAttrs(parentAttrs)
	fs.gc(victim)

	return &vfsop.RmDirResponse{}, nil
}

func (fs *FileSystem) Unlink(ctx context.Context, req *vfsop.UnlinkRequest) (*vfsop.UnlinkResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := validateMutationName(req.Name); err != nil {
		return nil, err
	}

	parentAttrs, err := fs.getAttrs(req.Parent)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(parentAttrs, req.Header, perm.WOK); err != nil {
		return nil, err
	}

	parentDir, err := fs.getDir(req.Parent)
	if err != nil {
		return nil, err
	}
	entry, ok := parentDir.Entries[req.Name]
	if !ok {
		return nil, syscall.ENOENT
	}
	if entry.Kind == vfsop.KindDirectory {
		return nil, syscall.EINVAL
	}

	victim, err := fs.getAttrs(entry.Inode)
	if err != nil {
		return nil, err
	}

	if err := checkSticky(parentAttrs, victim.Uid, req.Header); err != nil {
		return nil, err
	}

	if victim.Hardlinks > 0 {
		victim.Hardlinks--
	}
	victim.Ctime = fs.clock.Now()
	delete(parentDir.Entries, req.Name)

	parentAttrs.Mtime = fs.clock.Now()
	parentAttrs.Ctime = parentAttrs.Mtime
	fs.putDir(req.Parent, parentDir)
	fs.putAttrs(parentAttrs)
	fs.gc(victim)

	return &vfsop.UnlinkResponse{}, nil
}
