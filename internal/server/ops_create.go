package server

import (
	"syscall"

	"github.com/diskfuse/diskfuse/internal/perm"
	"github.com/diskfuse/diskfuse/internal/store"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"golang.org/x/net/context"
)

// checkNameFree loads parent's directory descriptor and fails with EEXIST
// if name is already taken, leaving the actual insert to the caller once
// it knows the new child's id.
func (fs *FileSystem) checkNameFree(parent vfsop.InodeID, name string) (*store.Directory, error) {
	dir, err := fs.getDir(parent)
	if err != nil {
		return nil, err
	}
	if _, exists := dir.Entries[name]; exists {
		return nil, syscall.EEXIST
	}
	return dir, nil
}

func (fs *FileSystem) MkDir(ctx context.Context, req *vfsop.MkDirRequest) (*vfsop.MkDirResponse, error) {
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

	parentDir, err := fs.checkNameFree(req.Parent, req.Name)
	if err != nil {
		return nil, err
	}

	child, err := allocChild(fs, vfsop.KindDirectory, req.Mode, req.Header, 2)
	if err != nil {
		return nil, err
	}
	parentDir.Entries[req.Name] = store.DirEntry{Inode: child.Inode, Kind: vfsop.KindDirectory}

	childDir := store.NewDirectory()
	childDir.Entries["."] = store.DirEntry{Inode: child.Inode, Kind: vfsop.KindDirectory}
	childDir.Entries[".."] = store.DirEntry{Inode: req.Parent, Kind: vfsop.KindDirectory}
	fs.putDir(child.Inode, childDir)
	fs.putAttrs(child)

	parentAttrs.Mtime = fs.clock.Now()
	parentAttrs.Ctime = parentAttrs.Mtime
	fs.putDir(req.Parent, parentDir)
	fs.putAttrs(parentAttrs)

	return &vfsop.MkDirResponse{Entry: childEntry(child)}, nil
}

func (fs *FileSystem) Mknod(ctx context.Context, req *vfsop.MknodRequest) (*vfsop.MknodResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	kind, ok := kindOf(req.Mode)
	if !ok {
		return nil, syscall.ENOSYS
	}
	if kind == vfsop.KindSymlink {
		// Symlinks are created through CreateSymlink, which carries the
		// target; a bare mknod for one has no way to supply it.
		return nil, syscall.ENOSYS
	}

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

	parentDir, err := fs.checkNameFree(req.Parent, req.Name)
	if err != nil {
		return nil, err
	}

	child, err := allocChild(fs, kind, req.Mode, req.Header, 1)
	if err != nil {
		return nil, err
	}
	if err := fs.store.Contents.CreateEmpty(child.Inode); err != nil {
		return nil, mustNotInternal(err)
	}
	parentDir.Entries[req.Name] = store.DirEntry{Inode: child.Inode, Kind: kind}

	fs.putAttrs(child)
	parentAttrs.Mtime = fs.clock.Now()
	parentAttrs.Ctime = parentAttrs.Mtime
	fs.putDir(req.Parent, parentDir)
	fs.putAttrs(parentAttrs)

	return &vfsop.MknodResponse{Entry: childEntry(child)}, nil
}

func (fs *FileSystem) CreateFile(ctx context.Context, req *vfsop.CreateFileRequest) (*vfsop.CreateFileResponse, error) {
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

	parentDir, err := fs.checkNameFree(req.Parent, req.Name)
	if err != nil {
		return nil, err
	}

	child, err := allocChild(fs, vfsop.KindFile, req.Mode, req.Header, 1)
	if err != nil {
		return nil, err
	}
	if err := fs.store.Contents.CreateEmpty(child.Inode); err != nil {
		return nil, mustNotInternal(err)
	}
	parentDir.Entries[req.Name] = store.DirEntry{Inode: child.Inode, Kind: vfsop.KindFile}

	read, write, err := flagsToAccess(req.Flags)
	if err != nil {
		return nil, err
	}
	child.OpenHandles++
	h := fs.handles.Open(child.Inode, read, write, false)

	fs.putAttrs(child)
	parentAttrs.Mtime = fs.clock.Now()
	parentAttrs.Ctime = parentAttrs.Mtime
	fs.putDir(req.Parent, parentDir)
	fs.putAttrs(parentAttrs)

	return &vfsop.CreateFileResponse{Entry: childEntry(child), Handle: h}, nil
}

func (fs *FileSystem) CreateSymlink(ctx context.Context, req *vfsop.CreateSymlinkRequest) (*vfsop.CreateSymlinkResponse, error) {
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

	parentDir, err := fs.checkNameFree(req.Parent, req.Name)
	if err != nil {
		return nil, err
	}

	child, err := allocChild(fs, vfsop.KindSymlink, 0o777, req.Header, 1)
	if err != nil {
		return nil, err
	}
	if err := fs.store.Contents.WriteAll(child.Inode, []byte(req.Target)); err != nil {
		return nil, mustNotInternal(err)
	}
	child.Size = uint64(len(req.Target))
	parentDir.Entries[req.Name] = store.DirEntry{Inode: child.Inode, Kind: vfsop.KindSymlink}

	fs.putAttrs(child)
	parentAttrs.Mtime = fs.clock.Now()
	parentAttrs.Ctime = parentAttrs.Mtime
	fs.putDir(req.Parent, parentDir)
	fs.putAttrs(parentAttrs)

	return &vfsop.CreateSymlinkResponse{Entry: childEntry(child)}, nil
}

func (fs *FileSystem) CreateLink(ctx context.Context, req *vfsop.CreateLinkRequest) (*vfsop.CreateLinkResponse, error) {
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

	target, err := fs.getAttrs(req.Target)
	if err != nil {
		return nil, err
	}
	if target.IsDir() {
		return nil, syscall.EPERM
	}

	parentDir, err := fs.checkNameFree(req.Parent, req.Name)
	if err != nil {
		return nil, err
	}
	parentDir.Entries[req.Name] = store.DirEntry{Inode: target.Inode, Kind: target.Kind}

	target.Hardlinks++
	target.Ctime = fs.clock.Now()

	fs.putAttrs(target)
	parentAttrs.Mtime = fs.clock.Now()
	parentAttrs.Ctime = parentAttrs.Mtime
	fs.putDir(req.Parent, parentDir)
	fs.putAttrs(parentAttrs)

	return &vfsop.CreateLinkResponse{Entry: childEntry(target)}, nil
}

// flagsToAccess derives the read/write intent recorded for a handle from
// the open flags a create/open call carried. Exactly one of
// OpenReadOnly/OpenWriteOnly/OpenReadWrite must be set.
func flagsToAccess(flags vfsop.OpenFlags) (read, write bool, err error) {
	mode := flags & (vfsop.OpenReadOnly | vfsop.OpenWriteOnly | vfsop.OpenReadWrite)
	switch mode {
	case vfsop.OpenReadOnly:
		return true, false, nil
	case vfsop.OpenWriteOnly:
		return false, true, nil
	case vfsop.OpenReadWrite:
		return true, true, nil
	default:
		return false, false, syscall.EINVAL
	}
}
