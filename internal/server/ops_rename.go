package server

import (
	"syscall"

	"github.com/diskfuse/diskfuse/internal/perm"
	"github.com/diskfuse/diskfuse/internal/store"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"golang.org/x/net/context"
)

// Rename moves an entry between (possibly identical) parent directories,
// numbered in comments for the eight distinct steps involved.
func (fs *FileSystem) Rename(ctx context.Context, req *vfsop.RenameRequest) (*vfsop.RenameResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := validateMutationName(req.NewName); err != nil {
		return nil, err
	}
	if err := validateMutationName(req.OldName); err != nil {
		return nil, err
	}

	// 1. Resolve source; resolve parent and new_parent.
	oldParentAttrs, err := fs.getAttrs(req.OldParent)
	if err != nil {
		return nil, err
	}
	newParentAttrs := oldParentAttrs
	if req.NewParent != req.OldParent {
		newParentAttrs, err = fs.getAttrs(req.NewParent)
		if err != nil {
			return nil, err
		}
	}

	oldDir, err := fs.getDir(req.OldParent)
	if err != nil {
		return nil, err
	}
	sourceEntry, ok := oldDir.Entries[req.OldName]
	if !ok {
		return nil, syscall.ENOENT
	}
	source, err := fs.getAttrs(sourceEntry.Inode)
	if err != nil {
		return nil, err
	}

	// 2. Verify W_OK on both parents.
	if err := checkAccess(oldParentAttrs, req.Header, perm.WOK); err != nil {
		return nil, err
	}
	if req.NewParent != req.OldParent {
		if err := checkAccess(newParentAttrs, req.Header, perm.WOK); err != nil {
			return nil, err
		}
	}

	// 3. Sticky-bit check on parent against the victim.
	if err := checkSticky(oldParentAttrs, source.Uid, req.Header); err != nil {
		return nil, err
	}

	newDir := oldDir
	if req.NewParent != req.OldParent {
		newDir, err = fs.getDir(req.NewParent)
		if err != nil {
			return nil, err
		}
	}

	// 4. If a target with the new name exists, validate and remove it.
	var target *store.Attributes
	if targetEntry, exists := newDir.Entries[req.NewName]; exists {
		targetAttrs, err := fs.getAttrs(targetEntry.Inode)
		if err != nil {
			return nil, err
		}

		if err := checkSticky(newParentAttrs, targetAttrs.Uid, req.Header); err != nil {
			return nil, err
		}

		if targetAttrs.IsDir() {
			targetDir, err := fs.getDir(targetEntry.Inode)
			if err != nil {
				return nil, err
			}
			if targetDir.Len() > 0 {
				return nil, syscall.ENOTEMPTY
			}
			targetAttrs.Hardlinks = 0
		} else if targetAttrs.Hardlinks > 0 {
			targetAttrs.Hardlinks--
		}
		target = targetAttrs
	}

	// 5. Moving a directory across parents requires W_OK on the source
	// directory itself, since its ".." will be rewritten.
	if source.IsDir() && req.NewParent != req.OldParent {
		if err := checkAccess(source, req.Header, perm.WOK); err != nil {
			return nil, err
		}
	}

	// 6. Remove source entry from parent; insert into new_parent.
	delete(oldDir.Entries, req.OldName)
	newDir.Entries[req.NewName] = sourceEntry

	// 7. Update last_metadata_changed/last_modified on both parents;
	// last_metadata_changed on the source.
	now := fs.clock.Now()
	oldParentAttrs.Mtime, oldParentAttrs.Ctime = now, now
	newParentAttrs.Mtime, newParentAttrs.Ctime = now, now
	source.Ctime = now

	// 8. If the source is a directory, rewrite its ".." entry.
	if source.IsDir() {
		sourceDir, err := fs.getDir(source.Inode)
		if err != nil {
			return nil, err
		}
		sourceDir.Entries[".."] = store.DirEntry{Inode: req.NewParent, Kind: vfsop.KindDirectory}
		fs.putDir(source.Inode, sourceDir)
	}

	fs.putDir(req.OldParent, oldDir)
	if req.NewParent != req.OldParent {
		fs.putDir(req.NewParent, newDir)
	}
	fs.putAttrs(oldParentAttrs)
	if req.NewParent != req.OldParent {
		fs.putAttrs(newParentAttrs)
	}
	fs.putAttrs(source)
	if target != nil {
		fs.gc(target)
	}

	return &vfsop.RenameResponse{}, nil
}
