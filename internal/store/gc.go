package store

import "github.com/golang/glog"

// GC removes an inode's metadata and content files once both its link
// count and open-handle count have reached zero. It must be called after
// any mutation that decrements either counter. Errors here are fatal:
// on-disk corruption or an I/O failure during removal is out of this
// design's fault model.
func (s *Store) GC(attrs *Attributes) (removed bool, err error) {
	if !attrs.Collectable() {
		return false, nil
	}

	if err := s.Inodes.Remove(attrs.Inode); err != nil {
		glog.Fatalf("store: GC: removing inode %d metadata: %v", attrs.Inode, err)
	}
	if err := s.Contents.Remove(attrs.Inode); err != nil {
		glog.Fatalf("store: GC: removing inode %d content: %v", attrs.Inode, err)
	}
	return true, nil
}
