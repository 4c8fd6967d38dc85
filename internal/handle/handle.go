// Package handle implements the file-handle allocator. It issues HandleID
// values that encode read/write intent in their top two bits for callers
// that inspect the wire value directly, but the authoritative record of
// what each handle may do, and which inode it is open against, lives in
// an in-memory map kept by Allocator: a bare counter with bit-encoded
// intent cannot be used to decrement an inode's open-handle count on
// release, so Allocator tracks that too.
package handle

import (
	"sync"

	"github.com/diskfuse/diskfuse/internal/vfsop"
)

const (
	readBit   = uint64(1) << 63
	writeBit  = uint64(1) << 62
	flagsMask = readBit | writeBit
)

// Info describes one outstanding open file or directory handle.
type Info struct {
	Inode vfsop.InodeID
	Read  bool
	Write bool
	// Dir is true for a handle returned by OpenDir, false for OpenFile.
	Dir bool
}

// Allocator hands out HandleID values and tracks what each one is open
// against until it is released.
type Allocator struct {
	mu      sync.Mutex
	next    uint64
	handles map[vfsop.HandleID]Info
}

// New returns an empty Allocator.
func New() *Allocator {
	return &Allocator{handles: make(map[vfsop.HandleID]Info)}
}

// Open allocates a new handle for inode against the given read/write
// intent and records it as outstanding.
func (a *Allocator) Open(inode vfsop.InodeID, read, write, dir bool) vfsop.HandleID {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.next++
	if a.next&flagsMask != 0 {
		panic("handle: counter overflowed into encoded bits")
	}

	id := a.next
	if read {
		id |= readBit
	}
	if write {
		id |= writeBit
	}

	h := vfsop.HandleID(id)
	a.handles[h] = Info{Inode: inode, Read: read, Write: write, Dir: dir}
	return h
}

// Lookup returns the Info recorded for h, and whether it is still open.
func (a *Allocator) Lookup(h vfsop.HandleID) (Info, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, ok := a.handles[h]
	return info, ok
}

// Release forgets h. It returns the Info that was recorded for it, and
// false if h was not outstanding (a double release).
func (a *Allocator) Release(h vfsop.HandleID) (Info, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, ok := a.handles[h]
	if ok {
		delete(a.handles, h)
	}
	return info, ok
}

// CanRead is a bit test against the external handle encoding.
func CanRead(h vfsop.HandleID) bool { return uint64(h)&readBit != 0 }

// CanWrite is a bit test against the external handle encoding.
func CanWrite(h vfsop.HandleID) bool { return uint64(h)&writeBit != 0 }
