// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vfsop describes the shape of the kernel userspace-filesystem
// upcall protocol as a set of Go request/response pairs: one method per
// VFS operation, a context.Context plus a typed *Request in, a typed
// *Response (or error) out. The transport that decodes real kernel
// messages into these structs is out of scope here (assumed provided);
// this package only fixes the shape that transport must produce and that
// internal/server must answer.
package vfsop

import (
	"os"
	"time"

	"golang.org/x/net/context"
)

// InodeID uniquely identifies a file, directory or symlink within one
// mount. The root of the tree is always RootInodeID.
type InodeID uint64

// RootInodeID is the well-known inode number of the mount's root
// directory.
const RootInodeID InodeID = 1

// HandleID is an opaque token returned by OpenFile/OpenDir/CreateFile,
// echoed back in follow-up calls against the same open file description.
type HandleID uint64

// DirOffset is an opaque cursor into a directory stream, as returned in
// ReadDirResponse and accepted by ReadDirRequest.Offset.
type DirOffset uint64

// FileKind enumerates the inode kinds this design supports.
type FileKind int

const (
	KindFile FileKind = iota
	KindDirectory
	KindSymlink
)

// Dirent is one entry as returned by ReadDir.
type Dirent struct {
	Offset DirOffset
	Inode  InodeID
	Name   string
	Kind   FileKind
}

// RequestHeader carries the calling process's credentials, present on
// every request. Pid is carried alongside Uid/Gid because the chown path
// of SetInodeAttributes must consult the caller's supplementary groups,
// keyed by pid.
type RequestHeader struct {
	Uid uint32
	Gid uint32
	Pid uint32
}

// InodeAttributes is the subset of on-disk metadata exposed across the
// wire for a single inode.
type InodeAttributes struct {
	Size   uint64
	Nlink  uint32
	Mode   os.FileMode
	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
	Uid    uint32
	Gid    uint32
}

// ChildInodeEntry describes a child inode within its parent directory, as
// returned by LookUpInode, MkDir, CreateFile, Mknod, CreateSymlink and
// CreateLink.
type ChildInodeEntry struct {
	Child                InodeID
	Attributes           InodeAttributes
	AttributesExpiration time.Time
	EntryExpiration      time.Time
}

////////////////////////////////////////////////////////////////////////
// Requests and responses
////////////////////////////////////////////////////////////////////////

type LookUpInodeRequest struct {
	Header RequestHeader
	Parent InodeID
	Name   string
}

type LookUpInodeResponse struct {
	Entry ChildInodeEntry
}

type GetInodeAttributesRequest struct {
	Header RequestHeader
	Inode  InodeID
}

type GetInodeAttributesResponse struct {
	Attributes           InodeAttributes
	AttributesExpiration time.Time
}

type SetInodeAttributesRequest struct {
	Header RequestHeader
	Inode  InodeID

	Size      *uint64
	Mode      *os.FileMode
	Uid       *uint32
	Gid       *uint32
	Atime     *time.Time
	Mtime     *time.Time
	AtimeNow  bool
	MtimeNow  bool
	Handle    *HandleID
}

type SetInodeAttributesResponse struct {
	Attributes           InodeAttributes
	AttributesExpiration time.Time
}

type ForgetInodeRequest struct {
	Header RequestHeader
	ID     InodeID
	N      uint64
}

type ForgetInodeResponse struct{}

type ReadSymlinkRequest struct {
	Header RequestHeader
	Inode  InodeID
}

type ReadSymlinkResponse struct {
	Target string
}

type AccessRequest struct {
	Header RequestHeader
	Inode  InodeID
	Mask   uint32
}

type AccessResponse struct{}

////////////////////////////////////////////////////////////////////////
// Inode creation
////////////////////////////////////////////////////////////////////////

type MkDirRequest struct {
	Header RequestHeader
	Parent InodeID
	Name   string
	Mode   os.FileMode
}

type MkDirResponse struct {
	Entry ChildInodeEntry
}

type MknodRequest struct {
	Header RequestHeader
	Parent InodeID
	Name   string
	Mode   os.FileMode
}

type MknodResponse struct {
	Entry ChildInodeEntry
}

type CreateFileRequest struct {
	Header RequestHeader
	Parent InodeID
	Name   string
	Mode   os.FileMode
	Flags  OpenFlags
}

type CreateFileResponse struct {
	Entry  ChildInodeEntry
	Handle HandleID
}

type CreateSymlinkRequest struct {
	Header RequestHeader
	Parent InodeID
	Name   string
	Target string
}

type CreateSymlinkResponse struct {
	Entry ChildInodeEntry
}

type CreateLinkRequest struct {
	Header   RequestHeader
	Parent   InodeID
	Name     string
	Target   InodeID
}

type CreateLinkResponse struct {
	Entry ChildInodeEntry
}

////////////////////////////////////////////////////////////////////////
// Removal and rename
////////////////////////////////////////////////////////////////////////

type RmDirRequest struct {
	Header RequestHeader
	Parent InodeID
	Name   string
}

type RmDirResponse struct{}

type UnlinkRequest struct {
	Header RequestHeader
	Parent InodeID
	Name   string
}

type UnlinkResponse struct{}

type RenameRequest struct {
	Header    RequestHeader
	OldParent InodeID
	OldName   string
	NewParent InodeID
	NewName   string
}

type RenameResponse struct{}

////////////////////////////////////////////////////////////////////////
// Directory handles
////////////////////////////////////////////////////////////////////////

type OpenDirRequest struct {
	Header RequestHeader
	Inode  InodeID
}

type OpenDirResponse struct {
	Handle HandleID
}

type ReadDirRequest struct {
	Header RequestHeader
	Inode  InodeID
	Handle HandleID
	Offset DirOffset
	Size   int
}

type ReadDirResponse struct {
	Entries []Dirent
}

type ReleaseDirHandleRequest struct {
	Header RequestHeader
	Handle HandleID
}

type ReleaseDirHandleResponse struct{}

////////////////////////////////////////////////////////////////////////
// File handles
////////////////////////////////////////////////////////////////////////

// OpenFlags mirrors the subset of os.O_* flags this design interprets.
type OpenFlags uint32

const (
	OpenReadOnly  OpenFlags = 1 << iota
	OpenWriteOnly
	OpenReadWrite
	OpenTruncate
	OpenExec
)

type OpenFileRequest struct {
	Header RequestHeader
	Inode  InodeID
	Flags  OpenFlags
}

type OpenFileResponse struct {
	Handle HandleID
}

type ReadFileRequest struct {
	Header RequestHeader
	Inode  InodeID
	Handle HandleID
	Offset int64
	Size   int
}

type ReadFileResponse struct {
	Data []byte
}

type WriteFileRequest struct {
	Header RequestHeader
	Inode  InodeID
	Handle HandleID
	Offset int64
	Data   []byte
}

type WriteFileResponse struct {
	Size int
}

type ReleaseFileHandleRequest struct {
	Header RequestHeader
	Handle HandleID
}

type ReleaseFileHandleResponse struct{}

////////////////////////////////////////////////////////////////////////
// Filesystem-wide
////////////////////////////////////////////////////////////////////////

type StatFSRequest struct {
	Header RequestHeader
}

type StatFSResponse struct {
	BlockSize  uint32
	Blocks     uint64
	BlocksFree uint64
	Files      uint64
	FilesFree  uint64
	NameLen    uint32
}

type InitRequest struct {
	Header RequestHeader
}

type InitResponse struct{}

// FileSystem is the set of upcalls the dispatcher delivers to the state
// engine. Implementations must be safe for concurrent use; a single
// mount's serialization means in practice calls arrive one at a time,
// but the interface makes no such promise itself.
type FileSystem interface {
	Init(ctx context.Context, req *InitRequest) (*InitResponse, error)

	LookUpInode(ctx context.Context, req *LookUpInodeRequest) (*LookUpInodeResponse, error)
	GetInodeAttributes(ctx context.Context, req *GetInodeAttributesRequest) (*GetInodeAttributesResponse, error)
	SetInodeAttributes(ctx context.Context, req *SetInodeAttributesRequest) (*SetInodeAttributesResponse, error)
	ForgetInode(ctx context.Context, req *ForgetInodeRequest) (*ForgetInodeResponse, error)
	ReadSymlink(ctx context.Context, req *ReadSymlinkRequest) (*ReadSymlinkResponse, error)
	Access(ctx context.Context, req *AccessRequest) (*AccessResponse, error)

	MkDir(ctx context.Context, req *MkDirRequest) (*MkDirResponse, error)
	Mknod(ctx context.Context, req *MknodRequest) (*MknodResponse, error)
	CreateFile(ctx context.Context, req *CreateFileRequest) (*CreateFileResponse, error)
	CreateSymlink(ctx context.Context, req *CreateSymlinkRequest) (*CreateSymlinkResponse, error)
	CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error)

	RmDir(ctx context.Context, req *RmDirRequest) (*RmDirResponse, error)
	Unlink(ctx context.Context, req *UnlinkRequest) (*UnlinkResponse, error)
	Rename(ctx context.Context, req *RenameRequest) (*RenameResponse, error)

	OpenDir(ctx context.Context, req *OpenDirRequest) (*OpenDirResponse, error)
	ReadDir(ctx context.Context, req *ReadDirRequest) (*ReadDirResponse, error)
	ReleaseDirHandle(ctx context.Context, req *ReleaseDirHandleRequest) (*ReleaseDirHandleResponse, error)

	OpenFile(ctx context.Context, req *OpenFileRequest) (*OpenFileResponse, error)
	ReadFile(ctx context.Context, req *ReadFileRequest) (*ReadFileResponse, error)
	WriteFile(ctx context.Context, req *WriteFileRequest) (*WriteFileResponse, error)
	ReleaseFileHandle(ctx context.Context, req *ReleaseFileHandleRequest) (*ReleaseFileHandleResponse, error)

	StatFS(ctx context.Context, req *StatFSRequest) (*StatFSResponse, error)
}
