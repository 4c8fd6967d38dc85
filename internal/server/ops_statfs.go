package server

import (
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"golang.org/x/net/context"
)

// statfs constants are a reasonable fixed summary for a single-host
// backing directory; there is no real block device to query.
const (
	statfsBlockSize = 4096
	statfsNameLen   = maxNameLen
)

func (fs *FileSystem) StatFS(ctx context.Context, req *vfsop.StatFSRequest) (*vfsop.StatFSResponse, error) {
	return &vfsop.StatFSResponse{
		BlockSize:  statfsBlockSize,
		Blocks:     0,
		BlocksFree: 0,
		Files:      0,
		FilesFree:  0,
		NameLen:    statfsNameLen,
	}, nil
}
