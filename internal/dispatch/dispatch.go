// Package dispatch is the thin per-call wrapper the kernel upcall
// transport would invoke against a vfsop.FileSystem: it logs each
// request and its reply as structured glog output, with the call itself
// wrapped in Server.Call so every upcall funnels through one place
// regardless of which operation it is.
package dispatch

import (
	"github.com/golang/glog"
	"golang.org/x/net/context"
)

// Server wraps the calls made for one named operation; it holds no
// vfsop.FileSystem of its own, and the caller passes the work to Call as
// a function. It does not itself add concurrency control: a single mount's requests already
// arrive one at a time, and internal/server.FileSystem holds the coarse
// lock that would matter if that assumption changed.
type Server struct {
	op string
}

// NewServer names the operation this Server instance will log around,
// e.g. "LookUpInode".
func NewServer(op string) *Server {
	return &Server{op: op}
}

// Call invokes fn, logging "received"/"responding" around each upcall
// at V(2).
func (s *Server) Call(ctx context.Context, fn func() error) error {
	if glog.V(2) {
		glog.Infof("dispatch: %s: received", s.op)
	}

	err := fn()

	if glog.V(2) {
		if err != nil {
			glog.Infof("dispatch: %s: responding with error: %v", s.op, err)
		} else {
			glog.Infof("dispatch: %s: responding ok", s.op)
		}
	}

	return err
}
