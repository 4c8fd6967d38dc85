// Command diskfused prepares a persistent directory tree for a mount point,
// backed by the state engine in internal/store and served through
// internal/server. The kernel upcall transport itself is out of scope;
// this binary stops once the engine and its dependencies are constructed
// and wired together.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/diskfuse/diskfuse/internal/groups"
	"github.com/diskfuse/diskfuse/internal/server"
	"github.com/diskfuse/diskfuse/internal/store"
	"github.com/diskfuse/diskfuse/internal/vfsop"
	"github.com/golang/glog"
	"github.com/jacobsa/timeutil"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

var (
	backingDir string
	mountPoint string
	directIO   bool
	allowOther bool
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:   "diskfused --backing-dir=DIR --mount-point=DIR",
	Short: "Serve a persistent directory tree over the kernel userspace-filesystem protocol",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&backingDir, "backing-dir", "", "backing directory holding persisted inode/content state (required)")
	rootCmd.Flags().StringVar(&mountPoint, "mount-point", "", "path at which to mount (required)")
	rootCmd.Flags().BoolVar(&directIO, "direct-io", false, "bypass the kernel page cache")
	rootCmd.Flags().BoolVar(&allowOther, "allow-other", false, "allow access from users other than the mounting user")
	rootCmd.Flags().IntVar(&verbosity, "verbosity", 0, "glog verbosity level")

	rootCmd.Flags().AddGoFlagSet(flag.CommandLine)
}

func run(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("verbosity") {
		flag.Set("v", fmt.Sprintf("%d", verbosity))
	}

	if backingDir == "" {
		return fmt.Errorf("diskfused: --backing-dir is required")
	}
	if mountPoint == "" {
		return fmt.Errorf("diskfused: --mount-point is required")
	}

	st, err := store.Open(backingDir)
	if err != nil {
		return fmt.Errorf("diskfused: opening backing directory %s: %w", backingDir, err)
	}

	fs, err := server.New(st, groups.ProcLookup{}, timeutil.RealClock())
	if err != nil {
		return fmt.Errorf("diskfused: initializing file system: %w", err)
	}

	// Set the root inode's ownership to the mounting process's credentials,
	// the same handshake the kernel transport would trigger with its own
	// Init upcall.
	_, err = fs.Init(context.Background(), &vfsop.InitRequest{
		Header: vfsop.RequestHeader{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
			Pid: uint32(os.Getpid()),
		},
	})
	if err != nil {
		return fmt.Errorf("diskfused: initializing root inode: %w", err)
	}

	glog.Infof("diskfused: ready to mount %s on %s (direct-io=%v allow-other=%v)",
		backingDir, mountPoint, directIO, allowOther)

	// Mounting fs at mountPoint via the kernel upcall transport is the
	// responsibility of the surrounding dispatcher; this binary's job ends
	// at constructing the engine.
	return nil
}

func main() {
	defer glog.Flush()

	if err := rootCmd.Execute(); err != nil {
		glog.Errorf("diskfused: %v", err)
		os.Exit(1)
	}
}
