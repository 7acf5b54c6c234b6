package libcontainer

import (
	"errors"
	"fmt"

	"github.com/nspawn_lite/libcontainer/configs/validate"
	"github.com/nspawn_lite/libcontainer/system"
	"golang.org/x/sys/unix"
)

const procMountFlags = unix.MS_NODEV | unix.MS_NOEXEC | unix.MS_NOSUID | unix.MS_RELATIME

// prepareRoot makes every mount below / private, so nothing mounted or
// unmounted from here on propagates to or from the host. It must be the first
// mount call made in the new mount namespace.
func prepareRoot(k system.Kernel) error {
	if err := k.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return &MountError{Stage: StagePropagation, Op: "remount private", Target: "/", Err: err}
	}
	return nil
}

// pivotRoot switches the process root to rootfs. rootfs is bind-mounted on
// itself first since pivot_root only accepts a mount point. Using rootfs for
// both arguments stacks the old root on top of the new one, which is then
// detached lazily; see pivot_root(2).
func pivotRoot(k system.Kernel, rootfs string) error {
	if err := k.Mount(rootfs, rootfs, "", unix.MS_BIND, ""); err != nil {
		return &MountError{Stage: StageRootfs, Op: "bind", Source: rootfs, Target: rootfs, Err: err}
	}
	mounted, err := k.Mounted(rootfs)
	if err != nil {
		return &PivotError{Root: rootfs, Op: "check mount point", Err: err}
	}
	if !mounted {
		return &PivotError{Root: rootfs, Op: "check mount point", Err: errors.New("not a mount point")}
	}
	if err := k.PivotRoot(rootfs, rootfs); err != nil {
		return &PivotError{Root: rootfs, Op: "pivot_root", Err: err}
	}
	// The old root now sits on top of "/"; detach it.
	if err := k.Unmount("/", unix.MNT_DETACH); err != nil {
		return &MountError{Stage: StageRootfs, Op: "unmount old root", Target: "/", Err: err}
	}
	if err := k.Chdir("/"); err != nil {
		return &PivotError{Root: rootfs, Op: "chdir", Err: err}
	}
	return nil
}

// mountProc mounts a proc filesystem for the container's pid namespace. Only
// the first process of a private pid namespace may do so; anything else would
// show the host's process table.
func mountProc(k system.Kernel, privatePID bool) error {
	if !privatePID {
		return &MountError{Stage: StageProc, Op: "mount", Source: "proc", Target: "/proc", Err: validate.ErrHostPIDView}
	}
	if pid := k.Getpid(); pid != 1 {
		return &MountError{
			Stage: StageProc, Op: "mount", Source: "proc", Target: "/proc",
			Err: fmt.Errorf("init is pid %d, not the first process of its pid namespace: %w", pid, validate.ErrHostPIDView),
		}
	}
	if err := k.Mount("proc", "/proc", "proc", procMountFlags, ""); err != nil {
		return &MountError{Stage: StageProc, Op: "mount", Source: "proc", Target: "/proc", Err: err}
	}
	return nil
}
