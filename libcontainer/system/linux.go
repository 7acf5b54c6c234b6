//go:build linux

package system

import (
	"os"

	"github.com/moby/sys/mountinfo"
	"github.com/opencontainers/runc/libcontainer/userns"
	"golang.org/x/sys/unix"
)

// Linux is the Kernel backed by real system calls.
type Linux struct{}

var _ Kernel = Linux{}

func (Linux) Mount(source, target, fstype string, flags uintptr, data string) error {
	return os.NewSyscallError("mount", unix.Mount(source, target, fstype, flags, data))
}

func (Linux) Unmount(target string, flags int) error {
	return os.NewSyscallError("umount2", unix.Unmount(target, flags))
}

func (Linux) PivotRoot(newroot, putold string) error {
	return os.NewSyscallError("pivot_root", unix.PivotRoot(newroot, putold))
}

func (Linux) Chdir(path string) error {
	return os.NewSyscallError("chdir", unix.Chdir(path))
}

func (Linux) Mounted(path string) (bool, error) {
	return mountinfo.Mounted(path)
}

func (Linux) Sethostname(name string) error {
	return os.NewSyscallError("sethostname", unix.Sethostname([]byte(name)))
}

func (Linux) Getpid() int {
	return unix.Getpid()
}

func (Linux) RunningInUserNS() bool {
	return userns.RunningInUserNS()
}

func (Linux) Exec(path string, argv []string, envv []string) error {
	for {
		err := unix.Exec(path, argv, envv)
		//nolint:errorlint // unix errors are bare
		if err != unix.EINTR {
			return os.NewSyscallError("execve", err)
		}
	}
}
