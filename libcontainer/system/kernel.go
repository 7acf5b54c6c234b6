// Package system holds the kernel resource context the init stages run
// against: the mount table, namespace membership and the process image.
package system

// Kernel is the set of kernel operations the init stages need. Linux is the
// real implementation; tests substitute a recording fake.
type Kernel interface {
	Mount(source, target, fstype string, flags uintptr, data string) error
	Unmount(target string, flags int) error
	PivotRoot(newroot, putold string) error
	Chdir(path string) error
	// Mounted reports whether path is a mount point.
	Mounted(path string) (bool, error)
	Sethostname(name string) error
	Getpid() int
	// RunningInUserNS reports whether the process is inside a user namespace.
	RunningInUserNS() bool
	// Exec replaces the process image. It only returns on failure.
	Exec(path string, argv []string, envv []string) error
}
