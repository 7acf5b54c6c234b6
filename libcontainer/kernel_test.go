package libcontainer

import (
	"fmt"
	"strings"

	"github.com/nspawn_lite/libcontainer/system"
)

// kernelCall is one recorded call on fakeKernel, e.g. "mount proc /proc proc".
type kernelCall struct {
	name string
	args []string
}

func (c kernelCall) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// fakeKernel records every call in order. fail maps a call name to the error
// it returns; a "name target" key only matches that target.
type fakeKernel struct {
	calls     []kernelCall
	fail      map[string]error
	pid       int
	inUserNS  bool
	unmounted bool
}

var _ system.Kernel = (*fakeKernel)(nil)

func newFakeKernel() *fakeKernel {
	return &fakeKernel{fail: map[string]error{}, pid: 1}
}

func (k *fakeKernel) record(name string, args ...string) error {
	k.calls = append(k.calls, kernelCall{name: name, args: args})
	if len(args) > 0 {
		if err, ok := k.fail[name+" "+args[0]]; ok {
			return err
		}
	}
	return k.fail[name]
}

func (k *fakeKernel) Mount(source, target, fstype string, flags uintptr, data string) error {
	return k.record("mount", target, source, fstype, fmt.Sprintf("%#x", flags), data)
}

func (k *fakeKernel) Unmount(target string, flags int) error {
	if err := k.record("umount", target, fmt.Sprintf("%#x", flags)); err != nil {
		return err
	}
	k.unmounted = true
	return nil
}

func (k *fakeKernel) PivotRoot(newroot, putold string) error {
	return k.record("pivot_root", newroot, putold)
}

func (k *fakeKernel) Chdir(path string) error {
	return k.record("chdir", path)
}

func (k *fakeKernel) Mounted(path string) (bool, error) {
	if err := k.record("mounted", path); err != nil {
		return false, err
	}
	// Only what was bind-mounted before counts as a mount point.
	for _, c := range k.calls {
		if c.name == "mount" && c.args[0] == path && c.args[1] == path {
			return true, nil
		}
	}
	return false, nil
}

func (k *fakeKernel) Sethostname(name string) error {
	return k.record("sethostname", name)
}

func (k *fakeKernel) Getpid() int {
	return k.pid
}

func (k *fakeKernel) RunningInUserNS() bool {
	return k.inUserNS
}

func (k *fakeKernel) Exec(path string, argv []string, envv []string) error {
	return k.record("exec", append([]string{path}, argv...)...)
}

func (k *fakeKernel) names() []string {
	names := make([]string, 0, len(k.calls))
	for _, c := range k.calls {
		names = append(names, c.name)
	}
	return names
}

func (k *fakeKernel) called(name string) bool {
	for _, c := range k.calls {
		if c.name == name {
			return true
		}
	}
	return false
}
