package specconv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nspawn_lite/libcontainer/configs"
	"github.com/opencontainers/runtime-spec/specs-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type CreateOpts struct {
	// DisplayName overrides argv[0] of the container command. It defaults to
	// the base name of the command path.
	DisplayName string
	// NoProc skips mounting /proc even when the spec has a proc mount.
	NoProc bool
	Spec   *specs.Spec
}

// Example returns an example spec file that can be edited to run a shell in
// a prepared rootfs.
func Example() *specs.Spec {
	return &specs.Spec{
		Version: specs.Version,
		Root: &specs.Root{
			Path: "rootfs",
		},
		Process: &specs.Process{
			Terminal: false,
			Args: []string{
				"/bin/sh",
			},
			Env: []string{
				"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
				"TERM=xterm",
			},
			Cwd: "/",
		},
		Hostname: "nspawn",
		Mounts: []specs.Mount{
			{
				Destination: "/proc",
				Type:        "proc",
				Source:      "proc",
				Options:     []string{"nodev", "noexec", "nosuid", "relatime"},
			},
		},
		Linux: &specs.Linux{
			Namespaces: []specs.LinuxNamespace{
				{Type: specs.PIDNamespace},
				{Type: specs.IPCNamespace},
				{Type: specs.UTSNamespace},
				{Type: specs.MountNamespace},
			},
		},
	}
}

// getwd is a wrapper similar to os.Getwd, except it always gets
// the value from the kernel, which guarantees the returned value
// to be absolute and clean.
func getwd() (wd string, err error) {
	for {
		wd, err = unix.Getwd()
		//nolint:errorlint // unix errors are bare
		if err != unix.EINTR {
			break
		}
	}
	return wd, os.NewSyscallError("getwd", err)
}

// CreateLibcontainerConfig creates a new libcontainer configuration from a
// given specification. A relative root path is taken relative to the bundle,
// which is the current working directory.
func CreateLibcontainerConfig(opts *CreateOpts) (*configs.Config, error) {
	cwd, err := getwd()
	if err != nil {
		return nil, err
	}
	spec := opts.Spec
	if spec == nil {
		return nil, errors.New("spec must be specified")
	}
	if spec.Root == nil {
		return nil, errors.New("root must be specified")
	}
	if spec.Process == nil || len(spec.Process.Args) == 0 {
		return nil, errors.New("process args must be specified")
	}
	rootfsPath := spec.Root.Path
	if !filepath.IsAbs(rootfsPath) {
		rootfsPath = filepath.Join(cwd, rootfsPath)
	}
	if spec.Root.Readonly {
		logrus.Warn("readonly root is not supported, the rootfs is mounted read-write")
	}

	labels := []string{}
	for k, v := range spec.Annotations {
		labels = append(labels, k+"="+v)
	}
	sort.Strings(labels)

	path := spec.Process.Args[0]
	displayName := opts.DisplayName
	if displayName == "" {
		displayName = filepath.Base(path)
	}
	config := &configs.Config{
		Rootfs:      rootfsPath,
		Path:        path,
		Args:        append([]string(nil), spec.Process.Args[1:]...),
		DisplayName: displayName,
		Env:         append([]string(nil), spec.Process.Env...),
		Hostname:    spec.Hostname,
		MountProc:   !opts.NoProc && hasProcMount(spec),
		Labels:      append(labels, "bundle="+cwd),
	}

	if spec.Linux == nil {
		config.Namespaces = configs.DefaultNamespaces()
		return config, nil
	}
	for _, ns := range spec.Linux.Namespaces {
		t, err := configs.ParseNamespaceType(string(ns.Type))
		if err != nil {
			return nil, err
		}
		if config.Namespaces.Contains(t) {
			return nil, fmt.Errorf("malformed spec file: duplicated ns %q", ns.Type)
		}
		config.Namespaces.Add(t, ns.Path)
	}
	return config, nil
}

func hasProcMount(spec *specs.Spec) bool {
	found := false
	for _, m := range spec.Mounts {
		if m.Type == "proc" && filepath.Clean(m.Destination) == "/proc" {
			found = true
			continue
		}
		logrus.Warnf("mount %s (%s) is not supported and will be ignored", m.Destination, m.Type)
	}
	return found
}
