package validate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/nspawn_lite/libcontainer/configs"
	"github.com/sirupsen/logrus"
)

// ErrHostPIDView is returned when a proc filesystem would be mounted without a
// private PID namespace, which would expose every process of the host.
var ErrHostPIDView = errors.New("mounting /proc without a private PID namespace exposes host processes")

type check func(config *configs.Config) error

func Validate(config *configs.Config) error {
	checks := []check{
		rootfs,
		namespaces,
		hostname,
		proc,
		command,
		userns,
	}
	for _, c := range checks {
		if err := c(config); err != nil {
			return err
		}
	}
	return nil
}

// rootfs validates if the rootfs is an absolute path and is not a symlink
// to the container's root filesystem.
func rootfs(config *configs.Config) error {
	if _, err := os.Stat(config.Rootfs); err != nil {
		return fmt.Errorf("invalid rootfs: %w", err)
	}
	cleaned, err := filepath.Abs(config.Rootfs)
	if err != nil {
		return fmt.Errorf("invalid rootfs: %w", err)
	}
	if cleaned, err = filepath.EvalSymlinks(cleaned); err != nil {
		return fmt.Errorf("invalid rootfs: %w", err)
	}
	if filepath.Clean(config.Rootfs) != cleaned {
		return errors.New("invalid rootfs: not an absolute path, or a symlink")
	}
	return nil
}

// namespaces checks the isolation set. The root switch rewrites the mount
// table, so it needs a mount namespace of its own.
func namespaces(config *configs.Config) error {
	if !config.Namespaces.Contains(configs.NEWNS) {
		return errors.New("a private mount namespace is required to switch the root filesystem")
	}
	for _, ns := range config.Namespaces {
		switch ns.Type {
		case configs.NEWNET:
			return errors.New("network namespaces are not supported")
		case configs.NEWCGROUP:
			return errors.New("cgroup namespaces are not supported")
		}
		if ns.Path != "" {
			return fmt.Errorf("joining an existing %s namespace (%s) is not supported", ns.Type, ns.Path)
		}
	}
	return nil
}

func hostname(config *configs.Config) error {
	if config.Hostname != "" && !config.Namespaces.Contains(configs.NEWUTS) {
		return errors.New("unable to set hostname without a private UTS namespace")
	}
	return nil
}

func proc(config *configs.Config) error {
	if config.MountProc && !config.Namespaces.Contains(configs.NEWPID) {
		return ErrHostPIDView
	}
	return nil
}

// command checks the executable. A command missing from the rootfs is only
// reported here; the exec stage inside the container owns that failure.
func command(config *configs.Config) error {
	if config.Path == "" {
		return errors.New("no command path specified")
	}
	if config.DisplayName == "" {
		return errors.New("empty display name")
	}
	target, err := securejoin.SecureJoin(config.Rootfs, config.Path)
	if err != nil {
		return fmt.Errorf("invalid command path %q: %w", config.Path, err)
	}
	fi, err := os.Stat(target)
	switch {
	case err != nil:
		logrus.WithError(err).Warnf("command %s not found in rootfs %s", config.Path, config.Rootfs)
	case fi.IsDir():
		logrus.Warnf("command %s is a directory", config.Path)
	case fi.Mode().Perm()&0o111 == 0:
		logrus.Warnf("command %s is not executable", config.Path)
	}
	return nil
}

func userns(config *configs.Config) error {
	if config.Namespaces.Contains(configs.NEWUSER) {
		logrus.Warn("user namespace requested without uid/gid mappings; the container runs as the overflow user")
	}
	return nil
}
