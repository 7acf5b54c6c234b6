package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspawn_lite/libcontainer/configs"
	"github.com/nspawn_lite/libcontainer/specconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// newContext runs the app with the given global and command arguments and
// returns the context the command's action received.
func newContext(t *testing.T, command cli.Command, global, args []string) *cli.Context {
	t.Helper()
	var captured *cli.Context
	command.Action = func(context *cli.Context) error {
		captured = context
		return nil
	}
	app := cli.NewApp()
	app.Name = "nspawn-lite"
	app.Flags = globalFlags
	app.Commands = []cli.Command{command}

	argv := append([]string{app.Name}, global...)
	argv = append(argv, command.Name)
	require.NoError(t, app.Run(append(argv, args...)))
	require.NotNil(t, captured)
	return captured
}

func TestConfigFromFlags(t *testing.T) {
	ctx := newContext(t, runCommand, nil, []string{
		"-r", "/var/lib/machines/alpine",
		"-c", "/bin/busybox",
		"-a", "sh", "-a", "-c",
		"--hostname", "alpine",
		"--", "exit 3",
	})
	config, err := configFromFlags(ctx)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/machines/alpine", config.Rootfs)
	assert.Equal(t, "/bin/busybox", config.Path)
	assert.Equal(t, "busybox", config.DisplayName)
	assert.Equal(t, []string{"busybox", "sh", "-c", "exit 3"}, config.Argv())
	assert.Equal(t, "alpine", config.Hostname)
	assert.True(t, config.MountProc)
	assert.Equal(t, os.Environ(), config.Env)
	assert.Equal(t, configs.DefaultNamespaces(), config.Namespaces)
}

func TestConfigFromFlagsOptions(t *testing.T) {
	ctx := newContext(t, runCommand, nil, []string{
		"--root-path", "rootfs",
		"--cmd-path", "/sbin/init",
		"--exec-name", "systemd",
		"--userns",
		"--share", "uts",
		"--share", "ipc",
		"--no-proc",
	})
	config, err := configFromFlags(ctx)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "rootfs"), config.Rootfs)
	assert.Equal(t, []string{"systemd"}, config.Argv())
	assert.False(t, config.MountProc)
	assert.True(t, config.Namespaces.Contains(configs.NEWUSER))
	assert.True(t, config.Namespaces.Contains(configs.NEWPID))
	assert.False(t, config.Namespaces.Contains(configs.NEWUTS))
	assert.False(t, config.Namespaces.Contains(configs.NEWIPC))
}

func TestConfigFromFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing root path", []string{"-c", "/bin/sh"}, "--root-path is required"},
		{"missing command", []string{"-r", "/rootfs"}, "--cmd-path is required"},
		{"unknown namespace", []string{"-r", "/rootfs", "-c", "/bin/sh", "--share", "time"}, `unknown namespace type "time"`},
		{"mount namespace", []string{"-r", "/rootfs", "-c", "/bin/sh", "--share", "mount"}, "the mount namespace cannot be shared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := configFromFlags(newContext(t, runCommand, nil, tt.args))
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestConfigFromFlagsShortAndLongNames(t *testing.T) {
	short, err := configFromFlags(newContext(t, runCommand, nil, []string{"-r", "/rootfs", "-c", "/bin/sh", "-n", "shell", "-a", "-l"}))
	require.NoError(t, err)
	long, err := configFromFlags(newContext(t, runCommand, nil, []string{"--root-path", "/rootfs", "--cmd-path", "/bin/sh", "--exec-name", "shell", "--cmd-args", "-l"}))
	require.NoError(t, err)
	assert.Equal(t, long, short)
	assert.Equal(t, []string{"shell", "-l"}, short.Argv())
}

func TestConfigFromBundle(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	bundle, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	data, err := json.Marshal(specconv.Example())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(bundle, specConfig), data, 0o644))

	ctx := newContext(t, runCommand, nil, []string{"--bundle", bundle, "--share", "pid", "--no-proc"})
	config, err := configFromBundle(ctx)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(bundle, "rootfs"), config.Rootfs)
	assert.Equal(t, "/bin/sh", config.Path)
	assert.Equal(t, "sh", config.DisplayName)
	assert.False(t, config.MountProc)
	assert.False(t, config.Namespaces.Contains(configs.NEWPID))
	assert.Contains(t, config.Labels, "bundle="+bundle)
}

func TestLoadSpecMissing(t *testing.T) {
	_, err := loadSpec(filepath.Join(t.TempDir(), specConfig))
	assert.Error(t, err)
}

func TestInitArgs(t *testing.T) {
	ctx := newContext(t, runCommand, []string{"--debug", "--log-format", "json"}, nil)
	args, err := initArgs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{os.Args[0], "--debug", "--log-format", "json", "init"}, args)
}

func TestInitArgsLogFile(t *testing.T) {
	ctx := newContext(t, runCommand, []string{"--log", "nspawn.log", "--log-format", "journald"}, nil)
	args, err := initArgs(ctx)
	require.NoError(t, err)

	abs, err := filepath.Abs("nspawn.log")
	require.NoError(t, err)
	assert.Equal(t, []string{os.Args[0], "--log", abs, "--log-format", "text", "init"}, args)
}
