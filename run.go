package main

import (
	"os"

	"github.com/urfave/cli"
)

var runCommand = cli.Command{
	Name:  "run",
	Usage: "launch a command in a prepared root filesystem",
	ArgsUsage: `[-- <command args>...]

Arguments after "--" are appended to the ones given with --cmd-args and are
passed to the command unchanged.`,
	Description: `The run command spawns a process in new mount, pid, uts and ipc namespaces,
switches its root to the given directory, mounts /proc and executes the
command. Without --detach it waits for the command and exits with its status.

The launch can also be described by an OCI bundle instead of flags:

    nspawn-lite run --bundle /containers/alpine`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "root-path, r",
			Usage: "directory holding the prepared root filesystem",
		},
		cli.StringFlag{
			Name:  "cmd-path, c",
			Usage: "path of the command inside the root filesystem",
		},
		cli.StringSliceFlag{
			Name:  "cmd-args, a",
			Usage: "argument passed to the command (can be repeated)",
		},
		cli.StringFlag{
			Name:  "exec-name, n",
			Usage: "argv[0] of the command (default is the base name of --cmd-path)",
		},
		cli.StringFlag{
			Name:  "hostname",
			Usage: "hostname set in the container's uts namespace",
		},
		cli.BoolFlag{
			Name:  "userns",
			Usage: "also create a user namespace (no uid/gid mapping is configured)",
		},
		cli.StringSliceFlag{
			Name:  "share",
			Usage: "do not create the given namespace, share the caller's ('pid', 'uts' or 'ipc')",
		},
		cli.BoolFlag{
			Name:  "no-proc",
			Usage: "do not mount /proc in the container",
		},
		cli.StringFlag{
			Name:  "bundle, b",
			Usage: `path to an OCI bundle holding "` + specConfig + `"; replaces the flags above`,
		},
		cli.BoolFlag{
			Name:  "detach, d",
			Usage: "print the pid of the container process and return without waiting",
		},
	},
	Action: func(context *cli.Context) error {
		status, err := startContainer(context)
		if err != nil {
			return err
		}
		// exit with the container's exit status so any external supervisor
		// is notified of the exit with the correct exit status.
		os.Exit(status)
		return nil
	},
}
