package main

import (
	"os"
	"runtime"

	"github.com/nspawn_lite/libcontainer"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var initCommand = cli.Command{
	Name:   "init",
	Usage:  `initialize the namespaces and launch the process (do not call it outside of nspawn-lite)`,
	Hidden: true,
	Action: func(context *cli.Context) error {
		// The launch sequence runs on one thread, in the process created by
		// the spawner.
		runtime.GOMAXPROCS(1)
		runtime.LockOSThread()
		if err := libcontainer.StartInitialization(); err != nil {
			logrus.WithField("stage", libcontainer.StageOf(err)).Error(err)
			os.Exit(1)
		}
		panic("libcontainer: container init failed to exec")
	},
}
