package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nspawn_lite/libcontainer/specconv"
	"github.com/urfave/cli"
)

var specCommand = cli.Command{
	Name:      "spec",
	Usage:     "create a new specification file",
	ArgsUsage: "",
	Description: `The spec command creates the new specification file named "` + specConfig + `" for
the bundle.

The spec generated is just a starter file. Editing of the spec is required to
achieve desired results. The "process.args" entry names the command to run; its
first element must be an absolute path inside the root filesystem.

The root filesystem itself must be prepared beforehand, for example:

    mkdir rootfs
    docker export $(docker create busybox) | tar -C rootfs -xvf -

After that the bundle can be launched with:

    nspawn-lite run --bundle .`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "bundle, b",
			Value: "",
			Usage: "path to the root of the bundle directory",
		},
		cli.StringFlag{
			Name:  "rootfs",
			Value: "",
			Usage: "path to the root filesystem written to the spec (default is 'rootfs')",
		},
	},
	Action: func(context *cli.Context) error {
		if err := checkArgs(context, 0, exactArgs); err != nil {
			return err
		}
		spec := specconv.Example()
		if rootfs := context.String("rootfs"); rootfs != "" {
			spec.Root.Path = rootfs
		}

		checkNoFile := func(name string) error {
			_, err := os.Stat(name)
			if err == nil {
				return fmt.Errorf("File %s exists. Remove it first", name)
			}
			if !os.IsNotExist(err) {
				return err
			}
			return nil
		}
		bundle := context.String("bundle")
		if bundle != "" {
			if err := os.Chdir(bundle); err != nil {
				return err
			}
		}
		if err := checkNoFile(specConfig); err != nil {
			return err
		}
		data, err := json.MarshalIndent(spec, "", "\t")
		if err != nil {
			return err
		}
		return os.WriteFile(specConfig, data, 0o666)
	},
}
