package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/nspawn_lite/libcontainer/logs"
	imagespec "github.com/opencontainers/image-spec/specs-go"
	"github.com/opencontainers/runc/libcontainer/seccomp"
	"github.com/opencontainers/runtime-spec/specs-go"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// version and gitCommit are set by the linker.
var (
	version   = "unknown"
	gitCommit = ""
)

const (
	specConfig = "config.json"
	usage      = `launch a process in a prepared root filesystem inside fresh namespaces

nspawn-lite switches the root of a new mount namespace to a directory that
already holds a complete filesystem tree, mounts /proc and replaces itself
with the requested command. Nothing is downloaded, extracted or layered.

To start a shell in a prepared tree:

    # nspawn-lite run -r /var/lib/machines/alpine -c /bin/sh`
)

var globalFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug logging",
	},
	cli.StringFlag{
		Name:  "log",
		Value: "",
		Usage: "set the log file to write nspawn-lite logs to (default is '/dev/stderr')",
	},
	cli.StringFlag{
		Name:  "log-format",
		Value: "text",
		Usage: "set the log format ('text' (default), 'json' or 'journald')",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "nspawn-lite"
	app.Usage = usage

	v := []string{version}

	if gitCommit != "" {
		v = append(v, "commit: "+gitCommit)
	}
	v = append(v, "spec: "+specs.Version)
	v = append(v, "image-spec: "+imagespec.Version)
	v = append(v, "go: "+runtime.Version())
	major, minor, micro := seccomp.Version()
	if major+minor+micro > 0 {
		v = append(v, fmt.Sprintf("libseccomp: %d.%d.%d", major, minor, micro))
	}
	app.Version = strings.Join(v, "\n")

	app.Flags = globalFlags
	app.Commands = []cli.Command{
		initCommand,
		runCommand,
		specCommand,
	}
	app.Before = func(context *cli.Context) error {
		return configLogrus(context)
	}
	// If the command returns an error, cli takes upon itself to print
	// the error on cli.ErrWriter and exit.
	// Use our own writer here to ensure the log gets sent to the right location.
	cli.ErrWriter = &FatalWriter{cli.ErrWriter}
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

type FatalWriter struct {
	cliErrWriter io.Writer
}

func (f *FatalWriter) Write(p []byte) (n int, err error) {
	logrus.Error(string(p))
	if !logrusToStderr() {
		return f.cliErrWriter.Write(p)
	}
	return len(p), nil
}

func configLogrus(context *cli.Context) error {
	if context.GlobalBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetReportCaller(true)
		// Shorten function and file names reported by the logger, by
		// trimming the module prefix. This is only done for text formatter.
		_, file, _, _ := runtime.Caller(0)
		prefix := filepath.Dir(file) + "/"
		logrus.SetFormatter(&logrus.TextFormatter{
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				function := strings.TrimPrefix(f.Function, prefix) + "()"
				fileLine := strings.TrimPrefix(f.File, prefix) + ":" + strconv.Itoa(f.Line)
				return function, fileLine
			},
		})
	}

	switch f := context.GlobalString("log-format"); f {
	case "":
		// do nothing
	case "text":
		// do nothing
	case "json":
		logrus.SetFormatter(new(logrus.JSONFormatter))
	case "journald":
		hook, err := logs.NewJournaldHook(context.App.Name)
		if err != nil {
			return err
		}
		logrus.AddHook(hook)
		logrus.SetOutput(io.Discard)
		return nil
	default:
		return errors.New("invalid log-format: " + f)
	}

	if file := context.GlobalString("log"); file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0o644)
		if err != nil {
			return err
		}
		logrus.SetOutput(f)
	}

	return nil
}
