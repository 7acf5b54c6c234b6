package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nspawn_lite/libcontainer"
	"github.com/nspawn_lite/libcontainer/configs"
	"github.com/nspawn_lite/libcontainer/specconv"
	"github.com/nspawn_lite/libcontainer/utils"
	"github.com/opencontainers/runtime-spec/specs-go"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/sys/unix"
)

const (
	exactArgs = iota
	minArgs
	maxArgs
)

func checkArgs(context *cli.Context, expected, checkType int) error {
	var err error
	cmdName := context.Command.Name
	switch checkType {
	case exactArgs:
		if context.NArg() != expected {
			err = fmt.Errorf("%s: %q requires exactly %d argument(s)", os.Args[0], cmdName, expected)
		}
	case minArgs:
		if context.NArg() < expected {
			err = fmt.Errorf("%s: %q requires a minimum of %d argument(s)", os.Args[0], cmdName, expected)
		}
	case maxArgs:
		if context.NArg() > expected {
			err = fmt.Errorf("%s: %q requires a maximum of %d argument(s)", os.Args[0], cmdName, expected)
		}
	}

	if err != nil {
		fmt.Printf("Incorrect Usage.\n\n")
		_ = cli.ShowCommandHelp(context, cmdName)
		return err
	}
	return nil
}

// fatal prints the error's details and exits the program with an exit
// status of 1.
func fatal(err error) {
	fatalWithCode(err, 1)
}

func fatalWithCode(err error, ret int) {
	// Make sure the error is written to the logger.
	logrus.Error(err)
	if !logrusToStderr() {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(ret)
}

func logrusToStderr() bool {
	l, ok := logrus.StandardLogger().Out.(*os.File)
	return ok && l.Fd() == os.Stderr.Fd()
}

// loadSpec loads the specification from the provided path.
func loadSpec(cPath string) (spec *specs.Spec, err error) {
	cf, err := os.Open(cPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("JSON specification file %s not found", cPath)
		}
		return nil, err
	}
	defer cf.Close()

	if err = json.NewDecoder(cf).Decode(&spec); err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, errors.New("config cannot be null")
	}
	return spec, nil
}

// configFromFlags builds the launch configuration from the run flags. The
// environment is snapshotted here.
func configFromFlags(context *cli.Context) (*configs.Config, error) {
	rootfs := context.String("root-path")
	if rootfs == "" {
		return nil, errors.New("--root-path is required")
	}
	path := context.String("cmd-path")
	if path == "" {
		return nil, errors.New("--cmd-path is required")
	}
	rootfs, err := filepath.Abs(rootfs)
	if err != nil {
		return nil, err
	}
	displayName := context.String("exec-name")
	if displayName == "" {
		displayName = filepath.Base(path)
	}
	args := append([]string(nil), context.StringSlice("cmd-args")...)
	args = append(args, context.Args()...)

	config := &configs.Config{
		Rootfs:      rootfs,
		Path:        path,
		Args:        args,
		DisplayName: displayName,
		Env:         os.Environ(),
		Hostname:    context.String("hostname"),
		MountProc:   !context.Bool("no-proc"),
		Namespaces:  configs.DefaultNamespaces(),
	}
	if err := applyNamespaceFlags(context, config); err != nil {
		return nil, err
	}
	return config, nil
}

// configFromBundle builds the launch configuration from the bundle's
// config.json. The working directory is changed to the bundle, like runc.
func configFromBundle(context *cli.Context) (*configs.Config, error) {
	if err := os.Chdir(context.String("bundle")); err != nil {
		return nil, err
	}
	spec, err := loadSpec(specConfig)
	if err != nil {
		return nil, err
	}
	config, err := specconv.CreateLibcontainerConfig(&specconv.CreateOpts{
		DisplayName: context.String("exec-name"),
		NoProc:      context.Bool("no-proc"),
		Spec:        spec,
	})
	if err != nil {
		return nil, err
	}
	if err := applyNamespaceFlags(context, config); err != nil {
		return nil, err
	}
	return config, nil
}

func applyNamespaceFlags(context *cli.Context, config *configs.Config) error {
	if context.Bool("userns") {
		config.Namespaces.Add(configs.NEWUSER, "")
	}
	for _, s := range context.StringSlice("share") {
		t, err := configs.ParseNamespaceType(s)
		if err != nil {
			return err
		}
		switch t {
		case configs.NEWPID, configs.NEWUTS, configs.NEWIPC:
			config.Namespaces.Remove(t)
		default:
			return fmt.Errorf("the %s namespace cannot be shared", s)
		}
	}
	return nil
}

// initArgs returns the argument vector the container's init is started
// with. The global log flags are passed on so both sides log alike.
func initArgs(context *cli.Context) ([]string, error) {
	args := []string{os.Args[0]}
	if context.GlobalBool("debug") {
		args = append(args, "--debug")
	}
	if file := context.GlobalString("log"); file != "" {
		file, err := filepath.Abs(file)
		if err != nil {
			return nil, err
		}
		args = append(args, "--log", file)
	}
	format := context.GlobalString("log-format")
	if format == "journald" {
		// The journal socket is unreachable once the root is switched.
		format = "text"
	}
	if format != "" {
		args = append(args, "--log-format", format)
	}
	return append(args, "init"), nil
}

func newProcess() *libcontainer.Process {
	return &libcontainer.Process{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func createContainer(id string, config *configs.Config, initArgs []string) (*libcontainer.Container, error) {
	return libcontainer.Create(id, config, libcontainer.InitArgs(initArgs...))
}

type runner struct {
	detach    bool
	container *libcontainer.Container
}

func (r *runner) run() (int, error) {
	process := newProcess()
	// Signals are relayed from the moment the process exists.
	sigc := make(chan os.Signal, 16)
	if !r.detach {
		signal.Notify(sigc, unix.SIGINT, unix.SIGTERM, unix.SIGHUP, unix.SIGQUIT)
		defer signal.Stop(sigc)
	}
	if err := r.container.Start(process); err != nil {
		return -1, err
	}
	pid, err := process.Pid()
	if err != nil {
		return -1, err
	}
	if r.detach {
		fmt.Println(pid)
		return 0, nil
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigc:
				logrus.Debugf("forwarding signal %s to %d", sig, pid)
				if err := process.Signal(sig); err != nil {
					logrus.WithError(err).Warnf("unable to forward signal %s", sig)
				}
			case <-done:
				return
			}
		}
	}()

	state, err := process.Wait()
	if state == nil {
		return -1, err
	}
	status := utils.ExitStatus(unix.WaitStatus(state.Sys().(syscall.WaitStatus)))
	logrus.WithField("id", r.container.ID()).Debugf("container exited with status %d", status)
	return status, nil
}

func startContainer(context *cli.Context) (int, error) {
	args, err := initArgs(context)
	if err != nil {
		return -1, err
	}
	var config *configs.Config
	if context.IsSet("bundle") {
		config, err = configFromBundle(context)
	} else {
		config, err = configFromFlags(context)
	}
	if err != nil {
		return -1, err
	}
	container, err := createContainer(filepath.Base(config.Rootfs), config, args)
	if err != nil {
		return -1, err
	}
	r := &runner{
		detach:    context.Bool("detach"),
		container: container,
	}
	return r.run()
}
