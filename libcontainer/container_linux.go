package libcontainer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/nspawn_lite/libcontainer/configs"
	"github.com/nspawn_lite/libcontainer/stack"
	"github.com/nspawn_lite/libcontainer/utils"
	"github.com/sirupsen/logrus"
)

// Container is a launch configuration bound to the init binary that carries
// it out.
type Container struct {
	id        string
	config    *configs.Config
	initPath  string
	initArgs  []string
	stackSize int
}

// ID returns the container's unique ID
func (c *Container) ID() string {
	return c.id
}

// Config returns a copy of the container's configuration.
func (c *Container) Config() configs.Config {
	return *c.config.Copy()
}

// Start spawns the container's first process and returns once it runs the
// container command. On success process becomes a handle on it.
func (c *Container) Start(process *Process) error {
	if process == nil {
		return errors.New("process cannot be nil")
	}
	if process.ops != nil {
		return errors.New("process already started")
	}
	if err := c.start(process); err != nil {
		return err
	}
	return nil
}

// Run starts process and waits for the container command to exit.
func (c *Container) Run(process *Process) (*os.ProcessState, error) {
	if err := c.Start(process); err != nil {
		return nil, err
	}
	return process.Wait()
}

func (c *Container) start(process *Process) error {
	parent, err := c.newParentProcess(process)
	if err != nil {
		return err
	}
	if err := parent.start(); err != nil {
		return err
	}
	process.ops = parent
	logrus.WithField("id", c.id).Infof("container started with pid %d", parent.pid())
	return nil
}

func (c *Container) newParentProcess(p *Process) (parentProcess, error) {
	parentInitPipe, childInitPipe, err := utils.NewSockPair("init")
	if err != nil {
		return nil, &SpawnError{Stage: StageSpawn, Err: fmt.Errorf("unable to create init pipe: %w", err)}
	}
	messageSockPair := filePair{parentInitPipe, childInitPipe}
	cmd := c.commandTemplate(p, childInitPipe)
	return c.newInitProcess(cmd, messageSockPair)
}

func (c *Container) commandTemplate(p *Process, childInitPipe *os.File) *exec.Cmd {
	cmd := exec.Command(c.initPath, c.initArgs[1:]...)
	cmd.Args[0] = c.initArgs[0]
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	cmd.ExtraFiles = append(append([]*os.File(nil), p.ExtraFiles...), childInitPipe)
	// The init process only learns where its pipe is; its configuration
	// comes through the pipe.
	cmd.Env = []string{
		initPipeEnv + "=" + strconv.Itoa(stdioFdCount+len(cmd.ExtraFiles)-1),
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: c.config.Namespaces.CloneFlags(),
	}
	return cmd
}

// Create new init process.
func (c *Container) newInitProcess(cmd *exec.Cmd, messageSockPair filePair) (*initProcess, error) {
	region, err := stack.Acquire(c.stackSize)
	if err != nil {
		messageSockPair.parent.Close()
		messageSockPair.child.Close()
		return nil, &SpawnError{Stage: StageSpawn, Err: err}
	}
	if err := json.NewEncoder(region).Encode(&initConfig{ContainerID: c.id, Config: c.config.Copy()}); err != nil {
		_ = region.Release()
		messageSockPair.parent.Close()
		messageSockPair.child.Close()
		return nil, &SpawnError{Stage: StageSpawn, Err: fmt.Errorf("unable to encode init config: %w", err)}
	}
	return &initProcess{
		cmd:             cmd,
		messageSockPair: messageSockPair,
		region:          region,
	}, nil
}
