package libcontainer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/nspawn_lite/libcontainer/stack"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type filePair struct {
	parent *os.File
	child  *os.File
}

type parentProcess interface {
	start() error
	pid() int
	wait() (*os.ProcessState, error)
	signal(os.Signal) error
}

// initProcess spawns the container's first process. The process is created
// with fresh namespaces and receives its bootstrap frame from the stack
// region over the init pipe.
type initProcess struct {
	cmd             *exec.Cmd
	messageSockPair filePair
	region          *stack.Region
}

func (p *initProcess) pid() int {
	return p.cmd.Process.Pid
}

// start creates the process and blocks until it has either replaced its
// image with the container command or failed. It does not wait for the
// container to exit.
func (p *initProcess) start() error {
	defer p.messageSockPair.parent.Close()
	// The region must outlive the child's use of it, which ends with the
	// handshake below: exec or exit.
	defer func() {
		if err := p.region.Release(); err != nil {
			logrus.WithError(err).Warn("unable to release stack region")
		}
	}()

	err := p.cmd.Start()
	_ = p.messageSockPair.child.Close()
	if err != nil {
		return &SpawnError{Stage: StageSpawn, Err: fmt.Errorf("unable to start init: %w", err)}
	}
	logrus.Debugf("init process started with pid %d", p.pid())
	waitInit := initWaiter(p.messageSockPair.parent)

	if _, err := p.region.WriteTo(p.messageSockPair.parent); err != nil {
		p.terminate()
		return &SpawnError{Stage: StageSpawn, Err: fmt.Errorf("can't copy bootstrap data to pipe: %w", err)}
	}

	if err := <-waitInit; err != nil {
		if _, werr := p.wait(); werr != nil {
			logrus.WithError(werr).Debug("init process exited")
		}
		return err
	}
	return nil
}

func (p *initProcess) terminate() {
	_ = p.cmd.Process.Kill()
	if _, err := p.wait(); err != nil {
		logrus.WithError(err).Debug("init process killed")
	}
}

func (p *initProcess) wait() (*os.ProcessState, error) {
	err := p.cmd.Wait()
	return p.cmd.ProcessState, err
}

func (p *initProcess) signal(sig os.Signal) error {
	s, ok := sig.(unix.Signal)
	if !ok {
		return errors.New("os: unsupported signal type")
	}
	return unix.Kill(p.pid(), s)
}

// initWaiter reads the init pipe in the background. See readSync.
func initWaiter(r io.Reader) chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- readSync(r)
	}()
	return ch
}
