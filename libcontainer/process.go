package libcontainer

import (
	"errors"
	"io"
	"os"
)

var errInvalidProcess = errors.New("invalid process")

type processOperations interface {
	wait() (*os.ProcessState, error)
	signal(sig os.Signal) error
	pid() int
}

// Process specifies the stdio of the container's first process and, once
// started, is the caller's handle on it.
type Process struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ExtraFiles specifies additional open files to be inherited by the container
	ExtraFiles []*os.File

	ops processOperations
}

// Pid returns the process ID as seen from the caller's pid namespace.
func (p Process) Pid() (int, error) {
	// math.MinInt32 is returned here, because it's invalid value
	// for the kill() system call.
	if p.ops == nil {
		return -1 << 31, errInvalidProcess
	}
	return p.ops.pid(), nil
}

// Wait waits for the process to exit.
func (p Process) Wait() (*os.ProcessState, error) {
	if p.ops == nil {
		return nil, errInvalidProcess
	}
	return p.ops.wait()
}

// Signal sends a signal to the Process.
func (p Process) Signal(sig os.Signal) error {
	if p.ops == nil {
		return errInvalidProcess
	}
	return p.ops.signal(sig)
}
