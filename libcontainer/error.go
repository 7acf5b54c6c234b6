package libcontainer

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Stage names one step of the launch sequence. Every error reported by the
// init process carries the stage that failed.
type Stage string

const (
	StageSpawn       Stage = "spawn"
	StagePropagation Stage = "mount-propagation"
	StageRootfs      Stage = "rootfs"
	StageProc        Stage = "proc"
	StageHostname    Stage = "hostname"
	StageUserns      Stage = "userns"
	StageExec        Stage = "exec"
)

// SpawnError means creating or configuring the container's namespaces was
// rejected, usually for lack of privilege or a resource limit. The hostname
// and userns stages, which configure namespaces after the root switch, also
// report their failures as SpawnError.
type SpawnError struct {
	Stage Stage
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: unable to create container process: %v", e.Stage, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// MountError means a mount, bind, remount or unmount call failed.
type MountError struct {
	Stage  Stage
	Op     string
	Source string
	Target string
	Err    error
}

func (e *MountError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s %s on %s: %v", e.Stage, e.Op, e.Source, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Stage, e.Op, e.Target, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// PivotError means switching the root filesystem failed.
type PivotError struct {
	Root string
	Op   string
	Err  error
}

func (e *PivotError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", StageRootfs, e.Op, e.Root, e.Err)
}

func (e *PivotError) Unwrap() error { return e.Err }

// ExecError means the target binary could not replace the init process.
type ExecError struct {
	Path string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: unable to start container command %s: %v", StageExec, e.Path, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// StageOf returns the stage an error was raised in, or "" for other errors.
func StageOf(err error) Stage {
	var (
		serr *SpawnError
		merr *MountError
		perr *PivotError
		eerr *ExecError
	)
	switch {
	case errors.As(err, &serr):
		return serr.Stage
	case errors.As(err, &merr):
		return merr.Stage
	case errors.As(err, &perr):
		return StageRootfs
	case errors.As(err, &eerr):
		return StageExec
	}
	return ""
}

// initError is how a failure inside the init process travels back to the
// parent over the init pipe.
type initError struct {
	Kind    string `json:"kind"`
	Stage   Stage  `json:"stage,omitempty"`
	Op      string `json:"op,omitempty"`
	Source  string `json:"source,omitempty"`
	Target  string `json:"target,omitempty"`
	Errno   int    `json:"errno,omitempty"`
	Message string `json:"message"`
}

const (
	kindSpawn = "spawn"
	kindMount = "mount"
	kindPivot = "pivot"
	kindExec  = "exec"
)

func newInitError(err error) *initError {
	ie := &initError{Message: err.Error()}
	var errno unix.Errno
	if errors.As(err, &errno) {
		ie.Errno = int(errno)
	}
	var (
		serr *SpawnError
		merr *MountError
		perr *PivotError
		eerr *ExecError
	)
	switch {
	case errors.As(err, &merr):
		ie.Kind, ie.Stage, ie.Op, ie.Source, ie.Target = kindMount, merr.Stage, merr.Op, merr.Source, merr.Target
		ie.Message = causeMessage(merr.Err)
	case errors.As(err, &perr):
		ie.Kind, ie.Stage, ie.Op, ie.Target = kindPivot, StageRootfs, perr.Op, perr.Root
		ie.Message = causeMessage(perr.Err)
	case errors.As(err, &eerr):
		ie.Kind, ie.Stage, ie.Target = kindExec, StageExec, eerr.Path
		ie.Message = causeMessage(eerr.Err)
	case errors.As(err, &serr):
		ie.Kind, ie.Stage = kindSpawn, serr.Stage
		ie.Message = causeMessage(serr.Err)
	default:
		ie.Kind = kindSpawn
	}
	return ie
}

func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// toError rebuilds the typed error. The cause keeps the errno when there
// was one, so errors.Is(err, unix.EXXX) keeps working in the parent.
func (ie *initError) toError() error {
	var cause error
	if ie.Errno != 0 {
		cause = &remoteError{msg: ie.Message, errno: unix.Errno(ie.Errno)}
	} else {
		cause = errors.New(ie.Message)
	}
	switch ie.Kind {
	case kindMount:
		return &MountError{Stage: ie.Stage, Op: ie.Op, Source: ie.Source, Target: ie.Target, Err: cause}
	case kindPivot:
		return &PivotError{Root: ie.Target, Op: ie.Op, Err: cause}
	case kindExec:
		return &ExecError{Path: ie.Target, Err: cause}
	}
	stage := ie.Stage
	if stage == "" {
		stage = StageSpawn
	}
	return &SpawnError{Stage: stage, Err: cause}
}

type remoteError struct {
	msg   string
	errno unix.Errno
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.errno }
