package libcontainer

import (
	"errors"
	"fmt"
	"io"

	"github.com/nspawn_lite/libcontainer/configs"
	"github.com/nspawn_lite/libcontainer/system"
	"github.com/sirupsen/logrus"
)

// initConfig is the bootstrap frame sent to the init process.
type initConfig struct {
	ContainerID string          `json:"container_id"`
	Config      *configs.Config `json:"config"`
}

// initStep is one stage of the launch sequence. Disabled steps are skipped;
// the order of the steps never changes.
type initStep struct {
	stage   Stage
	enabled bool
	run     func() error
}

type linuxStandardInit struct {
	kernel system.Kernel
	config *initConfig
	// pipe is the init pipe; procReady is written to it before exec.
	pipe io.Writer
}

func (l *linuxStandardInit) steps() []initStep {
	c := l.config.Config
	return []initStep{
		{StagePropagation, true, func() error { return prepareRoot(l.kernel) }},
		{StageRootfs, true, func() error { return pivotRoot(l.kernel, c.Rootfs) }},
		{StageProc, c.MountProc, func() error { return mountProc(l.kernel, c.Namespaces.Contains(configs.NEWPID)) }},
		// sethostname needs CAP_SYS_ADMIN over the uts namespace, so it runs
		// before anything touching the identity of the process.
		{StageHostname, c.Hostname != "", l.setHostname},
		{StageUserns, c.Namespaces.Contains(configs.NEWUSER), l.checkUserns},
		{StageExec, true, l.exec},
	}
}

// Init runs the launch sequence. It stops at the first failing stage. On
// success against the real kernel it does not return: the exec stage replaces
// the process image.
func (l *linuxStandardInit) Init() error {
	for _, step := range l.steps() {
		if !step.enabled {
			logrus.Debugf("skipping stage %s", step.stage)
			continue
		}
		logrus.Debugf("running stage %s", step.stage)
		if err := step.run(); err != nil {
			return err
		}
	}
	return nil
}

func (l *linuxStandardInit) setHostname() error {
	if err := l.kernel.Sethostname(l.config.Config.Hostname); err != nil {
		return &SpawnError{Stage: StageHostname, Err: err}
	}
	return nil
}

// checkUserns verifies the identity namespace created at clone time. No
// uid/gid mapping is written, so the target runs as the overflow user.
func (l *linuxStandardInit) checkUserns() error {
	if !l.kernel.RunningInUserNS() {
		return &SpawnError{Stage: StageUserns, Err: errors.New("user namespace requested but init is not running in one")}
	}
	logrus.Warn("running in a user namespace without uid/gid mappings")
	return nil
}

func (l *linuxStandardInit) exec() error {
	c := l.config.Config
	if err := writeSync(l.pipe, procReady); err != nil {
		return &SpawnError{Stage: StageExec, Err: fmt.Errorf("unable to report readiness: %w", err)}
	}
	if err := l.kernel.Exec(c.Path, c.Argv(), c.Env); err != nil {
		return &ExecError{Path: c.Path, Err: err}
	}
	return nil
}
