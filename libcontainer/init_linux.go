package libcontainer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"

	"github.com/nspawn_lite/libcontainer/system"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	initPipeEnv  = "_NSPAWN_INITPIPE"
	stdioFdCount = 3
)

// StartInitialization is the entry routine of the container's init process,
// called by the re-executed binary inside the new namespaces. It reads the
// bootstrap frame from the init pipe and runs the launch sequence. On success
// it never returns; on failure the error is also reported to the parent and
// the caller must exit non-zero.
func StartInitialization() (retErr error) {
	pipe, err := initPipe()
	if err != nil {
		return &SpawnError{Stage: StageSpawn, Err: err}
	}
	defer func() {
		if r := recover(); r != nil {
			retErr = &SpawnError{Stage: StageSpawn, Err: fmt.Errorf("panic from initialization: %v, %s", r, debug.Stack())}
		}
		if retErr == nil {
			return
		}
		if werr := writeSyncError(pipe, retErr); werr != nil {
			logrus.WithError(werr).Error("unable to report init error to parent")
		}
	}()

	var config initConfig
	if err := json.NewDecoder(pipe).Decode(&config); err != nil {
		return &SpawnError{Stage: StageSpawn, Err: fmt.Errorf("unable to decode init config: %w", err)}
	}
	if config.Config == nil {
		return &SpawnError{Stage: StageSpawn, Err: errors.New("empty init config")}
	}
	// A successful exec closes the pipe after procReady was sent.
	unix.CloseOnExec(int(pipe.Fd()))

	logrus.WithField("id", config.ContainerID).Debug("init process configured")
	i := &linuxStandardInit{
		kernel: system.Linux{},
		config: &config,
		pipe:   pipe,
	}
	return i.Init()
}

func initPipe() (*os.File, error) {
	envInitPipe := os.Getenv(initPipeEnv)
	if envInitPipe == "" {
		return nil, fmt.Errorf("%s is not set; init must not be called directly", initPipeEnv)
	}
	fd, err := strconv.Atoi(envInitPipe)
	if err != nil {
		return nil, fmt.Errorf("unable to convert %s: %w", initPipeEnv, err)
	}
	return os.NewFile(uintptr(fd), "init"), nil
}
