package libcontainer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nspawn_lite/libcontainer/utils"
)

type syncType string

// The init process sends procReady right before it execs the container
// command, or procError with the failure. The parent only counts the closing
// of the pipe as a successful exec once procReady was seen.
const (
	procReady syncType = "procReady"
	procError syncType = "procError"
)

type syncT struct {
	Type  syncType   `json:"type"`
	Error *initError `json:"error,omitempty"`
}

func writeSync(w io.Writer, t syncType) error {
	return utils.WriteJSON(w, syncT{Type: t})
}

func writeSyncError(w io.Writer, err error) error {
	return utils.WriteJSON(w, syncT{Type: procError, Error: newInitError(err)})
}

// readSync consumes the init pipe until it is closed and returns the outcome
// of the launch.
func readSync(r io.Reader) error {
	dec := json.NewDecoder(r)
	ready := false
	for {
		var s syncT
		err := dec.Decode(&s)
		switch {
		case errors.Is(err, io.EOF):
			if !ready {
				return &SpawnError{Stage: StageSpawn, Err: errors.New("init exited before running the container command")}
			}
			return nil
		case err != nil:
			return &SpawnError{Stage: StageSpawn, Err: fmt.Errorf("waiting for init: %w", err)}
		}
		switch s.Type {
		case procReady:
			if ready {
				return &SpawnError{Stage: StageSpawn, Err: errors.New("duplicate procReady from init")}
			}
			ready = true
		case procError:
			if s.Error == nil {
				return &SpawnError{Stage: StageSpawn, Err: errors.New("init reported an empty error")}
			}
			return s.Error.toError()
		default:
			return &SpawnError{Stage: StageSpawn, Err: fmt.Errorf("invalid sync type %q from init", s.Type)}
		}
	}
}
