package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/nspawn_lite/libcontainer"
	"github.com/sirupsen/logrus"
)

// The test binary is also the container init and, once copied into the
// rootfs, the container command. argv[0] selects what the command checks.
var commands = map[string]func(args []string) error{
	"nspawn-noop": func([]string) error { return nil },
	"nspawn-sentinel": func([]string) error {
		data, err := os.ReadFile("/sentinel")
		if err != nil {
			return err
		}
		if string(data) != sentinel {
			return fmt.Errorf("/sentinel holds %q, not the prepared tree's %q", data, sentinel)
		}
		return nil
	},
	"nspawn-ps": func([]string) error {
		if pid := os.Getpid(); pid != 1 {
			return fmt.Errorf("running as pid %d, not 1", pid)
		}
		entries, err := os.ReadDir("/proc")
		if err != nil {
			return err
		}
		var pids []string
		for _, e := range entries {
			if _, err := strconv.Atoi(e.Name()); err == nil {
				pids = append(pids, e.Name())
			}
		}
		sort.Strings(pids)
		if strings.Join(pids, ",") != "1" {
			return fmt.Errorf("unexpected processes in /proc: %v", pids)
		}
		return nil
	},
	"nspawn-hostname": func(args []string) error {
		name, err := os.Hostname()
		if err != nil {
			return err
		}
		if len(args) == 0 || name != args[0] {
			return fmt.Errorf("hostname is %q, expected %v", name, args)
		}
		return nil
	},
}

func init() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		runtime.GOMAXPROCS(1)
		runtime.LockOSThread()
		logrus.SetLevel(logrus.DebugLevel)
		if err := libcontainer.StartInitialization(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		panic("init: failed to exec")
	}
	if run, ok := commands[filepath.Base(os.Args[0])]; ok {
		if err := run(os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		os.Exit(0)
	}
}
