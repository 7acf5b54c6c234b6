package libcontainer

import (
	"errors"
	"os"

	"github.com/nspawn_lite/libcontainer/configs"
	"github.com/nspawn_lite/libcontainer/configs/validate"
	"github.com/nspawn_lite/libcontainer/stack"
)

// InitArgs returns an option for Create that sets the argument vector the
// init binary is started with. args[0] is used as the process name.
func InitArgs(args ...string) func(*Container) error {
	return func(c *Container) error {
		if len(args) == 0 {
			return errors.New("init args cannot be empty")
		}
		c.initArgs = args
		return nil
	}
}

// InitPath returns an option for Create that sets the binary re-executed as
// the container's init. It defaults to /proc/self/exe.
func InitPath(path string) func(*Container) error {
	return func(c *Container) error {
		c.initPath = path
		return nil
	}
}

// StackSize returns an option for Create that sets the size of the stack
// region handed to the init process.
func StackSize(size int) func(*Container) error {
	return func(c *Container) error {
		if size <= 0 {
			return errors.New("stack size must be positive")
		}
		c.stackSize = size
		return nil
	}
}

// Create validates config and returns a container for it. The config is
// copied; later changes to it by the caller are not seen.
func Create(id string, config *configs.Config, options ...func(*Container) error) (*Container, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := validate.Validate(config); err != nil {
		return nil, err
	}
	c := &Container{
		id:        id,
		config:    config.Copy(),
		initPath:  "/proc/self/exe",
		initArgs:  []string{os.Args[0], "init"},
		stackSize: stack.DefaultSize,
	}
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
