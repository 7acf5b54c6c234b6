package configs

// Config defines configuration options for launching a process inside a contained environment.
// A Config is immutable once handed to libcontainer.Create: the init process receives
// its own decoded copy, never a reference to the caller's value.
type Config struct {
	// Path to a directory containing the container's root filesystem.
	// The tree must already be prepared; nothing is extracted or layered here.
	Rootfs string `json:"rootfs"`

	// Path is the executable run as the container's first process. It is resolved
	// against the new root after the root switch.
	Path string `json:"path"`

	// Args are forwarded verbatim to the executable after argv[0].
	Args []string `json:"args,omitempty"`

	// DisplayName is used as argv[0] of the executable. It is cosmetic only.
	DisplayName string `json:"display_name"`

	// Env is the environment snapshot handed to the executable.
	Env []string `json:"env,omitempty"`

	// Hostname optionally sets the container's hostname if provided
	Hostname string `json:"hostname,omitempty"`

	// MountProc mounts a fresh proc filesystem at /proc once the root switch is done.
	MountProc bool `json:"mount_proc"`

	// Labels are user defined metadata that is stored in the config
	Labels []string `json:"labels,omitempty"`

	// Namespaces specifies the container's namespaces that it should setup when cloning the init process
	// If a namespace is not provided that namespace is shared from the container's parent process
	Namespaces Namespaces `json:"namespaces"`
}

// Argv returns the full argument vector of the executable, starting with DisplayName.
func (c *Config) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.DisplayName)
	return append(argv, c.Args...)
}

// Copy returns a deep copy of the config.
func (c *Config) Copy() *Config {
	n := *c
	n.Args = append([]string(nil), c.Args...)
	n.Env = append([]string(nil), c.Env...)
	n.Labels = append([]string(nil), c.Labels...)
	n.Namespaces = append(Namespaces(nil), c.Namespaces...)
	return &n
}
