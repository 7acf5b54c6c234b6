package configs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	NEWNET    NamespaceType = "NEWNET"
	NEWPID    NamespaceType = "NEWPID"
	NEWNS     NamespaceType = "NEWNS"
	NEWUTS    NamespaceType = "NEWUTS"
	NEWIPC    NamespaceType = "NEWIPC"
	NEWUSER   NamespaceType = "NEWUSER"
	NEWCGROUP NamespaceType = "NEWCGROUP"
)

type NamespaceType string

var namespaceInfo = map[NamespaceType]uintptr{
	NEWNET:    unix.CLONE_NEWNET,
	NEWNS:     unix.CLONE_NEWNS,
	NEWUSER:   unix.CLONE_NEWUSER,
	NEWIPC:    unix.CLONE_NEWIPC,
	NEWUTS:    unix.CLONE_NEWUTS,
	NEWPID:    unix.CLONE_NEWPID,
	NEWCGROUP: unix.CLONE_NEWCGROUP,
}

// NamespaceTypes returns the namespace kinds libcontainer knows how to clone.
func NamespaceTypes() []NamespaceType {
	return []NamespaceType{
		NEWUSER, // Keep user NS always first, the kernel creates the others owned by it.
		NEWIPC,
		NEWUTS,
		NEWNET,
		NEWPID,
		NEWNS,
		NEWCGROUP,
	}
}

// ParseNamespaceType maps the short names used on the command line and in OCI
// bundles ("pid", "mount", ...) to a NamespaceType.
func ParseNamespaceType(s string) (NamespaceType, error) {
	switch s {
	case "mount", "mnt", "ns":
		return NEWNS, nil
	case "pid":
		return NEWPID, nil
	case "uts":
		return NEWUTS, nil
	case "ipc":
		return NEWIPC, nil
	case "user":
		return NEWUSER, nil
	case "network", "net":
		return NEWNET, nil
	case "cgroup":
		return NEWCGROUP, nil
	}
	return "", fmt.Errorf("unknown namespace type %q", s)
}

// Namespace defines configuration for each namespace.  It specifies an
// alternate path that is able to be joined via setns.
type Namespace struct {
	Type NamespaceType `json:"type"`
	Path string        `json:"path"`
}

// Namespaces is the set of isolation kinds freshly created for the container.
type Namespaces []Namespace

// DefaultNamespaces returns the mount, pid, uts and ipc set.
func DefaultNamespaces() Namespaces {
	return Namespaces{
		{Type: NEWNS},
		{Type: NEWPID},
		{Type: NEWUTS},
		{Type: NEWIPC},
	}
}

func (n *Namespaces) Remove(t NamespaceType) bool {
	i := n.index(t)
	if i == -1 {
		return false
	}
	*n = append((*n)[:i], (*n)[i+1:]...)
	return true
}

func (n *Namespaces) Add(t NamespaceType, path string) {
	i := n.index(t)
	if i == -1 {
		*n = append(*n, Namespace{Type: t, Path: path})
		return
	}
	(*n)[i].Path = path
}

func (n *Namespaces) index(t NamespaceType) int {
	for i, ns := range *n {
		if ns.Type == t {
			return i
		}
	}
	return -1
}

func (n *Namespaces) Contains(t NamespaceType) bool {
	return n.index(t) != -1
}

// PathOf returns the path of the namespace t, or "" when unset.
func (n *Namespaces) PathOf(t NamespaceType) string {
	i := n.index(t)
	if i == -1 {
		return ""
	}
	return (*n)[i].Path
}

// CloneFlags parses the container's Namespaces options to set the correct
// flags on clone, unshare. Namespaces with a path are joined, not created,
// so they are left out.
func (n *Namespaces) CloneFlags() uintptr {
	var flag uintptr
	for _, v := range *n {
		if v.Path != "" {
			continue
		}
		flag |= namespaceInfo[v.Type]
	}
	return flag
}
