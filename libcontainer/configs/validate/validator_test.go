package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspawn_lite/libcontainer/configs"
)

func newRootfs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	// TempDir may live below a symlinked path (e.g. /tmp -> /private/tmp).
	dir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bin", "true"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func validConfig(t *testing.T) *configs.Config {
	return &configs.Config{
		Rootfs:      newRootfs(t),
		Path:        "/bin/true",
		DisplayName: "true",
		MountProc:   true,
		Namespaces:  configs.DefaultNamespaces(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*configs.Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(*configs.Config) {},
		},
		{
			name:    "missing rootfs",
			modify:  func(c *configs.Config) { c.Rootfs = "/does/not/exist" },
			wantErr: true,
		},
		{
			name:    "relative rootfs",
			modify:  func(c *configs.Config) { c.Rootfs = "rootfs" },
			wantErr: true,
		},
		{
			name:    "no mount namespace",
			modify:  func(c *configs.Config) { c.Namespaces.Remove(configs.NEWNS) },
			wantErr: true,
		},
		{
			name:    "network namespace",
			modify:  func(c *configs.Config) { c.Namespaces.Add(configs.NEWNET, "") },
			wantErr: true,
		},
		{
			name:    "join existing namespace",
			modify:  func(c *configs.Config) { c.Namespaces.Add(configs.NEWIPC, "/proc/1/ns/ipc") },
			wantErr: true,
		},
		{
			name: "hostname without uts",
			modify: func(c *configs.Config) {
				c.Hostname = "box"
				c.Namespaces.Remove(configs.NEWUTS)
			},
			wantErr: true,
		},
		{
			name:    "empty command",
			modify:  func(c *configs.Config) { c.Path = "" },
			wantErr: true,
		},
		{
			name:    "empty display name",
			modify:  func(c *configs.Config) { c.DisplayName = "" },
			wantErr: true,
		},
		{
			name:   "command missing from rootfs is not fatal",
			modify: func(c *configs.Config) { c.Path = "/bin/missing" },
		},
		{
			name:   "unmapped user namespace is allowed",
			modify: func(c *configs.Config) { c.Namespaces.Add(configs.NEWUSER, "") },
		},
		{
			name: "no proc and no pid namespace",
			modify: func(c *configs.Config) {
				c.MountProc = false
				c.Namespaces.Remove(configs.NEWPID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig(t)
			tt.modify(config)
			err := Validate(config)
			if (err != nil) != tt.wantErr {
				t.Errorf("unexpected error: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProcWithoutPIDNamespace(t *testing.T) {
	config := validConfig(t)
	config.Namespaces.Remove(configs.NEWPID)
	if err := Validate(config); !errors.Is(err, ErrHostPIDView) {
		t.Fatalf("expected ErrHostPIDView, got %v", err)
	}
}
