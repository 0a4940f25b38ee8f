// Package runner executes the external tools driven by the installer.
package runner

import (
	"context"
	"os"
	"os/exec"

	"github.com/lxc/incus/v6/shared/subprocess"
)

// Runner runs external commands. Every call blocks until the command exits.
type Runner interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)

	// RunPrivileged executes a command that needs root privileges.
	RunPrivileged(ctx context.Context, name string, args ...string) (string, error)

	// RunInteractive executes a command attached to the terminal, from the given directory.
	RunInteractive(ctx context.Context, dir string, name string, args ...string) error
}

// System is the Runner used outside of tests.
type System struct {
	// Sudo prefixes privileged commands with sudo.
	Sudo bool
}

// NewSystem returns a System runner, using sudo when not running as root.
func NewSystem() *System {
	return &System{Sudo: os.Geteuid() != 0}
}

// Run executes a command and returns its output.
func (*System) Run(ctx context.Context, name string, args ...string) (string, error) {
	return subprocess.RunCommandContext(ctx, name, args...)
}

// RunPrivileged executes a command as root.
func (s *System) RunPrivileged(ctx context.Context, name string, args ...string) (string, error) {
	if !s.Sudo {
		return subprocess.RunCommandContext(ctx, name, args...)
	}

	return subprocess.RunCommandContext(ctx, "sudo", append([]string{name}, args...)...)
}

// RunInteractive executes a command with the terminal attached.
func (*System) RunInteractive(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
