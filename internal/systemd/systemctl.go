// Package systemd controls the service units of the managed companions.
package systemd

import (
	"context"
	"strings"

	"github.com/R3dM0nk3y360/kiauh/internal/runner"
)

// Systemd issues systemctl commands through a Runner.
type Systemd struct {
	runner runner.Runner

	// UnitDir is where unit files are created and deleted.
	UnitDir string
}

// New returns a Systemd for the given runner and unit directory.
func New(r runner.Runner, unitDir string) *Systemd {
	return &Systemd{runner: r, UnitDir: unitDir}
}

// StartUnit starts the given units.
func (s *Systemd) StartUnit(ctx context.Context, units ...string) error {
	return s.systemctl(ctx, "start", units...)
}

// StopUnit stops the given units.
func (s *Systemd) StopUnit(ctx context.Context, units ...string) error {
	return s.systemctl(ctx, "stop", units...)
}

// RestartUnit restarts the given units.
func (s *Systemd) RestartUnit(ctx context.Context, units ...string) error {
	return s.systemctl(ctx, "restart", units...)
}

// EnableUnit enables the given units, starting them too if now is set.
func (s *Systemd) EnableUnit(ctx context.Context, now bool, units ...string) error {
	if now {
		return s.systemctl(ctx, "enable", append([]string{"--now"}, units...)...)
	}

	return s.systemctl(ctx, "enable", units...)
}

// DisableUnit disables the given units.
func (s *Systemd) DisableUnit(ctx context.Context, units ...string) error {
	return s.systemctl(ctx, "disable", units...)
}

// IsActive reports whether the unit is currently running.
func (s *Systemd) IsActive(ctx context.Context, unit string) bool {
	_, err := s.runner.Run(ctx, "systemctl", "is-active", "--quiet", unitName(unit))

	return err == nil
}

func (s *Systemd) systemctl(ctx context.Context, action string, units ...string) error {
	args := []string{action}
	for _, u := range units {
		args = append(args, unitName(u))
	}

	_, err := s.runner.RunPrivileged(ctx, "systemctl", args...)
	if err != nil {
		return err
	}

	return nil
}

// unitName appends ".service" to bare names, leaving flags and other unit types alone.
func unitName(name string) string {
	if strings.HasPrefix(name, "-") || strings.Contains(name, ".") {
		return name
	}

	return name + ".service"
}
