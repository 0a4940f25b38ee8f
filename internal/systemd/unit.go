package systemd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/unit"

	"github.com/R3dM0nk3y360/kiauh/api"
)

// Unit describes a simple service unit.
type Unit struct {
	Description string
	After       []string
	User        string
	ExecStart   string
	Restart     string
	WantedBy    string
}

// Options returns the unit as a list of systemd unit options.
func (u Unit) Options() []*unit.UnitOption {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", u.Description),
	}

	for _, after := range u.After {
		opts = append(opts, unit.NewUnitOption("Unit", "After", after))
	}

	opts = append(opts,
		unit.NewUnitOption("Service", "Type", "simple"),
	)

	if u.User != "" {
		opts = append(opts, unit.NewUnitOption("Service", "User", u.User))
	}

	opts = append(opts, unit.NewUnitOption("Service", "ExecStart", u.ExecStart))

	restart := u.Restart
	if restart == "" {
		restart = "always"
	}

	opts = append(opts,
		unit.NewUnitOption("Service", "Restart", restart),
		unit.NewUnitOption("Service", "RestartSec", "10"),
	)

	wantedBy := u.WantedBy
	if wantedBy == "" {
		wantedBy = "multi-user.target"
	}

	opts = append(opts, unit.NewUnitOption("Install", "WantedBy", wantedBy))

	return opts
}

// UnitPath returns the path of the named unit file.
func (s *Systemd) UnitPath(name string) string {
	return filepath.Join(s.UnitDir, unitName(name))
}

// CreateUnit writes the unit file for name and reloads systemd. The file is
// written directly when possible, otherwise installed with root privileges.
func (s *Systemd) CreateUnit(ctx context.Context, name string, u Unit) error {
	body, err := io.ReadAll(unit.Serialize(u.Options()))
	if err != nil {
		return err
	}

	path := s.UnitPath(name)

	slog.InfoContext(ctx, "Creating service unit", "unit", path)

	err = os.WriteFile(path, body, 0o644) //nolint:gosec
	if err != nil {
		if !errors.Is(err, os.ErrPermission) {
			return err
		}

		err = s.installPrivileged(ctx, path, body)
		if err != nil {
			return err
		}
	}

	return s.ReloadDaemon(ctx)
}

// DeleteUnit deletes the unit file for name. An absent file is skipped.
func (s *Systemd) DeleteUnit(ctx context.Context, name string) api.StepResult {
	path := s.UnitPath(name)
	step := "delete " + path

	_, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return api.Skipped(step, "unit file not found")
		}

		return api.Failed(step, err)
	}

	err = os.Remove(path)
	if err != nil {
		if !errors.Is(err, os.ErrPermission) {
			return api.Failed(step, err)
		}

		_, err = s.runner.RunPrivileged(ctx, "rm", "-f", path)
		if err != nil {
			return api.Failed(step, err)
		}
	}

	return api.OK(step, "unit file deleted")
}

// RemoveService stops, disables and deletes a unit. Each step is attempted
// even when a previous one failed.
func (s *Systemd) RemoveService(ctx context.Context, name string) []api.StepResult {
	unitFile := s.UnitPath(name)

	_, err := os.Lstat(unitFile)
	if errors.Is(err, os.ErrNotExist) {
		return []api.StepResult{api.Skipped("remove service "+unitName(name), "service not found")}
	}

	slog.InfoContext(ctx, "Removing service", "unit", unitName(name))

	results := []api.StepResult{}

	for _, step := range []struct {
		name string
		fn   func(ctx context.Context, units ...string) error
	}{
		{name: "stop", fn: s.StopUnit},
		{name: "disable", fn: s.DisableUnit},
	} {
		label := step.name + " " + unitName(name)

		err := step.fn(ctx, name)
		if err != nil {
			results = append(results, api.Failed(label, err))

			continue
		}

		results = append(results, api.OK(label, ""))
	}

	return append(results, s.DeleteUnit(ctx, name))
}

func (s *Systemd) installPrivileged(ctx context.Context, path string, body []byte) error {
	tmp, err := os.CreateTemp("", "unit-*.service")
	if err != nil {
		return err
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(body)
	if err != nil {
		_ = tmp.Close()

		return err
	}

	err = tmp.Close()
	if err != nil {
		return err
	}

	_, err = s.runner.RunPrivileged(ctx, "install", "-m", "0644", tmp.Name(), path)
	if err != nil {
		return fmt.Errorf("failed to install unit %s: %w", path, err)
	}

	return nil
}
