package systemd

import (
	"context"
)

// ReloadDaemon instructs systemd to reload all its units.
func (s *Systemd) ReloadDaemon(ctx context.Context) error {
	_, err := s.runner.RunPrivileged(ctx, "systemctl", "daemon-reload")
	if err != nil {
		return err
	}

	return nil
}

// ResetFailed clears the failed state of all units.
func (s *Systemd) ResetFailed(ctx context.Context) error {
	_, err := s.runner.RunPrivileged(ctx, "systemctl", "reset-failed")
	if err != nil {
		return err
	}

	return nil
}
