package systemd

import (
	"context"
	"log/slog"

	"github.com/R3dM0nk3y360/kiauh/api"
)

// RestartAll restarts every unit in order. A failure is logged and recorded
// but doesn't prevent the remaining units from being restarted.
func (s *Systemd) RestartAll(ctx context.Context, units []string) []api.StepResult {
	results := make([]api.StepResult, 0, len(units))

	for _, u := range units {
		step := "restart " + unitName(u)

		slog.InfoContext(ctx, "Restarting service", "unit", unitName(u))

		err := s.RestartUnit(ctx, u)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to restart service", "unit", unitName(u), "err", err)
			results = append(results, api.Failed(step, err))

			continue
		}

		results = append(results, api.OK(step, ""))
	}

	return results
}
