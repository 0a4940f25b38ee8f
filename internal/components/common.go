package components

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/backup"
	"github.com/R3dM0nk3y360/kiauh/internal/deps"
	"github.com/R3dM0nk3y360/kiauh/internal/git"
	"github.com/R3dM0nk3y360/kiauh/internal/instances"
	"github.com/R3dM0nk3y360/kiauh/internal/systemd"
	"github.com/R3dM0nk3y360/kiauh/internal/tui"
)

type common struct {
	env *Env

	finder  *instances.Finder
	git     *git.Git
	deps    *deps.Installer
	systemd *systemd.Systemd
	backups *backup.Manager
}

func newCommon(env *Env) common {
	backups := env.Backups
	if backups == nil {
		backups = backup.NewManager()
	}

	return common{
		env:     env,
		finder:  &instances.Finder{Home: env.Home, SystemdDir: env.SystemdDir},
		git:     git.New(env.Runner),
		deps:    deps.New(env.Runner),
		systemd: systemd.New(env.Runner, env.SystemdDir),
		backups: backups,
	}
}

func (c *common) home(elem ...string) string {
	return filepath.Join(append([]string{c.env.Home}, elem...)...)
}

func (c *common) dialog(kind tui.DialogKind, lines ...string) {
	out := c.env.Output
	if out == nil {
		out = io.Discard
	}

	_ = tui.Dialog(out, kind, lines...)
}

func (c *common) confirm(question string, defaultYes bool) (bool, error) {
	if c.env.Prompter == nil {
		return defaultYes, nil
	}

	return c.env.Prompter.Confirm(question, defaultYes)
}

// backupDirs copies each directory into target when backups before updates are enabled.
func (c *common) backupDirs(ctx context.Context, target string, dirs ...string) error {
	if !c.env.Settings.BackupBeforeUpdate {
		return nil
	}

	for _, dir := range dirs {
		_, err := c.backups.Directory(ctx, filepath.Base(dir), dir, target)
		if err != nil {
			return err
		}
	}

	return nil
}

// removePath deletes a file or directory tree, escalating to root when
// needed. An absent path is skipped.
func (c *common) removePath(ctx context.Context, what string, path string) api.StepResult {
	step := "remove " + what

	_, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.InfoContext(ctx, "Not found, skipping", "path", path)

			return api.Skipped(step, path+" not found")
		}

		return api.Failed(step, err)
	}

	err = os.RemoveAll(path)
	if err != nil {
		if !errors.Is(err, os.ErrPermission) {
			return api.Failed(step, err)
		}

		_, err = c.env.Runner.RunPrivileged(ctx, "rm", "-rf", path)
		if err != nil {
			return api.Failed(step, err)
		}
	}

	slog.InfoContext(ctx, "Removed", "path", path)

	return api.OK(step, path+" removed")
}

// removeService removes a unit and resets systemd's state when it existed.
func (c *common) removeService(ctx context.Context, name string) []api.StepResult {
	results := c.systemd.RemoveService(ctx, name)
	if len(results) == 1 && results[0].Status == api.StepSkipped {
		return results
	}

	return append(results, c.reloadDaemon(ctx)...)
}

func (c *common) reloadDaemon(ctx context.Context) []api.StepResult {
	results := []api.StepResult{}

	err := c.systemd.ReloadDaemon(ctx)
	if err != nil {
		results = append(results, api.Failed("daemon-reload", err))
	} else {
		results = append(results, api.OK("daemon-reload", ""))
	}

	err = c.systemd.ResetFailed(ctx)
	if err != nil {
		results = append(results, api.Failed("reset-failed", err))
	} else {
		results = append(results, api.OK("reset-failed", ""))
	}

	return results
}

// restartInstances restarts every instance, logging failures without aborting.
func (c *common) restartInstances(ctx context.Context, list []instances.Instance) {
	for _, r := range c.systemd.RestartAll(ctx, instances.ServiceNames(list)) {
		if r.Status == api.StepFailed {
			slog.WarnContext(ctx, "Restart failed", "step", r.Step, "err", r.Err)
		}
	}
}

// patchFailures turns the failed results of a config fan-out into an error.
func patchFailures(results []api.StepResult) error {
	errs := []error{}

	for _, r := range results {
		if r.Status == api.StepFailed {
			errs = append(errs, fmt.Errorf("%s: %w", r.Step, r.Err))
		}
	}

	return errors.Join(errs...)
}

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

func (c *common) repoStatus(ctx context.Context, name string, url string, dir string, state api.InstallState, count int, services ...string) api.ComponentStatus {
	running := 0

	for _, service := range services {
		if c.systemd.IsActive(ctx, service) {
			running++
		}
	}

	return api.ComponentStatus{
		Name:        name,
		State:       state,
		Instances:   count,
		Repository:  git.RepoName(url),
		LocalCommit: c.git.LocalCommit(ctx, dir),
		Running:     running,
	}
}
