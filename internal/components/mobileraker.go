package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"

	"github.com/lxc/incus/v6/shared/revert"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/config"
	"github.com/R3dM0nk3y360/kiauh/internal/instances"
	"github.com/R3dM0nk3y360/kiauh/internal/systemd"
	"github.com/R3dM0nk3y360/kiauh/internal/tui"
)

const (
	mobilerakerRepo    = "https://github.com/Clon1998/mobileraker_companion.git"
	mobilerakerService = "mobileraker"
)

var mobilerakerPackages = []string{"git", "wget", "curl", "unzip", "dfu-util"}

type mobileraker struct {
	common
}

func (m *mobileraker) descriptor() api.ComponentDescriptor {
	dir := m.home("mobileraker_companion")

	return api.ComponentDescriptor{
		Name:             "mobileraker",
		DisplayName:      "Mobileraker's companion",
		Repository:       mobilerakerRepo,
		Branch:           "main",
		Dir:              dir,
		EnvDir:           m.home("mobileraker-env"),
		RequirementsFile: filepath.Join(dir, "scripts", "mobileraker-requirements.txt"),
		InstallScript:    filepath.Join(dir, "scripts", "install.sh"),
		ServiceName:      mobilerakerService,
		ServiceFile:      m.systemd.UnitPath(mobilerakerService),
		UpdaterSection:   "update_manager mobileraker",
		LogName:          "mobileraker.log",
		BackupDir:        m.env.Settings.BackupDir("mobileraker"),
	}
}

// Descriptor returns the static metadata of the component.
func (m *mobileraker) Descriptor() any {
	return m.descriptor()
}

func (m *mobileraker) updaterOptions(d api.ComponentDescriptor) []config.Option {
	return []config.Option{
		{Key: "type", Value: "git_repo"},
		{Key: "path", Value: d.Dir},
		{Key: "origin", Value: d.Repository},
		{Key: "primary_branch", Value: d.Branch},
		{Key: "managed_services", Value: d.ServiceName},
		{Key: "env", Value: filepath.Join(d.EnvDir, "bin", "python")},
		{Key: "requirements", Value: d.RequirementsFile},
		{Key: "install_script", Value: d.InstallScript},
	}
}

// Install installs Mobileraker's companion and registers it with every Moonraker instance.
func (m *mobileraker) Install(ctx context.Context) error {
	d := m.descriptor()

	slog.InfoContext(ctx, "Installing "+d.DisplayName)

	err := m.deps.CheckPythonVersion(ctx, 3, 7)
	if err != nil {
		return err
	}

	moonrakers := m.finder.Discover(instances.Moonraker)
	if len(moonrakers) == 0 {
		m.dialog(tui.DialogWarning,
			"Moonraker not found! "+d.DisplayName+" will not properly work without a working Moonraker installation.",
			d.DisplayName+"'s update manager configuration for Moonraker will not be added to any moonraker.conf.",
		)

		ok, err := m.confirm("Continue "+d.DisplayName+" installation?", false)
		if err != nil {
			return err
		}

		if !ok {
			return ErrAborted
		}
	}

	err = m.deps.InstallSystemPackages(ctx, mobilerakerPackages)
	if err != nil {
		return err
	}

	force := false

	if exists(d.Dir) {
		force, err = m.confirm(d.Dir+" already exists. Overwrite it?", false)
		if err != nil {
			return err
		}

		if !force {
			return ErrAborted
		}
	}

	reverter := revert.New()
	defer reverter.Fail()

	err = m.git.Clone(ctx, d.Repository, d.Dir, "", force)
	if err != nil {
		return err
	}

	reverter.Add(func() { _ = os.RemoveAll(d.Dir) })

	err = m.env.Runner.RunInteractive(ctx, d.Dir, d.InstallScript)
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", d.InstallScript, err)
	}

	err = m.ensureEnv(ctx, d)
	if err != nil {
		return err
	}

	err = m.ensureService(ctx, d)
	if err != nil {
		return err
	}

	reverter.Success()

	if len(moonrakers) == 0 {
		slog.WarnContext(ctx, "Moonraker is not installed, skipping update manager configuration", "component", d.Name)
	} else {
		err = patchFailures(config.AddSectionToInstances(ctx, moonrakers, d.UpdaterSection, m.updaterOptions(d)))
		if err != nil {
			return err
		}

		m.restartInstances(ctx, moonrakers)
	}

	m.dialog(tui.DialogSuccess, d.DisplayName+" successfully installed!")

	return nil
}

// ensureEnv creates the virtual environment when the install script didn't.
func (m *mobileraker) ensureEnv(ctx context.Context, d api.ComponentDescriptor) error {
	if exists(filepath.Join(d.EnvDir, "bin", "python")) {
		return nil
	}

	err := m.deps.CreateVirtualEnv(ctx, d.EnvDir)
	if err != nil {
		return err
	}

	return m.deps.InstallRequirements(ctx, d.EnvDir, d.RequirementsFile)
}

// ensureService creates and enables the service when the install script didn't.
func (m *mobileraker) ensureService(ctx context.Context, d api.ComponentDescriptor) error {
	if exists(d.ServiceFile) {
		return nil
	}

	slog.InfoContext(ctx, "Creating service", "unit", d.ServiceFile)

	unit := systemd.Unit{
		Description: "Mobileraker Companion: Push Notification for Mobileraker",
		After:       []string{"moonraker.service"},
		User:        currentUser(),
		ExecStart:   filepath.Join(d.EnvDir, "bin", "python") + " " + filepath.Join(d.Dir, "mobileraker.py"),
	}

	err := m.systemd.CreateUnit(ctx, d.ServiceName, unit)
	if err != nil {
		return err
	}

	return m.systemd.EnableUnit(ctx, true, d.ServiceName)
}

// Update pulls the latest release and refreshes the Python requirements.
func (m *mobileraker) Update(ctx context.Context) error {
	d := m.descriptor()

	if !exists(d.Dir) {
		slog.InfoContext(ctx, d.DisplayName+" does not seem to be installed, skipping")

		return ErrNotInstalled
	}

	slog.InfoContext(ctx, "Updating "+d.DisplayName)

	err := m.systemd.StopUnit(ctx, d.ServiceName)
	if err != nil {
		return err
	}

	err = m.backupDirs(ctx, d.BackupDir, d.Dir, d.EnvDir)
	if err != nil {
		return err
	}

	err = m.git.Pull(ctx, d.Repository, d.Dir, "")
	if err != nil {
		return err
	}

	err = m.deps.InstallRequirements(ctx, d.EnvDir, d.RequirementsFile)
	if err != nil {
		return err
	}

	err = m.systemd.StartUnit(ctx, d.ServiceName)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, d.DisplayName+" updated successfully")

	return nil
}

// Remove deletes every resource of the component, continuing past failures.
func (m *mobileraker) Remove(ctx context.Context) (*api.Report, error) {
	d := m.descriptor()
	report := api.NewReport(d.Name, "remove")

	slog.InfoContext(ctx, "Removing "+d.DisplayName)

	report.Add(m.removePath(ctx, "directory", d.Dir))
	report.Add(m.removePath(ctx, "environment", d.EnvDir))
	report.Add(m.removeService(ctx, d.ServiceName)...)

	klippers := m.finder.Discover(instances.Klipper)
	if len(klippers) == 0 {
		report.Add(api.Skipped("remove logs", "no Klipper instances found"))
	}

	for _, kl := range klippers {
		report.Add(m.removePath(ctx, "log "+kl.DataDirName(), filepath.Join(kl.LogDir, d.LogName)))
	}

	moonrakers := m.finder.Discover(instances.Moonraker)
	if len(moonrakers) == 0 {
		report.Add(api.Skipped("remove ["+d.UpdaterSection+"]", "no Moonraker instances found"))
	}

	report.Add(config.RemoveSectionFromInstances(ctx, moonrakers, d.UpdaterSection)...)

	slog.InfoContext(ctx, report.Summary())

	return report, report.Err()
}

// Status reports whether the checkout, environment and service are present.
func (m *mobileraker) Status(ctx context.Context) api.ComponentStatus {
	d := m.descriptor()

	state := api.StateFromChecks(exists(d.Dir), exists(d.EnvDir), exists(d.ServiceFile))

	services := []string{}
	if exists(d.ServiceFile) {
		services = append(services, d.ServiceName)
	}

	return m.repoStatus(ctx, d.Name, d.Repository, d.Dir, state, len(services), services...)
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}
