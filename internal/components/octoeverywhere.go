package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lxc/incus/v6/shared/revert"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/config"
	"github.com/R3dM0nk3y360/kiauh/internal/deps"
	"github.com/R3dM0nk3y360/kiauh/internal/instances"
	"github.com/R3dM0nk3y360/kiauh/internal/tui"
)

const octoEverywhereRepo = "https://github.com/QuinnDamerell/OctoPrint-OctoEverywhere"

type octoEverywhere struct {
	common
}

func (o *octoEverywhere) descriptor() api.ComponentDescriptor {
	dir := o.home("octoeverywhere")

	return api.ComponentDescriptor{
		Name:             "octoeverywhere",
		DisplayName:      "OctoEverywhere for Klipper",
		Repository:       octoEverywhereRepo,
		Dir:              dir,
		EnvDir:           o.home("octoeverywhere-env"),
		RequirementsFile: filepath.Join(dir, "requirements.txt"),
		InstallScript:    filepath.Join(dir, "install.sh"),
		UpdateScript:     filepath.Join(dir, "update.sh"),
		DependencyFile:   filepath.Join(dir, "moonraker-system-dependencies.json"),
		ServiceName:      instances.OctoEverywhere.Name,
		UpdaterSection:   "include octoeverywhere-system.cfg",
		LogName:          instances.OctoEverywhere.LogFile,
		InstallerLog:     o.home("octoeverywhere-installer.log"),
		BackupDir:        o.env.Settings.BackupDir("octoeverywhere"),
	}
}

// Descriptor returns the static metadata of the component.
func (o *octoEverywhere) Descriptor() any {
	return o.descriptor()
}

// Install links one OctoEverywhere instance to every Moonraker instance.
func (o *octoEverywhere) Install(ctx context.Context) error {
	d := o.descriptor()

	slog.InfoContext(ctx, "Installing "+d.DisplayName)

	moonrakers := o.finder.Discover(instances.Moonraker)
	if len(moonrakers) == 0 {
		o.dialog(tui.DialogWarning,
			"No Moonraker instances found!",
			d.DisplayName+" requires Moonraker to be installed. Please install Moonraker first!",
		)

		return ErrNoMoonraker
	}

	force := false

	if len(o.finder.Discover(instances.OctoEverywhere)) > 0 {
		o.dialog(tui.DialogInfo,
			"OctoEverywhere is already installed!",
			"It is safe to run the installer again to link your printer or repair any issues.",
		)

		ok, err := o.confirm("Re-run OctoEverywhere installation?", true)
		if err != nil {
			return err
		}

		if !ok {
			return ErrAborted
		}

		force = true
	}

	if len(moonrakers) > 1 {
		lines := []string{"The following Moonraker instances were found:"}
		for _, mr := range moonrakers {
			lines = append(lines, "● "+mr.DataDirName())
		}

		lines = append(lines, "", "The setup will apply the same names to OctoEverywhere!")
		o.dialog(tui.DialogInfo, lines...)
	}

	ok, err := o.confirm("Continue "+d.DisplayName+" installation?", true)
	if err != nil {
		return err
	}

	if !ok {
		return ErrAborted
	}

	reverter := revert.New()
	defer reverter.Fail()

	err = o.git.Clone(ctx, d.Repository, d.Dir, "", force || exists(d.Dir))
	if err != nil {
		return err
	}

	reverter.Add(func() { _ = os.RemoveAll(d.Dir) })

	err = o.installDependencies(ctx, d)
	if err != nil {
		return err
	}

	for _, mr := range moonrakers {
		inst := o.finder.New(instances.OctoEverywhere, mr.Suffix)

		slog.InfoContext(ctx, "Creating instance", "unit", inst.ServiceName, "moonraker", mr.ConfigFile())

		err = o.env.Runner.RunInteractive(ctx, d.Dir, d.InstallScript, mr.ConfigFile())
		if err != nil {
			return fmt.Errorf("failed to create instance %s: %w", inst.ServiceName, err)
		}

		if !inst.Exists() {
			slog.WarnContext(ctx, "The installer didn't create the service unit", "unit", inst.ServiceName)
		}
	}

	reverter.Success()

	o.restartInstances(ctx, moonrakers)

	o.dialog(tui.DialogSuccess, d.DisplayName+" successfully installed!")

	return nil
}

func (o *octoEverywhere) installDependencies(ctx context.Context, d api.ComponentDescriptor) error {
	packages, err := deps.LoadPackageList(d.DependencyFile, d.InstallScript)
	if err != nil {
		return fmt.Errorf("error reading %s dependencies: %w", d.DisplayName, err)
	}

	err = o.deps.InstallSystemPackages(ctx, packages)
	if err != nil {
		return err
	}

	err = o.deps.CreateVirtualEnv(ctx, d.EnvDir)
	if err != nil {
		return err
	}

	return o.deps.InstallRequirements(ctx, d.EnvDir, d.RequirementsFile)
}

// Update pulls the latest release and runs the bundled update script.
func (o *octoEverywhere) Update(ctx context.Context) error {
	d := o.descriptor()

	if !exists(d.Dir) {
		slog.InfoContext(ctx, d.DisplayName+" does not seem to be installed, skipping")

		return ErrNotInstalled
	}

	slog.InfoContext(ctx, "Updating "+d.DisplayName)

	err := o.backupDirs(ctx, d.BackupDir, d.Dir, d.EnvDir)
	if err != nil {
		return err
	}

	err = o.git.Pull(ctx, d.Repository, d.Dir, "")
	if err != nil {
		return err
	}

	err = o.installDependencies(ctx, d)
	if err != nil {
		return err
	}

	err = o.env.Runner.RunInteractive(ctx, d.Dir, d.UpdateScript)
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", d.UpdateScript, err)
	}

	o.dialog(tui.DialogSuccess, d.DisplayName+" successfully updated!")

	return nil
}

// Remove deletes every instance and resource of the component, continuing past failures.
func (o *octoEverywhere) Remove(ctx context.Context) (*api.Report, error) {
	d := o.descriptor()
	report := api.NewReport(d.Name, "remove")

	slog.InfoContext(ctx, "Removing "+d.DisplayName)

	list := o.finder.Discover(instances.OctoEverywhere)
	if len(list) == 0 {
		slog.InfoContext(ctx, "No OctoEverywhere instances found, skipping")
		report.Add(api.Skipped("remove instances", "no instances found"))
	}

	for _, inst := range list {
		report.Add(o.systemd.RemoveService(ctx, inst.ServiceName)...)

		logs, _ := filepath.Glob(filepath.Join(inst.LogDir, "octoeverywhere*.log"))
		for _, log := range logs {
			report.Add(o.removePath(ctx, "log "+filepath.Base(log), log))
		}
	}

	if len(list) > 0 {
		report.Add(o.reloadDaemon(ctx)...)
	}

	report.Add(o.removePath(ctx, "directory", d.Dir))
	report.Add(o.removePath(ctx, "environment", d.EnvDir))

	moonrakers := o.finder.Discover(instances.Moonraker)
	if len(moonrakers) == 0 {
		report.Add(api.Skipped("remove ["+d.UpdaterSection+"]", "no Moonraker instances found"))
	}

	report.Add(config.RemoveSectionFromInstances(ctx, moonrakers, d.UpdaterSection)...)
	report.Add(o.removePath(ctx, "installer log", d.InstallerLog))

	slog.InfoContext(ctx, report.Summary())

	return report, report.Err()
}

// Status reports whether the checkout, environment and at least one instance are present.
func (o *octoEverywhere) Status(ctx context.Context) api.ComponentStatus {
	d := o.descriptor()
	list := o.finder.Discover(instances.OctoEverywhere)

	state := api.StateFromChecks(exists(d.Dir), exists(d.EnvDir), len(list) > 0)

	services := make([]string, 0, len(list))
	for _, inst := range list {
		services = append(services, inst.ServiceName)
	}

	return o.repoStatus(ctx, d.Name, d.Repository, d.Dir, state, len(list), services...)
}
