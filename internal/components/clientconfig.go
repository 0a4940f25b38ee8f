package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lxc/incus/v6/shared/revert"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/config"
	"github.com/R3dM0nk3y360/kiauh/internal/instances"
	"github.com/R3dM0nk3y360/kiauh/internal/tui"
)

const clientConfigBranch = "master"

var clientConfigs = map[string]struct {
	displayName string
	url         string
	filename    string
}{
	"mainsail-config": {displayName: "Mainsail-Config", url: "https://github.com/mainsail-crew/mainsail-config", filename: "mainsail.cfg"},
	"fluidd-config":   {displayName: "Fluidd-Config", url: "https://github.com/fluidd-core/fluidd-config", filename: "fluidd.cfg"},
}

type clientConfig struct {
	common

	name string
}

func (c *clientConfig) data(name string) api.ClientConfigData {
	info := clientConfigs[name]
	dir := c.home(name)

	return api.ClientConfigData{
		Name:                  name,
		DisplayName:           info.displayName,
		URL:                   info.url,
		Branch:                clientConfigBranch,
		Dir:                   dir,
		ConfigFilename:        info.filename,
		PrinterConfigSection:  "include " + info.filename,
		MoonrakerConfigPath:   dir,
		MoonrakerConfigOrigin: info.url + ".git",
		BackupDir:             c.env.Settings.BackupDir(name),
	}
}

// Descriptor returns the static metadata of the client config.
func (c *clientConfig) Descriptor() any {
	return c.data(c.name)
}

func (*clientConfig) updaterOptions(d api.ClientConfigData) []config.Option {
	return []config.Option{
		{Key: "type", Value: "git_repo"},
		{Key: "primary_branch", Value: d.Branch},
		{Key: "path", Value: d.MoonrakerConfigPath},
		{Key: "origin", Value: d.MoonrakerConfigOrigin},
		{Key: "managed_services", Value: "klipper"},
	}
}

// otherInstalled returns the names of the other client configs present on disk.
func (c *clientConfig) otherInstalled() []string {
	found := []string{}

	for _, name := range []string{"mainsail-config", "fluidd-config"} {
		if name != c.name && exists(c.data(name).Dir) {
			found = append(found, name)
		}
	}

	return found
}

// Install clones the client config and links it into every Klipper instance.
func (c *clientConfig) Install(ctx context.Context) error {
	d := c.data(c.name)

	others := c.otherInstalled()
	if len(others) > 0 {
		slog.WarnContext(ctx, "Another client config is already installed, skipping", "installed", others[0])

		return fmt.Errorf("%w: %s", ErrClientConfigConflict, others[0])
	}

	if exists(d.Dir) {
		c.dialog(tui.DialogWarning, d.DisplayName+" is already installed!")

		ok, err := c.confirm("Re-install "+d.DisplayName+"?", false)
		if err != nil {
			return err
		}

		if !ok {
			return ErrAborted
		}

		err = os.RemoveAll(d.Dir)
		if err != nil {
			return err
		}
	}

	klippers := c.finder.Discover(instances.Klipper)
	moonrakers := c.finder.Discover(instances.Moonraker)

	slog.InfoContext(ctx, "Downloading "+d.DisplayName)

	reverter := revert.New()
	defer reverter.Fail()

	err := c.git.Clone(ctx, d.URL, d.Dir, "", false)
	if err != nil {
		return err
	}

	reverter.Add(func() { _ = os.RemoveAll(d.Dir) })

	err = c.link(ctx, d, klippers)
	if err != nil {
		return err
	}

	reverter.Success()

	if len(moonrakers) == 0 {
		slog.WarnContext(ctx, "No Moonraker instances found, skipping update manager configuration", "component", d.Name)
	}

	err = patchFailures(config.AddSectionToInstances(ctx, moonrakers, d.UpdaterSectionName(), c.updaterOptions(d)))
	if err != nil {
		return err
	}

	if len(klippers) == 0 {
		slog.WarnContext(ctx, "No Klipper instances found, skipping printer configuration", "component", d.Name)

		return nil
	}

	err = patchFailures(config.AddSectionToInstances(ctx, klippers, d.PrinterConfigSection, nil))
	if err != nil {
		return err
	}

	c.restartInstances(ctx, klippers)

	slog.InfoContext(ctx, d.DisplayName+" installation complete")

	return nil
}

// link symlinks the config file into the config directory of each Klipper instance.
func (c *clientConfig) link(ctx context.Context, d api.ClientConfigData, klippers []instances.Instance) error {
	source := filepath.Join(d.Dir, d.ConfigFilename)

	for _, kl := range klippers {
		target := filepath.Join(kl.ConfigDir, d.ConfigFilename)

		current, err := os.Readlink(target)
		if err == nil && current == source {
			continue
		}

		slog.InfoContext(ctx, "Linking config", "source", source, "target", target)

		err = os.MkdirAll(kl.ConfigDir, 0o755)
		if err != nil {
			return err
		}

		_ = os.Remove(target)

		err = os.Symlink(source, target)
		if err != nil {
			return fmt.Errorf("failed to link %s: %w", target, err)
		}
	}

	return nil
}

// Update pulls the config repository. Klipper needs a restart afterwards.
func (c *clientConfig) Update(ctx context.Context) error {
	d := c.data(c.name)

	if !exists(d.Dir) {
		slog.InfoContext(ctx, d.DisplayName+" does not seem to be installed, skipping")

		return ErrNotInstalled
	}

	slog.InfoContext(ctx, "Updating "+d.DisplayName)

	err := c.backupDirs(ctx, d.BackupDir, d.Dir)
	if err != nil {
		return err
	}

	err = c.git.Pull(ctx, d.URL, d.Dir, d.Branch)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Successfully updated "+d.DisplayName)
	slog.WarnContext(ctx, "Remember to restart Klipper to reload the configurations!")

	return nil
}

// Remove deletes the checkout, its links and config sections, continuing past failures.
func (c *clientConfig) Remove(ctx context.Context) (*api.Report, error) {
	d := c.data(c.name)
	report := api.NewReport(d.Name, "remove")

	slog.InfoContext(ctx, "Removing "+d.DisplayName)

	report.Add(c.removePath(ctx, "directory", d.Dir))

	klippers := c.finder.Discover(instances.Klipper)
	if len(klippers) == 0 {
		report.Add(api.Skipped("remove links", "no Klipper instances found"))
	}

	for _, kl := range klippers {
		report.Add(c.unlink(ctx, filepath.Join(kl.ConfigDir, d.ConfigFilename)))
	}

	moonrakers := c.finder.Discover(instances.Moonraker)
	if len(moonrakers) == 0 {
		report.Add(api.Skipped("remove ["+d.UpdaterSectionName()+"]", "no Moonraker instances found"))
	}

	report.Add(config.RemoveSectionFromInstances(ctx, moonrakers, d.UpdaterSectionName())...)
	report.Add(config.RemoveSectionFromInstances(ctx, klippers, d.PrinterConfigSection)...)

	slog.InfoContext(ctx, report.Summary())

	return report, report.Err()
}

// unlink removes a symlink, leaving regular files in place.
func (c *clientConfig) unlink(ctx context.Context, path string) api.StepResult {
	step := "remove link " + path

	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return api.Skipped(step, "link not found")
		}

		return api.Failed(step, err)
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return api.Skipped(step, "not a symlink")
	}

	return c.removePath(ctx, "link "+path, path)
}

// Status reports whether the checkout is present.
func (c *clientConfig) Status(ctx context.Context) api.ComponentStatus {
	d := c.data(c.name)

	links := 0

	for _, kl := range c.finder.Discover(instances.Klipper) {
		_, err := os.Readlink(filepath.Join(kl.ConfigDir, d.ConfigFilename))
		if err == nil {
			links++
		}
	}

	return c.repoStatus(ctx, d.Name, d.URL, d.Dir, api.StateFromChecks(exists(d.Dir)), links)
}
