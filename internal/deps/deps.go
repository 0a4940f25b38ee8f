// Package deps installs system packages and Python virtual environments.
package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/R3dM0nk3y360/kiauh/internal/runner"
)

// ErrNoDependencies is returned when no dependency list could be found for a component.
var ErrNoDependencies = errors.New("no dependency list found")

var pythonVersionRegex = regexp.MustCompile(`Python (\d+)\.(\d+)`)

// Installer drives the OS package manager and Python tooling.
type Installer struct {
	runner runner.Runner
}

// New returns an Installer using the given runner.
func New(r runner.Runner) *Installer {
	return &Installer{runner: r}
}

// MissingPackages returns the sorted, de-duplicated subset of names that isn't installed.
func (i *Installer) MissingPackages(ctx context.Context, names []string) []string {
	missing := []string{}

	for _, name := range unique(names) {
		out, err := i.runner.Run(ctx, "dpkg-query", "-f${Status}", "--show", name)
		if err != nil || !slices.Contains(strings.Fields(strings.Trim(out, "'")), "installed") {
			missing = append(missing, name)
		}
	}

	return missing
}

// InstallSystemPackages installs whichever of names isn't already installed.
func (i *Installer) InstallSystemPackages(ctx context.Context, names []string) error {
	missing := i.MissingPackages(ctx, names)
	if len(missing) == 0 {
		slog.InfoContext(ctx, "All system dependencies are already installed")

		return nil
	}

	slog.InfoContext(ctx, "Installing system dependencies", "packages", strings.Join(missing, " "))

	_, err := i.runner.RunPrivileged(ctx, "apt-get", "update", "--allow-releaseinfo-change")
	if err != nil {
		return fmt.Errorf("failed to update package lists: %w", err)
	}

	args := append([]string{"install", "-y"}, missing...)

	_, err = i.runner.RunPrivileged(ctx, "apt-get", args...)
	if err != nil {
		return fmt.Errorf("failed to install system packages: %w", err)
	}

	return nil
}

// CheckPythonVersion verifies that the system python3 is at least major.minor.
func (i *Installer) CheckPythonVersion(ctx context.Context, major int, minor int) error {
	out, err := i.runner.Run(ctx, "python3", "--version")
	if err != nil {
		return fmt.Errorf("unable to determine python version: %w", err)
	}

	m := pythonVersionRegex.FindStringSubmatch(out)
	if m == nil {
		return fmt.Errorf("unable to parse python version from %q", strings.TrimSpace(out))
	}

	gotMajor, _ := strconv.Atoi(m[1])
	gotMinor, _ := strconv.Atoi(m[2])

	if gotMajor < major || (gotMajor == major && gotMinor < minor) {
		return fmt.Errorf("python %d.%d or newer is required, found %d.%d", major, minor, gotMajor, gotMinor)
	}

	return nil
}

// CreateVirtualEnv creates a Python virtual environment in envDir unless one already exists.
func (i *Installer) CreateVirtualEnv(ctx context.Context, envDir string) error {
	_, err := os.Stat(filepath.Join(envDir, "bin", "python"))
	if err == nil {
		slog.InfoContext(ctx, "Virtual environment already exists", "dir", envDir)

		return nil
	}

	slog.InfoContext(ctx, "Creating virtual environment", "dir", envDir)

	_, err = i.runner.Run(ctx, "virtualenv", "-p", "/usr/bin/python3", envDir)
	if err != nil {
		return fmt.Errorf("failed to create virtual environment %s: %w", envDir, err)
	}

	return nil
}

// InstallRequirements installs a requirements file into the virtual environment.
func (i *Installer) InstallRequirements(ctx context.Context, envDir string, requirementsFile string) error {
	pip := filepath.Join(envDir, "bin", "pip")

	slog.InfoContext(ctx, "Installing Python requirements", "env", envDir, "requirements", requirementsFile)

	_, err := i.runner.Run(ctx, pip, "install", "-U", "pip")
	if err != nil {
		return fmt.Errorf("failed to update pip: %w", err)
	}

	_, err = i.runner.Run(ctx, pip, "install", "-r", requirementsFile)
	if err != nil {
		return fmt.Errorf("failed to install requirements from %s: %w", requirementsFile, err)
	}

	return nil
}

func unique(names []string) []string {
	ret := []string{}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(ret, name) {
			continue
		}

		ret = append(ret, name)
	}

	slices.Sort(ret)

	return ret
}
