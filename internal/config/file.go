package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/instances"
)

// Load reads and parses a configuration file.
func Load(path string) (*Document, error) {
	body, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, err
	}

	return Parse(body), nil
}

// Save writes the document to path, keeping the permissions of an existing file.
func Save(path string, d *Document) error {
	mode := os.FileMode(0o644)

	info, err := os.Stat(path)
	if err == nil {
		mode = info.Mode().Perm()
	}

	return os.WriteFile(path, d.Bytes(), mode)
}

// HasSection reports whether the file at path contains the named section.
func HasSection(path string, name string) bool {
	d, err := Load(path)
	if err != nil {
		return false
	}

	return d.HasSection(name)
}

// AddSection makes the named section of the file at path hold the given
// options. A missing file or an already matching section is skipped.
func AddSection(ctx context.Context, path string, name string, options []Option) api.StepResult {
	step := fmt.Sprintf("add [%s] to %s", name, path)

	d, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "Config file not found, skipping", "file", path)

			return api.Skipped(step, "file not found")
		}

		return api.Failed(step, err)
	}

	existed := d.HasSection(name)

	if !d.Set(name, options) {
		slog.InfoContext(ctx, "Section already present, skipping", "section", name, "file", path)

		return api.Skipped(step, "section already present")
	}

	err = Save(path, d)
	if err != nil {
		return api.Failed(step, err)
	}

	if existed {
		slog.InfoContext(ctx, "Section updated", "section", name, "file", path)

		return api.OK(step, "section updated")
	}

	slog.InfoContext(ctx, "Section added", "section", name, "file", path)

	return api.OK(step, "section added")
}

// RemoveSection deletes the named section from the file at path. A missing
// file or section is skipped.
func RemoveSection(ctx context.Context, path string, name string) api.StepResult {
	step := fmt.Sprintf("remove [%s] from %s", name, path)

	d, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return api.Skipped(step, "file not found")
		}

		return api.Failed(step, err)
	}

	if !d.Remove(name) {
		return api.Skipped(step, "section not found")
	}

	err = Save(path, d)
	if err != nil {
		return api.Failed(step, err)
	}

	slog.InfoContext(ctx, "Section removed", "section", name, "file", path)

	return api.OK(step, "section removed")
}

// AddSectionToInstances runs AddSection on the main config file of every instance.
func AddSectionToInstances(ctx context.Context, list []instances.Instance, name string, options []Option) []api.StepResult {
	results := make([]api.StepResult, 0, len(list))

	for _, inst := range list {
		results = append(results, AddSection(ctx, inst.ConfigFile(), name, options))
	}

	return results
}

// RemoveSectionFromInstances runs RemoveSection on the main config file of every instance.
func RemoveSectionFromInstances(ctx context.Context, list []instances.Instance, name string) []api.StepResult {
	results := make([]api.StepResult, 0, len(list))

	for _, inst := range list {
		results = append(results, RemoveSection(ctx, inst.ConfigFile(), name))
	}

	return results
}
