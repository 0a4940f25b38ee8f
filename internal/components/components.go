// Package components implements the install, update, remove and status
// flows of the supported printer companions.
package components

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/backup"
	"github.com/R3dM0nk3y360/kiauh/internal/runner"
	"github.com/R3dM0nk3y360/kiauh/internal/settings"
)

var (
	// ErrUnknownComponent is returned by Load for names it doesn't know.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrClientConfigConflict is returned when another client config is already installed.
	ErrClientConfigConflict = errors.New("another client config is already installed")

	// ErrNoMoonraker is returned when a component can't work without a Moonraker instance.
	ErrNoMoonraker = errors.New("no Moonraker instance found")

	// ErrAborted is returned when the user declines a confirmation.
	ErrAborted = errors.New("aborted by user")

	// ErrNotInstalled is returned when updating a component that isn't present.
	ErrNotInstalled = errors.New("component isn't installed")
)

// Component is an installable printer companion.
type Component interface {
	Install(ctx context.Context) error
	Update(ctx context.Context) error
	Remove(ctx context.Context) (*api.Report, error)
	Status(ctx context.Context) api.ComponentStatus
	Descriptor() any
}

// Env holds everything a component needs to touch the system.
type Env struct {
	Home       string
	SystemdDir string

	Runner   runner.Runner
	Prompter Prompter
	Settings settings.Settings
	Backups  *backup.Manager

	// Output receives dialogs, defaults to discarding them.
	Output io.Writer
}

// ValidNames lists every component Load knows about.
var ValidNames = []string{"mobileraker", "octoeverywhere", "mainsail-config", "fluidd-config"}

// Load returns the component with the given name.
func Load(env *Env, name string) (Component, error) {
	var c Component

	switch name {
	case "mobileraker":
		c = &mobileraker{common: newCommon(env)}
	case "octoeverywhere":
		c = &octoEverywhere{common: newCommon(env)}
	case "mainsail-config", "fluidd-config":
		c = &clientConfig{common: newCommon(env), name: name}
	default:
		return nil, ErrUnknownComponent
	}

	return c, nil
}

// IsWarning reports whether err only describes a skipped action rather than a failure.
func IsWarning(err error) bool {
	return slices.ContainsFunc([]error{ErrClientConfigConflict, ErrNoMoonraker, ErrAborted, ErrNotInstalled}, func(target error) bool {
		return errors.Is(err, target)
	})
}
