// Package git wraps the git command line for cloning and updating repositories.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/R3dM0nk3y360/kiauh/internal/runner"
)

var (
	// ErrTargetExists is returned when cloning into a non-empty directory without force.
	ErrTargetExists = errors.New("target directory already exists")

	// ErrNotRepository is returned when pulling into a directory that isn't a git checkout.
	ErrNotRepository = errors.New("not a git repository")
)

// Git runs git commands through a Runner.
type Git struct {
	runner runner.Runner
}

// New returns a Git using the given runner.
func New(r runner.Runner) *Git {
	return &Git{runner: r}
}

// Clone clones url into dir, optionally checking out branch. If dir is a
// non-empty directory, Clone fails unless force is set, in which case the
// directory is deleted first.
func (g *Git) Clone(ctx context.Context, url string, dir string, branch string, force bool) error {
	if !isEmptyDir(dir) {
		if !force {
			return fmt.Errorf("%w: %s", ErrTargetExists, dir)
		}

		slog.InfoContext(ctx, "Removing existing checkout before cloning", "dir", dir)

		err := os.RemoveAll(dir)
		if err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Cloning repository", "url", url, "dir", dir)

	_, err := g.runner.Run(ctx, "git", "clone", url, dir)
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}

	if branch != "" {
		_, err = g.runner.Run(ctx, "git", "-C", dir, "checkout", branch)
		if err != nil {
			return fmt.Errorf("failed to checkout branch %q: %w", branch, err)
		}
	}

	return nil
}

// Pull updates the checkout in dir from its origin.
func (g *Git) Pull(ctx context.Context, url string, dir string, branch string) error {
	if !IsRepository(dir) {
		return fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}

	slog.InfoContext(ctx, "Updating repository", "url", url, "dir", dir, "branch", branch)

	if branch != "" {
		_, err := g.runner.Run(ctx, "git", "-C", dir, "checkout", branch)
		if err != nil {
			return fmt.Errorf("failed to checkout branch %q: %w", branch, err)
		}
	}

	_, err := g.runner.Run(ctx, "git", "-C", dir, "pull", "--ff-only")
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", url, err)
	}

	return nil
}

// LocalCommit returns the short hash of the checked out commit, or an empty
// string if it can't be determined.
func (g *Git) LocalCommit(ctx context.Context, dir string) string {
	if !IsRepository(dir) {
		return ""
	}

	out, err := g.runner.Run(ctx, "git", "-C", dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return ""
	}

	return strings.TrimSpace(out)
}

// IsRepository reports whether dir is a git checkout.
func IsRepository(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))

	return err == nil
}

// RepoName returns the "owner/repo" part of a repository URL.
func RepoName(url string) string {
	name := strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")

	parts := strings.Split(name, "/")
	if len(parts) < 2 {
		return name
	}

	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

func isEmptyDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}

	return len(entries) == 0
}
