// Package backup copies component directories aside before destructive updates.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/lxc/incus/v6/shared/revert"
)

// skipNames are never copied into a backup.
var skipNames = []string{"__pycache__"}

// timestampLayout is appended to the backup directory name.
const timestampLayout = "20060102-150405"

// Manager creates timestamped directory backups.
type Manager struct {
	now func() time.Time
}

// NewManager returns a Manager using the current time.
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// Directory copies source to target/<name>-<timestamp> and returns the path
// of the new backup. If source doesn't exist, nothing is created and an empty
// path is returned.
func (m *Manager) Directory(ctx context.Context, name string, source string, target string) (string, error) {
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.InfoContext(ctx, "Nothing to back up", "name", name, "source", source)

			return "", nil
		}

		return "", err
	}

	if !info.IsDir() {
		return "", fmt.Errorf("backup source %s isn't a directory", source)
	}

	dest := filepath.Join(target, name+"-"+m.now().Format(timestampLayout))

	_, err = os.Stat(dest)
	if err == nil {
		return "", fmt.Errorf("backup target %s already exists", dest)
	}

	slog.InfoContext(ctx, "Creating backup", "name", name, "source", source, "target", dest)

	reverter := revert.New()
	defer reverter.Fail()

	err = os.MkdirAll(target, 0o755)
	if err != nil {
		return "", err
	}

	reverter.Add(func() { _ = os.RemoveAll(dest) })

	err = copyTree(source, dest)
	if err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", source, err)
	}

	reverter.Success()

	return dest, nil
}

// copyTree recursively copies src to dst, keeping file modes and symlinks.
func copyTree(src string, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if slices.Contains(skipNames, d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}

			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			// Sockets, devices and pipes aren't backed up.
			return nil
		}
	})
}

func copyFile(src string, dst string, mode fs.FileMode) error {
	in, err := os.Open(src) //nolint:gosec
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode) //nolint:gosec
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
