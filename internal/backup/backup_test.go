package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedManager() *Manager {
	return &Manager{now: func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }}
}

func TestDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := filepath.Join(t.TempDir(), "mobileraker_companion")
	target := filepath.Join(t.TempDir(), "mobileraker-backups")

	require.NoError(t, os.MkdirAll(filepath.Join(source, "scripts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(source, "__pycache__"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "mobileraker.py"), []byte("print()"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "scripts", "install.sh"), []byte("#!/bin/sh"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "__pycache__", "x.pyc"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink("mobileraker.py", filepath.Join(source, "link.py")))

	dest, err := fixedManager().Directory(ctx, "mobileraker_companion", source, target)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(target, "mobileraker_companion-20240309-140507"), dest)

	content, err := os.ReadFile(filepath.Join(dest, "mobileraker.py"))
	require.NoError(t, err)
	require.Equal(t, "print()", string(content))

	info, err := os.Stat(filepath.Join(dest, "scripts", "install.sh"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	link, err := os.Readlink(filepath.Join(dest, "link.py"))
	require.NoError(t, err)
	require.Equal(t, "mobileraker.py", link)

	require.NoDirExists(t, filepath.Join(dest, "__pycache__"))

	// A second backup in the same second is refused.
	_, err = fixedManager().Directory(ctx, "mobileraker_companion", source, target)
	require.Error(t, err)
}

func TestDirectoryMissingSource(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "backups")

	dest, err := fixedManager().Directory(context.Background(), "octoeverywhere", filepath.Join(t.TempDir(), "missing"), target)
	require.NoError(t, err)
	require.Empty(t, dest)
	require.NoDirExists(t, target)
}
