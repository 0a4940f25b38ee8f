package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/R3dM0nk3y360/kiauh/internal/runner"
)

func TestClone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "mainsail-config")

	r := runner.NewRecorder()
	g := New(r)

	err := g.Clone(ctx, "https://github.com/mainsail-crew/mainsail-config", dir, "master", false)
	require.NoError(t, err)
	require.Equal(t, []string{
		"git clone https://github.com/mainsail-crew/mainsail-config " + dir,
		"git -C " + dir + " checkout master",
	}, r.Lines())
}

func TestCloneExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "file"), []byte("data"), 0o600)
	require.NoError(t, err)

	r := runner.NewRecorder()
	g := New(r)

	err = g.Clone(ctx, "https://example.com/a/b.git", dir, "", false)
	require.ErrorIs(t, err, ErrTargetExists)
	require.Empty(t, r.Lines())

	err = g.Clone(ctx, "https://example.com/a/b.git", dir, "", true)
	require.NoError(t, err)
	require.NoDirExists(t, dir)
	require.Equal(t, []string{"git clone https://example.com/a/b.git " + dir}, r.Lines())
}

func TestCloneFailure(t *testing.T) {
	t.Parallel()

	errNetwork := errors.New("could not resolve host")

	r := runner.NewRecorder()
	r.Fail("git clone", errNetwork)

	err := New(r).Clone(context.Background(), "https://example.com/a/b.git", filepath.Join(t.TempDir(), "b"), "", false)
	require.ErrorIs(t, err, errNetwork)
}

func TestPull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	r := runner.NewRecorder()
	g := New(r)

	err := g.Pull(ctx, "https://example.com/a/b.git", dir, "main")
	require.ErrorIs(t, err, ErrNotRepository)

	err = os.Mkdir(filepath.Join(dir, ".git"), 0o755)
	require.NoError(t, err)

	err = g.Pull(ctx, "https://example.com/a/b.git", dir, "main")
	require.NoError(t, err)
	require.Equal(t, []string{
		"git -C " + dir + " checkout main",
		"git -C " + dir + " pull --ff-only",
	}, r.Lines())

	r.Output("git -C "+dir+" rev-parse", "abc1234\n")
	require.Equal(t, "abc1234", g.LocalCommit(ctx, dir))
}

func TestRepoName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url      string
		expected string
	}{
		{url: "https://github.com/Clon1998/mobileraker_companion.git", expected: "Clon1998/mobileraker_companion"},
		{url: "https://github.com/QuinnDamerell/OctoPrint-OctoEverywhere", expected: "QuinnDamerell/OctoPrint-OctoEverywhere"},
		{url: "https://github.com/fluidd-core/fluidd-config/", expected: "fluidd-core/fluidd-config"},
		{url: "repo", expected: "repo"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.expected, RepoName(tc.url), tc.url)
	}
}
