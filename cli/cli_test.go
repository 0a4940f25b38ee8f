package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ghapi "github.com/google/go-github/v72/github"
	"github.com/stretchr/testify/require"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/runner"
)

type result struct {
	stdout string
	rec    *runner.Recorder
	err    error
}

func execute(t *testing.T, home string, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer

	rec := runner.NewRecorder()

	cmd := NewCommand(&Args{
		Runner: rec,
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})

	cmd.SetArgs(append([]string{"--home", home, "--systemd-dir", filepath.Join(home, "systemd")}, args...))

	err := cmd.ExecuteContext(context.Background())

	return result{stdout: stdout.String(), rec: rec, err: err}
}

func TestList(t *testing.T) {
	t.Parallel()

	res := execute(t, t.TempDir(), "", "list", "--format", "csv")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "mainsail-config,Mainsail-Config,https://github.com/mainsail-crew/mainsail-config\n")
	require.Contains(t, res.stdout, "mobileraker,Mobileraker's companion,https://github.com/Clon1998/mobileraker_companion.git\n")
}

func TestStatus(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "mobileraker_companion"), 0o755))

	res := execute(t, home, "", "status", "mobileraker", "--format", "json")
	require.NoError(t, res.err)

	var statuses []api.ComponentStatus

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &statuses))
	require.Len(t, statuses, 1)
	require.Equal(t, "mobileraker", statuses[0].Name)
	require.Equal(t, api.InstallStateIncomplete, statuses[0].State)

	res = execute(t, home, "", "status", "klipperscreen")
	require.ErrorContains(t, res.err, "unknown component")
}

func TestStatusRemote(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/Clon1998/mobileraker_companion/branches/main", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"name": "main", "commit": {"sha": "3f2c1d9e8a7b6c5d"}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gh := ghapi.NewClient(nil)

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)

	gh.BaseURL = base

	var stdout bytes.Buffer

	home := t.TempDir()

	cmd := NewCommand(&Args{Runner: runner.NewRecorder(), Stdin: strings.NewReader(""), Stdout: &stdout, Stderr: &bytes.Buffer{}, GitHub: gh})
	cmd.SetArgs([]string{"--home", home, "--systemd-dir", home, "status", "mobileraker", "--remote", "--format", "json"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var statuses []api.ComponentStatus

	require.NoError(t, json.Unmarshal(stdout.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	require.Equal(t, "3f2c1d9", statuses[0].RemoteCommit)
	require.Equal(t, api.InstallStateNotInstalled, statuses[0].State)
}

func TestShow(t *testing.T) {
	t.Parallel()

	home := t.TempDir()

	res := execute(t, home, "", "show", "octoeverywhere")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "repository: https://github.com/QuinnDamerell/OctoPrint-OctoEverywhere\n")
	require.Contains(t, res.stdout, "dir: "+filepath.Join(home, "octoeverywhere")+"\n")
}

func TestRemove(t *testing.T) {
	t.Parallel()

	t.Run("declined", func(t *testing.T) {
		t.Parallel()

		home := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(home, "mobileraker_companion"), 0o755))

		res := execute(t, home, "no\n", "remove", "mobileraker")
		require.NoError(t, res.err)
		require.Empty(t, res.stdout)
		require.DirExists(t, filepath.Join(home, "mobileraker_companion"))
	})

	t.Run("never installed", func(t *testing.T) {
		t.Parallel()

		res := execute(t, t.TempDir(), "", "remove", "--yes", "mobileraker")
		require.NoError(t, res.err)
		require.Contains(t, res.stdout, "remove mobileraker: 0 ok")
		require.Contains(t, res.stdout, "0 failed\n")
		require.Empty(t, res.rec.Commands)
	})
}

func TestInstallClientConfigConflict(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "fluidd-config"), 0o755))

	res := execute(t, home, "", "install", "--yes", "mainsail-config")
	require.NoError(t, res.err)
	require.NoDirExists(t, filepath.Join(home, "mainsail-config"))
	require.Empty(t, res.rec.Commands)
}

func TestFlags(t *testing.T) {
	t.Parallel()

	res := execute(t, t.TempDir(), "", "update", "--backup", "--no-backup", "mobileraker")
	require.Error(t, res.err)

	res = execute(t, t.TempDir(), "", "install", "klipperscreen")
	require.ErrorContains(t, res.err, "unknown component")
}

func TestSettingsOverride(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "kiauh.cfg"), []byte("[kiauh]\nbackup_before_update: true\n"), 0o644))

	c := cmdGlobal{args: &Args{}, flagHome: home}

	s, err := c.settings()
	require.NoError(t, err)
	require.True(t, s.BackupBeforeUpdate)

	c.flagNoBackup = true

	s, err = c.settings()
	require.NoError(t, err)
	require.False(t, s.BackupBeforeUpdate)
}
