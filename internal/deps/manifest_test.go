package deps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var installScript = `#!/bin/bash
# Packages needed by the plugin.
PKGLIST="python3 python3-pip"
PKGLIST="${PKGLIST} virtualenv curl"
# PKGLIST="ignored"

install_extra() {
    sudo apt-get install -y --no-install-recommends jq zlib1g-dev "$EXTRA" && echo done
    apt install ffmpeg > /dev/null
}
`

func writeFile(t *testing.T, path string, content string) {
	t.Helper()

	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
}

func TestParsePackagesFromScript(t *testing.T) {
	t.Parallel()

	script := filepath.Join(t.TempDir(), "install.sh")
	writeFile(t, script, installScript)

	names, err := ParsePackagesFromScript(script)
	require.NoError(t, err)
	require.Equal(t, []string{"python3", "python3-pip", "virtualenv", "curl", "jq", "zlib1g-dev", "ffmpeg"}, names)
}

func TestLoadPackageList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "moonraker-system-dependencies.json")
	script := filepath.Join(dir, "install.sh")

	// Neither source present.
	_, err := LoadPackageList(manifest, script)
	require.ErrorIs(t, err, ErrNoDependencies)

	// Script fallback.
	writeFile(t, script, installScript)

	names, err := LoadPackageList(manifest, script)
	require.NoError(t, err)
	require.Equal(t, []string{"curl", "ffmpeg", "jq", "python3", "python3-pip", "virtualenv", "zlib1g-dev"}, names)

	// Manifest wins over the script.
	writeFile(t, manifest, `{"debian": ["python3-venv", "libjpeg-dev", "python3-venv"], "arch": ["python"]}`)

	names, err = LoadPackageList(manifest, script)
	require.NoError(t, err)
	require.Equal(t, []string{"libjpeg-dev", "python3-venv"}, names)

	// Unrelated keys of any type are ignored.
	writeFile(t, manifest, `{"debian": ["python3-venv", "curl"], "version": 2, "notes": {"x": "y"}}`)

	names, err = LoadPackageList(manifest, script)
	require.NoError(t, err)
	require.Equal(t, []string{"curl", "python3-venv"}, names)

	// Manifest without a debian list is a configuration error.
	writeFile(t, manifest, `{"arch": ["python"]}`)

	_, err = LoadPackageList(manifest, script)
	require.ErrorIs(t, err, ErrNoDependencies)

	// Broken manifest.
	writeFile(t, manifest, `{"debian": `)

	_, err = LoadPackageList(manifest, script)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoDependencies)
}
