package deps

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// dependencyManifest is the part of a dependency manifest kiauh reads. Other
// platforms and keys are ignored.
type dependencyManifest struct {
	Debian []string `json:"debian"`
}

// LoadPackageList returns the system packages required by a component. The
// JSON manifest is preferred; when it doesn't exist the install script is
// scanned instead. ErrNoDependencies is returned if neither yields any name.
func LoadPackageList(manifest string, script string) ([]string, error) {
	var (
		names []string
		err   error
	)

	_, statErr := os.Stat(manifest)

	switch {
	case manifest != "" && statErr == nil:
		names, err = parseManifest(manifest)
	case script != "":
		names, err = ParsePackagesFromScript(script)
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
	}

	if err != nil {
		return nil, err
	}

	names = unique(names)
	if len(names) == 0 {
		return nil, ErrNoDependencies
	}

	return names, nil
}

func parseManifest(path string) ([]string, error) {
	body, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, err
	}

	manifest := dependencyManifest{}

	err = json.Unmarshal(body, &manifest)
	if err != nil {
		return nil, fmt.Errorf("invalid dependency manifest %s: %w", path, err)
	}

	return manifest.Debian, nil
}

// ParsePackagesFromScript extracts package names from an install script. It
// understands PKGLIST="..." assignments (including PKGLIST="${PKGLIST} ...")
// and literal apt/apt-get install invocations.
func ParsePackagesFromScript(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := []string{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "PKGLIST="):
			line = strings.TrimPrefix(line, "PKGLIST=")
			line = strings.ReplaceAll(line, "${PKGLIST}", "")
			line = strings.ReplaceAll(line, "$PKGLIST", "")
			line = strings.Trim(line, `"'`)

			names = append(names, strings.Fields(line)...)
		default:
			names = append(names, parseInstallInvocation(line)...)
		}
	}

	err = scanner.Err()
	if err != nil {
		return nil, err
	}

	return names, nil
}

// parseInstallInvocation returns the literal package names of an
// "apt-get install" or "apt install" command line.
func parseInstallInvocation(line string) []string {
	fields := strings.Fields(line)

	start := -1

	for i := 0; i+1 < len(fields); i++ {
		if (fields[i] == "apt-get" || fields[i] == "apt") && fields[i+1] == "install" {
			start = i + 2

			break
		}
	}

	if start < 0 {
		return nil
	}

	names := []string{}

	for _, field := range fields[start:] {
		// Stop at the end of the command.
		if field == "&&" || field == "||" || field == ";" || field == "|" || strings.HasPrefix(field, ">") {
			break
		}

		// Skip options and variables.
		if strings.HasPrefix(field, "-") || strings.Contains(field, "$") {
			continue
		}

		names = append(names, strings.Trim(field, `"'`))
	}

	return names
}
