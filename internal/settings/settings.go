// Package settings reads the kiauh.cfg global settings file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ini/ini"
)

// Filename is the default settings file name, looked up in the user's home.
const Filename = "kiauh.cfg"

const sectionName = "kiauh"

// Settings holds the global behaviour switches.
type Settings struct {
	BackupBeforeUpdate bool   `ini:"backup_before_update" yaml:"backup_before_update"`
	BackupRoot         string `ini:"backup_root"          yaml:"backup_root"`
}

// Default returns the settings used when no file is present.
func Default(home string) Settings {
	return Settings{
		BackupBeforeUpdate: false,
		BackupRoot:         filepath.Join(home, "kiauh-backups"),
	}
}

// BackupDir returns the backup location for a component.
func (s Settings) BackupDir(name string) string {
	return filepath.Join(s.BackupRoot, name+"-backups")
}

// Load reads settings from path. A missing file yields the defaults.
func Load(path string, home string) (Settings, error) {
	s := Default(home)

	_, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}

		return s, err
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return s, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if !cfg.HasSection(sectionName) {
		return s, nil
	}

	section := cfg.Section(sectionName)

	if section.HasKey("backup_before_update") {
		s.BackupBeforeUpdate, err = section.Key("backup_before_update").Bool()
		if err != nil {
			return s, fmt.Errorf("invalid backup_before_update value in %s: %w", path, err)
		}
	}

	root := section.Key("backup_root").String()
	if root != "" {
		s.BackupRoot = expandHome(root, home)
	}

	return s, nil
}

func expandHome(path string, home string) string {
	if path == "~" {
		return home
	}

	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(home, path[2:])
	}

	return path
}
