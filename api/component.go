package api

// ComponentDescriptor holds the static metadata of an installable companion.
type ComponentDescriptor struct {
	Name        string `json:"name"         yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`

	Repository string `json:"repository" yaml:"repository"`
	Branch     string `json:"branch"     yaml:"branch"`

	Dir              string `json:"dir"               yaml:"dir"`
	EnvDir           string `json:"env_dir"           yaml:"env_dir"`
	RequirementsFile string `json:"requirements_file" yaml:"requirements_file"`
	InstallScript    string `json:"install_script"    yaml:"install_script"`
	UpdateScript     string `json:"update_script"     yaml:"update_script,omitempty"`
	DependencyFile   string `json:"dependency_file"   yaml:"dependency_file,omitempty"`

	ServiceName string `json:"service_name" yaml:"service_name,omitempty"`
	ServiceFile string `json:"service_file" yaml:"service_file,omitempty"`

	UpdaterSection string `json:"updater_section" yaml:"updater_section,omitempty"`
	LogName        string `json:"log_name"        yaml:"log_name,omitempty"`
	InstallerLog   string `json:"installer_log"   yaml:"installer_log,omitempty"`
	BackupDir      string `json:"backup_dir"      yaml:"backup_dir"`
}

// ClientConfigData describes a web UI configuration bundle linked into the Klipper configuration.
type ClientConfigData struct {
	Name        string `json:"name"         yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`

	URL    string `json:"url"    yaml:"url"`
	Branch string `json:"branch" yaml:"branch"`
	Dir    string `json:"dir"    yaml:"dir"`

	// ConfigFilename is the file inside Dir that gets linked into each Klipper config directory.
	ConfigFilename string `json:"config_filename" yaml:"config_filename"`

	// PrinterConfigSection is added to every printer.cfg, for example "include mainsail.cfg".
	PrinterConfigSection string `json:"printer_config_section" yaml:"printer_config_section"`

	MoonrakerConfigPath   string `json:"moonraker_config_path"   yaml:"moonraker_config_path"`
	MoonrakerConfigOrigin string `json:"moonraker_config_origin" yaml:"moonraker_config_origin"`

	BackupDir string `json:"backup_dir" yaml:"backup_dir"`
}

// UpdaterSectionName returns the Moonraker update manager section for the client config.
func (c ClientConfigData) UpdaterSectionName() string {
	return "update_manager " + c.Name
}
