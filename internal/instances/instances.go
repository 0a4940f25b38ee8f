// Package instances discovers the Klipper, Moonraker and OctoEverywhere
// instances configured on the local machine.
package instances

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
)

// Kind is a service type that can have multiple instances.
type Kind struct {
	Name       string
	ConfigFile string
	LogFile    string
}

var (
	// Klipper is the printer firmware host process.
	Klipper = Kind{Name: "klipper", ConfigFile: "printer.cfg", LogFile: "klippy.log"}

	// Moonraker is the API daemon sitting in front of Klipper.
	Moonraker = Kind{Name: "moonraker", ConfigFile: "moonraker.conf", LogFile: "moonraker.log"}

	// OctoEverywhere is the remote access agent, one per Moonraker instance.
	OctoEverywhere = Kind{Name: "octoeverywhere", ConfigFile: "octoeverywhere.conf", LogFile: "octoeverywhere.log"}
)

// suffixBlacklist holds unit name suffixes belonging to unrelated services,
// such as klipper-mcu.service or moonraker-obico.service.
var suffixBlacklist = []string{"None", "mcu", "obico", "bambu", "companion"}

// Instance is one configured deployment of a service.
type Instance struct {
	Kind   Kind
	Suffix string

	ServiceName string
	ServiceFile string

	DataDir   string
	ConfigDir string
	LogDir    string
}

// ConfigFile returns the path of the instance's main configuration file.
func (i Instance) ConfigFile() string {
	return filepath.Join(i.ConfigDir, i.Kind.ConfigFile)
}

// DataDirName returns the base name of the instance data directory.
func (i Instance) DataDirName() string {
	return filepath.Base(i.DataDir)
}

// Exists reports whether the instance's unit file is present.
func (i Instance) Exists() bool {
	_, err := os.Stat(i.ServiceFile)

	return err == nil
}

// Finder locates instances by scanning a systemd unit directory.
type Finder struct {
	Home       string
	SystemdDir string
}

// New returns the instance of the given kind and suffix, whether or not it exists yet.
func (f *Finder) New(kind Kind, suffix string) Instance {
	serviceName := kind.Name
	if suffix != "" {
		serviceName += "-" + suffix
	}

	serviceFile := filepath.Join(f.SystemdDir, serviceName+".service")

	dataDir := dataDirFromUnit(serviceFile)
	if dataDir == "" {
		dataDir = filepath.Join(f.Home, dataDirName(suffix)+"_data")
	}

	return Instance{
		Kind:        kind,
		Suffix:      suffix,
		ServiceName: serviceName,
		ServiceFile: serviceFile,
		DataDir:     dataDir,
		ConfigDir:   filepath.Join(dataDir, "config"),
		LogDir:      filepath.Join(dataDir, "logs"),
	}
}

// Discover returns every instance of the given kind, ordered by suffix.
// An unreadable or missing unit directory yields no instances.
func (f *Finder) Discover(kind Kind) []Instance {
	entries, err := os.ReadDir(f.SystemdDir)
	if err != nil {
		return []Instance{}
	}

	re := regexp.MustCompile(`^` + regexp.QuoteMeta(kind.Name) + `(?:-([0-9a-zA-Z_]+))?\.service$`)

	suffixes := []string{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		m := re.FindStringSubmatch(entry.Name())
		if m == nil || slices.Contains(suffixBlacklist, m[1]) {
			continue
		}

		suffixes = append(suffixes, m[1])
	}

	slices.SortFunc(suffixes, compareSuffix)

	ret := make([]Instance, 0, len(suffixes))
	for _, suffix := range suffixes {
		ret = append(ret, f.New(kind, suffix))
	}

	return ret
}

// ServiceNames returns the unit names of the given instances.
func ServiceNames(list []Instance) []string {
	names := make([]string, 0, len(list))
	for _, i := range list {
		names = append(names, i.ServiceName+".service")
	}

	return names
}

// dataDirName maps a suffix to the data directory naming convention:
// no suffix is "printer", a numeric suffix is "printer_<n>", anything else is used as-is.
func dataDirName(suffix string) string {
	if suffix == "" {
		return "printer"
	}

	_, err := strconv.Atoi(suffix)
	if err == nil {
		return "printer_" + suffix
	}

	return suffix
}

// dataDirFromUnit extracts the data directory from an existing unit file's
// EnvironmentFile, which lives in <data dir>/systemd/.
func dataDirFromUnit(path string) string {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return ""
	}
	defer f.Close()

	opts, err := unit.DeserializeOptions(f)
	if err != nil {
		return ""
	}

	for _, opt := range opts {
		if opt.Section != "Service" || opt.Name != "EnvironmentFile" {
			continue
		}

		envFile := strings.TrimPrefix(opt.Value, "-")

		systemdDir := filepath.Dir(envFile)
		if filepath.Base(systemdDir) != "systemd" {
			continue
		}

		return filepath.Dir(systemdDir)
	}

	return ""
}

func compareSuffix(a string, b string) int {
	if a == "" || b == "" {
		return strings.Compare(a, b)
	}

	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)

	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
