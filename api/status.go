package api

// InstallState represents how much of a component is present on disk.
type InstallState string

const (
	// InstallStateNotInstalled means none of the expected resources exist.
	InstallStateNotInstalled InstallState = "not installed"

	// InstallStateIncomplete means only some of the expected resources exist.
	InstallStateIncomplete InstallState = "incomplete"

	// InstallStateInstalled means every expected resource exists.
	InstallStateInstalled InstallState = "installed"
)

func (s *InstallState) String() string {
	return string(*s)
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s *InstallState) MarshalText() ([]byte, error) {
	return []byte(*s), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *InstallState) UnmarshalText(text []byte) error {
	*s = InstallState(text)

	return nil
}

// ComponentStatus reports the install state of a component.
type ComponentStatus struct {
	Name        string       `json:"name"         yaml:"name"`
	State       InstallState `json:"state"        yaml:"state"`
	Instances   int          `json:"instances"    yaml:"instances"`
	Repository  string       `json:"repository"   yaml:"repository"`
	LocalCommit string       `json:"local_commit" yaml:"local_commit,omitempty"`
	Running     int          `json:"running"      yaml:"running"`

	// RemoteCommit is only filled in when the upstream repository was queried.
	RemoteCommit string `json:"remote_commit,omitempty" yaml:"remote_commit,omitempty"`
}

// StateFromChecks derives an InstallState from a list of existence checks.
func StateFromChecks(checks ...bool) InstallState {
	found := 0

	for _, ok := range checks {
		if ok {
			found++
		}
	}

	switch found {
	case 0:
		return InstallStateNotInstalled
	case len(checks):
		return InstallStateInstalled
	default:
		return InstallStateIncomplete
	}
}
