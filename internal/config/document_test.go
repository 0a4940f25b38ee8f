package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var printerConfig = `# This file contains common pin mappings.
[printer]
kinematics: corexy
max_velocity: 300

[gcode_macro PRINT_START]
gcode:
    G28
    BED_MESH_CALIBRATE

#*# <---------------------- SAVE_CONFIG ---------------------->
#*# DO NOT EDIT THIS BLOCK OR BELOW. The contents are auto-generated.
#*#
#*# [bed_mesh default]
#*# version = 1
`

var moonrakerConfig = `[server]
host: 0.0.0.0
port: 7125

[update_manager]
channel: dev
refresh_interval: 168

# Crowsnest update management
[update_manager crowsnest]
type: git_repo
path: ~/crowsnest
`

func TestParseOptions(t *testing.T) {
	t.Parallel()

	d := Parse([]byte(printerConfig))
	require.True(t, d.HasSection("printer"))
	require.True(t, d.HasSection("gcode_macro  PRINT_START"))

	options, ok := d.Options("gcode_macro PRINT_START")
	require.True(t, ok)
	require.Equal(t, []Option{{Key: "gcode", Value: "\nG28\nBED_MESH_CALIBRATE"}}, options)

	_, ok = d.Options("bed_mesh default")
	require.False(t, ok)

	require.Equal(t, printerConfig, string(d.Bytes()))
}

func TestSetAppend(t *testing.T) {
	t.Parallel()

	d := Parse([]byte(moonrakerConfig))

	changed := d.Set("update_manager mobileraker", []Option{
		{Key: "type", Value: "git_repo"},
		{Key: "path", Value: "/home/pi/mobileraker_companion"},
	})
	require.True(t, changed)

	require.Equal(t, moonrakerConfig+`
[update_manager mobileraker]
type: git_repo
path: /home/pi/mobileraker_companion
`, string(d.Bytes()))

	// A second identical call leaves the document untouched.
	before := string(d.Bytes())
	changed = d.Set("update_manager mobileraker", []Option{
		{Key: "path", Value: "/home/pi/mobileraker_companion"},
		{Key: "type", Value: "git_repo"},
	})
	require.False(t, changed)
	require.Equal(t, before, string(d.Bytes()))
}

func TestSetOverwrite(t *testing.T) {
	t.Parallel()

	d := Parse([]byte(moonrakerConfig))

	changed := d.Set("update_manager", []Option{{Key: "channel", Value: "stable"}})
	require.True(t, changed)

	require.Equal(t, `[server]
host: 0.0.0.0
port: 7125

[update_manager]
channel: stable

# Crowsnest update management
[update_manager crowsnest]
type: git_repo
path: ~/crowsnest
`, string(d.Bytes()))
}

func TestSetInlineComments(t *testing.T) {
	t.Parallel()

	content := `[update_manager mainsail-config]
type: git_repo  # managed by kiauh
primary_branch: master ; stable
path: ~/mainsail-config

[led status]
color: #ff0000
`

	d := Parse([]byte(content))

	options, ok := d.Options("led status")
	require.True(t, ok)
	require.Equal(t, []Option{{Key: "color", Value: "#ff0000"}}, options)

	changed := d.Set("update_manager mainsail-config", []Option{
		{Key: "type", Value: "git_repo"},
		{Key: "primary_branch", Value: "master"},
		{Key: "path", Value: "~/mainsail-config"},
	})
	require.False(t, changed)
	require.Equal(t, content, string(d.Bytes()))
}

func TestSetBeforeAutosave(t *testing.T) {
	t.Parallel()

	d := Parse([]byte(printerConfig))

	require.True(t, d.Set("exclude_object", nil))
	require.True(t, d.Set("include mainsail.cfg", nil))

	require.Equal(t, `[include mainsail.cfg]

# This file contains common pin mappings.
[printer]
kinematics: corexy
max_velocity: 300

[gcode_macro PRINT_START]
gcode:
    G28
    BED_MESH_CALIBRATE

[exclude_object]

#*# <---------------------- SAVE_CONFIG ---------------------->
#*# DO NOT EDIT THIS BLOCK OR BELOW. The contents are auto-generated.
#*#
#*# [bed_mesh default]
#*# version = 1
`, string(d.Bytes()))

	require.False(t, d.Set("include  mainsail.cfg", nil))

	// Removal restores the original document.
	require.True(t, d.Remove("include mainsail.cfg"))
	require.True(t, d.Remove("exclude_object"))
	require.Equal(t, printerConfig, string(d.Bytes()))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		section  string
		removed  bool
		expected string
	}{
		{
			name:     "Missing section is a no-op",
			section:  "update_manager mobileraker",
			removed:  false,
			expected: moonrakerConfig,
		},
		{
			name:    "Section keeps the comment of the next section",
			section: "update_manager",
			removed: true,
			expected: `[server]
host: 0.0.0.0
port: 7125

# Crowsnest update management
[update_manager crowsnest]
type: git_repo
path: ~/crowsnest
`,
		},
		{
			name:    "Last section",
			section: "update_manager crowsnest",
			removed: true,
			expected: `[server]
host: 0.0.0.0
port: 7125

[update_manager]
channel: dev
refresh_interval: 168

# Crowsnest update management
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := Parse([]byte(moonrakerConfig))
			require.Equal(t, tc.removed, d.Remove(tc.section))
			require.Equal(t, tc.expected, string(d.Bytes()))
		})
	}
}

func TestEmptyDocument(t *testing.T) {
	t.Parallel()

	d := Parse(nil)
	require.Empty(t, d.Bytes())
	require.False(t, d.Remove("server"))

	require.True(t, d.Set("server", []Option{{Key: "host", Value: "0.0.0.0"}}))
	require.Equal(t, "[server]\nhost: 0.0.0.0\n", string(d.Bytes()))
}
