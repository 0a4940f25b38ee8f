package api_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/R3dM0nk3y360/kiauh/api"
)

func TestReport(t *testing.T) {
	t.Parallel()

	r := api.NewReport("mobileraker", "remove")
	require.False(t, r.Failed())
	require.NoError(t, r.Err())

	errBoom := errors.New("boom")

	r.Add(
		api.OK("directory", "removed"),
		api.Skipped("environment", "not found"),
		api.Failed("service", errBoom),
		api.Skipped("log files", "not found"),
	)

	require.True(t, r.Failed())
	require.Equal(t, 1, r.Count(api.StepOK))
	require.Equal(t, 2, r.Count(api.StepSkipped))
	require.Equal(t, 1, r.Count(api.StepFailed))
	require.ErrorIs(t, r.Err(), errBoom)
	require.Contains(t, r.Err().Error(), "service: boom")
	require.Equal(t, "remove mobileraker: 1 ok, 2 skipped, 1 failed", r.Summary())
}

func TestStateFromChecks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		checks   []bool
		expected api.InstallState
	}{
		{
			name:     "Nothing present",
			checks:   []bool{false, false, false},
			expected: api.InstallStateNotInstalled,
		},
		{
			name:     "Everything present",
			checks:   []bool{true, true, true},
			expected: api.InstallStateInstalled,
		},
		{
			name:     "Partially present",
			checks:   []bool{true, false, true},
			expected: api.InstallStateIncomplete,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, api.StateFromChecks(tc.checks...))
		})
	}
}
