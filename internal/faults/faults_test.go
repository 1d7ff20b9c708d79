package faults

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		logic   bool
		runtime bool
	}{
		{name: "logic", err: Logic("container %q is not empty", "ws"), logic: true},
		{name: "runtime", err: Runtime("job is running"), runtime: true},
		{name: "setup", err: SetupFailed(errors.New("boom")), runtime: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.logic, errors.Is(tc.err, ErrLogic))
			require.Equal(t, tc.runtime, errors.Is(tc.err, ErrRuntime))
		})
	}

	err := SetupFailed(errors.New("boom"))
	require.ErrorIs(t, err, ErrSetupFailed)
	require.Contains(t, err.Error(), "boom")
}
