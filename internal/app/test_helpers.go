package app

import (
	"os"
	"strings"
	"testing"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/testutil"
	"github.com/stretchr/testify/require"
)

// SetupAppTest creates a new app instance for system testing. Log output
// and the rendered result both go to the returned buffer.
func SetupAppTest(t *testing.T, cfg *Config, input string, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	buf := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	testApp, err := NewApp(buf, strings.NewReader(input), cfg, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("OACTREE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		}
	})

	return testApp, buf
}
