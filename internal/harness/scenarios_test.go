package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios executes every scenario document shipped with the package.
// Golden-flagged scenarios additionally pin their final on-disk state;
// regenerate the snapshots with go test ./internal/harness -update after
// an intentional behavior change.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario errors: %v", result.Errors)

			if scenario.Golden {
				require.NoError(t, AssertGolden(t, scenario.Name, result))
			}
		})
	}
}
