package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: cli_raster
description: staged raster promotes to the canonical name
layers:
  - name: relief
steps:
  - op: stage_file
    layer: relief
    file: scan_20240101_110000.tif
    content: scan bytes
  - op: refresh_raster
    layer: relief
    expect_count: 1
assertions:
  - type: file_content
    layer: relief
    file: relief.tif
    value: scan bytes
`

const failingScenario = `
name: cli_fail
description: asserts a count the tree never reaches
layers:
  - name: roads
steps:
  - op: refresh_vector
    layer: roads
assertions:
  - type: layer_count
    layer: roads
    count: 5
`

const goldenScenario = `
name: cli_golden
description: raster flow pinned by a state snapshot
golden: true
layers:
  - name: relief
steps:
  - op: stage_file
    layer: relief
    file: scan_20240101_110000.tif
    content: scan bytes
  - op: refresh_raster
    layer: relief
    expect_count: 1
`

// writeScenarioFile drops a scenario document into dir.
func writeScenarioFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_raster.yaml", passingScenario)

	out, err := executeCommand(t, "verify", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestVerifyCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_fail.yaml", failingScenario)

	out, err := executeCommand(t, "verify", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ cli_fail")
	assert.Contains(t, out, "Assertion failed: layer_count")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestVerifyCommandMixed(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_raster.yaml", passingScenario)
	writeScenarioFile(t, dir, "cli_fail.yaml", failingScenario)

	out, err := executeCommand(t, "verify", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestVerifyCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_raster.yaml", passingScenario)
	writeScenarioFile(t, dir, "cli_fail.yaml", failingScenario)

	out, err := executeCommand(t, "verify", dir, "--filter", "cli_raster")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestVerifyCommandInvalidFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_raster.yaml", passingScenario)

	_, err := executeCommand(t, "verify", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestVerifyCommandMissingDir(t *testing.T) {
	_, err := executeCommand(t, "verify", filepath.Join(t.TempDir(), "nowhere"))
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario directory not found")
}

func TestVerifyCommandEmptyDir(t *testing.T) {
	out, err := executeCommand(t, "verify", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestVerifyCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_raster.yaml", passingScenario)

	out, err := executeCommand(t, "verify", dir, "--format", "json")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 1, data["total_scenarios"])
	assert.EqualValues(t, 1, data["passed"])
}

func TestVerifyCommandJSONFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_fail.yaml", failingScenario)

	out, err := executeCommand(t, "verify", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "1 scenario(s) failed")
	data := resp.Data.(map[string]any)
	failures := data["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "cli_fail", failures[0].(map[string]any)["name"])
}

func TestVerifyCommandGoldenMissing(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_golden.yaml", goldenScenario)

	out, err := executeCommand(t, "verify", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "golden snapshot missing")
}

func TestVerifyCommandUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "cli_golden.yaml", goldenScenario)

	out, err := executeCommand(t, "verify", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "All scenarios passed")

	golden := filepath.Join(dir, "golden", "cli_golden.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"relief.tif":"scan bytes"`)

	// The written snapshot satisfies the next plain run.
	out, err = executeCommand(t, "verify", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestVerifyCommandHelp(t *testing.T) {
	out, err := executeCommand(t, "verify", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "scenarios-dir")
}
