package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dataswale", cmd.Use)
	assert.Contains(t, cmd.Long, "delta")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"init", "add-delta", "refresh", "annotate", "materialize", "deltas", "verify"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "data-root", "version", "catalog"} {
		require.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("DATASWALE_CONFIG", "/etc/atlas.json")
	t.Setenv("DATASWALE_DATA_ROOT", "/srv/atlases")
	t.Setenv("DATASWALE_VERSION", "v2")

	cmd := NewRootCommand()
	assert.Equal(t, "/etc/atlas.json", cmd.PersistentFlags().Lookup("config").DefValue)
	assert.Equal(t, "/srv/atlases", cmd.PersistentFlags().Lookup("data-root").DefValue)
	assert.Equal(t, "v2", cmd.PersistentFlags().Lookup("version").DefValue)
}

func TestAddDeltaCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"add-delta"})
	require.NoError(t, err)

	featuresFlag := addCmd.Flags().Lookup("features")
	require.NotNil(t, featuresFlag)
	assert.Equal(t, "", featuresFlag.DefValue)

	actionFlag := addCmd.Flags().Lookup("action")
	require.NotNil(t, actionFlag)
	assert.Equal(t, "replace", actionFlag.DefValue)
}

func TestRefreshCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	refreshCmd, _, err := cmd.Find([]string{"refresh"})
	require.NoError(t, err)

	kindFlag := refreshCmd.Flags().Lookup("kind")
	require.NotNil(t, kindFlag)
	assert.Equal(t, "vector", kindFlag.DefValue)
}

func TestAnnotateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	annotateCmd, _, err := cmd.Find([]string{"annotate"})
	require.NoError(t, err)

	require.NotNil(t, annotateCmd.Flags().Lookup("anno-type"))
	require.NotNil(t, annotateCmd.Flags().Lookup("updated-properties"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "deltas", "roads"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestParseBBox(t *testing.T) {
	bbox, err := parseBBox("41, 40, -104, -105")
	require.NoError(t, err)
	assert.Equal(t, 41.0, bbox.North)
	assert.Equal(t, 40.0, bbox.South)
	assert.Equal(t, -104.0, bbox.East)
	assert.Equal(t, -105.0, bbox.West)

	_, err = parseBBox("41,40,-104")
	require.Error(t, err)

	_, err = parseBBox("a,b,c,d")
	require.Error(t, err)
}
