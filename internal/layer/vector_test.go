package layer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireatlas/dataswale/internal/delta"
	"github.com/fireatlas/dataswale/internal/testutil"
)

func TestRefreshVectorReplacesCanonical(t *testing.T) {
	cfg := newTestConfig(t)
	m := newTestMaterializer(t, cfg)

	writeCanonical(t, cfg, "roads", testutil.PointFeature(9, 9, map[string]any{"name": "stale"}))

	stageBatch(t, cfg, "roads", "survey_20240101_110000", "replace",
		testutil.PointFeature(1, 1, map[string]any{"name": "a"}),
		testutil.PointFeature(2, 2, map[string]any{"name": "b"}))
	stageBatch(t, cfg, "roads", "survey_20240101_120000", "replace",
		testutil.PointFeature(3, 3, map[string]any{"name": "c"}))

	n, err := m.RefreshVector(context.Background(), "roads")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	fc := readCanonical(t, cfg, "roads")
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "a", fc.Features[0].Properties["name"])
	assert.Equal(t, "b", fc.Features[1].Properties["name"])
	assert.Equal(t, "c", fc.Features[2].Properties["name"])
	assert.EqualValues(t, delta.DefaultVectorWidth, fc.Features[0].Properties[delta.PropVectorWidth])

	assert.Empty(t, pendingNames(t, cfg, "roads"))
	processed, err := cfg.ProcessedDir("roads")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"survey_20240101_110000.delta.json",
		"survey_20240101_110000.geojson",
		"survey_20240101_120000.delta.json",
		"survey_20240101_120000.geojson",
	}, dirNames(t, processed))
}

func TestRefreshVectorEmptyQueueWritesEmptyCollection(t *testing.T) {
	cfg := newTestConfig(t)
	m := newTestMaterializer(t, cfg)

	// Prior content does not survive a refresh the queue re-derived nothing for.
	writeCanonical(t, cfg, "roads", testutil.PointFeature(1, 1, map[string]any{"name": "old"}))

	n, err := m.RefreshVector(context.Background(), "roads")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	fc := readCanonical(t, cfg, "roads")
	assert.Empty(t, fc.Features)
}

func TestRefreshVectorDrainErrorLeavesCanonical(t *testing.T) {
	cfg := newTestConfig(t)
	m := newTestMaterializer(t, cfg)

	writeCanonical(t, cfg, "roads", testutil.PointFeature(1, 1, map[string]any{"name": "original"}))

	stageBatch(t, cfg, "roads", "survey_20240101_110000", "replace",
		testutil.PointFeature(2, 2, map[string]any{"name": "good"}))
	dir, err := cfg.PendingDir("roads")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "survey_20240101_120000.geojson"), []byte("{not json"), 0o644))

	_, err = m.RefreshVector(context.Background(), "roads")
	require.Error(t, err)
	assert.True(t, delta.IsInvalidDelta(err), "expected InvalidDeltaError, got %T", err)

	// Nothing was written: the canonical file still holds the prior content,
	// even though the batch consumed before the failure stays archived.
	fc := readCanonical(t, cfg, "roads")
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "original", fc.Features[0].Properties["name"])
	assert.Equal(t, []string{"survey_20240101_120000.geojson"}, pendingNames(t, cfg, "roads"))
}

func TestRefreshVectorLeavesAnnotateBatches(t *testing.T) {
	cfg := newTestConfig(t)
	m := newTestMaterializer(t, cfg)

	stageBatch(t, cfg, "roads", "survey_20240101_110000", "replace",
		testutil.PointFeature(1, 1, map[string]any{"name": "plain"}))
	stageBatch(t, cfg, "roads", "notes_20240101_120000", "annotate",
		testutil.PointFeature(2, 2, map[string]any{"status": "burned"}))

	n, err := m.RefreshVector(context.Background(), "roads")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fc := readCanonical(t, cfg, "roads")
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "plain", fc.Features[0].Properties["name"])

	assert.Equal(t, []string{
		"notes_20240101_120000.delta.json",
		"notes_20240101_120000.geojson",
	}, pendingNames(t, cfg, "roads"), "annotation batches wait for their own materializer")
}

func TestRefreshVectorUnknownLayer(t *testing.T) {
	cfg := newTestConfig(t)
	m := newTestMaterializer(t, cfg)

	_, err := m.RefreshVector(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, IsMissingLayer(err), "expected MissingLayerError, got %T", err)
}
