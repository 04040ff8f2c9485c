package geo

import (
	"io"
	"log/slog"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarOK(t *testing.T) {
	assert.True(t, ScalarOK(nil))
	assert.True(t, ScalarOK("road"))
	assert.True(t, ScalarOK(2.5))
	assert.True(t, ScalarOK(int64(7)))
	assert.True(t, ScalarOK(true))

	assert.False(t, ScalarOK(map[string]any{"nested": 1}))
	assert.False(t, ScalarOK([]any{1, 2}))
	assert.False(t, ScalarOK(struct{}{}))
}

func TestValidateProperties(t *testing.T) {
	ok := geojson.Properties{"name": "trail", "vector_width": 2}
	require.NoError(t, ValidateProperties(ok))

	bad := geojson.Properties{"name": "trail", "style": map[string]any{"w": 1}}
	err := ValidateProperties(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "style")
}

func TestTruthy(t *testing.T) {
	truthy := []any{true, "x", 1, int64(3), 2.5, []any{1}, map[string]any{"k": 1}}
	for _, v := range truthy {
		assert.True(t, Truthy(v), "expected %#v to be truthy", v)
	}

	falsy := []any{nil, false, "", 0, int64(0), 0.0, []any{}, map[string]any{}}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "expected %#v to be falsy", v)
	}
}

func TestCloneProperties(t *testing.T) {
	orig := geojson.Properties{"name": "dock", "vector_width": 3}
	clone := CloneProperties(orig)

	clone["name"] = "pier"
	assert.Equal(t, "dock", orig["name"], "clone must not alias the original")
	assert.Equal(t, 3, clone["vector_width"])
}

func TestDecodeCollectionLenient(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	doc := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {"name": "a"}},
			{"type": "Feature", "geometry": {"type": "Nonsense", "coordinates": []}, "properties": {"name": "b"}},
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [3, 4]}, "properties": {"name": "c"}}
		]
	}`)

	fc, dropped, err := DecodeCollectionLenient(doc, log)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "a", fc.Features[0].Properties["name"])
	assert.Equal(t, "c", fc.Features[1].Properties["name"])
}

func TestDecodeCollectionLenient_NotACollection(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, _, err := DecodeCollectionLenient([]byte(`{"type": "Feature"}`), log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a FeatureCollection")

	_, _, err = DecodeCollectionLenient([]byte(`{broken`), log)
	require.Error(t, err)
}
