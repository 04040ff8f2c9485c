package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireatlas/dataswale/internal/atlas"
)

func TestResolveLayersInheritsTemplate(t *testing.T) {
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Layers: []*atlas.Layer{{
			Name:      "roads",
			ConfigDef: "line_layer",
			Overrides: map[string]any{"name": "roads", "color": "red"},
		}},
	}
	templates := Templates{
		"line_layer": {"geometry_type": "linestring", "vector_width": 3, "color": "gray"},
	}

	require.NoError(t, ResolveLayers(cfg, templates))

	l := cfg.Layers[0]
	require.NotNil(t, l.Config)
	assert.Equal(t, "linestring", l.Config["geometry_type"], "template key inherited")
	assert.Equal(t, 3, l.Config["vector_width"])
	assert.Equal(t, "red", l.Config["color"], "entry key overrides template")
	assert.Equal(t, "roads", l.Config["name"])

	assert.Equal(t, "linestring", l.GeometryType())
	w, ok := l.VectorWidth()
	require.True(t, ok)
	assert.Equal(t, 3, w)
}

func TestResolveLayersMissingTemplate(t *testing.T) {
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Layers:   []*atlas.Layer{{Name: "roads", ConfigDef: "ghost"}},
	}

	err := ResolveLayers(cfg, Templates{})
	require.Error(t, err)
	assert.True(t, IsMissingTemplate(err))
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), "layers")
}

func TestResolveWithoutConfigDef(t *testing.T) {
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Layers:   []*atlas.Layer{{Name: "roads", Overrides: map[string]any{"name": "roads", "color": "red"}}},
	}

	require.NoError(t, ResolveLayers(cfg, nil))
	assert.Equal(t, "red", cfg.Layers[0].Config["color"])
}

func TestResolveDoesNotAliasTemplate(t *testing.T) {
	templates := Templates{
		"base": {"style": map[string]any{"color": "gray"}},
	}
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Layers: []*atlas.Layer{
			{Name: "one", ConfigDef: "base", Overrides: map[string]any{"name": "one"}},
			{Name: "two", ConfigDef: "base", Overrides: map[string]any{"name": "two"}},
		},
	}
	require.NoError(t, ResolveLayers(cfg, templates))

	style := cfg.Layers[0].Config["style"].(map[string]any)
	style["color"] = "red"

	assert.Equal(t, "gray", templates["base"]["style"].(map[string]any)["color"], "template must stay untouched")
	assert.Equal(t, "gray", cfg.Layers[1].Config["style"].(map[string]any)["color"], "siblings must not share storage")
}

func TestResolveSkipsReservedKeys(t *testing.T) {
	templates := Templates{"base": {"kind": "t"}}
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Layers: []*atlas.Layer{{
			Name:      "roads",
			ConfigDef: "base",
			Overrides: map[string]any{
				"name":       "roads",
				"config_def": "other",
				"config":     map[string]any{"kind": "smuggled"},
			},
		}},
	}
	require.NoError(t, ResolveLayers(cfg, templates))

	l := cfg.Layers[0]
	assert.Equal(t, "t", l.Config["kind"])
	assert.NotContains(t, l.Config, "config_def")
	assert.NotContains(t, l.Config, "config")
}

func TestResolveAssetsValidatesFetchType(t *testing.T) {
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Assets: map[string]*atlas.Asset{
			"survey": {Overrides: map[string]any{"fetch_type": "vector", "out_layer": "roads"}},
			"scans":  {Overrides: map[string]any{"fetch_type": "carrier_pigeon"}},
		},
	}

	err := ResolveAssets(cfg, nil)
	require.Error(t, err)
	assert.True(t, atlas.IsConfigError(err))
	assert.Contains(t, err.Error(), "scans")
	assert.Contains(t, err.Error(), "carrier_pigeon")
}

func TestResolveAssetsRequiresFetchType(t *testing.T) {
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Assets: map[string]*atlas.Asset{
			"survey": {Overrides: map[string]any{"out_layer": "roads"}},
		},
	}

	err := ResolveAssets(cfg, nil)
	require.Error(t, err)
	assert.True(t, atlas.IsConfigError(err))
}

func TestResolveAssetsFromTemplate(t *testing.T) {
	templates := Templates{
		"geojson_feed": {"fetch_type": "vector", "format": "geojson"},
	}
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Assets: map[string]*atlas.Asset{
			"survey": {ConfigDef: "geojson_feed", Overrides: map[string]any{"out_layer": "roads"}},
		},
	}

	require.NoError(t, ResolveAssets(cfg, templates))

	a := cfg.Assets["survey"]
	assert.Equal(t, "vector", a.FetchType())
	assert.Equal(t, "roads", a.OutLayer())
	assert.Equal(t, "geojson", a.StringOption("format"))
}

func TestResolveFailsDeterministically(t *testing.T) {
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Assets: map[string]*atlas.Asset{
			"zeta":  {ConfigDef: "ghost"},
			"alpha": {ConfigDef: "ghost"},
		},
	}

	for i := 0; i < 5; i++ {
		err := ResolveAssets(cfg, Templates{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "alpha", "resolution order is name order")
	}
}

func TestResolveBoth(t *testing.T) {
	layerTemplates := Templates{"base_layer": {"geometry_type": "point"}}
	assetTemplates := Templates{"base_asset": {"fetch_type": "raster"}}
	cfg := &atlas.Config{
		Name:     "a",
		DataRoot: "/tmp",
		Layers:   []*atlas.Layer{{Name: "sites", ConfigDef: "base_layer", Overrides: map[string]any{"name": "sites"}}},
		Assets: map[string]*atlas.Asset{
			"scans": {ConfigDef: "base_asset", Overrides: map[string]any{"out_layer": "sites"}},
		},
	}

	require.NoError(t, Resolve(cfg, layerTemplates, assetTemplates))
	assert.Equal(t, "point", cfg.Layers[0].GeometryType())
	assert.Equal(t, "raster", cfg.Assets["scans"].FetchType())
}
