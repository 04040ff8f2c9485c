package atlas

import (
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// DefaultVersion is the tree every operation works against unless the
// configuration pins another one.
const DefaultVersion = "staging"

// Path categories inside a version tree.
const (
	// CategoryDeltas holds per-layer pending delta areas.
	CategoryDeltas = "deltas"

	// CategoryLayers holds per-layer canonical content.
	CategoryLayers = "layers"
)

// Path builds an absolute path inside the atlas tree:
//
//	{data_root}/{atlas}/{version}/{category}/{rel...}
//
// The atlas name and every relative segment are NFC-normalized so that
// the same logical name always maps to the same file, regardless of how
// the caller's input was composed. Path never touches the filesystem.
func (c *Config) Path(category string, rel ...string) (string, error) {
	if c.Name == "" {
		return "", NewConfigError("name", "required to resolve paths")
	}
	if c.DataRoot == "" {
		return "", NewConfigError("data_root", "required to resolve paths")
	}
	version := c.Version
	if version == "" {
		version = DefaultVersion
	}
	parts := make([]string, 0, len(rel)+4)
	parts = append(parts, c.DataRoot, norm.NFC.String(c.Name), version, category)
	for _, r := range rel {
		parts = append(parts, norm.NFC.String(r))
	}
	return filepath.Join(parts...), nil
}

// PendingDir returns the directory holding a layer's unconsumed deltas.
func (c *Config) PendingDir(layerName string) (string, error) {
	return c.Path(CategoryDeltas, layerName)
}

// ProcessedDir returns the archive for deltas consumed by a queue drain.
func (c *Config) ProcessedDir(layerName string) (string, error) {
	return c.Path(CategoryDeltas, layerName, "processed")
}

// WorkDir returns the archive for deltas consumed outside a queue drain:
// raster promotions, document publishes and spatial annotations.
func (c *Config) WorkDir(layerName string) (string, error) {
	return c.Path(CategoryDeltas, layerName, "work")
}

// LayerDir returns a layer's canonical content directory.
func (c *Config) LayerDir(layerName string) (string, error) {
	return c.Path(CategoryLayers, layerName)
}

// VectorPath returns a vector layer's canonical file:
// {layers}/{layer}/{layer}.geojson.
func (c *Config) VectorPath(layerName string) (string, error) {
	return c.Path(CategoryLayers, layerName, layerName+".geojson")
}

// RasterPath returns a raster layer's canonical file for a source
// extension (dot included): {layers}/{layer}/{layer}{ext}.
func (c *Config) RasterPath(layerName, ext string) (string, error) {
	return c.Path(CategoryLayers, layerName, layerName+ext)
}
