package spatial

import (
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Row is one joinable feature: an integer id, its geometry and its
// properties.
type Row struct {
	ID         int64
	Geometry   orb.Geometry
	Properties geojson.Properties
}

// Rows converts a feature collection into join rows. Ids follow collection
// order. Features without a geometry cannot participate in a spatial join
// and are skipped with a warning.
func Rows(fc *geojson.FeatureCollection, log *slog.Logger) []Row {
	if fc == nil {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}
	rows := make([]Row, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			log.Warn("feature has no geometry, skipping", "index", i)
			continue
		}
		props := f.Properties
		if props == nil {
			props = geojson.Properties{}
		}
		rows = append(rows, Row{ID: int64(len(rows)), Geometry: f.Geometry, Properties: props})
	}
	return rows
}
