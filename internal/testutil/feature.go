package testutil

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PointFeature builds a point feature with the given properties.
func PointFeature(lon, lat float64, props map[string]any) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{lon, lat})
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// LineFeature builds a linestring feature from [lon, lat] pairs.
func LineFeature(coords [][2]float64, props map[string]any) *geojson.Feature {
	line := make(orb.LineString, len(coords))
	for i, c := range coords {
		line[i] = orb.Point{c[0], c[1]}
	}
	f := geojson.NewFeature(line)
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// PolyFeature builds a single-ring polygon feature from [lon, lat] pairs.
// The ring is closed automatically when the last point differs from the
// first.
func PolyFeature(ring [][2]float64, props map[string]any) *geojson.Feature {
	r := make(orb.Ring, 0, len(ring)+1)
	for _, c := range ring {
		r = append(r, orb.Point{c[0], c[1]})
	}
	if len(r) > 0 && r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	f := geojson.NewFeature(orb.Polygon{r})
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// Collection bundles features into a FeatureCollection.
func Collection(features ...*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f)
	}
	return fc
}
