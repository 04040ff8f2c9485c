package atlas

import "github.com/paulmach/orb"

// BBox is the atlas extent in degrees.
type BBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// IsZero reports whether no extent has been configured.
func (b BBox) IsZero() bool {
	return b == BBox{}
}

// Corners returns the rectangle corners in drawing order starting at the
// northwest corner: NW, NE, SE, SW. Each corner is [lon, lat].
func (b BBox) Corners() [][2]float64 {
	return [][2]float64{
		{b.West, b.North},
		{b.East, b.North},
		{b.East, b.South},
		{b.West, b.South},
	}
}

// Polygon returns the extent as a closed single-ring polygon.
func (b BBox) Polygon() orb.Polygon {
	ring := orb.Ring{
		{b.West, b.North},
		{b.East, b.North},
		{b.East, b.South},
		{b.West, b.South},
		{b.West, b.North},
	}
	return orb.Polygon{ring}
}

// Bound returns the extent as an orb.Bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}
