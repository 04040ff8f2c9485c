package spatial

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Predicate names a spatial join condition.
type Predicate string

const (
	// PredicateSimpleIntersect matches when two geometries share at least
	// one point, boundaries included.
	PredicateSimpleIntersect Predicate = "simple_intersect"

	// PredicateBBoxOverlap matches when the geometries' bounding boxes
	// overlap. Coarser than simple_intersect but much cheaper.
	PredicateBBoxOverlap Predicate = "bbox_overlap"
)

// ParsePredicate validates a predicate name against the closed set. The
// empty string selects simple_intersect.
func ParsePredicate(s string) (Predicate, error) {
	switch Predicate(s) {
	case PredicateSimpleIntersect, PredicateBBoxOverlap:
		return Predicate(s), nil
	case "":
		return PredicateSimpleIntersect, nil
	}
	return "", fmt.Errorf("unknown spatial predicate %q", s)
}

// Evaluate applies the predicate to a pair of geometries in planar
// coordinates.
func (p Predicate) Evaluate(a, b orb.Geometry) bool {
	if p == PredicateBBoxOverlap {
		return BBoxOverlap(a, b)
	}
	return Intersects(a, b)
}

// sqlFunc maps a predicate to its registered SQL function.
func (p Predicate) sqlFunc() (string, error) {
	switch p {
	case PredicateSimpleIntersect:
		return "st_intersects", nil
	case PredicateBBoxOverlap:
		return "st_bbox_overlap", nil
	}
	return "", fmt.Errorf("unknown spatial predicate %q", p)
}

// BBoxOverlap reports whether the bounding boxes of two geometries overlap.
// Touching edges count as overlap.
func BBoxOverlap(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Bound().Intersects(b.Bound())
}

// Intersects reports whether two geometries share at least one point. The
// test is planar: points, segment crossings, and polygon containment, with
// boundary contact counting as intersection. Supported inputs are the
// GeoJSON geometry types plus orb collections and bounds.
func Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	pa, pb := decompose(a), decompose(b)
	if containsAny(pa, pb) || containsAny(pb, pa) {
		return true
	}
	for _, sa := range pa.segments {
		for _, sb := range pb.segments {
			if segmentsIntersect(sa[0], sa[1], sb[0], sb[1]) {
				return true
			}
		}
	}
	return false
}

// parts is a geometry flattened for pairwise testing. Every vertex appears
// in points, so vertex-in-polygon containment covers any nesting the
// segment tests cannot see.
type parts struct {
	points   []orb.Point
	segments [][2]orb.Point
	polygons []orb.Polygon
}

func decompose(g orb.Geometry) parts {
	var p parts
	collect(g, &p)
	return p
}

func collect(g orb.Geometry, p *parts) {
	switch g := g.(type) {
	case orb.Point:
		p.points = append(p.points, g)
	case orb.MultiPoint:
		p.points = append(p.points, g...)
	case orb.LineString:
		p.points = append(p.points, g...)
		p.segments = append(p.segments, lineSegments(g)...)
	case orb.MultiLineString:
		for _, ls := range g {
			collect(ls, p)
		}
	case orb.Ring:
		collect(orb.Polygon{g}, p)
	case orb.Polygon:
		p.polygons = append(p.polygons, g)
		for _, r := range g {
			p.points = append(p.points, r...)
			p.segments = append(p.segments, lineSegments(orb.LineString(r))...)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			collect(poly, p)
		}
	case orb.Collection:
		for _, sub := range g {
			collect(sub, p)
		}
	case orb.Bound:
		collect(g.ToPolygon(), p)
	}
}

func lineSegments(ls orb.LineString) [][2]orb.Point {
	if len(ls) < 2 {
		return nil
	}
	segs := make([][2]orb.Point, 0, len(ls)-1)
	for i := 0; i+1 < len(ls); i++ {
		segs = append(segs, [2]orb.Point{ls[i], ls[i+1]})
	}
	return segs
}

// containsAny reports whether any point of a touches b: point equality,
// point on a segment, or point inside a polygon.
func containsAny(a, b parts) bool {
	for _, pt := range a.points {
		for _, other := range b.points {
			if pt == other {
				return true
			}
		}
		for _, seg := range b.segments {
			if orient(seg[0], pt, seg[1]) == 0 && inSegmentBound(seg[0], pt, seg[1]) {
				return true
			}
		}
		for _, poly := range b.polygons {
			if planar.PolygonContains(poly, pt) {
				return true
			}
		}
	}
	return false
}

// orient returns the sign of the cross product (q-p) x (r-p): positive for
// a left turn, negative for a right turn, zero for collinear points.
func orient(p, q, r orb.Point) int {
	v := (q[0]-p[0])*(r[1]-p[1]) - (q[1]-p[1])*(r[0]-p[0])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// inSegmentBound reports whether q lies within the axis-aligned bounds of
// segment a-b. Callers check collinearity first.
func inSegmentBound(a, q, b orb.Point) bool {
	return min(a[0], b[0]) <= q[0] && q[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= q[1] && q[1] <= max(a[1], b[1])
}

// segmentsIntersect reports whether segments p1-p2 and q1-q2 share a point,
// including collinear overlap and endpoint contact.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	o1 := orient(p1, p2, q1)
	o2 := orient(p1, p2, q2)
	o3 := orient(q1, q2, p1)
	o4 := orient(q1, q2, p2)
	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && inSegmentBound(p1, q1, p2) {
		return true
	}
	if o2 == 0 && inSegmentBound(p1, q2, p2) {
		return true
	}
	if o3 == 0 && inSegmentBound(q1, p1, q2) {
		return true
	}
	if o4 == 0 && inSegmentBound(q1, p2, q2) {
		return true
	}
	return false
}
