package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestParsePredicate(t *testing.T) {
	p, err := ParsePredicate("simple_intersect")
	require.NoError(t, err)
	assert.Equal(t, PredicateSimpleIntersect, p)

	p, err = ParsePredicate("bbox_overlap")
	require.NoError(t, err)
	assert.Equal(t, PredicateBBoxOverlap, p)

	p, err = ParsePredicate("")
	require.NoError(t, err)
	assert.Equal(t, PredicateSimpleIntersect, p, "empty predicate defaults to simple_intersect")

	_, err = ParsePredicate("st_contains")
	assert.Error(t, err)
}

func TestIntersects(t *testing.T) {
	holed := square(0, 0, 10, 10)
	holed = append(holed, orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}})

	tests := []struct {
		name string
		a, b orb.Geometry
		want bool
	}{
		{"point in polygon", orb.Point{2, 2}, square(0, 0, 10, 10), true},
		{"point outside polygon", orb.Point{11, 2}, square(0, 0, 10, 10), false},
		{"point on polygon edge", orb.Point{0, 5}, square(0, 0, 10, 10), true},
		{"point in hole", orb.Point{5, 5}, holed, false},
		{"point beside hole", orb.Point{2, 2}, holed, true},
		{"equal points", orb.Point{3, 3}, orb.Point{3, 3}, true},
		{"distinct points", orb.Point{3, 3}, orb.Point{3, 4}, false},
		{"point on line", orb.Point{1, 1}, orb.LineString{{0, 0}, {2, 2}}, true},
		{"point off line", orb.Point{1, 2}, orb.LineString{{0, 0}, {2, 2}}, false},
		{"crossing lines", orb.LineString{{0, 0}, {2, 2}}, orb.LineString{{0, 2}, {2, 0}}, true},
		{"parallel lines", orb.LineString{{0, 0}, {2, 0}}, orb.LineString{{0, 1}, {2, 1}}, false},
		{"collinear overlapping lines", orb.LineString{{0, 0}, {4, 0}}, orb.LineString{{2, 0}, {6, 0}}, true},
		{"collinear disjoint lines", orb.LineString{{0, 0}, {1, 0}}, orb.LineString{{2, 0}, {3, 0}}, false},
		{"lines touching at endpoint", orb.LineString{{0, 0}, {1, 1}}, orb.LineString{{1, 1}, {2, 0}}, true},
		{"line crossing polygon", orb.LineString{{-1, 5}, {11, 5}}, square(0, 0, 10, 10), true},
		{"line inside polygon", orb.LineString{{2, 2}, {3, 3}}, square(0, 0, 10, 10), true},
		{"line outside polygon", orb.LineString{{11, 11}, {12, 12}}, square(0, 0, 10, 10), false},
		{"overlapping polygons", square(0, 0, 4, 4), square(2, 2, 6, 6), true},
		{"nested polygons", square(2, 2, 3, 3), square(0, 0, 10, 10), true},
		{"polygon inside hole", square(4.5, 4.5, 5.5, 5.5), holed, false},
		{"edge-touching polygons", square(0, 0, 2, 2), square(2, 0, 4, 2), true},
		{"corner-touching polygons", square(0, 0, 2, 2), square(2, 2, 4, 4), true},
		{"disjoint polygons", square(0, 0, 2, 2), square(5, 5, 7, 7), false},
		{"multipoint hit", orb.MultiPoint{{20, 20}, {1, 1}}, square(0, 0, 10, 10), true},
		{"bound as polygon", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 4}}, orb.Point{2, 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intersects(tt.a, tt.b))
			assert.Equal(t, tt.want, Intersects(tt.b, tt.a), "intersection must be symmetric")
		})
	}
}

func TestIntersectsNil(t *testing.T) {
	assert.False(t, Intersects(nil, orb.Point{0, 0}))
	assert.False(t, Intersects(orb.Point{0, 0}, nil))
}

func TestBBoxOverlap(t *testing.T) {
	// Diagonals whose hulls overlap without the lines touching.
	a := orb.LineString{{0, 0}, {1, 1}}
	b := orb.LineString{{0, 1}, {-1, 0.2}}
	assert.True(t, BBoxOverlap(a, b))
	assert.False(t, Intersects(a, b), "bbox overlap is coarser than intersection")

	assert.False(t, BBoxOverlap(a, orb.Point{5, 5}))
	assert.True(t, BBoxOverlap(orb.Point{1, 1}, a), "touching bounds overlap")
}

func TestPredicateEvaluate(t *testing.T) {
	a := orb.LineString{{0, 0}, {1, 1}}
	b := orb.LineString{{0, 1}, {-1, 0.2}}
	assert.False(t, PredicateSimpleIntersect.Evaluate(a, b))
	assert.True(t, PredicateBBoxOverlap.Evaluate(a, b))
}
