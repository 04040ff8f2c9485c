package delta

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/fireatlas/dataswale/internal/atlas"
	"github.com/fireatlas/dataswale/internal/geo"
)

// PropVectorWidth is the derived stroke-width property attached to every
// drained vector feature.
const PropVectorWidth = "vector_width"

// DefaultVectorWidth applies when neither the feature nor the layer
// declares a width.
const DefaultVectorWidth = 2

// Transform normalizes a freshly decoded batch feature in place before it
// is yielded to consumers. Properties become non-nil, values must be flat
// scalars, and vector_width is defaulted from the layer configuration.
// Transform is deterministic: the same feature and layer always produce
// the same result.
func Transform(f *geojson.Feature, layer *atlas.Layer) error {
	if f == nil {
		return fmt.Errorf("nil feature")
	}
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	if err := geo.ValidateProperties(f.Properties); err != nil {
		return err
	}
	if _, ok := f.Properties[PropVectorWidth]; !ok {
		width := DefaultVectorWidth
		if layer != nil {
			if w, ok := layer.VectorWidth(); ok {
				width = w
			}
		}
		f.Properties[PropVectorWidth] = width
	}
	return nil
}
