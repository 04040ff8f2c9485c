package layer

import (
	"errors"
	"fmt"
)

// MissingLayerError reports an operation against a layer the atlas does not
// declare, or whose canonical file does not exist yet.
type MissingLayerError struct {
	// Layer is the requested layer name.
	Layer string

	// Path is the canonical file that was expected, empty when the layer
	// itself is undeclared.
	Path string
}

func (e *MissingLayerError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("layer %s: missing canonical file %s", e.Layer, e.Path)
	}
	return fmt.Sprintf("layer %s: not declared in atlas", e.Layer)
}

// IsMissingLayer reports whether err is a MissingLayerError.
func IsMissingLayer(err error) bool {
	var m *MissingLayerError
	return errors.As(err, &m)
}
