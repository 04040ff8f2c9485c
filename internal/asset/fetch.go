package asset

import "fmt"

// FetchType names an asset's reconciliation policy. The set is closed:
// configuration naming any other value is rejected during resolution.
type FetchType string

const (
	// FetchVector replaces a vector layer's canonical file from its queue.
	FetchVector FetchType = "vector"

	// FetchRaster promotes raster files into the layer directory, last
	// write winning per filename.
	FetchRaster FetchType = "raster"

	// FetchDocument publishes documents alongside positioning metadata.
	FetchDocument FetchType = "document"

	// FetchAnnotation merges annotation features into another layer by
	// spatial join.
	FetchAnnotation FetchType = "annotation"
)

// ParseFetchType validates a fetch type name against the closed set.
func ParseFetchType(s string) (FetchType, error) {
	switch FetchType(s) {
	case FetchVector, FetchRaster, FetchDocument, FetchAnnotation:
		return FetchType(s), nil
	case "":
		return "", fmt.Errorf("fetch type is required")
	}
	return "", fmt.Errorf("unknown fetch type %q", s)
}

// FetchTypes returns the closed set in stable order.
func FetchTypes() []FetchType {
	return []FetchType{FetchVector, FetchRaster, FetchDocument, FetchAnnotation}
}
