package geo

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb/geojson"
)

// DecodeCollectionLenient decodes a GeoJSON feature collection, dropping
// individual features that fail to decode instead of failing the document.
// Spatial merges use it so that one malformed geometry does not poison the
// rest of the batch. The number of dropped features is returned.
func DecodeCollectionLenient(data []byte, log *slog.Logger) (*geojson.FeatureCollection, int, error) {
	if log == nil {
		log = slog.Default()
	}

	var raw struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode collection: %w", err)
	}
	if raw.Type != "FeatureCollection" {
		return nil, 0, fmt.Errorf("not a FeatureCollection: type %q", raw.Type)
	}

	fc := geojson.NewFeatureCollection()
	dropped := 0
	for i, rf := range raw.Features {
		f, err := geojson.UnmarshalFeature(rf)
		if err != nil {
			log.Warn("feature dropped: geometry failed to parse", "index", i, "error", err)
			dropped++
			continue
		}
		fc.Append(f)
	}
	return fc, dropped, nil
}
