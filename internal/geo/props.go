package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// ScalarOK reports whether v is a permitted feature property value.
// Property maps are flat: nested objects and arrays are rejected.
func ScalarOK(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return true
	default:
		return false
	}
}

// ValidateProperties returns an error naming the first property whose value
// is not a flat scalar.
func ValidateProperties(props geojson.Properties) error {
	for key, v := range props {
		if !ScalarOK(v) {
			return fmt.Errorf("property %q: value of type %T is not a scalar", key, v)
		}
	}
	return nil
}

// Truthy reports whether v counts as a set value. Annotation merges use it
// to decide whether a listed property should overwrite the layer's value:
// nil, false, zero numbers, empty strings and empty collections do not.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case float32:
		return val != 0
	case int:
		return val != 0
	case int32:
		return val != 0
	case int64:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// CloneProperties returns a shallow copy of props. Values are scalars in
// well-formed features, so a shallow copy is a full copy in practice.
func CloneProperties(props geojson.Properties) geojson.Properties {
	out := make(geojson.Properties, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// Int coerces a JSON-decoded numeric value to an int.
func Int(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case float32:
		return int(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}
