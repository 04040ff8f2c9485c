package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/fireatlas/dataswale/internal/atlas"
	"github.com/fireatlas/dataswale/internal/delta"
	"github.com/fireatlas/dataswale/internal/layer"
)

// AssertionError is returned when an assertion fails. It includes detailed
// context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Steps    []StepRecord // Executed steps for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nSteps executed:\n")
		for i, s := range e.Steps {
			fmt.Fprintf(&buf, "  [%d] %s %s (count %d)\n", i+1, s.Op, s.Target, s.Count)
		}
	}

	return buf.String()
}

// AssertionContext provides the atlas handle assertions inspect.
type AssertionContext struct {
	Cfg *atlas.Config
}

// EvaluateAssertions evaluates all assertions against the tree the steps
// produced. Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLayerCount:
			err = assertLayerCount(actx, assertion, result.Steps)
		case AssertPendingCount:
			err = assertPendingCount(actx, assertion, result.Steps)
		case AssertProcessedCount:
			err = assertArchiveCount(actx, assertion, result.Steps)
		case AssertWorkCount:
			err = assertArchiveCount(actx, assertion, result.Steps)
		case AssertFeatureProperty:
			err = assertFeatureProperty(actx, assertion, result.Steps)
		case AssertDocumentMeta:
			err = assertDocumentMeta(actx, assertion, result.Steps)
		case AssertFileContent:
			err = assertFileContent(actx, assertion, result.Steps)
		default:
			err = fmt.Errorf("assertions[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// readCanonical loads a layer's canonical vector file.
func readCanonical(cfg *atlas.Config, layerName string) (*geojson.FeatureCollection, error) {
	path, err := cfg.VectorPath(layerName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return geojson.UnmarshalFeatureCollection(data)
}

// assertLayerCount checks the canonical vector file's feature count.
func assertLayerCount(actx *AssertionContext, a Assertion, steps []StepRecord) error {
	fc, err := readCanonical(actx.Cfg, a.Layer)
	if err != nil {
		return &AssertionError{
			Type:     AssertLayerCount,
			Expected: fmt.Sprintf("%d features in layer %s", a.Count, a.Layer),
			Actual:   fmt.Sprintf("cannot read canonical file: %v", err),
			Steps:    steps,
		}
	}
	if len(fc.Features) != a.Count {
		return &AssertionError{
			Type:     AssertLayerCount,
			Expected: fmt.Sprintf("%d features in layer %s", a.Count, a.Layer),
			Actual:   fmt.Sprintf("%d features", len(fc.Features)),
			Steps:    steps,
		}
	}
	return nil
}

// assertPendingCount checks how many consumable files are left pending.
// Metadata sidecars do not count, matching what consumers see.
func assertPendingCount(actx *AssertionContext, a Assertion, steps []StepRecord) error {
	files, err := delta.PendingFiles(actx.Cfg, a.Layer)
	if err != nil {
		return fmt.Errorf("pending_count: %w", err)
	}
	if len(files) != a.Count {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = filepath.Base(f)
		}
		return &AssertionError{
			Type:     AssertPendingCount,
			Expected: fmt.Sprintf("%d pending files for layer %s", a.Count, a.Layer),
			Actual:   fmt.Sprintf("%d pending files: %v", len(files), names),
			Steps:    steps,
		}
	}
	return nil
}

// assertArchiveCount checks the raw file count of a layer's processed or
// work archive, sidecars included.
func assertArchiveCount(actx *AssertionContext, a Assertion, steps []StepRecord) error {
	var dir string
	var err error
	switch a.Type {
	case AssertProcessedCount:
		dir, err = actx.Cfg.ProcessedDir(a.Layer)
	case AssertWorkCount:
		dir, err = actx.Cfg.WorkDir(a.Layer)
	default:
		return fmt.Errorf("archive count: unexpected type %q", a.Type)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}

	names, err := listFiles(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}
	if len(names) != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d archived files for layer %s", a.Count, a.Layer),
			Actual:   fmt.Sprintf("%d archived files: %v", len(names), names),
			Steps:    steps,
		}
	}
	return nil
}

// listFiles returns the sorted regular file names in dir, nil for a
// missing directory.
func listFiles(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		names = append(names, d.Name())
	}
	return names, nil
}

// assertFeatureProperty checks that the canonical layer holds a feature
// whose properties contain Match (subset) and whose Property equals Value.
func assertFeatureProperty(actx *AssertionContext, a Assertion, steps []StepRecord) error {
	fc, err := readCanonical(actx.Cfg, a.Layer)
	if err != nil {
		return &AssertionError{
			Type:     AssertFeatureProperty,
			Expected: fmt.Sprintf("layer %s with a feature matching %v", a.Layer, a.Match),
			Actual:   fmt.Sprintf("cannot read canonical file: %v", err),
			Steps:    steps,
		}
	}

	for _, f := range fc.Features {
		if !propsMatch(f.Properties, a.Match) {
			continue
		}
		if looseEqual(a.Value, f.Properties[a.Property]) {
			return nil
		}
	}

	// Summarize the candidates so the failure is debuggable.
	var seen []string
	for _, f := range fc.Features {
		if propsMatch(f.Properties, a.Match) {
			seen = append(seen, fmt.Sprintf("%v", f.Properties[a.Property]))
		}
	}
	actual := "no feature matches"
	if len(seen) > 0 {
		actual = fmt.Sprintf("property %q values on matching features: %v", a.Property, seen)
	}
	return &AssertionError{
		Type:     AssertFeatureProperty,
		Expected: fmt.Sprintf("feature matching %v with %s = %v", a.Match, a.Property, a.Value),
		Actual:   actual,
		Steps:    steps,
	}
}

// assertDocumentMeta checks a published document's positioning record.
func assertDocumentMeta(actx *AssertionContext, a Assertion, steps []StepRecord) error {
	path, err := actx.Cfg.Path(atlas.CategoryLayers, a.Layer, a.Document+layer.DocumentMetaSuffix)
	if err != nil {
		return fmt.Errorf("document_meta: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &AssertionError{
			Type:     AssertDocumentMeta,
			Expected: fmt.Sprintf("document record for %s in layer %s", a.Document, a.Layer),
			Actual:   fmt.Sprintf("cannot read record: %v", err),
			Steps:    steps,
		}
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("document_meta: parse %s: %w", filepath.Base(path), err)
	}

	for key, expected := range a.Match {
		actual, exists := record[key]
		if !exists {
			return &AssertionError{
				Type:     AssertDocumentMeta,
				Expected: fmt.Sprintf("record field %q = %v", key, expected),
				Actual:   fmt.Sprintf("field %q not present in record", key),
				Steps:    steps,
			}
		}
		if !looseEqual(expected, actual) {
			return &AssertionError{
				Type:     AssertDocumentMeta,
				Expected: fmt.Sprintf("record field %q = %v", key, expected),
				Actual:   fmt.Sprintf("record field %q = %v", key, actual),
				Steps:    steps,
			}
		}
	}
	return nil
}

// assertFileContent checks one layer file's exact content.
func assertFileContent(actx *AssertionContext, a Assertion, steps []StepRecord) error {
	path, err := actx.Cfg.Path(atlas.CategoryLayers, a.Layer, a.File)
	if err != nil {
		return fmt.Errorf("file_content: %w", err)
	}
	want, _ := a.Value.(string)
	data, err := os.ReadFile(path)
	if err != nil {
		return &AssertionError{
			Type:     AssertFileContent,
			Expected: fmt.Sprintf("file %s in layer %s", a.File, a.Layer),
			Actual:   fmt.Sprintf("cannot read file: %v", err),
			Steps:    steps,
		}
	}
	if string(data) != want {
		return &AssertionError{
			Type:     AssertFileContent,
			Expected: fmt.Sprintf("file %s holds %q", a.File, want),
			Actual:   fmt.Sprintf("file holds %q", string(data)),
			Steps:    steps,
		}
	}
	return nil
}

// propsMatch checks if actual properties contain all expected entries
// (subset match). Extra keys in actual are ignored.
func propsMatch(actual geojson.Properties, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !looseEqual(expectedVal, actualVal) {
			return false
		}
	}
	return true
}

// looseEqual compares a YAML-parsed expected value against a JSON-decoded
// actual value. YAML yields ints where JSON decoding yields float64, so
// numbers compare by value rather than type.
func looseEqual(expected, actual any) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	if ef, ok := toFloat(expected); ok {
		af, ok := toFloat(actual)
		return ok && ef == af
	}

	switch exp := expected.(type) {
	case string:
		actualStr, ok := actual.(string)
		return ok && exp == actualStr
	case bool:
		actualBool, ok := actual.(bool)
		return ok && exp == actualBool
	case []any:
		actualList, ok := actual.([]any)
		if !ok || len(exp) != len(actualList) {
			return false
		}
		for i := range exp {
			if !looseEqual(exp[i], actualList[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		actualMap, ok := actual.(map[string]any)
		if !ok || len(exp) != len(actualMap) {
			return false
		}
		for k, v := range exp {
			av, exists := actualMap[k]
			if !exists || !looseEqual(v, av) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(expected, actual)
}

// toFloat widens any numeric value to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
