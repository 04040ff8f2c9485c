package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fireatlas/dataswale/internal/delta"
)

// Scenario defines a conformance test scenario. Scenarios validate the
// materialization pipeline by declaring an atlas, executing a sequence of
// steps against it and asserting on the final on-disk state.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the atlas
	// name, so it shows up in every path the run produces.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// BBox is the atlas extent as [north, south, east, west]. A default
	// extent applies when omitted.
	BBox []float64 `yaml:"bbox,omitempty"`

	// Layers declares the atlas layers the steps operate on.
	Layers []LayerDef `yaml:"layers"`

	// Assets declares the atlas assets keyed by name. Each value is the
	// asset's option map (fetch_type, out_layer, anno_type, ...), exactly
	// as it would appear in an atlas configuration.
	Assets map[string]map[string]any `yaml:"assets,omitempty"`

	// Steps is the action sequence to execute in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final tree. Optional when Golden is set.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden marks this scenario for golden snapshot comparison.
	Golden bool `yaml:"golden,omitempty"`
}

// LayerDef declares one scenario layer.
type LayerDef struct {
	// Name identifies the layer and its directories on disk.
	Name string `yaml:"name"`

	// Options holds extra layer keys (vector_width and friends).
	Options map[string]any `yaml:"options,omitempty"`
}

// Step is a single scenario action. Which fields apply depends on Op.
type Step struct {
	// Op names the operation: add_delta, stage_file, refresh_vector,
	// refresh_raster, refresh_document, annotate or materialize.
	Op string `yaml:"op"`

	// Asset names the acting asset (add_delta, annotate, materialize).
	Asset string `yaml:"asset,omitempty"`

	// Layer names the target layer (stage_file and the refresh ops).
	Layer string `yaml:"layer,omitempty"`

	// Action is the delta action for add_delta, defaulting to replace.
	Action string `yaml:"action,omitempty"`

	// Features holds inline GeoJSON features for add_delta.
	Features []map[string]any `yaml:"features,omitempty"`

	// File is the filename to create in the pending area (stage_file).
	File string `yaml:"file,omitempty"`

	// Content is the staged file's body (stage_file).
	Content string `yaml:"content,omitempty"`

	// ExpectCount, when set, is validated against the step's count:
	// features queued or written, files staged, promoted or published.
	ExpectCount *int `yaml:"expect_count,omitempty"`

	// ExpectError, when set, requires the step to fail with an error
	// containing this substring. The run continues past such a step.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operation constants.
const (
	OpAddDelta        = "add_delta"
	OpStageFile       = "stage_file"
	OpRefreshVector   = "refresh_vector"
	OpRefreshRaster   = "refresh_raster"
	OpRefreshDocument = "refresh_document"
	OpAnnotate        = "annotate"
	OpMaterialize     = "materialize"
)

// Assertion validates one aspect of the final tree.
type Assertion struct {
	// Type specifies the assertion type:
	// - "layer_count": canonical vector file holds exactly Count features
	// - "pending_count": Count consumable files remain pending
	// - "processed_count": Count files sit in the processed archive
	// - "work_count": Count files sit in the work archive
	// - "feature_property": a feature matching Match has Property == Value
	// - "document_meta": document Document's record contains Match
	// - "file_content": layer file File holds exactly Value
	Type string `yaml:"type"`

	// Layer is the layer under inspection (all types).
	Layer string `yaml:"layer"`

	// Count is the expected count (the *_count types).
	Count int `yaml:"count,omitempty"`

	// Match selects features or record fields by subset match.
	Match map[string]any `yaml:"match,omitempty"`

	// Property is the feature property to check (feature_property).
	Property string `yaml:"property,omitempty"`

	// Value is the expected property or file value.
	Value any `yaml:"value,omitempty"`

	// Document is the published document stem (document_meta).
	Document string `yaml:"document,omitempty"`

	// File is a filename under the layer directory (file_content).
	File string `yaml:"file,omitempty"`
}

// Assertion type constants.
const (
	AssertLayerCount      = "layer_count"
	AssertPendingCount    = "pending_count"
	AssertProcessedCount  = "processed_count"
	AssertWorkCount       = "work_count"
	AssertFeatureProperty = "feature_property"
	AssertDocumentMeta    = "document_meta"
	AssertFileContent     = "file_content"
)

// LoadScenario reads and parses a scenario YAML file. Returns an error if
// the file doesn't exist, is malformed, contains unknown fields (typos),
// or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.BBox) != 0 && len(s.BBox) != 4 {
		return fmt.Errorf("bbox must hold [north, south, east, west]")
	}

	if len(s.Layers) == 0 {
		return fmt.Errorf("layers list is required and must be non-empty")
	}
	for i, l := range s.Layers {
		if l.Name == "" {
			return fmt.Errorf("layers[%d]: name is required", i)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	if len(s.Assertions) == 0 && !s.Golden {
		return fmt.Errorf("assertions list is required unless golden is set")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its operation.
func validateStep(index int, step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if step.ExpectError != "" && step.ExpectCount != nil {
		return fmt.Errorf("steps[%d]: expect_error and expect_count are mutually exclusive", index)
	}

	switch step.Op {
	case OpAddDelta:
		if step.Asset == "" {
			return fmt.Errorf("steps[%d]: asset is required for add_delta", index)
		}
		if len(step.Features) == 0 {
			return fmt.Errorf("steps[%d]: features list is required for add_delta", index)
		}
		if _, err := delta.ParseAction(step.Action); err != nil {
			return fmt.Errorf("steps[%d]: %v", index, err)
		}
	case OpStageFile:
		if step.Layer == "" {
			return fmt.Errorf("steps[%d]: layer is required for stage_file", index)
		}
		if step.File == "" {
			return fmt.Errorf("steps[%d]: file is required for stage_file", index)
		}
	case OpRefreshVector, OpRefreshRaster, OpRefreshDocument:
		if step.Layer == "" {
			return fmt.Errorf("steps[%d]: layer is required for %s", index, step.Op)
		}
	case OpAnnotate, OpMaterialize:
		if step.Asset == "" {
			return fmt.Errorf("steps[%d]: asset is required for %s", index, step.Op)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown step op %q", index, step.Op)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Layer == "" {
		return fmt.Errorf("assertions[%d]: layer is required", index)
	}

	switch a.Type {
	case AssertLayerCount, AssertPendingCount, AssertProcessedCount, AssertWorkCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertFeatureProperty:
		if a.Property == "" {
			return fmt.Errorf("assertions[%d]: property is required for feature_property", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for feature_property", index)
		}
	case AssertDocumentMeta:
		if a.Document == "" {
			return fmt.Errorf("assertions[%d]: document is required for document_meta", index)
		}
		if len(a.Match) == 0 {
			return fmt.Errorf("assertions[%d]: match is required for document_meta", index)
		}
	case AssertFileContent:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for file_content", index)
		}
		if _, ok := a.Value.(string); !ok {
			return fmt.Errorf("assertions[%d]: value must be a string for file_content", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
