package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/fireatlas/dataswale/internal/asset"
	"github.com/fireatlas/dataswale/internal/atlas"
	"github.com/fireatlas/dataswale/internal/delta"
	"github.com/fireatlas/dataswale/internal/layer"
	"github.com/fireatlas/dataswale/internal/testutil"
)

// defaultBBox is the atlas extent scenarios get when they declare none.
var defaultBBox = atlas.BBox{North: 41, South: 40, East: -104, West: -105}

// Harness executes one scenario against a real atlas tree. Every run gets
// its own temporary data root, a fixed stamp clock and sequential drain
// tokens, so two runs of the same scenario produce identical trees.
type Harness struct {
	cfg    *atlas.Config
	writer *delta.Writer
	queue  *delta.Queue
	mat    *layer.Materializer
	reg    *asset.Registry
	log    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh temporary data root for isolation; the
// root is removed before Run returns, so everything assertions and golden
// comparison need is captured into the Result first.
//
// Execution flow:
//  1. Build the atlas configuration from the scenario and init its tree
//  2. Execute steps in order, recording counts and expected errors
//  3. Evaluate assertions against the tree
//  4. Snapshot the final canonical content of every layer
func Run(scenario *Scenario) (*Result, error) {
	dataRoot, err := os.MkdirTemp("", "dataswale-harness-*")
	if err != nil {
		return nil, fmt.Errorf("create scenario root: %w", err)
	}
	defer os.RemoveAll(dataRoot)

	cfg := buildConfig(scenario, dataRoot)
	if err := atlas.Init(cfg); err != nil {
		return nil, fmt.Errorf("init scenario atlas: %w", err)
	}

	// Scenario runs are quiet; step records carry the detail.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := delta.NewQueue(cfg, testutil.NewSequenceTokens("scenario"), log)
	h := &Harness{
		cfg:    cfg,
		writer: delta.NewWriter(cfg, testutil.DefaultClock(), log),
		queue:  queue,
		mat:    layer.NewMaterializer(cfg, queue, nil, log),
		log:    log,
	}
	reg, err := asset.NewRegistry(h.mat.Handlers(), log)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	h.reg = reg

	ctx := context.Background()
	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Cfg: cfg}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	if err := captureState(cfg, result); err != nil {
		return nil, fmt.Errorf("capture final state: %w", err)
	}
	return result, nil
}

// buildConfig turns a scenario's declarations into an atlas configuration
// rooted at dataRoot. Layer options and asset maps become overrides, the
// same position they hold in a configuration document.
func buildConfig(s *Scenario, dataRoot string) *atlas.Config {
	bbox := defaultBBox
	if len(s.BBox) == 4 {
		bbox = atlas.BBox{North: s.BBox[0], South: s.BBox[1], East: s.BBox[2], West: s.BBox[3]}
	}
	cfg := &atlas.Config{
		Name:        s.Name,
		DataRoot:    dataRoot,
		Description: s.Description,
		BBox:        bbox,
	}
	for _, l := range s.Layers {
		cfg.Layers = append(cfg.Layers, &atlas.Layer{Name: l.Name, Overrides: l.Options})
	}
	if len(s.Assets) > 0 {
		cfg.Assets = make(map[string]*atlas.Asset, len(s.Assets))
		for name, opts := range s.Assets {
			cfg.Assets[name] = &atlas.Asset{Overrides: opts}
		}
	}
	return cfg
}

// executeSteps runs all steps in order, validating their expectations.
// A step failure without expect_error aborts the run; expectation
// mismatches are recorded as result errors and execution continues.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		n, target, err := h.executeStep(ctx, step)

		rec := StepRecord{Op: step.Op, Target: target, Count: n}
		if err != nil && step.ExpectError != "" {
			rec.Err = err.Error()
		}
		result.AddStep(rec)

		if step.ExpectError != "" {
			if err == nil {
				result.AddError(fmt.Sprintf("steps[%d] (%s %s): expected error containing %q, got none",
					i, step.Op, target, step.ExpectError))
			} else if !strings.Contains(err.Error(), step.ExpectError) {
				result.AddError(fmt.Sprintf("steps[%d] (%s %s): error %q does not contain %q",
					i, step.Op, target, err, step.ExpectError))
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("steps[%d] (%s %s): %w", i, step.Op, target, err)
		}
		if step.ExpectCount != nil && n != *step.ExpectCount {
			result.AddError(fmt.Sprintf("steps[%d] (%s %s): count %d, want %d",
				i, step.Op, target, n, *step.ExpectCount))
		}
	}
	return nil
}

// executeStep dispatches one step. It returns the step's count and the
// asset or layer it acted on.
func (h *Harness) executeStep(ctx context.Context, step Step) (int, string, error) {
	switch step.Op {
	case OpAddDelta:
		fc, err := collectFeatures(step.Features)
		if err != nil {
			return 0, step.Asset, err
		}
		n, _, err := h.writer.Add(step.Asset, fc, delta.Action(step.Action))
		return n, step.Asset, err

	case OpStageFile:
		dir, err := h.cfg.PendingDir(step.Layer)
		if err != nil {
			return 0, step.Layer, err
		}
		if err := os.WriteFile(filepath.Join(dir, step.File), []byte(step.Content), 0o644); err != nil {
			return 0, step.Layer, fmt.Errorf("stage %s: %w", step.File, err)
		}
		return 1, step.Layer, nil

	case OpRefreshVector:
		n, err := h.mat.RefreshVector(ctx, step.Layer)
		return n, step.Layer, err

	case OpRefreshRaster:
		n, err := h.mat.RefreshRaster(ctx, step.Layer)
		return n, step.Layer, err

	case OpRefreshDocument:
		n, err := h.mat.RefreshDocument(ctx, step.Layer)
		return n, step.Layer, err

	case OpAnnotate:
		a, ok := h.cfg.AssetByName(step.Asset)
		if !ok {
			return 0, step.Asset, atlas.NewConfigError("assets."+step.Asset, "not declared")
		}
		n, err := h.mat.AnnotateAsset(ctx, step.Asset, a)
		return n, step.Asset, err

	case OpMaterialize:
		a, ok := h.cfg.AssetByName(step.Asset)
		if !ok {
			return 0, step.Asset, atlas.NewConfigError("assets."+step.Asset, "not declared")
		}
		return 0, step.Asset, h.reg.Materialize(ctx, step.Asset, a)
	}
	// validateScenario rejects unknown ops before execution.
	return 0, "", fmt.Errorf("unknown step op %q", step.Op)
}

// collectFeatures converts inline scenario features into a collection.
func collectFeatures(features []map[string]any) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for i, m := range features {
		f, err := featureFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("features[%d]: %w", i, err)
		}
		fc.Append(f)
	}
	return fc, nil
}

// featureFromMap round-trips a YAML-parsed feature map through JSON into a
// GeoJSON feature. The type member is filled in when omitted, since
// scenarios only ever carry features.
func featureFromMap(m map[string]any) (*geojson.Feature, error) {
	if _, ok := m["type"]; !ok {
		m["type"] = "Feature"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode feature: %w", err)
	}
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("parse feature: %w", err)
	}
	return f, nil
}

// captureState snapshots every declared layer's directory into the result:
// JSON artifacts decoded, anything else as a raw string. The snapshot is
// what golden comparison sees after the temporary root is gone.
func captureState(cfg *atlas.Config, result *Result) error {
	for _, l := range cfg.Layers {
		dir, err := cfg.LayerDir(l.Name)
		if err != nil {
			return err
		}
		files := make(map[string]any)
		dirents, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("snapshot layer %s: %w", l.Name, err)
		}
		for _, d := range dirents {
			if d.IsDir() {
				continue
			}
			name := d.Name()
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", name, err)
			}
			if strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".geojson") {
				var doc any
				if err := json.Unmarshal(data, &doc); err != nil {
					return fmt.Errorf("snapshot %s: %w", name, err)
				}
				files[name] = relativize(doc, cfg.DataRoot)
			} else {
				files[name] = string(data)
			}
		}
		result.State[l.Name] = files
	}
	return nil
}

// relativize rewrites absolute paths under the run's temporary root
// (document image_path) relative to the data root, keeping snapshots
// comparable across runs.
func relativize(v any, root string) any {
	switch val := v.(type) {
	case string:
		if rel, ok := strings.CutPrefix(val, root+string(os.PathSeparator)); ok {
			return rel
		}
		return val
	case []any:
		for i := range val {
			val[i] = relativize(val[i], root)
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = relativize(val[k], root)
		}
		return val
	default:
		return val
	}
}
