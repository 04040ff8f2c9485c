package delta

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"

	"github.com/fireatlas/dataswale/internal/atlas"
)

// Writer appends delta batches to layer queues. It owns filename
// generation; producers hand it features and an action, nothing more.
type Writer struct {
	cfg   *atlas.Config
	clock StampClock
	log   *slog.Logger
}

// NewWriter creates a delta writer. A nil clock falls back to the system
// clock and a nil logger to slog.Default().
func NewWriter(cfg *atlas.Config, clock StampClock, log *slog.Logger) *Writer {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Writer{cfg: cfg, clock: clock, log: log}
}

// Add appends a feature batch to the queue of the asset's output layer and
// returns the feature count and the batch file path.
//
// The filename is {asset}_{stamp}.geojson under the layer's pending
// directory. When a file for the stamp already exists, a monotonic -NN
// suffix keeps the new batch distinct and ordered after it; silently
// overwriting would break the append-only log.
func (w *Writer) Add(assetName string, fc *geojson.FeatureCollection, action Action) (int, string, error) {
	a, ok := w.cfg.AssetByName(assetName)
	if !ok {
		return 0, "", atlas.NewConfigError("assets."+assetName, "not declared")
	}
	layerName := a.OutLayer()
	if layerName == "" {
		return 0, "", atlas.NewConfigError("assets."+assetName+".out_layer", "required to queue deltas")
	}
	if fc == nil {
		return 0, "", &InvalidDeltaError{Reason: "nil feature collection"}
	}
	action, err := ParseAction(string(action))
	if err != nil {
		return 0, "", &InvalidDeltaError{Reason: err.Error()}
	}

	dir, err := w.cfg.PendingDir(layerName)
	if err != nil {
		return 0, "", err
	}

	path, err := w.nextPath(dir, assetName)
	if err != nil {
		return 0, "", err
	}

	if err := atlas.WriteJSON(path, fc); err != nil {
		return 0, "", fmt.Errorf("write delta batch: %w", err)
	}
	meta := Meta{Action: action, Join: DefaultJoin}
	if err := atlas.WriteJSON(sidecarFor(path), meta); err != nil {
		return 0, "", fmt.Errorf("write delta sidecar: %w", err)
	}

	w.log.Info("delta queued",
		"layer", layerName,
		"asset", assetName,
		"action", string(action),
		"features", len(fc.Features),
		"file", filepath.Base(path),
	)
	return len(fc.Features), path, nil
}

// nextPath picks the first unused filename for this write: the bare stamp,
// then stamp-01, stamp-02 and so on.
func (w *Writer) nextPath(dir, assetName string) (string, error) {
	stem := assetName + "_" + w.clock.Stamp()
	path := filepath.Join(dir, stem+BatchSuffix)
	for seq := 1; ; seq++ {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("probe delta path %s: %w", path, err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%02d%s", stem, seq, BatchSuffix))
	}
}
