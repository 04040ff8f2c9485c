package delta

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/fireatlas/dataswale/internal/atlas"
)

// Queue reads layer delta queues. It is stateless; every Drain call starts
// an independent pass with its own correlation token.
type Queue struct {
	cfg    *atlas.Config
	tokens TokenGenerator
	log    *slog.Logger
}

// NewQueue creates a queue reader. A nil token generator falls back to
// UUIDv7 tokens and a nil logger to slog.Default().
func NewQueue(cfg *atlas.Config, tokens TokenGenerator, log *slog.Logger) *Queue {
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Queue{cfg: cfg, tokens: tokens, log: log}
}

// Pending returns the ordered pending batch entries for a layer, without
// consuming anything. Files whose names do not parse as batch stems are
// not deltas and are skipped with a warning.
func (q *Queue) Pending(layerName string) ([]Entry, error) {
	dir, err := q.cfg.PendingDir(layerName)
	if err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list pending for %s: %w", layerName, err)
	}

	var entries []Entry
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, BatchSuffix) || strings.HasSuffix(name, SidecarSuffix) {
			continue
		}
		stem := strings.TrimSuffix(name, BatchSuffix)
		asset, stamp, seq, err := ParseStem(stem)
		if err != nil {
			q.log.Warn("pending file is not a delta batch", "layer", layerName, "file", name, "error", err)
			continue
		}
		path := filepath.Join(dir, name)
		meta, err := readMeta(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Layer: layerName,
			Asset: asset,
			Stamp: stamp,
			Seq:   seq,
			Stem:  stem,
			Path:  path,
			Meta:  meta,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Stem < entries[j].Stem })
	return entries, nil
}

// Drain begins consuming a layer's pending replace batches in filename
// order. Batches queued for other actions stay pending for their own
// materializers. The returned Drain is single-use and not restartable.
func (q *Queue) Drain(ctx context.Context, layerName string) *Drain {
	d := &Drain{
		ctx:       ctx,
		log:       q.log,
		layerName: layerName,
		token:     q.tokens.Generate(),
	}
	if l, ok := q.cfg.LayerByName(layerName); ok {
		d.layer = l
	}
	entries, err := q.Pending(layerName)
	if err != nil {
		d.err = err
		return d
	}
	for _, e := range entries {
		if e.Meta.Action != ActionReplace {
			q.log.Debug("batch belongs to another policy, leaving pending",
				"pass", d.token, "file", e.Stem, "action", e.Meta.Action)
			continue
		}
		d.entries = append(d.entries, e)
	}
	d.processedDir, d.err = q.cfg.ProcessedDir(layerName)
	q.log.Debug("drain started", "pass", d.token, "layer", layerName, "pending", len(d.entries))
	return d
}

// Drain iterates a layer's pending features in consumption order, archiving
// each batch file once its last feature has been yielded:
//
//	d := queue.Drain(ctx, "roads")
//	for d.Next() {
//		f := d.Feature()
//		...
//	}
//	if err := d.Err(); err != nil { ... }
//
// The first bad batch stops the drain: Err() reports it, the file stays
// pending, and batches archived earlier in the pass stay archived.
type Drain struct {
	ctx          context.Context
	log          *slog.Logger
	layerName    string
	layer        *atlas.Layer
	processedDir string
	token        string

	entries []Entry
	idx     int
	loaded  bool
	feats   []*geojson.Feature
	fidx    int

	cur   *geojson.Feature
	count int
	err   error
	done  bool
}

// Next advances to the next feature. It returns false when the queue is
// exhausted, the context is cancelled, or a batch fails; Err distinguishes
// the cases.
func (d *Drain) Next() bool {
	if d.err != nil || d.done {
		return false
	}
	if err := d.ctx.Err(); err != nil {
		d.err = err
		return false
	}
	for {
		if d.loaded {
			if d.fidx < len(d.feats) {
				d.cur = d.feats[d.fidx]
				d.fidx++
				d.count++
				return true
			}
			if err := d.archiveCurrent(); err != nil {
				d.err = err
				return false
			}
			d.idx++
			d.loaded = false
		}
		if d.idx >= len(d.entries) {
			d.done = true
			d.log.Debug("drain finished", "pass", d.token, "layer", d.layerName, "features", d.count)
			return false
		}
		if err := d.loadCurrent(); err != nil {
			d.err = err
			return false
		}
	}
}

// Feature returns the feature Next advanced to.
func (d *Drain) Feature() *geojson.Feature {
	return d.cur
}

// Err returns the error that stopped the drain, if any.
func (d *Drain) Err() error {
	return d.err
}

// Count returns the number of features yielded so far.
func (d *Drain) Count() int {
	return d.count
}

// loadCurrent reads and transforms the current entry's features.
func (d *Drain) loadCurrent() error {
	e := d.entries[d.idx]
	data, err := os.ReadFile(e.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// Lost the race: another drain consumed this batch between
			// listing and reading. Skip it.
			d.log.Debug("batch vanished before read", "pass", d.token, "file", e.Stem)
			d.idx++
			return nil
		}
		return fmt.Errorf("read batch %s: %w", e.Path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return &InvalidDeltaError{Path: e.Path, Reason: "not a feature collection", Err: err}
	}
	for _, f := range fc.Features {
		if err := Transform(f, d.layer); err != nil {
			return &InvalidDeltaError{Path: e.Path, Reason: "transform failed", Err: err}
		}
	}
	d.feats = fc.Features
	d.fidx = 0
	d.loaded = true
	d.log.Debug("batch opened", "pass", d.token, "file", e.Stem, "features", len(fc.Features))
	return nil
}

// archiveCurrent commits consumption of the current entry by renaming it
// into the processed directory.
func (d *Drain) archiveCurrent() error {
	e := d.entries[d.idx]
	moved, err := e.Archive(d.processedDir)
	if err != nil {
		return err
	}
	if moved {
		d.log.Debug("batch archived", "pass", d.token, "file", e.Stem)
	} else {
		d.log.Debug("batch already archived elsewhere", "pass", d.token, "file", e.Stem)
	}
	return nil
}
