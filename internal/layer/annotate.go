package layer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/fireatlas/dataswale/internal/atlas"
	"github.com/fireatlas/dataswale/internal/delta"
	"github.com/fireatlas/dataswale/internal/geo"
	"github.com/fireatlas/dataswale/internal/spatial"
)

// AnnotateAsset merges every pending annotation batch one asset produced
// into its target layer, oldest first. The predicate comes from the asset's
// anno_type and the overwrite list from updated_properties. Returns the
// feature count the canonical file holds after the last merge.
func (m *Materializer) AnnotateAsset(ctx context.Context, name string, a *atlas.Asset) (int, error) {
	layerName, err := outLayer(name, a)
	if err != nil {
		return 0, err
	}
	pred, err := spatial.ParsePredicate(a.StringOption("anno_type"))
	if err != nil {
		return 0, atlas.NewConfigError("assets."+name+".anno_type", err.Error())
	}
	updated := a.StringsOption("updated_properties")

	entries, err := m.queue.Pending(layerName)
	if err != nil {
		return 0, err
	}
	written := 0
	merged := 0
	for _, e := range entries {
		if e.Asset != name || e.Meta.Action != delta.ActionAnnotate {
			continue
		}
		n, err := m.AnnotateSpatial(ctx, layerName, e.Stem, pred, updated)
		if err != nil {
			return written, err
		}
		written = n
		merged++
	}
	if merged == 0 {
		m.log.Debug("no pending annotations", "asset", name, "layer", layerName)
	}
	return written, nil
}

// AnnotateSpatial merges one named annotation batch into a layer's
// canonical file: left-join the batch's rows to the layer's rows under the
// predicate, fold annotation properties into each matched feature, rewrite
// the canonical file with exactly the matched features, and archive the
// batch into the work area.
//
// Two drops happen here and are logged rather than escalated: annotations
// matching no feature are discarded, and layer features matched by no
// annotation are absent from the rewritten file. The output geometry is
// always the layer side's; an annotation's own shape never lands in the
// layer.
func (m *Materializer) AnnotateSpatial(ctx context.Context, layerName, deltaName string, pred spatial.Predicate, updatedProps []string) (int, error) {
	if _, err := m.requireLayer(layerName); err != nil {
		return 0, err
	}

	pendingDir, err := m.cfg.PendingDir(layerName)
	if err != nil {
		return 0, err
	}
	batchPath := filepath.Join(pendingDir, deltaName+delta.BatchSuffix)
	annoData, err := os.ReadFile(batchPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &delta.InvalidDeltaError{Path: batchPath, Reason: "no such pending delta"}
		}
		return 0, fmt.Errorf("read annotation delta: %w", err)
	}
	annoFC, _, err := geo.DecodeCollectionLenient(annoData, m.log)
	if err != nil {
		return 0, &delta.InvalidDeltaError{Path: batchPath, Reason: "not a feature collection", Err: err}
	}

	canonicalPath, err := m.cfg.VectorPath(layerName)
	if err != nil {
		return 0, err
	}
	layerData, err := os.ReadFile(canonicalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &MissingLayerError{Layer: layerName, Path: canonicalPath}
		}
		return 0, fmt.Errorf("read layer %s: %w", layerName, err)
	}
	layerFC, _, err := geo.DecodeCollectionLenient(layerData, m.log)
	if err != nil {
		return 0, fmt.Errorf("parse layer %s: %w", layerName, err)
	}

	joiner := m.joiner
	if joiner == nil {
		j, err := spatial.Open(m.log)
		if err != nil {
			return 0, err
		}
		defer j.Close()
		joiner = j
	}

	annos := spatial.Rows(annoFC, m.log)
	feats := spatial.Rows(layerFC, m.log)
	pairs, err := joiner.LeftJoin(ctx, annos, feats, pred)
	if err != nil {
		return 0, fmt.Errorf("join %s into %s: %w", deltaName, layerName, err)
	}

	out := make(map[int64]*geojson.Feature)
	var ids []int64
	droppedAnnos := 0
	for _, p := range pairs {
		if p.Layer == nil {
			droppedAnnos++
			m.log.Debug("annotation matched nothing", "delta", deltaName, "annotation", p.Anno.ID)
			continue
		}
		f, ok := out[p.Layer.ID]
		if !ok {
			f = geojson.NewFeature(p.Layer.Geometry)
			f.Properties = geo.CloneProperties(p.Layer.Properties)
			out[p.Layer.ID] = f
			ids = append(ids, p.Layer.ID)
		}
		overlayProperties(f.Properties, p.Anno.Properties, updatedProps)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := geojson.NewFeatureCollection()
	for _, id := range ids {
		result.Append(out[id])
	}
	if err := atlas.WriteJSON(canonicalPath, result); err != nil {
		return 0, fmt.Errorf("rewrite layer %s: %w", layerName, err)
	}

	workDir, err := m.cfg.WorkDir(layerName)
	if err != nil {
		return len(ids), err
	}
	if _, err := (delta.Entry{Path: batchPath}).Archive(workDir); err != nil {
		return len(ids), err
	}

	m.log.Info("annotation merged",
		"layer", layerName, "delta", deltaName,
		"annotations", len(annos), "updated", len(ids),
		"dropped_annotations", droppedAnnos, "dropped_features", len(feats)-len(ids))
	return len(ids), nil
}

// overlayProperties folds annotation values into a feature's property map.
// With no explicit list every non-nil annotation value overwrites; with a
// list only the named properties overwrite, and only when the annotation's
// value counts as set.
func overlayProperties(dst, src geojson.Properties, updated []string) {
	if len(updated) == 0 {
		for k, v := range src {
			if v != nil {
				dst[k] = v
			}
		}
		return
	}
	for _, k := range updated {
		if v, ok := src[k]; ok && geo.Truthy(v) {
			dst[k] = v
		}
	}
}
