package layer

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/fireatlas/dataswale/internal/atlas"
)

// RefreshVector fully replaces a vector layer's canonical file with the
// features drained from its queue. The canonical content becomes exactly
// what the drain yielded, an empty collection included: prior content is
// discarded unless the queue re-derived it. When the drain fails nothing is
// written, though batches archived before the failure stay archived.
func (m *Materializer) RefreshVector(ctx context.Context, layerName string) (int, error) {
	if _, err := m.requireLayer(layerName); err != nil {
		return 0, err
	}

	fc := geojson.NewFeatureCollection()
	d := m.queue.Drain(ctx, layerName)
	for d.Next() {
		fc.Append(d.Feature())
	}
	if err := d.Err(); err != nil {
		return 0, fmt.Errorf("drain %s: %w", layerName, err)
	}

	path, err := m.cfg.VectorPath(layerName)
	if err != nil {
		return 0, err
	}
	if err := atlas.WriteJSON(path, fc); err != nil {
		return 0, fmt.Errorf("refresh %s: %w", layerName, err)
	}
	m.log.Info("vector layer refreshed", "layer", layerName, "features", d.Count(), "path", path)
	return d.Count(), nil
}
