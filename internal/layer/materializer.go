package layer

import (
	"context"
	"log/slog"

	"github.com/fireatlas/dataswale/internal/asset"
	"github.com/fireatlas/dataswale/internal/atlas"
	"github.com/fireatlas/dataswale/internal/delta"
	"github.com/fireatlas/dataswale/internal/spatial"
)

// Materializer applies the reconciliation policies for one atlas. It owns
// no state beyond its collaborators and is safe to reuse across operations,
// though not across goroutines working the same layer.
type Materializer struct {
	cfg    *atlas.Config
	queue  *delta.Queue
	joiner spatial.Joiner
	log    *slog.Logger
}

// NewMaterializer wires a materializer. A nil queue gets a default reader
// over cfg, a nil joiner makes annotation merges open a transient one per
// call, and a nil logger falls back to slog.Default().
func NewMaterializer(cfg *atlas.Config, queue *delta.Queue, joiner spatial.Joiner, log *slog.Logger) *Materializer {
	if log == nil {
		log = slog.Default()
	}
	if queue == nil {
		queue = delta.NewQueue(cfg, nil, log)
	}
	return &Materializer{cfg: cfg, queue: queue, joiner: joiner, log: log}
}

// Handlers returns the capability table keyed by fetch type name, ready for
// asset.NewRegistry.
func (m *Materializer) Handlers() map[string]asset.Handler {
	return map[string]asset.Handler{
		"vector": func(ctx context.Context, name string, a *atlas.Asset) error {
			layerName, err := outLayer(name, a)
			if err != nil {
				return err
			}
			_, err = m.RefreshVector(ctx, layerName)
			return err
		},
		"raster": func(ctx context.Context, name string, a *atlas.Asset) error {
			layerName, err := outLayer(name, a)
			if err != nil {
				return err
			}
			_, err = m.RefreshRaster(ctx, layerName)
			return err
		},
		"document": func(ctx context.Context, name string, a *atlas.Asset) error {
			layerName, err := outLayer(name, a)
			if err != nil {
				return err
			}
			_, err = m.RefreshDocument(ctx, layerName)
			return err
		},
		"annotation": func(ctx context.Context, name string, a *atlas.Asset) error {
			_, err := m.AnnotateAsset(ctx, name, a)
			return err
		},
	}
}

// requireLayer resolves a declared layer or fails with MissingLayerError.
func (m *Materializer) requireLayer(name string) (*atlas.Layer, error) {
	l, ok := m.cfg.LayerByName(name)
	if !ok {
		return nil, &MissingLayerError{Layer: name}
	}
	return l, nil
}

// outLayer reads an asset's target layer, which every policy requires.
func outLayer(name string, a *atlas.Asset) (string, error) {
	l := a.OutLayer()
	if l == "" {
		return "", atlas.NewConfigError("assets."+name+".out_layer", "required")
	}
	return l, nil
}
