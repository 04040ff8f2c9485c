package asset

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fireatlas/dataswale/internal/atlas"
)

// Handler materializes one asset's pending deltas into its layer.
type Handler func(ctx context.Context, name string, a *atlas.Asset) error

// Registry is the capability table: one handler per fetch type, fixed at
// construction. Dispatch consults nothing else.
type Registry struct {
	handlers map[FetchType]Handler
	log      *slog.Logger
}

// NewRegistry builds the dispatch table. Every key must parse as a fetch
// type and carry a non-nil handler. A nil logger falls back to
// slog.Default().
func NewRegistry(handlers map[string]Handler, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	table := make(map[FetchType]Handler, len(handlers))
	for name, h := range handlers {
		ft, err := ParseFetchType(name)
		if err != nil {
			return nil, fmt.Errorf("register materializer: %w", err)
		}
		if h == nil {
			return nil, fmt.Errorf("register materializer %s: nil handler", name)
		}
		table[ft] = h
	}
	return &Registry{handlers: table, log: log}, nil
}

// Types returns the registered fetch types in stable order.
func (r *Registry) Types() []FetchType {
	types := make([]FetchType, 0, len(r.handlers))
	for _, ft := range FetchTypes() {
		if _, ok := r.handlers[ft]; ok {
			types = append(types, ft)
		}
	}
	return types
}

// Materialize dispatches one asset to the handler for its fetch type.
func (r *Registry) Materialize(ctx context.Context, name string, a *atlas.Asset) error {
	ft, err := ParseFetchType(a.FetchType())
	if err != nil {
		return &UnknownMaterializerError{FetchType: a.FetchType(), Asset: name}
	}
	h, ok := r.handlers[ft]
	if !ok {
		return &UnknownMaterializerError{FetchType: string(ft), Asset: name}
	}
	r.log.Debug("materializing asset", "asset", name, "fetch_type", ft)
	return h(ctx, name, a)
}

// MaterializeAll dispatches every declared asset in name order, stopping at
// the first failure.
func (r *Registry) MaterializeAll(ctx context.Context, cfg *atlas.Config) error {
	names := make([]string, 0, len(cfg.Assets))
	for name := range cfg.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a, ok := cfg.AssetByName(name)
		if !ok {
			continue
		}
		if err := r.Materialize(ctx, name, a); err != nil {
			return fmt.Errorf("materialize %s: %w", name, err)
		}
	}
	return nil
}
