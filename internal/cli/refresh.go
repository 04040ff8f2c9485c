package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fireatlas/dataswale/internal/layer"
)

// RefreshOptions holds flags for the refresh command.
type RefreshOptions struct {
	*RootOptions
	Kind string
}

// Refresh kinds, matching the non-annotation reconciliation policies.
var refreshKinds = []string{"vector", "raster", "document"}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RefreshOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "refresh <layer>",
		Short: "Rebuild a layer's canonical artifacts from its queue",
		Long: `Consume a layer's pending deltas and rebuild its canonical
artifacts. Vector layers are fully replaced by the drained features;
raster and document layers promote each pending file.

Example:
  dataswale refresh roads
  dataswale refresh relief --kind raster`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "vector", "layer kind (vector|raster|document)")

	return cmd
}

func runRefresh(opts *RefreshOptions, layerName string, cmd *cobra.Command) error {
	if !isRefreshKind(opts.Kind) {
		return NewExitError(ExitUsageError, fmt.Sprintf("invalid kind %q: must be one of %v", opts.Kind, refreshKinds))
	}
	cfg, err := loadAtlas(opts.RootOptions)
	if err != nil {
		return err
	}

	m := layer.NewMaterializer(cfg, nil, nil, opts.Logger(cmd.ErrOrStderr()))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var n int
	switch opts.Kind {
	case "vector":
		n, err = m.RefreshVector(ctx, layerName)
	case "raster":
		n, err = m.RefreshRaster(ctx, layerName)
	case "document":
		n, err = m.RefreshDocument(ctx, layerName)
	}
	if err != nil {
		return operationError(fmt.Sprintf("refresh %s", layerName), err)
	}

	return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success(
		fmt.Sprintf("Refreshed %s: %d %s", layerName, n, refreshUnit(opts.Kind)),
		map[string]any{"layer": layerName, "kind": opts.Kind, "count": n},
	)
}

func refreshUnit(kind string) string {
	switch kind {
	case "raster":
		return "file(s) promoted"
	case "document":
		return "document(s) published"
	default:
		return "feature(s)"
	}
}

func isRefreshKind(kind string) bool {
	for _, k := range refreshKinds {
		if k == kind {
			return true
		}
	}
	return false
}
