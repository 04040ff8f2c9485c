package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/fireatlas/dataswale/internal/delta"
)

// AddDeltaOptions holds flags for the add-delta command.
type AddDeltaOptions struct {
	*RootOptions
	Features string
	Action   string
}

// NewAddDeltaCommand creates the add-delta command.
func NewAddDeltaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddDeltaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-delta <asset>",
		Short: "Queue a feature batch for an asset's layer",
		Long: `Append a GeoJSON feature collection to the delta queue of the
asset's output layer. The batch stays pending until the next refresh
consumes it in filename order.

Example:
  dataswale add-delta survey --features ./survey.geojson
  dataswale add-delta notes --features ./notes.geojson --action annotate`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddDelta(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Features, "features", "", "path to a GeoJSON feature collection (required)")
	cmd.Flags().StringVar(&opts.Action, "action", string(delta.ActionReplace), "reconciliation action (replace|annotate)")
	_ = cmd.MarkFlagRequired("features")

	return cmd
}

func runAddDelta(opts *AddDeltaOptions, assetName string, cmd *cobra.Command) error {
	cfg, err := loadAtlas(opts.RootOptions)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.Features)
	if err != nil {
		return WrapExitError(ExitUsageError, "read features", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return WrapExitError(ExitUsageError, fmt.Sprintf("parse %s", opts.Features), err)
	}

	w := delta.NewWriter(cfg, nil, opts.Logger(cmd.ErrOrStderr()))
	n, path, err := w.Add(assetName, fc, delta.Action(opts.Action))
	if err != nil {
		return operationError("queue delta", err)
	}

	return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success(
		fmt.Sprintf("Queued %d feature(s) as %s", n, filepath.Base(path)),
		map[string]any{"asset": assetName, "features": n, "file": filepath.Base(path), "path": path},
	)
}
