package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fireatlas/dataswale/internal/layer"
	"github.com/fireatlas/dataswale/internal/spatial"
)

// AnnotateOptions holds flags for the annotate command.
type AnnotateOptions struct {
	*RootOptions
	AnnoType   string
	Properties []string
}

// NewAnnotateCommand creates the annotate command.
func NewAnnotateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnnotateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "annotate <layer> <delta-stem>",
		Short: "Merge one annotation batch into a layer",
		Long: `Spatially join one pending annotation batch against a layer's
canonical features and fold the matching annotation properties in. The
canonical file is rewritten with exactly the matched features.

Example:
  dataswale annotate roads notes_20240101_120000
  dataswale annotate roads notes_20240101_120000 --anno-type bbox_overlap --updated-properties status,severity`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.AnnoType, "anno-type", "", "join predicate (simple_intersect|bbox_overlap)")
	cmd.Flags().StringSliceVar(&opts.Properties, "updated-properties", nil, "annotation properties allowed to overwrite (all set values when empty)")

	return cmd
}

func runAnnotate(opts *AnnotateOptions, layerName, deltaStem string, cmd *cobra.Command) error {
	pred, err := spatial.ParsePredicate(opts.AnnoType)
	if err != nil {
		return WrapExitError(ExitUsageError, "invalid --anno-type", err)
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

	n, err := m.AnnotateSpatial(ctx, layerName, deltaStem, pred, opts.Properties)
	if err != nil {
		return operationError(fmt.Sprintf("annotate %s", layerName), err)
	}

	return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success(
		fmt.Sprintf("Annotated %s: %d feature(s) kept from %s", layerName, n, deltaStem),
		map[string]any{"layer": layerName, "delta": deltaStem, "features": n, "predicate": string(pred)},
	)
}
