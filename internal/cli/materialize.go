package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fireatlas/dataswale/internal/asset"
	"github.com/fireatlas/dataswale/internal/layer"
)

// MaterializeOptions holds flags for the materialize command.
type MaterializeOptions struct {
	*RootOptions
	All bool
}

// NewMaterializeCommand creates the materialize command.
func NewMaterializeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MaterializeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "materialize [asset...]",
		Short: "Dispatch assets to their reconciliation policies",
		Long: `Materialize assets through the capability table: each asset's
fetch type picks the policy that consumes its pending deltas. With
--all, every declared asset runs in name order, stopping at the first
failure.

Example:
  dataswale materialize survey notes
  dataswale materialize --all`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialize(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "materialize every declared asset")

	return cmd
}

func runMaterialize(opts *MaterializeOptions, assets []string, cmd *cobra.Command) error {
	if len(assets) == 0 && !opts.All {
		return NewExitError(ExitUsageError, "name assets to materialize or pass --all")
	}
	if len(assets) > 0 && opts.All {
		return NewExitError(ExitUsageError, "--all does not take asset names")
	}
	cfg, err := loadAtlas(opts.RootOptions)
	if err != nil {
		return err
	}

	log := opts.Logger(cmd.ErrOrStderr())
	m := layer.NewMaterializer(cfg, nil, nil, log)
	reg, err := asset.NewRegistry(m.Handlers(), log)
	if err != nil {
		return WrapExitError(ExitUsageError, "build capability table", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.All {
		if err := reg.MaterializeAll(ctx, cfg); err != nil {
			return operationError("materialize atlas", err)
		}
		return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success(
			fmt.Sprintf("Materialized %d asset(s)", len(cfg.Assets)),
			map[string]any{"assets": len(cfg.Assets)},
		)
	}

	for _, name := range assets {
		a, ok := cfg.AssetByName(name)
		if !ok {
			return NewExitError(ExitUsageError, fmt.Sprintf("asset %q is not declared", name))
		}
		if err := reg.Materialize(ctx, name, a); err != nil {
			return operationError(fmt.Sprintf("materialize %s", name), err)
		}
	}
	return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success(
		fmt.Sprintf("Materialized %d asset(s)", len(assets)),
		map[string]any{"assets": len(assets)},
	)
}
