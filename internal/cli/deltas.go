package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fireatlas/dataswale/internal/delta"
)

// DeltaInfo is one pending batch in the deltas listing.
type DeltaInfo struct {
	Stem   string `json:"stem"`
	Asset  string `json:"asset"`
	Stamp  string `json:"stamp"`
	Action string `json:"action"`
}

// NewDeltasCommand creates the deltas command.
func NewDeltasCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deltas <layer>",
		Short: "List a layer's pending delta batches",
		Long: `List the delta batches waiting in a layer's queue, in the order
the next refresh will consume them.

Example:
  dataswale deltas roads
  dataswale deltas roads --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeltas(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDeltas(opts *RootOptions, layerName string, cmd *cobra.Command) error {
	cfg, err := loadAtlas(opts)
	if err != nil {
		return err
	}

	q := delta.NewQueue(cfg, nil, opts.Logger(cmd.ErrOrStderr()))
	entries, err := q.Pending(layerName)
	if err != nil {
		return operationError(fmt.Sprintf("list deltas for %s", layerName), err)
	}

	infos := make([]DeltaInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, DeltaInfo{
			Stem:   e.Stem,
			Asset:  e.Asset,
			Stamp:  e.Stamp,
			Action: string(e.Meta.Action),
		})
	}

	formatter := newFormatter(opts, cmd.OutOrStdout())
	if formatter.Format == "json" {
		return formatter.Success("", map[string]any{"layer": layerName, "pending": infos})
	}

	if len(infos) == 0 {
		fmt.Fprintf(formatter.Writer, "No pending deltas for %s\n", layerName)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "Pending deltas for %s:\n", layerName)
	for _, info := range infos {
		fmt.Fprintf(formatter.Writer, "  %-40s %-12s %s\n", info.Stem, info.Action, info.Asset)
	}
	return nil
}
