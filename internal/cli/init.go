package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fireatlas/dataswale/internal/atlas"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Description string
	BBox        string
	Layers      []string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create an atlas config and its layer skeleton",
		Long: `Create a new atlas: write its config document and the on-disk
skeleton for every declared layer under the data root.

Example:
  dataswale init burnside --data-root /srv/atlases --bbox 41,40,-104,-105 --layers roads,relief
  dataswale init burnside --data-root /srv/atlases --catalog ./templates --config burnside.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Description, "description", "", "atlas description")
	cmd.Flags().StringVar(&opts.BBox, "bbox", "", "atlas extent as north,south,east,west degrees")
	cmd.Flags().StringSliceVar(&opts.Layers, "layers", nil, "layer names to declare")

	return cmd
}

func runInit(opts *InitOptions, name string, cmd *cobra.Command) error {
	if opts.DataRoot == "" {
		return NewExitError(ExitUsageError, "init requires --data-root or DATASWALE_DATA_ROOT")
	}

	cfg := &atlas.Config{
		Name:        name,
		DataRoot:    opts.DataRoot,
		Description: opts.Description,
		Version:     opts.Version,
	}
	if opts.BBox != "" {
		bbox, err := parseBBox(opts.BBox)
		if err != nil {
			return WrapExitError(ExitUsageError, "invalid --bbox", err)
		}
		cfg.BBox = bbox
	}
	for _, l := range opts.Layers {
		cfg.Layers = append(cfg.Layers, &atlas.Layer{Name: l})
	}
	if opts.Catalog != "" {
		if err := resolveCatalog(cfg, opts.Catalog); err != nil {
			return WrapExitError(ExitUsageError, "resolve template catalog", err)
		}
	}

	if err := atlas.Init(cfg); err != nil {
		return operationError("initialize atlas", err)
	}

	path := opts.ConfigPath
	if path == "" {
		path = name + ".json"
	}
	if err := atlas.WriteConfig(cfg, path); err != nil {
		return operationError("write atlas config", err)
	}

	return newFormatter(opts.RootOptions, cmd.OutOrStdout()).Success(
		fmt.Sprintf("Atlas %s initialized: config %s, %d layer(s) under %s", name, path, len(cfg.Layers), cfg.DataRoot),
		map[string]any{"name": name, "config": path, "data_root": cfg.DataRoot, "layers": len(cfg.Layers)},
	)
}

// parseBBox reads an extent flag: four comma-separated degree values in
// north,south,east,west order.
func parseBBox(s string) (atlas.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return atlas.BBox{}, fmt.Errorf("want north,south,east,west, got %d value(s)", len(parts))
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return atlas.BBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return atlas.BBox{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}, nil
}
