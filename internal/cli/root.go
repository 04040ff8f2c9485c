package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fireatlas/dataswale/internal/asset"
	"github.com/fireatlas/dataswale/internal/atlas"
	"github.com/fireatlas/dataswale/internal/catalog"
)

// RootOptions holds global flags for all commands. Environment variables
// seed the defaults; flags override them.
type RootOptions struct {
	ConfigPath string
	DataRoot   string
	Version    string
	Catalog    string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the dataswale CLI.
func NewRootCommand() *cobra.Command {
	e := ParseEnv()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dataswale",
		Short: "Dataswale - delta-queue atlas materialization",
		Long: `Maintain versioned geospatial atlases from append-only delta queues.

Producers append delta batches to per-layer queues; materialization
drains them in order and rebuilds each layer's canonical artifacts.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", e.Config, "path to the atlas config document (env DATASWALE_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.DataRoot, "data-root", e.DataRoot, "override the atlas data root (env DATASWALE_DATA_ROOT)")
	cmd.PersistentFlags().StringVar(&opts.Version, "version", e.Version, "atlas version directory (env DATASWALE_VERSION)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", e.Catalog, "template catalog directory (env DATASWALE_CATALOG)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAddDeltaCommand(opts))
	cmd.AddCommand(NewRefreshCommand(opts))
	cmd.AddCommand(NewAnnotateCommand(opts))
	cmd.AddCommand(NewMaterializeCommand(opts))
	cmd.AddCommand(NewDeltasCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}

// Logger builds the command logger: text on the given writer, debug level
// when verbose. Components receive it by injection; nothing installs a
// process-global handler.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadAtlas reads the atlas config named by --config and applies the global
// overrides. With --catalog set, layer and asset templates resolve before
// the config is handed to any operation.
func loadAtlas(opts *RootOptions) (*atlas.Config, error) {
	if opts.ConfigPath == "" {
		return nil, NewExitError(ExitUsageError, "no atlas config: set --config or DATASWALE_CONFIG")
	}
	cfg, err := atlas.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitUsageError, "load atlas config", err)
	}
	if opts.DataRoot != "" {
		cfg.DataRoot = opts.DataRoot
	}
	if opts.Version != "" {
		cfg.Version = opts.Version
	}
	if opts.Catalog != "" {
		if err := resolveCatalog(cfg, opts.Catalog); err != nil {
			return nil, WrapExitError(ExitUsageError, "resolve template catalog", err)
		}
	}
	return cfg, nil
}

// resolveCatalog loads a CUE template catalog and resolves every declared
// layer and asset against it.
func resolveCatalog(cfg *atlas.Config, dir string) error {
	cat, err := catalog.Load(dir)
	if err != nil {
		return err
	}
	return asset.Resolve(cfg, cat.Layers, cat.Assets)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
