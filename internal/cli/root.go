package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/entrypoint"
)

// RootOptions holds global flags and the configuration source for all
// commands.
type RootOptions struct {
	Version string
	Format  string // "text" | "json"

	// LoadConfig builds the configuration. Defaults to config.NewConfig.
	LoadConfig func() *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the bookstore command. Without a subcommand it
// serves the HTTP API.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&RootOptions{Version: version, LoadConfig: config.NewConfig})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookstore",
		Short: "Bookstore inventory, orders and reporting",
		Long: `Bookstore keeps books, customers, orders and supplier imports in a
relational database and mirrors every committed change into a document
store for analytics.`,
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(opts.LoadConfig(), opts.Version)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewResyncCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(opts.LoadConfig(), opts.Version)
		},
	}
}

// withApp opens the stores for a one-shot command and closes them after fn.
func withApp(ctx context.Context, opts *RootOptions, fn func(app *entrypoint.App) error) error {
	app, err := entrypoint.NewApp(ctx, opts.LoadConfig())
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))
	return fn(app)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
