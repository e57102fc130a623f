package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookstore/internal/entrypoint"
)

// NewResyncCommand creates the resync command, which pushes every relational
// row to the document mirror once.
func NewResyncCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Re-sync every row to the document mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return withApp(ctx, rootOpts, func(app *entrypoint.App) error {
				return runResync(ctx, app, rootOpts.Format, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "give up after this long")
	return cmd
}

func runResync(ctx context.Context, app *entrypoint.App, format string, w io.Writer) error {
	start := time.Now()
	result, err := app.Sync.ResyncAll(ctx)
	if err != nil {
		return fmt.Errorf("resync stopped after %d rows: %w", result.Synced+result.Failed, err)
	}
	if format == "json" {
		return writeJSON(w, result)
	}
	_, err = fmt.Fprintf(w, "Synced %d rows (%d failed) in %v\n",
		result.Synced, result.Failed, time.Since(start).Round(time.Millisecond))
	return err
}
