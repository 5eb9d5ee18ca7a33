package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/briefdash-labs/briefdash/internal/bootstrap"
)

func (c *CLI) newRefreshCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh all metric-family snapshots",
		Long: `Run the full refresh cycle: every metric family's queries go through
the cost guard, results are reshaped and validated, and the latest snapshot
per family is replaced. Partial failures persist explicitly degraded output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRefresh(user)
		},
	}

	cmd.Flags().StringVar(&user, "user", "cli", "user identifier recorded on snapshots and job labels")
	return cmd
}

func (c *CLI) runRefresh(user string) error {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	results := app.Refresher.RefreshAll(ctx, user)

	if c.jsonOutput {
		return c.outputJSON(results)
	}

	failures := 0
	for _, res := range results {
		switch {
		case res.Persisted && !res.Degraded:
			c.printf("✓ %s refreshed\n", res.Family)
		case res.Persisted && res.Degraded:
			c.printf("⚠ %s refreshed (degraded: %s)\n", res.Family, res.Error)
		default:
			failures++
			c.printf("✗ %s failed: %s\n", res.Family, res.Error)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d metric families failed to refresh", failures, len(results))
	}
	return nil
}
