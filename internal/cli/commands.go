package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"case-connector/internal/service"

	"github.com/spf13/cobra"
)

// runTimeout bounds one manual engine run from the command line.
const runTimeout = 30 * time.Minute

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one discovery cycle and sync all new cases as tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := commandContext(cmd.Context(), runTimeout)
			defer cancel()

			report, err := a.scheduler.RunSyncNow(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the next page of already synced cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := commandContext(cmd.Context(), runTimeout)
			defer cancel()

			report, err := a.scheduler.RunRefreshNow(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the case API and the cursor store, exit 1 when unhealthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := commandContext(cmd.Context(), a.cfg.CaseAPI.Timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			healthy := true

			if a.caseClient.HealthCheck(ctx) {
				fmt.Fprintf(out, "case API:     ok (%s)\n", a.cfg.CaseAPI.BaseURL)
			} else {
				fmt.Fprintf(out, "case API:     unreachable (%s)\n", a.cfg.CaseAPI.BaseURL)
				healthy = false
			}

			if err := a.cursors.Ping(ctx); err != nil {
				fmt.Fprintf(out, "cursor store: error (%s): %v\n", a.cfg.CursorDB.Type, err)
				healthy = false
			} else {
				fmt.Fprintf(out, "cursor store: ok (%s)\n", a.cfg.CursorDB.Type)
			}

			if !healthy {
				return fmt.Errorf("connector is not healthy")
			}
			return nil
		},
	}
}

func newCursorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cursors",
		Short: "Print the stored sync and refresh positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			syncState, err := a.discovery.Cursor().Snapshot(ctx)
			if err != nil {
				return err
			}
			refreshState, err := a.refresh.Cursor().Snapshot(ctx)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]service.CursorState{
				"sync":    syncState,
				"refresh": refreshState,
			})
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
