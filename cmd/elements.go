// cmd/elements.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/elements"
	"github.com/xkilldash9x/pilot-cli/internal/observability"
)

func newElementsCmd() *cobra.Command {
	var targetURL string

	elementsCmd := &cobra.Command{
		Use:   "elements",
		Short: "Print the element snapshot the model would see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			style, err := elements.ParseStyle(cfg.Agent.Encoding)
			if err != nil {
				return err
			}
			mode, err := schemas.ParseSnapshotMode(cfg.Agent.SnapshotMode)
			if err != nil {
				return err
			}

			// Listing elements needs no model, so only the driver is started.
			logger := observability.GetLogger()
			driver, err := newDriver(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to start driver: %w", err)
			}
			defer closeDriver(driver, logger)

			if targetURL != "" {
				if err := driver.Navigate(ctx, schemas.NormalizeURL(targetURL)); err != nil {
					return err
				}
			}

			snapshot, err := driver.Snapshot(ctx, mode)
			if err != nil {
				return err
			}
			encoded, err := elements.Encode(snapshot, style)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
	elementsCmd.Flags().StringVar(&targetURL, "url", "", "URL to open before taking the snapshot")
	elementsCmd.Flags().String("snapshot", "", "snapshot mode: visible, a11y, all")
	elementsCmd.Flags().String("encoding", "", "element encoding: yaml-like, tabular")
	bindFlag(elementsCmd, "snapshot", "agent.snapshot_mode")
	bindFlag(elementsCmd, "encoding", "agent.encoding")
	return elementsCmd
}
