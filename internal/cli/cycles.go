package cli

import (
	"errors"
	"fmt"

	"reward_recognition_bot/internal/domain/cycle"
	idb "reward_recognition_bot/internal/infra/database"

	"github.com/spf13/cobra"
)

// CyclesCmd lists the current cycle of every team.
func CyclesCmd() *cobra.Command {
	var (
		activeOnly bool
		teamID     string
	)
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "List current reward cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer d.Close()

			var records []*cycle.Record
			switch {
			case teamID != "":
				rec, err := d.cycles.GetCurrentCycle(ctx, teamID)
				if errors.Is(err, idb.ErrCycleNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "No cycle found for team %s\n", teamID)
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to get cycle: %w", err)
				}
				records = []*cycle.Record{rec}
			case activeOnly:
				records, err = d.cycles.GetAllActiveCycles(ctx)
			default:
				records, err = d.cycles.GetAllCurrentCycles(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list cycles: %w", err)
			}

			PrintCycles(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Show only active cycles")
	cmd.Flags().StringVar(&teamID, "team", "", "Show the current cycle of one team")
	return cmd
}
