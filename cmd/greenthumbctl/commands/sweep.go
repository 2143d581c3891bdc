package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/greenthumb/internal/app"
	"github.com/yourorg/greenthumb/internal/infrastructure/mail"
	"github.com/yourorg/greenthumb/internal/worker"
)

var sweepAt string

// sweepCmd runs the reminder sweep once, for cron-style deployments
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one due-reminder sweep and exit",
	Long: `Evaluate every care schedule and send one reminder per due schedule.
Reminders already claimed by an earlier sweep are skipped.

Examples:
  greenthumbctl sweep
  greenthumbctl sweep --at 2024-08-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now().UTC()
		if sweepAt != "" {
			at, err := time.Parse("2006-01-02", sweepAt)
			if err != nil {
				return fmt.Errorf("--at must be YYYY-MM-DD: %w", err)
			}
			now = at
		}

		storage, err := app.OpenStorage(cmd.Context(), cfg, false, log)
		if err != nil {
			return err
		}
		defer storage.Close()

		services, err := app.NewServices(cfg, storage, log)
		if err != nil {
			return err
		}

		sweeper := worker.NewDueSweeper(
			storage.Schedules,
			storage.Ledger,
			mail.NewNotifier(cfg.SMTP, log),
			services.Recurrence,
			log,
			cfg.DueSweepInterval,
		)
		res, err := sweeper.SweepOnce(cmd.Context(), now)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "checked %d, due %d, sent %d, skipped %d, failed %d\n",
			res.Checked, res.Due, res.Sent, res.Skipped, res.Failed)
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepAt, "at", "", "Evaluate schedules as of this date (YYYY-MM-DD)")
	rootCmd.AddCommand(sweepCmd)
}
