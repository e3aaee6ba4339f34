package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goodtune/burner/internal/clock"
	"github.com/goodtune/burner/internal/usage"
	"github.com/spf13/cobra"
)

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete daily buckets older than the retention window",
	Long: `Run one retention pass immediately. The window defaults to
tracking.retention_days and must keep at least a year of history.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Retention window in days (overrides tracking.retention_days)")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	env, err := openCommandEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	days := pruneDays
	if days == 0 {
		days = env.cfg.Tracking.RetentionDays
	}
	if days == 0 {
		return errors.New("retention is disabled; set tracking.retention_days or pass --days")
	}

	scheduler, err := usage.NewRetentionScheduler(env.store.Buckets(), days, env.cfg.Tracking.RetentionTime, clock.RealClock{}, env.logger)
	if err != nil {
		return err
	}

	deleted, err := scheduler.Prune(context.Background())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Deleted %d bucket(s) dated before %s\n", deleted, scheduler.Cutoff(clock.RealClock{}.Now()))
	return nil
}
