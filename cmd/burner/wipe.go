package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var wipeConfirm bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every stored daily bucket",
	Long:  `Delete all daily buckets from the configured store. Hosts are kept.`,
	Args:  cobra.NoArgs,
	RunE:  runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeConfirm, "yes", false, "Confirm the wipe")
	rootCmd.AddCommand(wipeCmd)
}

func runWipe(cmd *cobra.Command, args []string) error {
	if !wipeConfirm {
		return errors.New("refusing to wipe without --yes")
	}

	env, err := openCommandEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	deleted, err := env.store.Buckets().DeleteAllBuckets(context.Background())
	if err != nil {
		return fmt.Errorf("failed to wipe buckets: %w", err)
	}

	env.logger.Warn().Int("buckets_deleted", deleted).Msg("All buckets wiped")
	_, _ = color.New(color.FgYellow, color.Bold).Fprintf(os.Stdout, "Deleted %d bucket(s)\n", deleted)
	return nil
}
