package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/burner/internal/calendar"
	"github.com/spf13/cobra"
)

var splitTimezone string

var splitCmd = &cobra.Command{
	Use:   "split [flags] START END",
	Short: "Show how an interval is split into local calendar days",
	Long: `Split an interval at local midnight in the given timezone and print the
seconds credited to each calendar date. START and END are RFC 3339 timestamps.`,
	Example: `  burner split --timezone America/New_York 2024-03-09T22:00:00-05:00 2024-03-11T02:00:00-04:00
  burner split --timezone Asia/Tokyo 2024-01-01T14:00:00Z 2024-01-01T16:00:00Z`,
	Args: cobra.ExactArgs(2),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().StringVar(&splitTimezone, "timezone", "UTC", "IANA timezone used to find local midnight")
	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	loc, err := calendar.LoadZone(splitTimezone)
	if err != nil {
		return err
	}

	start, err := time.Parse(time.RFC3339Nano, args[0])
	if err != nil {
		return fmt.Errorf("invalid start %q: %w", args[0], err)
	}
	end, err := time.Parse(time.RFC3339Nano, args[1])
	if err != nil {
		return fmt.Errorf("invalid end %q: %w", args[1], err)
	}
	if !end.After(start) {
		return fmt.Errorf("end %s is not after start %s", args[1], args[0])
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)

	_, _ = cyan.Fprintf(os.Stdout, "%s -> %s in %s\n", start.In(loc).Format(time.RFC3339), end.In(loc).Format(time.RFC3339), loc)

	var total int64
	for _, seg := range calendar.Split(start, end, loc) {
		total += seg.Seconds
		_, _ = green.Fprintf(os.Stdout, "  %s  %8ds  (%s)\n", seg.Date, seg.Seconds, time.Duration(seg.Seconds)*time.Second)
	}
	_, _ = fmt.Fprintf(os.Stdout, "  total       %8ds\n", total)

	return nil
}
