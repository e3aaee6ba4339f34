package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/burner/internal/clock"
	"github.com/goodtune/burner/internal/stats"
	"github.com/spf13/cobra"
)

var (
	statsPeriod   string
	statsTimezone string
	statsJSON     bool
	statsHosts    bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print usage statistics",
	Long:  `Build the weekly or monthly statistics from stored daily buckets and print them.`,
	Example: `  burner stats --period week --timezone Europe/London
  burner stats --period month --json
  burner stats --hosts`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsPeriod, "period", "week", "Reporting period (week or month)")
	statsCmd.Flags().StringVar(&statsTimezone, "timezone", "", "IANA timezone (defaults to tracking.default_timezone)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the statistics document as JSON")
	statsCmd.Flags().BoolVar(&statsHosts, "hosts", false, "List every tracked host instead of statistics")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	env, err := openCommandEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()

	if statsHosts {
		return printHosts(ctx, env)
	}

	period, err := stats.ParsePeriod(statsPeriod)
	if err != nil {
		return err
	}

	timezone := statsTimezone
	if timezone == "" {
		timezone = env.cfg.Tracking.DefaultTimezone
	}

	builder := stats.NewBuilder(env.store.Buckets(), clock.RealClock{}, env.cfg.Tracking.TopHosts, env.logger)
	result, err := builder.Build(ctx, period, timezone)
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printStatistics(result)
	return nil
}

func printHosts(ctx context.Context, env *commandEnv) error {
	hosts, err := env.store.Hosts().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Fprintf(os.Stdout, "%d tracked host(s)\n", len(hosts))
	for _, h := range hosts {
		_, _ = fmt.Fprintf(os.Stdout, "  %6d  %-40s  %s\n", h.ID, h.Name, h.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// heatmapGlyphs renders heatmap levels 0 through 4.
var heatmapGlyphs = []string{".", "░", "▒", "▓", "█"}

func printStatistics(s *stats.Statistics) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow, color.Bold)

	_, _ = cyan.Fprintf(os.Stdout, "[%s] %s .. %s (%s)\n", s.Period, s.Range.From, s.Range.To, s.Timezone)
	_, _ = yellow.Fprintf(os.Stdout, "  today:  %s\n", formatSeconds(s.Summary.TodaySeconds))
	_, _ = yellow.Fprintf(os.Stdout, "  period: %s\n", formatSeconds(s.Summary.PeriodSeconds))

	_, _ = cyan.Fprintln(os.Stdout, "\n[daily]")
	for _, day := range s.Graph.Data {
		_, _ = green.Fprintf(os.Stdout, "  %s  %s\n", day.Date, formatSeconds(day.Seconds))
	}

	_, _ = cyan.Fprintf(os.Stdout, "\n[heatmap] %d days\n  ", s.Heatmap.Days)
	var line strings.Builder
	for i, entry := range s.Heatmap.Data {
		if i > 0 && i%7 == 0 {
			line.WriteString("\n  ")
		}
		line.WriteString(heatmapGlyphs[entry.Level])
	}
	_, _ = fmt.Fprintln(os.Stdout, line.String())

	_, _ = cyan.Fprintf(os.Stdout, "\n[top hosts] %d\n", s.TopHosts.Total)
	for i, h := range s.TopHosts.Hosts {
		_, _ = green.Fprintf(os.Stdout, "  %d. %-40s %s\n", i+1, h.Host, formatSeconds(h.Seconds))
	}
}

func formatSeconds(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}
