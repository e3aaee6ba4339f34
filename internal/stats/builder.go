package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/burner/internal/calendar"
	"github.com/goodtune/burner/internal/clock"
	"github.com/goodtune/burner/internal/metrics"
	"github.com/goodtune/burner/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultTopHosts is the size of the host ranking.
const DefaultTopHosts = 5

// Builder assembles Statistics from a bucket store. It never writes and is safe for
// concurrent use.
type Builder struct {
	buckets storage.BucketStore
	clock   clock.Clock
	topN    int
	logger  zerolog.Logger
}

// NewBuilder creates a statistics builder.
func NewBuilder(buckets storage.BucketStore, clk clock.Clock, topN int, logger zerolog.Logger) *Builder {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if topN <= 0 {
		topN = DefaultTopHosts
	}
	return &Builder{
		buckets: buckets,
		clock:   clk,
		topN:    topN,
		logger:  logger.With().Str("component", "stats").Logger(),
	}
}

// Build reports on the period ending today in timezone.
func (b *Builder) Build(ctx context.Context, period Period, timezone string) (*Statistics, error) {
	started := time.Now()

	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	loc, err := calendar.LoadZone(timezone)
	if err != nil {
		return nil, err
	}

	today := calendar.LocalDate(b.clock.Now(), loc)
	summaryRange, err := window(today, period.GraphDays())
	if err != nil {
		return nil, err
	}
	heatmapRange, err := window(today, period.HeatmapDays())
	if err != nil {
		return nil, err
	}

	var (
		graph   []DayTotal
		heatmap []DayTotal
		top     []storage.HostTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		graph, err = DateTotals(gctx, b.buckets, summaryRange)
		return err
	})
	g.Go(func() error {
		var err error
		heatmap, err = DateTotals(gctx, b.buckets, heatmapRange)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = b.buckets.SumByHost(gctx, summaryRange, b.topN)
		if err != nil {
			return fmt.Errorf("top hosts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Statistics{
		Period:   period,
		Timezone: loc.String(),
		Range:    summaryRange,
		Graph:    Graph{Days: len(graph), Data: graph},
		Heatmap:  buildHeatmap(heatmap),
		TopHosts: TopHosts{Total: len(top), Hosts: top},
	}
	for _, day := range graph {
		stats.Summary.PeriodSeconds += day.Seconds
	}
	if len(graph) > 0 {
		stats.Summary.TodaySeconds = graph[len(graph)-1].Seconds
	}

	metrics.StatsBuilds.WithLabelValues(string(period)).Inc()
	metrics.StatsDuration.WithLabelValues(string(period)).Observe(time.Since(started).Seconds())
	b.logger.Debug().
		Str("period", string(period)).
		Str("timezone", stats.Timezone).
		Str("today", today).
		Int64("period_seconds", stats.Summary.PeriodSeconds).
		Int("top_hosts", stats.TopHosts.Total).
		Msg("Statistics built")

	return stats, nil
}

func window(end string, days int) (storage.DateRange, error) {
	from, to, err := calendar.Window(end, days)
	if err != nil {
		return storage.DateRange{}, err
	}
	return storage.DateRange{From: from, To: to}, nil
}
