package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/burner/internal/calendar"
	"github.com/goodtune/burner/internal/clock"
	"github.com/goodtune/burner/internal/metrics"
	"github.com/goodtune/burner/internal/storage"
	"github.com/rs/zerolog"
)

// MinRetentionDays keeps a full year so the month heatmap is never cut short.
const MinRetentionDays = 365

// RetentionScheduler prunes old daily buckets once a day
type RetentionScheduler struct {
	buckets  storage.BucketStore
	days     int
	runTime  time.Time // Time of day to prune (only hour and minute are used)
	clock    clock.Clock
	logger   zerolog.Logger
	stopChan chan struct{}
}

// NewRetentionScheduler creates a new retention scheduler
func NewRetentionScheduler(buckets storage.BucketStore, days int, runTime string, clk clock.Clock, logger zerolog.Logger) (*RetentionScheduler, error) {
	if days < MinRetentionDays {
		return nil, fmt.Errorf("retention must keep at least %d days, got %d", MinRetentionDays, days)
	}

	// Parse run time (HH:MM format)
	parsedTime, err := time.Parse("15:04", runTime)
	if err != nil {
		return nil, fmt.Errorf("invalid retention time %q: %w", runTime, err)
	}

	if clk == nil {
		clk = clock.RealClock{}
	}

	return &RetentionScheduler{
		buckets:  buckets,
		days:     days,
		runTime:  parsedTime,
		clock:    clk,
		logger:   logger.With().Str("component", "retention").Logger(),
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins the retention scheduler
func (rs *RetentionScheduler) Start() {
	go rs.run()
	rs.logger.Info().
		Int("retention_days", rs.days).
		Str("run_time", rs.runTime.Format("15:04")).
		Msg("Bucket retention scheduler started")
}

// Stop stops the retention scheduler
func (rs *RetentionScheduler) Stop() {
	close(rs.stopChan)
	rs.logger.Info().Msg("Bucket retention scheduler stopped")
}

// run is the main scheduler loop
func (rs *RetentionScheduler) run() {
	for {
		nextRun := rs.calculateNextRun(rs.clock.Now())
		waitDuration := nextRun.Sub(rs.clock.Now())

		rs.logger.Info().
			Time("next_run", nextRun).
			Dur("wait_duration", waitDuration).
			Msg("Scheduled next bucket pruning")

		select {
		case <-time.After(waitDuration):
			if _, err := rs.Prune(context.Background()); err != nil {
				rs.logger.Error().Err(err).Msg("Failed to prune old buckets")
			}
		case <-rs.stopChan:
			return
		}
	}
}

// calculateNextRun returns the next run time strictly after now
func (rs *RetentionScheduler) calculateNextRun(now time.Time) time.Time {
	todayRun := time.Date(
		now.Year(), now.Month(), now.Day(),
		rs.runTime.Hour(), rs.runTime.Minute(), 0, 0,
		now.Location(),
	)

	// If we've already passed today's run time, schedule for tomorrow
	if !now.Before(todayRun) {
		return todayRun.AddDate(0, 0, 1)
	}

	return todayRun
}

// Cutoff returns the oldest date kept when pruning at now, with one day of slack for zones
// ahead of UTC.
func (rs *RetentionScheduler) Cutoff(now time.Time) string {
	return now.UTC().AddDate(0, 0, -(rs.days + 1)).Format(calendar.DateLayout)
}

// Prune deletes buckets dated before the retention cutoff
func (rs *RetentionScheduler) Prune(ctx context.Context) (int, error) {
	cutoff := rs.Cutoff(rs.clock.Now())
	deleted, err := rs.buckets.DeleteBucketsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune buckets before %s: %w", cutoff, err)
	}

	metrics.BucketsPruned.Add(float64(deleted))
	rs.logger.Info().
		Int("buckets_deleted", deleted).
		Str("cutoff_date", cutoff).
		Msg("Old buckets pruned")

	return deleted, nil
}
