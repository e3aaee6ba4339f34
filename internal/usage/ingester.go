package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/burner/internal/calendar"
	"github.com/goodtune/burner/internal/metrics"
	"github.com/goodtune/burner/internal/storage"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxHostLength bounds stored host names.
	DefaultMaxHostLength = 256

	// DefaultDedupCapacity bounds the cross-batch dedup window.
	DefaultDedupCapacity = 100000
)

// Config holds ingester configuration
type Config struct {
	MaxHostLength      int
	CollapseSubdomains bool
	DedupWindow        time.Duration
	DedupCapacity      int
}

// Ingester folds batches of sessions into daily buckets.
type Ingester struct {
	store  storage.Store
	config Config
	dedup  *Dedup
	logger zerolog.Logger
}

// planned is an accepted session ready to be written.
type planned struct {
	id       string
	host     string
	segments []calendar.Segment
}

// NewIngester creates a new ingester
func NewIngester(store storage.Store, config Config, logger zerolog.Logger) *Ingester {
	if config.MaxHostLength <= 0 {
		config.MaxHostLength = DefaultMaxHostLength
	}
	if config.DedupCapacity <= 0 {
		config.DedupCapacity = DefaultDedupCapacity
	}

	return &Ingester{
		store:  store,
		config: config,
		dedup:  NewDedup(config.DedupCapacity, config.DedupWindow),
		logger: logger.With().Str("component", "ingester").Logger(),
	}
}

// Ingest validates a batch and adds every accepted session to its daily buckets.
//
// The timezone is resolved once; an unknown zone fails the batch with
// calendar.ErrInvalidTimezone before anything is written. Sessions are then checked in
// submission order, and all accepted sessions are written in one store unit of work. A
// store failure fails the batch with ErrStorage and leaves no bucket changed.
func (i *Ingester) Ingest(ctx context.Context, batch Batch) (*Result, error) {
	started := time.Now()

	loc, err := calendar.LoadZone(batch.Timezone)
	if err != nil {
		metrics.BatchesFailed.WithLabelValues("invalid_timezone").Inc()
		return nil, err
	}

	result := &Result{
		Received:           batch.Total,
		RejectedSessionIDs: []string{},
		Rejections:         []Rejection{},
	}
	if result.Received == 0 {
		result.Received = len(batch.Sessions)
	}

	plan := make([]planned, 0, len(batch.Sessions))
	accepted := make(map[string]struct{}, len(batch.Sessions))
	for _, session := range batch.Sessions {
		host := NormalizeHost(session.Host, i.config.CollapseSubdomains)
		reason, ok := i.check(session, host, accepted)
		if !ok {
			i.logger.Debug().
				Str("session_id", session.ID).
				Str("host", session.Host).
				Str("reason", string(reason)).
				Msg("Session rejected")
			result.reject(session.ID, reason)
			continue
		}

		accepted[session.ID] = struct{}{}
		plan = append(plan, planned{
			id:       session.ID,
			host:     host,
			segments: calendar.Split(session.Start.UTC(), session.End.UTC(), loc),
		})
	}

	if len(plan) > 0 {
		segments, seconds, err := i.apply(ctx, plan)
		if err != nil {
			metrics.BatchesFailed.WithLabelValues("storage").Inc()
			i.logger.Error().
				Err(err).
				Int("sessions", len(plan)).
				Msg("Batch aborted, no buckets changed")
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		result.Segments = segments
		result.Seconds = seconds
	}
	result.Accepted = len(plan)

	ids := make([]string, 0, len(plan))
	for _, p := range plan {
		if p.id != "" {
			ids = append(ids, p.id)
		}
	}
	i.dedup.Remember(ids)

	metrics.SessionsIngested.WithLabelValues("accepted").Add(float64(result.Accepted))
	metrics.SessionsIngested.WithLabelValues("rejected").Add(float64(len(result.RejectedSessionIDs)))
	metrics.SegmentsApplied.Add(float64(result.Segments))
	metrics.SecondsIngested.Add(float64(result.Seconds))
	metrics.BatchDuration.Observe(time.Since(started).Seconds())

	i.logger.Info().
		Str("timezone", loc.String()).
		Int("received", result.Received).
		Int("accepted", result.Accepted).
		Int("rejected", len(result.RejectedSessionIDs)).
		Int("segments", result.Segments).
		Int64("seconds", result.Seconds).
		Msg("Batch ingested")

	return result, nil
}

// check decides whether a session is accepted. Only accepted IDs count as seen, so a
// rejected session may be followed by a valid one with the same ID. Sessions without an ID
// are never treated as duplicates.
func (i *Ingester) check(session Session, host string, accepted map[string]struct{}) (Reason, bool) {
	if session.ID != "" {
		if _, dup := accepted[session.ID]; dup || i.dedup.Seen(session.ID) {
			return ReasonDuplicate, false
		}
	}
	if session.Start.IsZero() || session.End.IsZero() || !session.End.After(session.Start) {
		return ReasonInvalidInterval, false
	}
	if !validHost(host, i.config.MaxHostLength) {
		return ReasonInvalidHost, false
	}
	return "", true
}

func (i *Ingester) apply(ctx context.Context, plan []planned) (int, int64, error) {
	var (
		segments int
		seconds  int64
	)
	err := i.store.Update(ctx, func(w storage.Writer) error {
		segments, seconds = 0, 0
		hosts := make(map[string]int64)
		for _, p := range plan {
			hostID, ok := hosts[p.host]
			if !ok {
				host, err := w.FindOrCreateHost(ctx, p.host)
				if err != nil {
					return fmt.Errorf("resolve host %s: %w", p.host, err)
				}
				hostID = host.ID
				hosts[p.host] = hostID
			}

			for _, seg := range p.segments {
				if seg.Seconds <= 0 {
					continue
				}
				if err := w.UpsertAdd(ctx, hostID, seg.Date, seg.Seconds); err != nil {
					return fmt.Errorf("session %s: %w", p.id, err)
				}
				segments++
				seconds += seg.Seconds
			}
		}
		return nil
	})
	return segments, seconds, err
}
