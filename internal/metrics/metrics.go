package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Ingestion metrics
	SessionsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burner_sessions_ingested_total",
			Help: "Sessions received in flushed batches, by result",
		},
		[]string{"result"},
	)

	SegmentsApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burner_segments_applied_total",
			Help: "Daily segments added to buckets",
		},
	)

	SecondsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burner_seconds_ingested_total",
			Help: "Seconds of activity added to buckets",
		},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burner_batch_duration_seconds",
			Help:    "Time taken to ingest one batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burner_batches_failed_total",
			Help: "Batches rejected as a whole",
		},
		[]string{"reason"},
	)

	// Statistics metrics
	StatsBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burner_stats_builds_total",
			Help: "Statistics reports built, by period",
		},
		[]string{"period"},
	)

	StatsDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "burner_stats_duration_seconds",
			Help:    "Time taken to build a statistics report",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"period"},
	)

	// Retention metrics
	BucketsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burner_buckets_pruned_total",
			Help: "Daily buckets removed by retention",
		},
	)

	// API metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burner_http_requests_total",
			Help: "HTTP API requests handled",
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		SessionsIngested,
		SegmentsApplied,
		SecondsIngested,
		BatchDuration,
		BatchesFailed,
		StatsBuilds,
		StatsDuration,
		BucketsPruned,
		RequestsTotal,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: Handler(),
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
