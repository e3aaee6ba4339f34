package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goodtune/burner/internal/calendar"
	"github.com/goodtune/burner/internal/stats"
	"github.com/goodtune/burner/internal/storage"
	"github.com/goodtune/burner/internal/usage"
	"github.com/rs/zerolog"
)

const maxBatchBytes = 10 << 20

// FlushResponse reports the outcome of a flushed batch.
type FlushResponse struct {
	Message            string            `json:"message"`
	Received           int               `json:"received"`
	Accepted           int               `json:"accepted"`
	SuccessRate        string            `json:"success_rate"`
	RejectedSessionIDs []string          `json:"rejected_session_ids"`
	Rejections         []usage.Rejection `json:"rejections,omitempty"`
}

// WipeResponse reports a bucket wipe.
type WipeResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// TimeHandler handles the /time endpoints.
type TimeHandler struct {
	ingester        *usage.Ingester
	builder         *stats.Builder
	buckets         storage.BucketStore
	defaultTimezone string
	logger          zerolog.Logger
}

// NewTimeHandler creates a new time handler.
func NewTimeHandler(ingester *usage.Ingester, builder *stats.Builder, buckets storage.BucketStore, defaultTimezone string, logger zerolog.Logger) *TimeHandler {
	return &TimeHandler{
		ingester:        ingester,
		builder:         builder,
		buckets:         buckets,
		defaultTimezone: defaultTimezone,
		logger:          logger.With().Str("handler", "time").Logger(),
	}
}

func decodeBatch(w http.ResponseWriter, r *http.Request) (usage.Batch, bool) {
	var batch usage.Batch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes)).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return batch, false
	}
	return batch, true
}

// Flush ingests a batch of sessions.
func (h *TimeHandler) Flush(w http.ResponseWriter, r *http.Request) {
	batch, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	result, err := h.ingester.Ingest(r.Context(), batch)
	if err != nil {
		switch {
		case errors.Is(err, calendar.ErrInvalidTimezone):
			writeError(w, http.StatusBadRequest, "Invalid timezone")
		default:
			h.logger.Error().Err(err).Msg("Failed to store batch")
			writeError(w, http.StatusInternalServerError, "Failed to store sessions")
		}
		return
	}

	writeJSON(w, http.StatusCreated, FlushResponse{
		Message:            "Data has been stored",
		Received:           result.Received,
		Accepted:           result.Accepted,
		SuccessRate:        result.SuccessRate(),
		RejectedSessionIDs: result.RejectedSessionIDs,
		Rejections:         result.Rejections,
	})
}

// FlushMock echoes a decoded batch without storing it, for client debugging.
func (h *TimeHandler) FlushMock(w http.ResponseWriter, r *http.Request) {
	batch, ok := decodeBatch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

// Stats builds a statistics report for ?period=week|month&timezone=Area/City.
func (h *TimeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	period, err := stats.ParsePeriod(query.Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	timezone := query.Get("timezone")
	if timezone == "" {
		timezone = h.defaultTimezone
	}

	report, err := h.builder.Build(r.Context(), period, timezone)
	if err != nil {
		switch {
		case errors.Is(err, calendar.ErrInvalidTimezone):
			writeError(w, http.StatusBadRequest, "Invalid timezone")
		default:
			h.logger.Error().Err(err).Msg("Failed to build statistics")
			writeError(w, http.StatusInternalServerError, "Failed to build statistics")
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// WipeAll deletes every daily bucket.
func (h *TimeHandler) WipeAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.buckets.DeleteAllBuckets(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to delete buckets")
		writeError(w, http.StatusInternalServerError, "Failed to delete time buckets")
		return
	}

	h.logger.Warn().Int("deleted", deleted).Msg("All time buckets deleted")
	writeJSON(w, http.StatusOK, WipeResponse{
		Message: "All time buckets deleted",
		Deleted: deleted,
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: "Burner - Time Tracker API",
		Status:  "ok",
	})
}
