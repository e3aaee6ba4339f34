package usage

import (
	"errors"
	"fmt"
	"time"
)

// ErrStorage wraps any bucket store failure that aborted a batch.
var ErrStorage = errors.New("storage failure")

// Session is one reported interval of activity on a host.
type Session struct {
	ID    string    `json:"id"`
	Host  string    `json:"host"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Batch is a flushed set of sessions sharing one timezone.
type Batch struct {
	Total    int       `json:"total"`
	Timezone string    `json:"timezone"`
	Sessions []Session `json:"sessions"`
}

// Reason explains why a session was not accepted.
type Reason string

const (
	ReasonDuplicate       Reason = "duplicate"
	ReasonInvalidInterval Reason = "invalid_interval"
	ReasonInvalidHost     Reason = "invalid_host"
)

// Rejection records a session that was skipped.
type Rejection struct {
	ID     string `json:"id"`
	Reason Reason `json:"reason"`
}

// Result summarizes an ingested batch.
type Result struct {
	Received           int         `json:"received"`
	Accepted           int         `json:"accepted"`
	RejectedSessionIDs []string    `json:"rejected_session_ids"`
	Rejections         []Rejection `json:"rejections"`
	Segments           int         `json:"segments"`
	Seconds            int64       `json:"seconds"`
}

// SuccessRate renders accepted over received, e.g. "3 / 4".
func (r *Result) SuccessRate() string {
	return fmt.Sprintf("%d / %d", r.Accepted, r.Received)
}

func (r *Result) reject(id string, reason Reason) {
	r.RejectedSessionIDs = append(r.RejectedSessionIDs, id)
	r.Rejections = append(r.Rejections, Rejection{ID: id, Reason: reason})
}
