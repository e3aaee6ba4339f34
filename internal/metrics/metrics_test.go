package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandlerServesMetrics(t *testing.T) {
	SessionsIngested.WithLabelValues("accepted").Add(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "burner_sessions_ingested_total") {
		t.Fatal("expected sessions counter in output")
	}
}

func TestHandlerHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestBucketsPrunedCounter(t *testing.T) {
	before := testutil.ToFloat64(BucketsPruned)
	BucketsPruned.Add(2)
	if got := testutil.ToFloat64(BucketsPruned); got != before+2 {
		t.Fatalf("expected %v, got %v", before+2, got)
	}
}
