package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInitMetricsServesRecordedCounter(t *testing.T) {
	provider, handler, err := InitMetrics(MetricsConfig{
		ServiceName: "appraisal-service",
		Registerer:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	counter, err := provider.Meter("test").Int64Counter("appraisal.scores.computed")
	if err != nil {
		t.Fatalf("create counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "appraisal_scores_computed") {
		t.Errorf("expected counter in exposition, got:\n%s", rec.Body.String())
	}
}
