package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveLedgerCountsQuantityOnSuccessOnly(t *testing.T) {
	beforeOps := testutil.ToFloat64(LedgerOperations.WithLabelValues("reserve", ResultSuccess))
	beforeQty := testutil.ToFloat64(LedgerQuantity.WithLabelValues("reserve"))

	ObserveLedger("reserve", ResultSuccess, 3)
	ObserveLedger("reserve", ResultInsufficient, 5)

	if got := testutil.ToFloat64(LedgerOperations.WithLabelValues("reserve", ResultSuccess)) - beforeOps; got != 1 {
		t.Fatalf("expected 1 success op, got %v", got)
	}
	if got := testutil.ToFloat64(LedgerQuantity.WithLabelValues("reserve")) - beforeQty; got != 3 {
		t.Fatalf("expected quantity 3, got %v", got)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	SweepRuns.WithLabelValues("dry_run").Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "stockhold_sweep_runs_total") {
		t.Fatalf("expected sweep metric in output")
	}
}
