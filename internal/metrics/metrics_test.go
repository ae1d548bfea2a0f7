package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RewardCredited(100)
	m.PayoutFinished("CONFIRMED")
	m.TransferObserved(1500 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		"dataverse_rewards_credited_total 100",
		`dataverse_payouts_total{status="CONFIRMED"} 1`,
		"dataverse_transfer_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RewardCredited(1)
	m.PayoutFinished("FAILED")
	m.TransferObserved(time.Second)
}
