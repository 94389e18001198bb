package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", ResultLabel(nil))
	assert.Equal(t, "error", ResultLabel(errors.New("boom")))
	assert.Equal(t, "insufficient_balance", ResultLabel(models.NewError(models.KindInsufficientBalance, "x")))
	wrapped := fmt.Errorf("send: %w", models.NewError(models.KindSubmissionRejected, "x"))
	assert.Equal(t, "submission_rejected", ResultLabel(wrapped))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.RecordBalanceCheck(nil)
	m.RecordBalanceCheck(nil)
	m.RecordBalanceCheck(models.NewError(models.KindOracleUnavailable, "down"))
	m.RecordSubmission(models.NewError(models.KindInsufficientBalance, "low"))
	m.ObserveHorizon("submit", 120*time.Millisecond, nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.balanceChecks.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.balanceChecks.WithLabelValues("oracle_unavailable")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.submissions.WithLabelValues("insufficient_balance")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.horizonLatency))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordSubmission(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `piwallet_submissions_total{result="ok"} 1`)
}
