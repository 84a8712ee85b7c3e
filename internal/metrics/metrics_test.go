package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RunFinished(nil)
		m.RecordsRead(3)
		m.RecordsMatched(2)
		m.IntervalPriced("CHARGING")
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.RecordsRead(10)
	m.RecordsMatched(4)
	m.IntervalPriced("CHARGING")
	m.IntervalPriced("CHARGING")
	m.IntervalPriced("DISCHARGING")
	m.RunFinished(nil)
	m.RunFinished(errors.New("boom"))

	assert.Equal(t, 10.0, testutil.ToFloat64(m.recordsRead))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.recordsMatched))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.intervals.WithLabelValues("CHARGING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("error")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordsRead(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "revenue_records_read_total 1")
}
