package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.IncAttempt("search", "timeout")
	m.IncAttempt("search", "timeout")
	m.IncAttempt("search", "success")
	m.IncExtractionFailure("price", "failure")
	m.IncSaved()
	m.IncSaveFailure()
	m.ObserveRun(42 * time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("search", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("search", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("price", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductsSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaveFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncAttempt("load_home", "failure")
		m.IncExtractionFailure("title", "timeout")
		m.IncSaved()
		m.IncSaveFailure()
		m.ObserveRun(time.Second)
	})
}
