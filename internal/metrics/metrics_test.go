package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SessionStarted()
	m.PickResolved(ResolutionChoice)
	m.PickResolved(ResolutionChoice)
	m.PickResolved(ResolutionOffline)
	m.ArrangementResolved(ResolutionTimeout)
	m.StaleMessage("choice")
	m.SessionFinished(time.Now(), nil)
	m.SessionFinished(time.Now(), errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.picks.WithLabelValues(ResolutionChoice)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.picks.WithLabelValues(ResolutionOffline)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.arrangements.WithLabelValues(ResolutionTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleMessages.WithLabelValues("choice")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.sessionDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionStarted()
	m.PickResolved(ResolutionForced)
	m.ArrangementResolved(ResolutionChoice)
	m.StaleMessage("arrangement")
	m.SessionFinished(time.Now(), nil)
}
