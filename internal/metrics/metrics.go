package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "duel_draft"

// Resolution labels for picks and arrangements.
const (
	ResolutionChoice  = "choice"
	ResolutionForced  = "forced"
	ResolutionOffline = "offline"
	ResolutionTimeout = "timeout"
)

// Metrics is safe to use as a nil pointer; every method is a no-op then.
type Metrics struct {
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsFailed    prometheus.Counter
	picks             *prometheus.CounterVec
	arrangements      *prometheus.CounterVec
	staleMessages     *prometheus.CounterVec
	sessionDuration   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_started_total",
			Help: "Draft sessions begun.",
		}),
		sessionsCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_completed_total",
			Help: "Draft sessions that reached the end of arrangement.",
		}),
		sessionsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_failed_total",
			Help: "Draft sessions aborted by an error or shutdown.",
		}),
		picks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "picks_total",
			Help: "Resolved picks by how they were resolved.",
		}, []string{"resolution"}),
		arrangements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "arrangements_total",
			Help: "Resolved arrangements by how they were resolved.",
		}, []string{"resolution"}),
		staleMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stale_messages_total",
			Help: "Inbound choices or arrangements ignored as stale or malformed.",
		}, []string{"kind"}),
		sessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "session_duration_seconds",
			Help:    "Wall time from session begin to completion.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) SessionFinished(started time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sessionsFailed.Inc()
		return
	}
	m.sessionsCompleted.Inc()
	m.sessionDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) PickResolved(resolution string) {
	if m == nil {
		return
	}
	m.picks.WithLabelValues(resolution).Inc()
}

func (m *Metrics) ArrangementResolved(resolution string) {
	if m == nil {
		return
	}
	m.arrangements.WithLabelValues(resolution).Inc()
}

func (m *Metrics) StaleMessage(kind string) {
	if m == nil {
		return
	}
	m.staleMessages.WithLabelValues(kind).Inc()
}
