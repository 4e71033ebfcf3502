package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionMetrics exposes counters/histograms for the session lifecycle.
type SessionMetrics struct {
	bootstrapTotal   *prometheus.CounterVec
	loginTotal       *prometheus.CounterVec
	profileLoadTotal *prometheus.CounterVec
	broadcastTotal   *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
}

func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		bootstrapTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medidesk",
			Subsystem: "session",
			Name:      "bootstrap_total",
			Help:      "Total silent-refresh bootstrap attempts",
		}, []string{"outcome"}),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medidesk",
			Subsystem: "session",
			Name:      "login_total",
			Help:      "Total login submissions",
		}, []string{"role", "status"}),
		profileLoadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medidesk",
			Subsystem: "session",
			Name:      "profile_load_total",
			Help:      "Total profile loads after a token change",
		}, []string{"role", "status"}),
		broadcastTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medidesk",
			Subsystem: "session",
			Name:      "broadcast_total",
			Help:      "Logout broadcast events by direction",
		}, []string{"direction"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medidesk",
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "Latency of dashboard backend requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bootstrapTotal, m.loginTotal, m.profileLoadTotal, m.broadcastTotal, m.requestLatency)
	return m
}

func (m *SessionMetrics) ObserveBootstrap(outcome string) {
	if m == nil {
		return
	}
	m.bootstrapTotal.WithLabelValues(outcome).Inc()
}

func (m *SessionMetrics) ObserveLogin(role, status string) {
	if m == nil {
		return
	}
	m.loginTotal.WithLabelValues(role, status).Inc()
}

func (m *SessionMetrics) ObserveProfileLoad(role, status string) {
	if m == nil {
		return
	}
	m.profileLoadTotal.WithLabelValues(role, status).Inc()
}

func (m *SessionMetrics) ObserveBroadcast(direction string) {
	if m == nil {
		return
	}
	m.broadcastTotal.WithLabelValues(direction).Inc()
}

func (m *SessionMetrics) ObserveRequestLatency(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(endpoint).Observe(seconds)
}
