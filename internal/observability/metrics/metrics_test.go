package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestSessionMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSessionMetrics(reg)

	m.ObserveBootstrap("failed")
	m.ObserveBootstrap("failed")
	m.ObserveLogin("doctor", "ok")
	m.ObserveProfileLoad("doctor", "partial")
	m.ObserveBroadcast("sent")

	families := gather(t, reg)

	bootstrap, ok := families["medidesk_session_bootstrap_total"]
	require.True(t, ok)
	require.Len(t, bootstrap.GetMetric(), 1)
	require.Equal(t, "failed", labelValue(bootstrap.GetMetric()[0], "outcome"))
	require.Equal(t, float64(2), bootstrap.GetMetric()[0].GetCounter().GetValue())

	login := families["medidesk_session_login_total"]
	require.NotNil(t, login)
	require.Equal(t, "doctor", labelValue(login.GetMetric()[0], "role"))
	require.Equal(t, "ok", labelValue(login.GetMetric()[0], "status"))

	profile := families["medidesk_session_profile_load_total"]
	require.NotNil(t, profile)
	require.Equal(t, "partial", labelValue(profile.GetMetric()[0], "status"))

	broadcast := families["medidesk_session_broadcast_total"]
	require.NotNil(t, broadcast)
	require.Equal(t, float64(1), broadcast.GetMetric()[0].GetCounter().GetValue())
}

func TestRequestLatencyHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSessionMetrics(reg)

	m.ObserveRequestLatency("/dashboard/auth/refresh", 0.03)
	m.ObserveRequestLatency("/dashboard/auth/refresh", 0.07)
	m.ObserveRequestLatency("/dashboard/doctors/%d", 0.01)

	families := gather(t, reg)
	latency, ok := families["medidesk_api_request_latency_seconds"]
	require.True(t, ok)
	require.Len(t, latency.GetMetric(), 2)

	var refresh *dto.Metric
	for _, metric := range latency.GetMetric() {
		if labelValue(metric, "endpoint") == "/dashboard/auth/refresh" {
			refresh = metric
		}
	}
	require.NotNil(t, refresh)
	require.Equal(t, uint64(2), refresh.GetHistogram().GetSampleCount())
	require.InDelta(t, 0.1, refresh.GetHistogram().GetSampleSum(), 1e-9)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *SessionMetrics
	m.ObserveBootstrap("succeeded")
	m.ObserveLogin("admin", "ok")
	m.ObserveProfileLoad("admin", "ok")
	m.ObserveBroadcast("received")
	m.ObserveRequestLatency("/dashboard/clinics/%d", 0.01)
}
