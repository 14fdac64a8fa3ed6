package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTicketMetrics(reg)

	m.ObserveDecision("")
	m.ObserveDecision("")
	m.ObserveDecision("banned_plate")
	m.ObserveEdit("quota_exceeded")
	m.ObserveRegistryLoad("b-1", 42)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, 2.0, metricValue(t, mfs, "parking_ticket_decisions_total", "result", ResultAccepted))
	assert.Equal(t, 1.0, metricValue(t, mfs, "parking_ticket_decisions_total", "result", "banned_plate"))
	assert.Equal(t, 1.0, metricValue(t, mfs, "parking_ticket_edits_total", "result", "quota_exceeded"))
	assert.Equal(t, 1.0, metricValue(t, mfs, "parking_banned_registry_loads_total", "", ""))
	assert.Equal(t, 42.0, metricValue(t, mfs, "parking_banned_plates", "building", "b-1"))

	m.ForgetBuilding("b-1")
	mfs, err = reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.NotEqual(t, "parking_banned_plates", mf.GetName())
	}
}

func TestTicketMetricsNilSafe(t *testing.T) {
	var m *TicketMetrics
	m.ObserveDecision("")
	m.ObserveEdit("")
	m.ObserveRegistryLoad("b-1", 1)
	m.ForgetBuilding("b-1")

	NewTicketMetrics(nil).ObserveDecision("invalid_input")
}

func metricValue(t *testing.T, mfs []*dto.MetricFamily, name, label, value string) float64 {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label != "" && !hasLabel(metric, label, value) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			}
		}
	}
	require.FailNow(t, fmt.Sprintf("metric %s{%s=%q} not found", name, label, value))
	return 0
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
