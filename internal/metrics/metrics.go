package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ResultAccepted labels a ticket decision that passed every check.
const ResultAccepted = "accepted"

// TicketMetrics records ticket engine outcomes and banned list reloads.
type TicketMetrics struct {
	decisions     *prometheus.CounterVec
	edits         *prometheus.CounterVec
	registryLoads prometheus.Counter
	bannedPlates  *prometheus.GaugeVec
}

// NewTicketMetrics registers the ticket metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewTicketMetrics(reg prometheus.Registerer) *TicketMetrics {
	if reg == nil {
		return &TicketMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_ticket_decisions_total",
		Help: "Ticket validation outcomes by result.",
	}, []string{"result"})
	edits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_ticket_edits_total",
		Help: "Ticket edit outcomes by result.",
	}, []string{"result"})
	registryLoads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parking_banned_registry_loads_total",
		Help: "Banned plate lists parsed into a registry.",
	})
	bannedPlates := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parking_banned_plates",
		Help: "Plates in the most recently loaded banned list per building.",
	}, []string{"building"})
	reg.MustRegister(decisions, edits, registryLoads, bannedPlates)
	return &TicketMetrics{
		decisions:     decisions,
		edits:         edits,
		registryLoads: registryLoads,
		bannedPlates:  bannedPlates,
	}
}

// ObserveDecision counts one create or preview. reason is the engine's reason
// code, empty when the ticket was accepted.
func (m *TicketMetrics) ObserveDecision(reason string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeResult(reason)).Inc()
}

// ObserveEdit counts one ticket edit.
func (m *TicketMetrics) ObserveEdit(reason string) {
	if m == nil || m.edits == nil {
		return
	}
	m.edits.WithLabelValues(normalizeResult(reason)).Inc()
}

// ObserveRegistryLoad records a banned list parse for a building.
func (m *TicketMetrics) ObserveRegistryLoad(buildingID string, plates int) {
	if m == nil || m.registryLoads == nil {
		return
	}
	m.registryLoads.Inc()
	m.bannedPlates.WithLabelValues(buildingID).Set(float64(plates))
}

// ForgetBuilding drops the per-building gauge.
func (m *TicketMetrics) ForgetBuilding(buildingID string) {
	if m == nil || m.bannedPlates == nil {
		return
	}
	m.bannedPlates.DeleteLabelValues(buildingID)
}

func normalizeResult(reason string) string {
	if reason == "" {
		return ResultAccepted
	}
	return reason
}
