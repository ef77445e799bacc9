package server

import (
	"github.com/jrsteele09/go-matchmaking-backoffice/guard"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks session outcomes, guard decisions and dashboard actions
type Metrics struct {
	SessionEvents    *prometheus.CounterVec
	GuardDecisions   *prometheus.CounterVec
	DashboardActions *prometheus.CounterVec
	LiveSessions     prometheus.Gauge
}

// NewMetrics registers every back office metric on reg
func NewMetrics(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_session_events_total",
			Help: "Session store operations by event and outcome",
		}, []string{"event", "outcome"}),
		GuardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_guard_decisions_total",
			Help: "Route guard decisions on protected pages",
		}, []string{"decision"}),
		DashboardActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_dashboard_actions_total",
			Help: "Moderation actions sent to the matchmaking API",
		}, []string{"action", "outcome"}),
		LiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "backoffice_live_session_stores",
			Help: "Session stores currently held in memory",
		}),
	}
}

// ObserveSession is the sessions.Observer of every store
func (m *Metrics) ObserveSession(event sessions.Event, err error) {
	m.SessionEvents.WithLabelValues(string(event), outcome(err)).Inc()
}

func (m *Metrics) ObserveDecision(decision guard.Decision) {
	m.GuardDecisions.WithLabelValues(decision.String()).Inc()
}

func (m *Metrics) ObserveAction(action string, err error) {
	m.DashboardActions.WithLabelValues(action, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errors.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, errors.ErrForbidden):
		return "forbidden"
	case errors.Is(err, errors.ErrNotAdmin):
		return "not_admin"
	case errors.Is(err, errors.ErrResolutionInvalid):
		return "invalid_token"
	case errors.Is(err, errors.ErrSessionStorage):
		return "storage"
	case errors.Is(err, errors.ErrNetworkOrServer):
		return "network"
	}
	return "error"
}
