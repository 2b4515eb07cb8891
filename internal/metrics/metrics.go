package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	KindAutocomplete = "autocomplete"
	KindCommand      = "command"
	KindModal        = "modal"

	OutcomeDelivered  = "delivered"
	OutcomeNoSession  = "no_session"
	OutcomeNoChannel  = "no_channel"
	OutcomeSendFailed = "send_failed"
)

// Metrics holds the bot's collectors on their own registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	InteractionsTotal    *prometheus.CounterVec
	RejectionsTotal      *prometheus.CounterVec
	SubmissionsTotal     *prometheus.CounterVec
	ConfigMutationsTotal *prometheus.CounterVec
	AuditEventsTotal     *prometheus.CounterVec
	PendingSubmissions   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		InteractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlogger_interactions_total",
				Help: "Interactions received, by kind and command",
			},
			[]string{"kind", "name"},
		),
		RejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlogger_rejections_total",
				Help: "Interactions answered with an ephemeral rejection",
			},
			[]string{"reason"},
		),
		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlogger_submissions_total",
				Help: "Modal submissions by outcome",
			},
			[]string{"outcome"},
		),
		ConfigMutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlogger_config_mutations_total",
				Help: "Admin configuration changes by operation and result",
			},
			[]string{"op", "result"},
		),
		AuditEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlogger_audit_events_total",
				Help: "Audit entries written, by level and event",
			},
			[]string{"level", "event"},
		),
		PendingSubmissions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventlogger_pending_submissions",
				Help: "Submissions waiting for their modal",
			},
		),
	}
}

func (m *Metrics) Interaction(kind, name string) {
	if m == nil {
		return
	}
	m.InteractionsTotal.WithLabelValues(kind, name).Inc()
}

func (m *Metrics) Rejection(reason string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ConfigMutation(op, result string) {
	if m == nil {
		return
	}
	m.ConfigMutationsTotal.WithLabelValues(op, result).Inc()
}

func (m *Metrics) AuditEvent(level, event string) {
	if m == nil {
		return
	}
	m.AuditEventsTotal.WithLabelValues(level, event).Inc()
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingSubmissions.Set(float64(n))
}
