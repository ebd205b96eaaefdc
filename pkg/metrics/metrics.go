package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dispatch-core instrumentation.
type Metrics struct {
	alertsCreated     prometheus.Counter
	alertTransitions  *prometheus.CounterVec
	activeAlerts      prometheus.Gauge
	channelAttempts   *prometheus.CounterVec
	fanOutDuration    prometheus.Histogram
	auditAppendsTotal prometheus.Counter
}

// New registers the metric set on the default registry. Call once per
// process.
func New() *Metrics {
	return &Metrics{
		alertsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sos_alerts_created_total",
			Help: "Total number of SOS alerts created",
		}),
		alertTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sos_alert_transitions_total",
			Help: "Alert lifecycle transitions by target status",
		}, []string{"status"}),
		activeAlerts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sos_alerts_active",
			Help: "Alerts currently in Active status",
		}),
		channelAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sos_channel_attempts_total",
			Help: "Notification attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		fanOutDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sos_fanout_duration_seconds",
			Help:    "Wall time of a full notification fan-out",
			Buckets: prometheus.DefBuckets,
		}),
		auditAppendsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sos_audit_appends_total",
			Help: "Entries appended to the audit log",
		}),
	}
}

func (m *Metrics) AlertCreated() { m.alertsCreated.Inc() }

func (m *Metrics) AlertTransition(status string) {
	m.alertTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) SetActiveAlerts(n int64) { m.activeAlerts.Set(float64(n)) }

func (m *Metrics) ChannelAttempt(channel string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.channelAttempts.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) FanOutDone(start time.Time) {
	m.fanOutDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) AuditAppended() { m.auditAppendsTotal.Inc() }
