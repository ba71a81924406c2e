package audit

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts audit records by channel.
//
// Example PromQL queries:
//   - Failed logins per hour: sum(increase(cwb_audit_records_total{action="LOGIN_FAILED"}[1h]))
//   - Listener failures:      rate(cwb_audit_failures_total[5m])
type Metrics struct {
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetrics registers the audit counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		records: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cwb_audit_records_total",
				Help: "Audit records written, by channel and action (HTTP method for the access channel).",
			},
			[]string{"channel", "action"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cwb_audit_failures_total",
				Help: "Audit listener failures converted into error records, by channel.",
			},
			[]string{"channel"},
		),
	}
}

func (m *Metrics) record(channel, action string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(channel, action).Inc()
}

func (m *Metrics) failure(channel string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(channel).Inc()
}

// methodLabel folds the request method into a fixed label set; arbitrary
// client-chosen methods all count as OTHER.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
		http.MethodConnect, http.MethodTrace:
		return method
	}
	return "OTHER"
}
