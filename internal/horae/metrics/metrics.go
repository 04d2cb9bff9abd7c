package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan result labels.
const (
	ResultOpened     = "opened"
	ResultClosed     = "closed"
	ResultNoMatch    = "no_match"
	ResultLowQuality = "low_quality"
	ResultError      = "error"
)

type Metrics struct {
	Scans               *prometheus.CounterVec
	InvariantViolations prometheus.Counter
	EnrollmentCount     prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Scans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "horae_scans_total",
			Help: "Total biometric scans processed, by outcome",
		}, []string{"result"}),
		InvariantViolations: f.NewCounter(prometheus.CounterOpts{
			Name: "horae_ledger_invariant_violations_total",
			Help: "Total ledger writes rejected by the open-record invariant",
		}),
		EnrollmentCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "horae_enrollments",
			Help: "Number of enrollments in the current snapshot",
		}),
	}
}

// All methods tolerate a nil receiver so metrics stay optional in tests.

func (m *Metrics) ScanRecorded(result string) {
	if m == nil {
		return
	}
	m.Scans.WithLabelValues(result).Inc()
}

func (m *Metrics) InvariantViolation() {
	if m == nil {
		return
	}
	m.InvariantViolations.Inc()
}

func (m *Metrics) SetEnrollmentCount(n int) {
	if m == nil {
		return
	}
	m.EnrollmentCount.Set(float64(n))
}
