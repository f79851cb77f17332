// Package metrics expone contadores e histogramas Prometheus del ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics implementa inventory.Metrics.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewLedgerMetrics registra los colectores en reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Llamadas al ledger de inventario por operación y resultado.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duración de las transacciones del ledger.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"operation"}),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

// ObserveOperation cuenta el resultado; la duración solo se registra si hubo transacción.
func (m *LedgerMetrics) ObserveOperation(kind, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(kind, outcome).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}
