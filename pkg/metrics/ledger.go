package metrics

import (
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts ledger writes and their outcomes.
type LedgerMetrics struct {
	operations    *prometheus.CounterVec
	layouts       *prometheus.CounterVec
	overdueMarked prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "operations_total",
		Help:      "Ledger operations by entity, operation and outcome code.",
	}, []string{"entity", "operation", "outcome"})
	layouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "layout_writes_total",
		Help:      "Row writes by table and detected schema layout.",
	}, []string{"table", "layout"})
	overdue := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "invoices_marked_overdue_total",
		Help:      "Invoices moved to overdue by the automatic sweep.",
	})
	reg.MustRegister(operations, layouts, overdue)
	return &LedgerMetrics{
		operations:    operations,
		layouts:       layouts,
		overdueMarked: overdue,
	}
}

// ObserveOperation counts one operation. The outcome label is "ok" or the
// error code carried by err.
func (m *LedgerMetrics) ObserveOperation(entity, operation string, err error) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(entity), normalizeLabel(operation), Outcome(err)).Inc()
}

// ObserveLayout records which physical layout served a write.
func (m *LedgerMetrics) ObserveLayout(table, layout string) {
	if m == nil || m.layouts == nil {
		return
	}
	m.layouts.WithLabelValues(normalizeLabel(table), normalizeLabel(layout)).Inc()
}

// AddOverdue adds n invoices to the overdue counter.
func (m *LedgerMetrics) AddOverdue(n int64) {
	if m == nil || m.overdueMarked == nil || n <= 0 {
		return
	}
	m.overdueMarked.Add(float64(n))
}

// Outcome maps an error to a stable, low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
