package metrics

import (
	"time"
)

// MeasureDBQuery wraps an invoice store operation with timing instrumentation.
// Usage:
//
//	defer metrics.MeasureDBQuery(m, "get_invoice", "postgres")()
func MeasureDBQuery(m *Metrics, operation, backend string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.ObserveDBQuery(operation, backend, time.Since(start))
	}
}
