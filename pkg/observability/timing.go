package observability

import "time"

// Timer measures one operation and reports its duration and completion to a
// metrics sink when one is attached.
type Timer struct {
	operation string
	started   time.Time
	metrics   Metrics
}

// StartTimer begins timing the named operation.
func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, started: time.Now()}
}

// WithMetrics attaches a metrics sink recorded on Stop.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// Stop records the elapsed duration and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.started)
	if t.metrics != nil {
		tag := T("operation", t.operation)
		t.metrics.Timing(MetricOperationDuration, elapsed, tag)
		t.metrics.Counter(MetricOperationTotal, 1, tag)
	}
	return elapsed
}
