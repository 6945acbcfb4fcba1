package metrics

import "time"

// Invocations holds the metrics recorded by the dispatcher.
type Invocations struct {
	registry *Registry

	// Total counts invocations by mode and status.
	Total *CounterVec
}

// NewInvocations registers the invocation metrics in registry.
func NewInvocations(registry *Registry) *Invocations {
	return &Invocations{
		registry: registry,
		Total: registry.CounterVec("invocations_total",
			"Clipboard conversions by mode and status.", "mode", "status"),
	}
}

// Registry returns the registry the metrics live in.
func (m *Invocations) Registry() *Registry {
	return m.registry
}

// Duration returns the latency histogram of mode.
func (m *Invocations) Duration(mode string) *Histogram {
	return m.registry.Histogram("invocation_duration_seconds",
		"Wall time of one clipboard conversion.", Labels{"mode": mode}, DurationBuckets)
}

// Record counts one finished invocation.
func (m *Invocations) Record(mode, status string, d time.Duration) {
	m.Total.With(mode, status).Inc()
	m.Duration(mode).ObserveDuration(d)
}

// Summary returns attributes suitable for a structured log record.
func (m *Invocations) Summary() []any {
	return []any{
		"invocations", m.Total.Total(),
		"succeeded", m.succeeded(),
	}
}

func (m *Invocations) succeeded() uint64 {
	m.Total.mu.Lock()
	defer m.Total.mu.Unlock()
	var n uint64
	for _, s := range m.Total.series {
		if s.labels["status"] == "success" {
			n += s.counter.Value()
		}
	}
	return n
}
