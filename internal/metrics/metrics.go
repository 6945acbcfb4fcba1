// Package metrics keeps in-process counters and latency histograms and
// renders them in the Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Labels are metric dimensions.
type Labels map[string]string

// String renders labels as {k="v",...} in key order.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(l))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, k, l[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// withLE appends the histogram bucket label.
func (l Labels) withLE(le string) string {
	s := l.String()
	if s == "" {
		return `{le="` + le + `"}`
	}
	return s[:len(s)-1] + `,le="` + le + `"}`
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Uint64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Value returns the current value.
func (c *Counter) Value() uint64 {
	return c.value.Load()
}

// CounterVec is a family of counters partitioned by label values.
type CounterVec struct {
	name   string
	help   string
	keys   []string
	mu     sync.Mutex
	series map[string]*series
}

type series struct {
	labels  Labels
	counter Counter
}

// With returns the counter for the given label values, in the order the
// label names were registered.
func (v *CounterVec) With(values ...string) *Counter {
	if len(values) != len(v.keys) {
		panic(fmt.Sprintf("metrics: %s wants %d label values, got %d", v.name, len(v.keys), len(values)))
	}
	id := strings.Join(values, "\xff")

	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.series[id]
	if !ok {
		labels := make(Labels, len(values))
		for i, k := range v.keys {
			labels[k] = values[i]
		}
		s = &series{labels: labels}
		v.series[id] = s
	}
	return &s.counter
}

// Total sums every series.
func (v *CounterVec) Total() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	var n uint64
	for _, s := range v.series {
		n += s.counter.Value()
	}
	return n
}

// DurationBuckets are histogram bounds in seconds, spanning a local OCR pass
// to a slow remote call.
var DurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30}

// Histogram tracks the distribution of observed values.
type Histogram struct {
	name    string
	help    string
	labels  Labels
	buckets []float64

	mu     sync.Mutex
	counts []uint64 // per bucket, last entry is +Inf
	sum    float64
	count  uint64
}

func newHistogram(name, help string, labels Labels, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DurationBuckets
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	return &Histogram{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: sorted,
		counts:  make([]uint64, len(sorted)+1),
	}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++
	h.counts[sort.SearchFloat64s(h.buckets, v)]++
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Mean returns the mean observation, or 0 when empty.
func (h *Histogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	return h.sum / float64(h.count)
}

// Registry owns a set of metrics under a common namespace.
type Registry struct {
	namespace string

	mu         sync.Mutex
	counters   map[string]*CounterVec
	histograms map[string]*Histogram
}

// NewRegistry creates an empty registry. Metric names are prefixed with
// namespace and an underscore.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace:  namespace,
		counters:   make(map[string]*CounterVec),
		histograms: make(map[string]*Histogram),
	}
}

func (r *Registry) fullName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

// CounterVec registers, or returns the existing, counter family name.
func (r *Registry) CounterVec(name, help string, labelNames ...string) *CounterVec {
	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullName(name)
	if v, ok := r.counters[full]; ok {
		return v
	}
	v := &CounterVec{name: full, help: help, keys: labelNames, series: make(map[string]*series)}
	r.counters[full] = v
	return v
}

// Histogram registers, or returns the existing, histogram with the given
// name and labels.
func (r *Registry) Histogram(name, help string, labels Labels, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullName(name)
	key := full + labels.String()
	if h, ok := r.histograms[key]; ok {
		return h
	}
	h := newHistogram(full, help, labels, buckets)
	r.histograms[key] = h
	return h
}

// WritePrometheus writes every metric in the Prometheus text format, sorted
// by name so the output is stable.
func (r *Registry) WritePrometheus(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder

	names := make([]string, 0, len(r.counters))
	for n := range r.counters {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		v := r.counters[n]
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s counter\n", v.name, v.help, v.name)

		v.mu.Lock()
		lines := make([]string, 0, len(v.series))
		for _, s := range v.series {
			lines = append(lines, fmt.Sprintf("%s%s %d\n", v.name, s.labels.String(), s.counter.Value()))
		}
		v.mu.Unlock()
		sort.Strings(lines)
		b.WriteString(strings.Join(lines, ""))
	}

	keys := make([]string, 0, len(r.histograms))
	for k := range r.histograms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	typed := map[string]bool{}
	for _, k := range keys {
		h := r.histograms[k]
		if !typed[h.name] {
			fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
			typed[h.name] = true
		}

		h.mu.Lock()
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += h.counts[i]
			fmt.Fprintf(&b, "%s_bucket%s %d\n", h.name, h.labels.withLE(fmt.Sprintf("%g", bound)), cumulative)
		}
		cumulative += h.counts[len(h.buckets)]
		fmt.Fprintf(&b, "%s_bucket%s %d\n", h.name, h.labels.withLE("+Inf"), cumulative)
		fmt.Fprintf(&b, "%s_sum%s %g\n", h.name, h.labels.String(), h.sum)
		fmt.Fprintf(&b, "%s_count%s %d\n", h.name, h.labels.String(), h.count)
		h.mu.Unlock()
	}

	_, err := io.WriteString(w, b.String())
	return err
}
