package metrics

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsString(t *testing.T) {
	assert.Equal(t, "", Labels{}.String())
	assert.Equal(t, `{a="1",b="2"}`, Labels{"b": "2", "a": "1"}.String())
	assert.Equal(t, `{le="0.5"}`, Labels{}.withLE("0.5"))
	assert.Equal(t, `{mode="ocr",le="+Inf"}`, Labels{"mode": "ocr"}.withLE("+Inf"))
}

func TestCounterVec(t *testing.T) {
	r := NewRegistry("texclip")
	v := r.CounterVec("invocations_total", "help", "mode", "status")
	assert.Same(t, v, r.CounterVec("invocations_total", "help", "mode", "status"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.With("latex", "success").Inc()
		}()
	}
	wg.Wait()
	v.With("ocr", "recognition failed").Inc()

	assert.Equal(t, uint64(50), v.With("latex", "success").Value())
	assert.Equal(t, uint64(51), v.Total())
	assert.Panics(t, func() { v.With("latex") })
}

func TestHistogram(t *testing.T) {
	r := NewRegistry("")
	h := r.Histogram("latency", "help", nil, []float64{1, 0.1})
	assert.Equal(t, []float64{0.1, 1}, h.buckets)

	h.Observe(0.05)
	h.Observe(0.1)
	h.ObserveDuration(3 * time.Second)

	assert.Equal(t, uint64(3), h.Count())
	assert.InDelta(t, 3.15/3, h.Mean(), 1e-9)
	assert.Equal(t, []uint64{2, 0, 1}, h.counts)
}

func TestWritePrometheus(t *testing.T) {
	m := NewInvocations(NewRegistry("texclip"))
	m.Record("latex", "success", 1500*time.Millisecond)
	m.Record("latex", "call failed", 20*time.Second)
	m.Record("ocr", "success", 200*time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, m.Registry().WritePrometheus(&buf))
	out := buf.String()

	assert.Contains(t, out, "# TYPE texclip_invocations_total counter\n")
	assert.Contains(t, out, `texclip_invocations_total{mode="latex",status="success"} 1`)
	assert.Contains(t, out, `texclip_invocations_total{mode="latex",status="call failed"} 1`)
	assert.Contains(t, out, `texclip_invocation_duration_seconds_bucket{mode="latex",le="2"} 1`)
	assert.Contains(t, out, `texclip_invocation_duration_seconds_bucket{mode="latex",le="20"} 2`)
	assert.Contains(t, out, `texclip_invocation_duration_seconds_count{mode="ocr"} 1`)
	assert.Equal(t, 1, strings.Count(out, "# TYPE texclip_invocation_duration_seconds histogram"))

	var again bytes.Buffer
	require.NoError(t, m.Registry().WritePrometheus(&again))
	assert.Equal(t, out, again.String(), "output is stable")
}

func TestInvocationsSummary(t *testing.T) {
	m := NewInvocations(NewRegistry("texclip"))
	m.Record("latex", "success", time.Second)
	m.Record("base64", "success", time.Millisecond)
	m.Record("ocr", "no image on clipboard", time.Millisecond)

	assert.Equal(t, []any{"invocations", uint64(3), "succeeded", uint64(2)}, m.Summary())
}
