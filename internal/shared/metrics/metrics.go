package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	intakeStartedTotal   atomic.Uint64
	intakeCompletedTotal atomic.Uint64
	intakeFailedTotal    = newCounterVec("code")
	extractionTotal      = newCounterVec("method", "outcome")

	analysisDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncIntakeStarted increments the started counter.
func IncIntakeStarted() {
	intakeStartedTotal.Add(1)
}

// IncIntakeCompleted increments the completed counter.
func IncIntakeCompleted() {
	intakeCompletedTotal.Add(1)
}

// IncIntakeFailed increments the failure counter for an error code.
func IncIntakeFailed(code string) {
	intakeFailedTotal.Inc(code)
}

// IncExtraction counts one adapter attempt. outcome is "success" or a failure kind.
func IncExtraction(method, outcome string) {
	extractionTotal.Inc(method, outcome)
}

// ObserveAnalysisDurationMs records an end-to-end intake duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "letter_intake_started_total", "Total uploads accepted for processing", intakeStartedTotal.Load())
	writeCounter(&buf, "letter_intake_completed_total", "Total analyses persisted", intakeCompletedTotal.Load())
	writeCounterVec(&buf, "letter_intake_failed_total", "Total failed uploads by error code", intakeFailedTotal)
	writeCounterVec(&buf, "letter_extraction_attempts_total", "Extraction adapter attempts by method and outcome", extractionTotal)
	writeHistogram(&buf, "letter_analysis_duration_ms", "Intake duration in milliseconds", analysisDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	labels []string
	values map[string]uint64
}

func newCounterVec(labels ...string) *counterVec {
	return &counterVec{labels: labels, values: make(map[string]uint64)}
}

// Inc increments the series for the given label values, in label order.
func (v *counterVec) Inc(values ...string) {
	if len(values) != len(v.labels) {
		return
	}
	key := strings.Join(values, "\xff")
	v.mu.Lock()
	v.values[key]++
	v.mu.Unlock()
}

func (v *counterVec) snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, n := range v.values {
		out[k] = n
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket that holds it; counts are
// accumulated at render time.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, vec *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	snap := vec.snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		values := strings.Split(k, "\xff")
		pairs := make([]string, len(vec.labels))
		for i, label := range vec.labels {
			pairs[i] = fmt.Sprintf("%s=%q", label, values[i])
		}
		fmt.Fprintf(buf, "%s{%s} %d\n", name, strings.Join(pairs, ","), snap[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the milliseconds elapsed since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
