package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	analysisCreatedTotal        atomic.Uint64
	analysisDispatchedTotal     atomic.Uint64
	analysisDispatchFailedTotal atomic.Uint64
	analysisCompletedTotal      atomic.Uint64
	analysisFailedTotal         atomic.Uint64
	progressUpdatesTotal        atomic.Uint64
	callbacksIgnoredTotal       atomic.Uint64
	artifactBytesStreamedTotal  atomic.Uint64
	dispatchJobsReceivedTotal   atomic.Uint64
	dispatchJobsDeletedTotal    atomic.Uint64

	analysisDuration = newHistogram([]float64{1000, 5000, 10000, 30000, 60000, 120000, 300000, 600000})
)

func IncAnalysisCreated()        { analysisCreatedTotal.Add(1) }
func IncAnalysisDispatched()     { analysisDispatchedTotal.Add(1) }
func IncAnalysisDispatchFailed() { analysisDispatchFailedTotal.Add(1) }
func IncAnalysisCompleted()      { analysisCompletedTotal.Add(1) }
func IncAnalysisFailed()         { analysisFailedTotal.Add(1) }
func IncProgressUpdate()         { progressUpdatesTotal.Add(1) }
func IncCallbackIgnored()        { callbacksIgnoredTotal.Add(1) }
func IncDispatchJobReceived()    { dispatchJobsReceivedTotal.Add(1) }
func IncDispatchJobDeleted()     { dispatchJobsDeletedTotal.Add(1) }

// AddArtifactBytesStreamed records bytes written by the streaming endpoint.
func AddArtifactBytesStreamed(n int64) {
	if n > 0 {
		artifactBytesStreamedTotal.Add(uint64(n))
	}
}

// ObserveAnalysisDurationMs records start-to-terminal time in milliseconds.
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
	writeCounter(&buf, "analysis_created_total", "Total analysis requests created", analysisCreatedTotal.Load())
	writeCounter(&buf, "analysis_dispatched_total", "Total analysis requests handed to the worker", analysisDispatchedTotal.Load())
	writeCounter(&buf, "analysis_dispatch_failed_total", "Total dispatch attempts that failed locally", analysisDispatchFailedTotal.Load())
	writeCounter(&buf, "analysis_completed_total", "Total analyses completed", analysisCompletedTotal.Load())
	writeCounter(&buf, "analysis_failed_total", "Total analyses failed", analysisFailedTotal.Load())
	writeCounter(&buf, "analysis_progress_updates_total", "Total progress callbacks applied", progressUpdatesTotal.Load())
	writeCounter(&buf, "analysis_callbacks_ignored_total", "Total callbacks ignored on sealed requests", callbacksIgnoredTotal.Load())
	writeCounter(&buf, "artifact_bytes_streamed_total", "Total artifact bytes written to clients", artifactBytesStreamedTotal.Load())
	writeCounter(&buf, "dispatch_jobs_received_total", "Total dispatch jobs received from the queue", dispatchJobsReceivedTotal.Load())
	writeCounter(&buf, "dispatch_jobs_deleted_total", "Total dispatch jobs deleted from the queue", dispatchJobsDeletedTotal.Load())
	writeHistogram(&buf, "analysis_duration_ms", "Analysis duration in milliseconds", analysisDuration.Snapshot())
	return buf.String()
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

// Observe counts value into the first bucket whose bound covers it.
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
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
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
