package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestHistogramIsCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected per-bucket counts: %v", snap.counts)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "test_ms", "test histogram", snap)
	out := buf.String()
	for _, want := range []string{
		`test_ms_bucket{le="10"} 1`,
		`test_ms_bucket{le="100"} 2`,
		`test_ms_bucket{le="+Inf"} 3`,
		`test_ms_sum 555`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	IncAnalysisCreated()
	AddArtifactBytesStreamed(1024)
	AddArtifactBytesStreamed(-5)

	out := Render()
	if !strings.Contains(out, "# TYPE analysis_created_total counter") {
		t.Fatalf("missing analysis_created_total:\n%s", out)
	}
	if !strings.Contains(out, "artifact_bytes_streamed_total") {
		t.Fatalf("missing artifact_bytes_streamed_total:\n%s", out)
	}
}
