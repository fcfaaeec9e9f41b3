package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/analysis", "200", time.Millisecond)
	m.IncClassification("flare", 1)
	m.ObserveTrendRefresh(3, nil, time.Second)
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("nil metrics wrote %q, %v", buf.String(), err)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := New(0)
	m.ObserveAPI("POST", "/api/log-symptoms", "201", 30*time.Millisecond)
	m.ObserveAPI("POST", "/api/log-symptoms", "201", 2*time.Second)
	m.IncClassification("flare", 2)
	m.IncClassification("flare", 2)
	m.IncPrediction("model", "remission")
	m.ObserveTrendRefresh(4, errors.New("boom"), 3*time.Second)
	m.ObserveCache("analysis", true)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# TYPE rm_api_requests_total counter",
		`rm_api_requests_total{method="POST",route="/api/log-symptoms",status="201"} 2`,
		`rm_api_request_duration_seconds_bucket{method="POST",route="/api/log-symptoms",le="0.05"} 1`,
		`rm_api_request_duration_seconds_bucket{method="POST",route="/api/log-symptoms",le="+Inf"} 2`,
		`rm_classifications_total{classification="flare",tier="2"} 2`,
		`rm_predictions_total{source="model",result="remission"} 1`,
		`rm_trend_refresh_total{status="error"} 1`,
		"rm_trend_refresh_subjects 4",
		`rm_cache_requests_total{kind="analysis",result="hit"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{"a\"b\\c\nd"})
	if got != `{route="a\"b\\c\nd"}` {
		t.Fatalf("labelString=%s", got)
	}
	if got := withLe("", "1"); got != `{le="1"}` {
		t.Fatalf("withLe=%s", got)
	}
}
