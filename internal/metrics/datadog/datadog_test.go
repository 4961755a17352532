package datadog

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/KaramelBytes/dqcheck-cli/internal/pipeline"
	"github.com/KaramelBytes/dqcheck-cli/internal/quality"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func newTestPublisher(t *testing.T, f *fakeSubmitter) *Publisher {
	t.Helper()
	t.Setenv("ENV", "test")
	return NewPublisher(context.Background(), Options{
		Tags:      []string{"team:data"},
		now:       func() time.Time { return time.Unix(1700000000, 0) },
		submitter: f,
	})
}

func TestPublisherBuffersReportedRuns(t *testing.T) {
	f := &fakeSubmitter{}
	p := newTestPublisher(t, f)

	p.OnEvent(pipeline.Event{Type: pipeline.EventLoaded, Dataset: "/d/a.csv", Data: pipeline.Shape{Rows: 1}})
	p.OnEvent(pipeline.Event{Type: pipeline.EventReported, Dataset: "/d/Sales.CSV", Data: pipeline.Summary{
		Metrics: quality.NewMetrics(90, 100, 80),
		Issues:  2,
		Rows:    10,
	}})
	p.OnEvent(pipeline.Event{Type: pipeline.EventRunFailed, Dataset: "/d/b.csv", Data: errors.New("x")})

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(f.payloads) != 1 {
		t.Fatalf("payloads = %d", len(f.payloads))
	}
	series := f.payloads[0].Series
	got := map[string]float64{}
	for _, s := range series {
		got[s.Metric] = *s.Points[0].Value
		if *s.Points[0].Timestamp != 1700000000 {
			t.Fatalf("timestamp = %d", *s.Points[0].Timestamp)
		}
	}
	want := map[string]float64{
		"dq.completeness":         90,
		"dq.uniqueness":           100,
		"dq.consistency":          80,
		"dq.overall_score":        90,
		"dq.issues":               2,
		"dq.rows":                 10,
		"dq.run.duration_seconds": 0,
		"dq.runs.failed":          1,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("series = %v", got)
	}
	wantTags := []string{"env:test", "service:dqcheck", "team:data", "dataset:sales.csv"}
	if !reflect.DeepEqual(series[0].Tags, wantTags) {
		t.Fatalf("tags = %v", series[0].Tags)
	}
	if *series[len(series)-1].Type != datadogV2.METRICINTAKETYPE_COUNT {
		t.Fatalf("failed-run type = %v", *series[len(series)-1].Type)
	}
}

func TestFlushEmptyAndError(t *testing.T) {
	f := &fakeSubmitter{err: errors.New("403")}
	p := newTestPublisher(t, f)
	if err := p.Flush(); err != nil || len(f.payloads) != 0 {
		t.Fatalf("empty flush: %v, %d payloads", err, len(f.payloads))
	}
	p.OnEvent(pipeline.Event{Type: pipeline.EventRunFailed, Dataset: "a.csv"})
	if err := p.Flush(); err == nil {
		t.Fatalf("expected submit error")
	}
	// buffer is dropped after a failed submit
	if err := p.Flush(); err != nil || len(f.payloads) != 1 {
		t.Fatalf("flush after error: %v, %d payloads", err, len(f.payloads))
	}
}

func TestParseTagsCSV(t *testing.T) {
	if got := ParseTagsCSV(" env:prod, ,team:data "); !reflect.DeepEqual(got, []string{"env:prod", "team:data"}) {
		t.Fatalf("got %v", got)
	}
	if ParseTagsCSV("") != nil {
		t.Fatalf("empty should be nil")
	}
}
