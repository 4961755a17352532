// Package datadog publishes dataset quality scores to Datadog.
//
// Publisher is a pipeline.Observer: it buffers one set of gauges per
// reported run and submits them on Flush or Close. The CLI runs are short,
// so there is no background flush loop.
package datadog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/KaramelBytes/dqcheck-cli/internal/pipeline"
)

// Options controls the publisher.
type Options struct {
	// Tags are extra Datadog tags such as "team:data".
	Tags []string

	// test seams
	now       func() time.Time
	submitter metricsSubmitter
}

// metricsSubmitter is the part of *datadogV2.MetricsApi used here.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

type point struct {
	metric string
	value  float64
	tags   []string
	kind   datadogV2.MetricIntakeType
}

// Publisher buffers quality gauges from pipeline events.
type Publisher struct {
	api      metricsSubmitter
	ctx      context.Context
	baseTags []string
	now      func() time.Time

	mu      sync.Mutex
	pending []point
}

// NewPublisher builds a publisher on the official client. Credentials come
// from DD_API_KEY / DD_SITE through dd.NewDefaultContext.
func NewPublisher(parent context.Context, opts Options) *Publisher {
	now := opts.now
	if now == nil {
		now = time.Now
	}
	submitter := opts.submitter
	if submitter == nil {
		submitter = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}
	base := make([]string, 0, 2+len(opts.Tags))
	base = append(base, resolveEnvTag(), "service:dqcheck")
	base = append(base, opts.Tags...)
	return &Publisher{
		api:      submitter,
		ctx:      dd.NewDefaultContext(parent),
		baseTags: base,
		now:      now,
	}
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// OnEvent buffers gauges for reported runs and a count for failed ones.
func (p *Publisher) OnEvent(e pipeline.Event) {
	tags := withTags(p.baseTags, "dataset:"+datasetTag(e.Dataset))
	switch e.Type {
	case pipeline.EventReported:
		s, ok := e.Data.(pipeline.Summary)
		if !ok {
			return
		}
		gauge := datadogV2.METRICINTAKETYPE_GAUGE
		p.add(
			point{"dq.completeness", s.Metrics.Completeness, tags, gauge},
			point{"dq.uniqueness", s.Metrics.Uniqueness, tags, gauge},
			point{"dq.consistency", s.Metrics.Consistency, tags, gauge},
			point{"dq.overall_score", s.Metrics.OverallScore, tags, gauge},
			point{"dq.issues", float64(s.Issues), tags, gauge},
			point{"dq.rows", float64(s.Rows), tags, gauge},
			point{"dq.run.duration_seconds", s.Duration.Seconds(), tags, gauge},
		)
	case pipeline.EventRunFailed:
		p.add(point{"dq.runs.failed", 1, tags, datadogV2.METRICINTAKETYPE_COUNT})
	}
}

func (p *Publisher) add(pts ...point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, pts...)
}

// Flush submits buffered points. The buffer is reset even when submission
// fails. It returns nil when there is nothing to send.
func (p *Publisher) Flush() error {
	p.mu.Lock()
	pts := p.pending
	p.pending = nil
	p.mu.Unlock()
	if len(pts) == 0 {
		return nil
	}
	payload := datadogV2.MetricPayload{Series: buildSeries(pts, p.now().Unix())}
	if _, _, err := p.api.SubmitMetrics(p.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters()); err != nil {
		return fmt.Errorf("datadog submit: %w", err)
	}
	return nil
}

// Close flushes what is left.
func (p *Publisher) Close() error { return p.Flush() }

func buildSeries(pts []point, nowUnix int64) []datadogV2.MetricSeries {
	out := make([]datadogV2.MetricSeries, 0, len(pts))
	for _, pt := range pts {
		out = append(out, datadogV2.MetricSeries{
			Metric: pt.metric,
			Type:   pt.kind.Ptr(),
			Points: []datadogV2.MetricPoint{
				{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(pt.value)},
			},
			Tags: pt.tags,
		})
	}
	return out
}

func datasetTag(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if base == "." || base == string(filepath.Separator) {
		return "unknown"
	}
	return base
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	return append(out, extras...)
}

// ParseTagsCSV parses comma-separated tags like "env:prod,team:data".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
