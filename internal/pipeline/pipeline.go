package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/catalog"
	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
	"github.com/KaramelBytes/dqcheck-cli/internal/quality"
	"github.com/KaramelBytes/dqcheck-cli/internal/report"
	"github.com/KaramelBytes/dqcheck-cli/internal/schema"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
	"github.com/google/uuid"
)

// Options configures one run.
type Options struct {
	Load       table.LoadOptions
	Profile    profile.Options
	Quality    quality.Options
	Thresholds report.Thresholds
	// InferSchema adds the schema stage.
	InferSchema bool
	Rules       []schema.Rule
	// Catalog joins the dataset's sidecar metadata when present.
	Catalog bool
	// Now is the event clock; nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns pipeline defaults.
func DefaultOptions() Options {
	return Options{
		Load:       table.DefaultLoadOptions(),
		Profile:    profile.DefaultOptions(),
		Quality:    quality.DefaultOptions(),
		Thresholds: report.DefaultThresholds(),
		Rules:      schema.DefaultRules,
		Catalog:    true,
	}
}

// Analysis is the output of the pure core for one table.
type Analysis struct {
	Rows, Cols int
	Profiles   profile.Profiles
	Validation quality.Result
	Schema     *schema.Schema
	Report     *report.QualityReport
}

// Analyze runs Profile, Validate, optionally Infer, and Aggregate over t. It
// performs no I/O and never fails.
func Analyze(t *table.Table, opt Options) *Analysis {
	a, _ := analyze(t, opt, func(EventType, any) error { return nil })
	return a
}

// analyze calls step after each stage; a non-nil error from step aborts.
func analyze(t *table.Table, opt Options, step func(EventType, any) error) (*Analysis, error) {
	a := &Analysis{Rows: t.NumRows(), Cols: t.NumCols()}
	a.Profiles = profile.Profile(t, opt.Profile)
	if err := step(EventProfiled, len(a.Profiles)); err != nil {
		return nil, err
	}
	a.Validation = quality.Validate(t, opt.Quality)
	if err := step(EventValidated, a.Validation.Metrics); err != nil {
		return nil, err
	}
	if opt.InferSchema {
		a.Schema = schema.Infer(t.Name(), t, a.Profiles, opt.Rules)
		if err := step(EventSchema, len(a.Schema.Columns)); err != nil {
			return nil, err
		}
	}
	a.Report = report.Aggregate(t.Name(), a.Profiles, a.Validation.Metrics, a.Validation.Issues, opt.Thresholds)
	return a, nil
}

// Result is one completed run.
type Result struct {
	RunID     string
	Path      string
	StartedAt time.Time
	Duration  time.Duration
	Dataset   *catalog.Entry
	*Analysis
}

// Run loads path and analyzes it, emitting events to obs (which may be nil).
// ctx is checked between stages.
func Run(ctx context.Context, path string, opt Options, obs Observer) (*Result, error) {
	now := opt.Now
	if now == nil {
		now = time.Now
	}
	if obs == nil {
		obs = Observers(nil)
	}
	res := &Result{RunID: uuid.NewString(), Path: path, StartedAt: now()}
	emit := func(tp EventType, data any) {
		obs.OnEvent(Event{Type: tp, RunID: res.RunID, Dataset: path, Timestamp: now(), Data: data})
	}
	fail := func(err error) (*Result, error) {
		emit(EventRunFailed, err)
		return nil, err
	}

	emit(EventRunStart, nil)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	t, err := table.Load(path, opt.Load)
	if err != nil {
		return fail(err)
	}
	emit(EventLoaded, Shape{Rows: t.NumRows(), Cols: t.NumCols()})

	a, err := analyze(t, opt, func(tp EventType, data any) error {
		emit(tp, data)
		return ctx.Err()
	})
	if err != nil {
		return fail(err)
	}
	res.Analysis = a

	if opt.Catalog {
		// Metadata is optional; a broken sidecar never fails the run.
		entry, err := catalog.Lookup(path)
		if err != nil {
			emit(EventCatalogSkipped, fmt.Errorf("catalog: %w", err))
		} else {
			res.Dataset = entry
		}
	}
	res.Duration = now().Sub(res.StartedAt)
	emit(EventReported, Summary{
		Metrics:         a.Validation.Metrics,
		Issues:          len(a.Validation.Issues),
		Recommendations: len(a.Report.Recommendations()),
		Rows:            a.Rows,
		Cols:            a.Cols,
		Duration:        res.Duration,
	})
	return res, nil
}
