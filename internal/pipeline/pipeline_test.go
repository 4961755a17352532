package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/KaramelBytes/dqcheck-cli/internal/catalog"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
	"github.com/google/uuid"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types(dataset string) []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventType
	for _, e := range r.events {
		if dataset == "" || e.Dataset == dataset {
			out = append(out, e.Type)
		}
	}
	return out
}

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const sample = "id,age,email\n1,34,a@example.com\n2,,b@example.com\n3,41,c@example.com\n3,41,c@example.com\n"

func TestRunEmitsStagesInOrder(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "people.csv", sample)
	rec := &recorder{}
	opt := DefaultOptions()
	opt.InferSchema = true
	res, err := Run(context.Background(), path, opt, rec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []EventType{EventRunStart, EventLoaded, EventProfiled, EventValidated, EventSchema, EventReported}
	if got := rec.types(""); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Fatalf("run id %q: %v", res.RunID, err)
	}
	for _, e := range rec.events {
		if e.RunID != res.RunID || e.Dataset != path {
			t.Fatalf("event not tagged with run: %+v", e)
		}
	}
	if res.Rows != 4 || res.Cols != 3 || res.Schema == nil || res.Dataset != nil {
		t.Fatalf("result = %+v", res)
	}
	m := res.Report.Metrics()
	if m.Completeness != 91.67 || m.Uniqueness != 75 || m.Consistency != 100 {
		t.Fatalf("metrics = %+v", m)
	}
	if sum, ok := rec.events[len(rec.events)-1].Data.(Summary); !ok || sum.Issues != 2 {
		t.Fatalf("reported payload = %#v", rec.events[len(rec.events)-1].Data)
	}
}

func TestRunJoinsCatalog(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "people.csv", sample)
	if err := catalog.Write(path, catalog.Metadata{Name: "people"}); err != nil {
		t.Fatalf("catalog.Write: %v", err)
	}
	res, err := Run(context.Background(), path, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Dataset == nil || res.Dataset.Name != "people" || !res.Dataset.ChecksumVerified {
		t.Fatalf("dataset = %+v", res.Dataset)
	}
}

func TestRunIgnoresBrokenSidecar(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "people.csv", sample)
	if err := os.WriteFile(catalog.SidecarPath(path), []byte("name: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	rec := &recorder{}
	res, err := Run(context.Background(), path, DefaultOptions(), rec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Dataset != nil {
		t.Fatalf("dataset = %+v, want nil", res.Dataset)
	}
	got := rec.types("")
	if got[len(got)-1] != EventReported {
		t.Fatalf("events = %v", got)
	}
	found := false
	for _, tp := range got {
		if tp == EventCatalogSkipped {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in %v", EventCatalogSkipped, got)
	}

	var buf bytes.Buffer
	NewLoggingObserver(slog.New(slog.NewTextHandler(&buf, nil))).OnEvent(Event{
		Type: EventCatalogSkipped, Dataset: path, Data: errors.New("bad yaml"),
	})
	if out := buf.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "catalog_skipped") {
		t.Fatalf("log output = %s", out)
	}
}

func TestRunErrors(t *testing.T) {
	rec := &recorder{}
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "gone.csv"), DefaultOptions(), rec)
	if !errors.Is(err, table.ErrFileNotFound) {
		t.Fatalf("err = %v", err)
	}
	if got := rec.types(""); got[len(got)-1] != EventRunFailed {
		t.Fatalf("events = %v", got)
	}

	path := writeCSV(t, t.TempDir(), "x.csv", sample)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, path, DefaultOptions(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled err = %v", err)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "people.csv", sample)
	a, err := Run(context.Background(), path, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := Run(context.Background(), path, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.RunID == b.RunID {
		t.Fatalf("run ids should differ")
	}
	if !reflect.DeepEqual(a.Report, b.Report) || !reflect.DeepEqual(a.Validation, b.Validation) {
		t.Fatalf("reports differ between runs")
	}
}

func TestRunBatchKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 6; i++ {
		body := fmt.Sprintf("a,b\n%d,x\n%d,y\n", i, i+1)
		paths = append(paths, writeCSV(t, dir, fmt.Sprintf("d%d.csv", i), body))
	}
	paths = append(paths, filepath.Join(dir, "notes.parquet"), filepath.Join(dir, "missing.csv"))

	rec := &recorder{}
	items := RunBatch(context.Background(), paths, 3, DefaultOptions(), rec)
	if len(items) != len(paths) {
		t.Fatalf("items = %d", len(items))
	}
	for i, it := range items {
		if it.Path != paths[i] {
			t.Fatalf("item %d path = %s, want %s", i, it.Path, paths[i])
		}
		if i < 6 && (it.Err != nil || it.Result == nil || it.Result.Path != paths[i]) {
			t.Fatalf("item %d = %+v", i, it)
		}
	}
	if !errors.Is(items[6].Err, table.ErrUnsupportedFormat) || !errors.Is(items[7].Err, table.ErrFileNotFound) {
		t.Fatalf("error items = %v / %v", items[6].Err, items[7].Err)
	}
	if got := rec.types(paths[6]); !reflect.DeepEqual(got, []EventType{EventRunSkipped}) {
		t.Fatalf("skipped events = %v", got)
	}
	if Failed(items) != 2 {
		t.Fatalf("Failed = %d", Failed(items))
	}
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLoggingObserver(slog.New(slog.NewTextHandler(&buf, nil)))
	obs.OnEvent(Event{Type: EventLoaded, RunID: "r1", Dataset: "a.csv", Data: Shape{Rows: 2, Cols: 3}})
	obs.OnEvent(Event{Type: EventRunFailed, RunID: "r1", Dataset: "a.csv", Data: errors.New("boom")})
	out := buf.String()
	for _, want := range []string{"event=loaded", "rows=2", "cols=3", "level=ERROR", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}
