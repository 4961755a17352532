package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/pipeline"
	"github.com/KaramelBytes/dqcheck-cli/internal/schema"
	"gopkg.in/yaml.v3"
)

var fixed = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func runFixture(t *testing.T, dir, name, body string) *pipeline.Result {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	opt := pipeline.DefaultOptions()
	opt.InferSchema = true
	res, err := pipeline.Run(context.Background(), p, opt, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func newWriter(root string, f Format) *Writer {
	w := NewWriter(DefaultLayout(root), f)
	w.Now = func() time.Time { return fixed }
	return w
}

func assertNoTemp(t *testing.T, root string) {
	t.Helper()
	_ = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err == nil && strings.HasSuffix(p, ".tmp") {
			t.Fatalf("temp file left behind: %s", p)
		}
		return nil
	})
}

func TestWriteYAMLArtifacts(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	res := runFixture(t, src, "people.csv", "id,age\n1,30\n2,\n3,41\n")
	w := newWriter(out, FormatYAML)

	vp, err := w.WriteValidation(res)
	if err != nil {
		t.Fatalf("WriteValidation: %v", err)
	}
	if want := filepath.Join(out, "02_intermediate", "021_validated", "people_validation_report.yaml"); vp != want {
		t.Fatalf("validation path = %s, want %s", vp, want)
	}
	b, err := os.ReadFile(vp)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	for _, k := range []string{"filepath", "validated_at", "basic_info", "quality_metrics", "issues", "statistics"} {
		if _, ok := doc[k]; !ok {
			t.Fatalf("validation report missing key %q:\n%s", k, b)
		}
	}
	if doc["filepath"] != res.Path {
		t.Fatalf("doc filepath = %v", doc["filepath"])
	}
	if _, ok := doc["run_id"]; ok {
		t.Fatalf("validation report should not carry run_id:\n%s", b)
	}

	pp, err := w.WriteProfile(res)
	if err != nil {
		t.Fatalf("WriteProfile: %v", err)
	}
	b, _ = os.ReadFile(pp)
	if !strings.Contains(string(b), "column_profiles:\n    id:") || strings.Index(string(b), "    id:") > strings.Index(string(b), "    age:") {
		t.Fatalf("profile columns not in table order:\n%s", b)
	}

	qp, err := w.WriteQuality(res)
	if err != nil {
		t.Fatalf("WriteQuality: %v", err)
	}
	if filepath.Base(filepath.Dir(qp)) != "08_reporting" {
		t.Fatalf("quality path = %s", qp)
	}
	b, _ = os.ReadFile(qp)
	var qd QualityDocument
	if err := yaml.Unmarshal(b, &qd); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if qd.RunID != res.RunID {
		t.Fatalf("quality run_id = %q, want %q", qd.RunID, res.RunID)
	}
	if qd.Summary.Rows != 3 || qd.Summary.Columns != 2 || !qd.GeneratedAt.Equal(fixed) || len(qd.Profile) != 2 {
		t.Fatalf("quality doc = %+v", qd)
	}

	sp, err := w.WriteSchema(res.Path, res.Schema)
	if err != nil {
		t.Fatalf("WriteSchema: %v", err)
	}
	s, err := schema.Load(sp)
	if err != nil {
		t.Fatalf("schema.Load: %v", err)
	}
	if len(s.Columns) != 2 {
		t.Fatalf("schema columns = %+v", s.Columns)
	}
	assertNoTemp(t, out)
}

func TestWriteJSON(t *testing.T) {
	out := t.TempDir()
	res := runFixture(t, t.TempDir(), "tiny.csv", "a\n1\n1\n")
	p, err := newWriter(out, FormatJSON).WriteQuality(res)
	if err != nil {
		t.Fatalf("WriteQuality: %v", err)
	}
	if !strings.HasSuffix(p, "tiny_quality_report.json") {
		t.Fatalf("path = %s", p)
	}
	b, _ := os.ReadFile(p)
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("json: %v\n%s", err, b)
	}
	if recs, ok := doc["recommendations"].([]any); !ok || len(recs) == 0 {
		t.Fatalf("recommendations = %v", doc["recommendations"])
	}
}

func TestStemCollision(t *testing.T) {
	out := t.TempDir()
	a := runFixture(t, t.TempDir(), "sales.csv", "x\n1\n")
	b := runFixture(t, t.TempDir(), "sales.csv", "x\n2\n")
	w := newWriter(out, FormatYAML)

	pa, err := w.WriteValidation(a)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := w.WriteValidation(b)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(pa) != "sales_validation_report.yaml" || filepath.Base(pb) != "sales__2_validation_report.yaml" {
		t.Fatalf("paths = %s, %s", pa, pb)
	}
	again, err := w.WriteValidation(a)
	if err != nil || again != pa {
		t.Fatalf("rewrite = %s, %v", again, err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	out := t.TempDir()
	src := t.TempDir()
	res := runFixture(t, src, "d.csv", "x\n1\n2\n")
	w := newWriter(out, FormatYAML)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.WriteQuality(res); err != nil {
				t.Errorf("WriteQuality: %v", err)
			}
		}()
	}
	wg.Wait()
	entries, err := os.ReadDir(filepath.Join(out, "08_reporting"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	assertNoTemp(t, out)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatYAML, "YML": FormatYAML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}
