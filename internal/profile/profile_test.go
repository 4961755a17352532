package profile

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/KaramelBytes/dqcheck-cli/internal/table"
	"gopkg.in/yaml.v3"
)

func mustTable(t *testing.T, header []string, records [][]string) *table.Table {
	t.Helper()
	tbl, err := table.FromStrings("t.csv", header, records, table.DefaultParseOptions())
	if err != nil {
		t.Fatalf("FromStrings: %v", err)
	}
	return tbl
}

func TestNumericProfile(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, [][]string{{"1"}, {"2"}, {"3"}, {"4"}, {"5"}, {"100"}, {"NA"}, {"3"}})
	p := Profile(tbl, DefaultOptions())
	c, ok := p.Lookup("x")
	if !ok {
		t.Fatalf("missing profile for x")
	}
	if c.Kind != Numeric {
		t.Fatalf("kind = %s, want numeric", c.Kind)
	}
	if c.NullCount != 1 || c.NonNullCount != 7 || c.NullPercentage != 12.5 {
		t.Fatalf("null stats = %+v", c)
	}
	if c.UniqueCount != 6 || c.UniquePercentage != 75 {
		t.Fatalf("unique stats = %d %.2f", c.UniqueCount, c.UniquePercentage)
	}
	ns := c.Numeric
	if ns == nil || ns.Min == nil || *ns.Min != 1 || *ns.Max != 100 || *ns.Median != 3 {
		t.Fatalf("numeric stats = %+v", ns)
	}
	if *ns.Quantiles.Q25 != 2.5 || *ns.Quantiles.Q75 != 4.5 {
		t.Fatalf("quartiles = %v %v", *ns.Quantiles.Q25, *ns.Quantiles.Q75)
	}
	if ns.Std == nil || ns.Skewness == nil || ns.Kurtosis == nil {
		t.Fatalf("expected std/skew/kurtosis to be defined")
	}
	if c.Text != nil || c.Temporal != nil {
		t.Fatalf("numeric column carries text/temporal stats")
	}
}

func TestAllMissingColumnIsUndefinedNotZero(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, [][]string{{""}, {"NA"}})
	c := Profile(tbl, DefaultOptions())[0]
	if c.Kind != Numeric || c.NullCount != 2 || c.NullPercentage != 100 {
		t.Fatalf("profile = %+v", c)
	}
	ns := c.Numeric
	if ns == nil {
		t.Fatalf("expected numeric stats block")
	}
	if ns.Min != nil || ns.Max != nil || ns.Mean != nil || ns.Median != nil || ns.Std != nil ||
		ns.Quantiles.Q25 != nil || ns.Quantiles.Q75 != nil {
		t.Fatalf("expected undefined stats, got %+v", ns)
	}
}

func TestSingleValueHasNoStd(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, [][]string{{"0"}})
	ns := Profile(tbl, DefaultOptions())[0].Numeric
	if ns.Mean == nil || *ns.Mean != 0 {
		t.Fatalf("mean should be computed as zero")
	}
	if ns.Std != nil {
		t.Fatalf("std should be undefined for one value")
	}
}

func TestZeroRowTable(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b"}, nil)
	p := Profile(tbl, DefaultOptions())
	if len(p) != 2 {
		t.Fatalf("profiles = %d", len(p))
	}
	for _, c := range p {
		if c.NullPercentage != 0 || c.UniquePercentage != 0 {
			t.Fatalf("zero-row percentages = %+v", c)
		}
	}
	empty := mustTable(t, nil, nil)
	if got := Profile(empty, DefaultOptions()); len(got) != 0 {
		t.Fatalf("expected no profiles, got %d", len(got))
	}
}

func TestTopValuesTieBreakFirstSeen(t *testing.T) {
	recs := [][]string{{"b"}, {"a"}, {"c"}, {"a"}, {"b"}, {"d"}, {""}}
	tbl := mustTable(t, []string{"s"}, recs)
	opt := DefaultOptions()
	opt.TopN = 3
	c := Profile(tbl, opt)[0]
	if c.Text == nil {
		t.Fatalf("expected text stats")
	}
	got := c.Text.TopValues
	want := []ValueCount{{"b", 2}, {"a", 2}, {"c", 1}}
	if len(got) != len(want) {
		t.Fatalf("top values = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("top[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if c.Text.AvgLength != 1 {
		t.Fatalf("avg length = %v", c.Text.AvgLength)
	}
}

func TestCategoricalVersusText(t *testing.T) {
	var cat, txt [][]string
	for i := 0; i < 20; i++ {
		cat = append(cat, []string{[]string{"red", "green"}[i%2]})
		txt = append(txt, []string{"id-" + string(rune('a'+i))})
	}
	if k := Profile(mustTable(t, []string{"c"}, cat), DefaultOptions())[0].Kind; k != Categorical {
		t.Fatalf("kind = %s, want categorical", k)
	}
	if k := Profile(mustTable(t, []string{"c"}, txt), DefaultOptions())[0].Kind; k != Text {
		t.Fatalf("kind = %s, want text", k)
	}
	mixed := mustTable(t, []string{"m"}, [][]string{{"1"}, {"x"}, {"2"}, {"y"}, {"3"}})
	if k := Profile(mixed, DefaultOptions())[0].Kind; k != Text {
		t.Fatalf("mixed kind = %s, want text", k)
	}
}

func TestTemporalProfile(t *testing.T) {
	tbl := mustTable(t, []string{"d"}, [][]string{{"2023-03-01"}, {"2023-01-15"}, {""}, {"2023-02-01"}})
	c := Profile(tbl, DefaultOptions())[0]
	if c.Kind != Temporal || c.Temporal == nil {
		t.Fatalf("profile = %+v", c)
	}
	if got := c.Temporal.Min.Format("2006-01-02"); got != "2023-01-15" {
		t.Fatalf("min = %s", got)
	}
	if got := c.Temporal.Max.Format("2006-01-02"); got != "2023-03-01" {
		t.Fatalf("max = %s", got)
	}
}

func TestProfilesEncodeInColumnOrder(t *testing.T) {
	tbl := mustTable(t, []string{"zeta", "alpha"}, [][]string{{"1", "x"}, {"2", "y"}})
	p := Profile(tbl, DefaultOptions())

	y, err := yaml.Marshal(p)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	ys := string(y)
	if strings.Index(ys, "zeta:") > strings.Index(ys, "alpha:") || !strings.Contains(ys, "std: 0.7071") {
		t.Fatalf("unexpected yaml:\n%s", ys)
	}
	var back Profiles
	if err := yaml.Unmarshal(y, &back); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if names := back.Names(); len(names) != 2 || names[0] != "zeta" || names[1] != "alpha" {
		t.Fatalf("decoded names = %v", names)
	}

	j, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	js := string(j)
	if !strings.HasPrefix(js, `{"zeta":{"kind":"numeric"`) || !strings.Contains(js, `"skewness":null`) {
		t.Fatalf("unexpected json: %s", js)
	}
}

func TestProfileIsIdempotent(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b"}, [][]string{{"1", "x"}, {"2", ""}, {"1", "x"}})
	a, _ := yaml.Marshal(Profile(tbl, DefaultOptions()))
	b, _ := yaml.Marshal(Profile(tbl, DefaultOptions()))
	if string(a) != string(b) {
		t.Fatalf("profiles differ between runs")
	}
}

func TestZeroOptionsUseDefaults(t *testing.T) {
	var cat [][]string
	for i := 0; i < 20; i++ {
		cat = append(cat, []string{[]string{"red", "green"}[i%2]})
	}
	c := Profile(mustTable(t, []string{"c"}, cat), Options{})[0]
	if c.Kind != Categorical {
		t.Fatalf("kind = %s, want categorical with zero options", c.Kind)
	}
	if c.Text == nil || len(c.Text.TopValues) != 2 {
		t.Fatalf("text stats = %+v", c.Text)
	}
}
