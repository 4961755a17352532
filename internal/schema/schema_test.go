package schema

import (
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
	"github.com/KaramelBytes/dqcheck-cli/internal/table"
)

func mustTable(t *testing.T, header []string, records [][]string) *table.Table {
	t.Helper()
	tbl, err := table.FromStrings("t.csv", header, records, table.DefaultParseOptions())
	if err != nil {
		t.Fatalf("FromStrings: %v", err)
	}
	return tbl
}

func infer(t *testing.T, tbl *table.Table) *Schema {
	t.Helper()
	return Infer(tbl.Name(), tbl, profile.Profile(tbl, profile.DefaultOptions()), DefaultRules)
}

var customers = [][]string{
	{"1", "34", "9.99", "ann@example.com", "gold", "2023-01-05", "first"},
	{"2", "45", "20", "bob@example.org", "silver", "2023-02-11", ""},
	{"3", "23", "5.5", "cy@mail.example.net", "gold", "2023-03-01", "third"},
	{"4", "61", "100", "dee@example.com", "silver", "2023-04-20", "fourth note"},
	{"5", "38", "42", "ed@example.io", "gold", "2023-05-02", "fifth"},
	{"6", "29", "0.5", "flo@example.co", "silver", "2023-06-30", "sixth"},
}

var customerHeader = []string{"id", "customerAge", "unit_price", "contact_email", "segment", "signup", "note"}

func TestTokens(t *testing.T) {
	tests := map[string][]string{
		"customerAge":  {"customer", "age"},
		"unit_price":   {"unit", "price"},
		"Years Active": {"years", "active"},
		"page":         {"page"},
		"HTTPStatus":   {"httpstatus"},
		"v2Amount":     {"v2", "amount"},
	}
	for in, want := range tests {
		if got := Tokens(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("Tokens(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRuleMatching(t *testing.T) {
	age, price, email := DefaultRules[0], DefaultRules[1], DefaultRules[2]
	cases := []struct {
		rule   Rule
		column string
		kind   profile.Kind
		want   bool
	}{
		{age, "Age", profile.Numeric, true},
		{age, "customer_age", profile.Numeric, true},
		{age, "years_active", profile.Numeric, true},
		{age, "page", profile.Numeric, false},
		{age, "age", profile.Text, false},
		{price, "TotalCost", profile.Numeric, true},
		{price, "amount_eur", profile.Numeric, true},
		{price, "priceless_flag", profile.Numeric, false},
		{email, "user_email", profile.Text, true},
		{email, "EmailAddress", profile.Categorical, true},
		{email, "email", profile.Numeric, false},
	}
	for _, c := range cases {
		if got := c.rule.Matches(c.column, c.kind); got != c.want {
			t.Fatalf("%s.Matches(%q, %s) = %v, want %v", c.rule.Name, c.column, c.kind, got, c.want)
		}
	}
	for _, r := range DefaultRules {
		if err := r.Validate(); err != nil {
			t.Fatalf("default rule invalid: %v", err)
		}
	}
	if err := ValidateRules([]Rule{{Name: "x", Keywords: []string{"x"}, Match: "fuzzy"}}); err == nil {
		t.Fatalf("expected bad match mode error")
	}
}

func TestInferBoundsAndRules(t *testing.T) {
	tbl := mustTable(t, customerHeader, customers)
	s := infer(t, tbl)
	if len(s.Columns) != len(customerHeader) {
		t.Fatalf("columns = %d", len(s.Columns))
	}

	id, _ := s.Column("id")
	if id.Kind != profile.Numeric || id.Nullable || *id.Numeric.Min != 1 || *id.Numeric.Max != 6 || len(id.Rules) != 0 {
		t.Fatalf("id = %+v", id)
	}
	age, _ := s.Column("customerAge")
	if *age.Numeric.Min != 23 || *age.Numeric.Max != 61 || !reflect.DeepEqual(age.Rules, []string{"age"}) {
		t.Fatalf("age = %+v", age)
	}
	price, _ := s.Column("unit_price")
	if *price.Numeric.Min != 0 || *price.Numeric.Max != 100 {
		t.Fatalf("price bounds = [%v, %v]", *price.Numeric.Min, *price.Numeric.Max)
	}
	mail, _ := s.Column("contact_email")
	if mail.Pattern != EmailPattern || mail.Length == nil || mail.Length.Min != 1 || mail.Length.Max != 19 {
		t.Fatalf("email = %+v", mail)
	}
	seg, _ := s.Column("segment")
	if seg.Kind != profile.Categorical || !reflect.DeepEqual(seg.Allowed, []string{"gold", "silver"}) {
		t.Fatalf("segment = %+v", seg)
	}
	sign, _ := s.Column("signup")
	if sign.Kind != profile.Temporal || sign.Temporal.Min.Format("2006-01-02") != "2023-01-05" {
		t.Fatalf("signup = %+v", sign)
	}
	note, _ := s.Column("note")
	if !note.Nullable || note.Length.Max != 11 {
		t.Fatalf("note = %+v", note)
	}

	violations, err := s.Check(tbl)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("source table violates its own schema: %v", violations)
	}
}

func TestAgeClipAndFallback(t *testing.T) {
	tbl := mustTable(t, []string{"age"}, [][]string{{"3"}, {"200"}})
	c, _ := infer(t, tbl).Column("age")
	if *c.Numeric.Min != 3 || *c.Numeric.Max != 150 {
		t.Fatalf("clipped = [%v, %v]", *c.Numeric.Min, *c.Numeric.Max)
	}
	tbl = mustTable(t, []string{"age"}, [][]string{{"200"}, {"300"}})
	c, _ = infer(t, tbl).Column("age")
	if *c.Numeric.Min != 0 || *c.Numeric.Max != 150 {
		t.Fatalf("fallback = [%v, %v]", *c.Numeric.Min, *c.Numeric.Max)
	}
	tbl = mustTable(t, []string{"age"}, [][]string{{""}, {""}})
	c, _ = infer(t, tbl).Column("age")
	if c.Numeric == nil || *c.Numeric.Min != 0 || *c.Numeric.Max != 150 || !c.Nullable {
		t.Fatalf("all-missing age = %+v", c)
	}
}

func TestAllMissingColumnHasNoBounds(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, [][]string{{""}})
	c, _ := infer(t, tbl).Column("x")
	if c.Numeric != nil || !c.Nullable {
		t.Fatalf("column = %+v", c)
	}
}

func TestCheckReportsViolations(t *testing.T) {
	s := infer(t, mustTable(t, customerHeader, customers))
	bad := mustTable(t,
		[]string{"id", "customerAge", "unit_price", "contact_email", "signup", "note", "extra"},
		[][]string{
			{"7", "30", "-1", "nope", "2023-02-01", "ok", "1"},
			{"", "x", "5", "g@example.com", "2024-01-01", "", "2"},
		})
	got, err := s.Check(bad)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	var kinds []string
	for _, v := range got {
		kinds = append(kinds, v.Column+":"+string(v.Kind))
	}
	want := []string{
		"id:out_of_range",
		"id:unexpected_null",
		"customerAge:kind_mismatch",
		"unit_price:out_of_range",
		"contact_email:pattern",
		"segment:missing_column",
		"signup:out_of_range",
		"extra:unexpected_column",
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("violations = %v\nwant %v", kinds, want)
	}
	if got[0].Row != 1 || !strings.Contains(got[0].String(), "row 1") {
		t.Fatalf("first violation = %+v", got[0])
	}
}

func TestCheckAllowedSet(t *testing.T) {
	s := infer(t, mustTable(t, customerHeader, customers))
	rows := make([][]string, len(customers))
	for i, r := range customers {
		rows[i] = append([]string(nil), r...)
	}
	rows[2][4] = "bronze"
	got, err := s.Check(mustTable(t, customerHeader, rows))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != 1 || got[0].Kind != NotAllowed || got[0].Row != 3 {
		t.Fatalf("violations = %+v", got)
	}
}

func TestSchemaYAMLRoundTrip(t *testing.T) {
	tbl := mustTable(t, customerHeader, customers)
	s := infer(t, tbl)
	b, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if mail, _ := back.Column("contact_email"); mail.Pattern != EmailPattern {
		t.Fatalf("decoded pattern = %q\n%s", mail.Pattern, b)
	}
	if !reflect.DeepEqual(back.Columns[0], s.Columns[0]) {
		t.Fatalf("column 0 differs: %+v vs %+v", back.Columns[0], s.Columns[0])
	}
	v, err := back.Check(tbl)
	if err != nil || len(v) != 0 {
		t.Fatalf("round-tripped schema check = %v, %v", v, err)
	}

	if _, err := Decode([]byte("columns:\n  - name: a\n    kind: blob\n")); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if _, err := Decode([]byte("columns:\n  - name: a\n    kind: text\n  - name: a\n    kind: text\n")); err == nil {
		t.Fatalf("expected duplicate column error")
	}
}
