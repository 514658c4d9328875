package pivot

import (
	"testing"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// fileSet spreads detection counts across file names and two months.
func fileSet() *report.RecordSet {
	type row struct {
		file  string
		month string
		count float64
	}
	data := []row{
		{"a.exe", "June 2025", 50}, {"b.exe", "June 2025", 40},
		{"c.exe", "June 2025", 30}, {"d.exe", "June 2025", 20},
		{"d.exe", "July 2025", 90}, {"e.exe", "July 2025", 80},
		{"a.exe", "July 2025", 5}, {"b.exe", "July 2025", 1},
	}
	records := make([]report.Record, 0, len(data))
	for _, d := range data {
		records = append(records, report.Record{
			"FileName": d.file,
			"Month":    d.month,
			"Count":    d.count,
		})
	}
	rs := report.NewRecordSet([]string{"FileName", "Month", "Count"}, records)
	rs.SetKind("Month", report.FieldKindMonth)
	return rs
}

func distinctValues(rs *report.RecordSet, field string) map[string]bool {
	out := make(map[string]bool)
	for _, r := range rs.Records {
		out[report.StringValue(r[field])] = true
	}
	return out
}

// Global top-N keeps at most N distinct groups
func TestTopNCardinality(t *testing.T) {
	rs := fileSet()
	out := FilterTopN(rs, &report.TopNConfig{
		Field:       "FileName",
		N:           2,
		Direction:   report.TopNDirectionTop,
		RankByField: "Count",
	})

	groups := distinctValues(out, "FileName")
	if len(groups) > 2 {
		t.Fatalf("expected at most 2 groups, got %v", groups)
	}
	// d.exe totals 110, e.exe 80, a.exe 55.
	if !groups["d.exe"] || !groups["e.exe"] {
		t.Errorf("expected d.exe and e.exe winners, got %v", groups)
	}
}

// Per-month top-N unions each month's own winners
func TestTopNPerMonthUnion(t *testing.T) {
	rs := fileSet()
	out := FilterTopN(rs, &report.TopNConfig{
		Field:       "FileName",
		N:           2,
		RankByField: "Count",
		PerMonth:    true,
	})

	groups := distinctValues(out, "FileName")
	if len(groups) > 4 {
		t.Fatalf("expected at most n x months = 4 groups, got %d", len(groups))
	}
	// June winners a.exe/b.exe, July winners d.exe/e.exe.
	for _, want := range []string{"a.exe", "b.exe", "d.exe", "e.exe"} {
		if !groups[want] {
			t.Errorf("expected %s in per-month union, got %v", want, groups)
		}
	}
}

func TestTopNBottomDirection(t *testing.T) {
	rs := fileSet()
	out := FilterTopN(rs, &report.TopNConfig{
		Field:       "FileName",
		N:           1,
		Direction:   report.TopNDirectionBottom,
		RankByField: "Count",
	})
	groups := distinctValues(out, "FileName")
	// c.exe has the smallest total (30).
	if len(groups) != 1 || !groups["c.exe"] {
		t.Fatalf("expected only c.exe, got %v", groups)
	}
}

// Ties keep first-encountered insertion order
func TestTopNTieStability(t *testing.T) {
	records := []report.Record{
		{"G": "first", "V": 10.0},
		{"G": "second", "V": 10.0},
		{"G": "third", "V": 10.0},
	}
	rs := report.NewRecordSet([]string{"G", "V"}, records)
	out := FilterTopN(rs, &report.TopNConfig{Field: "G", N: 2, RankByField: "V"})
	groups := distinctValues(out, "G")
	if !groups["first"] || !groups["second"] || groups["third"] {
		t.Fatalf("expected first two tied groups, got %v", groups)
	}
}

// Advisory filter: bad configuration degrades to a no-op
func TestTopNNoOpConditions(t *testing.T) {
	rs := fileSet()

	cases := []*report.TopNConfig{
		nil,
		{Field: "FileName", N: 0, RankByField: "Count"},
		{Field: "FileName", N: -3, RankByField: "Count"},
		{Field: "FileName", N: 2, RankByField: "NoSuchField"},
		{Field: "NoSuchField", N: 2, RankByField: "Count"},
	}
	for i, cfg := range cases {
		out := FilterTopN(rs, cfg)
		if out.Len() != rs.Len() {
			t.Errorf("case %d: expected no-op, got %d of %d records", i, out.Len(), rs.Len())
		}
	}
}

func BenchmarkTopNPerMonth(b *testing.B) {
	rs := fileSet()
	cfg := &report.TopNConfig{Field: "FileName", N: 2, RankByField: "Count", PerMonth: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = FilterTopN(rs, cfg)
	}
}
