package ingest

import (
	"math"
	"strings"
	"testing"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// ============================================================================
// CSV / TSV READING
// ============================================================================

func TestReadTableCommaDelimited(t *testing.T) {
	data := "Hostname,SeverityName,Month\nus-host-1,Critical,June 2025\nde-host-2,Low,July 2025\n"
	rs, err := ReadTable(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if rs.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", rs.Len())
	}
	if got := report.StringValue(rs.Records[0]["Hostname"]); got != "us-host-1" {
		t.Errorf("expected us-host-1, got %q", got)
	}
	if rs.KindOf("SeverityName") != report.FieldKindSeverity {
		t.Error("SeverityName not tagged as severity kind")
	}
	if rs.KindOf("Month") != report.FieldKindMonth {
		t.Error("Month not tagged as month kind")
	}
	if rs.KindOf("Hostname") != report.FieldKindGeneric {
		t.Error("Hostname should stay generic")
	}
}

func TestReadTableTabDelimitedWithBOM(t *testing.T) {
	data := "\xEF\xBB\xBFHostname\tStatus\nhost-a\tOpen\n"
	rs, err := ReadTable(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if !rs.HasField("Hostname") {
		t.Fatalf("BOM not stripped from first header, fields: %v", rs.FieldNames())
	}
	if rs.KindOf("Status") != report.FieldKindTicketStatus {
		t.Error("Status not tagged as ticket-status kind")
	}
}

func TestReadTableShortRowsPadded(t *testing.T) {
	data := "A,B,C\n1,2\n"
	rs, err := ReadTable(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if got := report.StringValue(rs.Records[0]["C"]); got != "" {
		t.Errorf("expected empty pad for missing cell, got %q", got)
	}
}

// ============================================================================
// COMPOSITE KEY DETECTION AND MERGE
// ============================================================================

func TestFindCompositeIDColumn(t *testing.T) {
	cases := []struct {
		fields []string
		want   string
		ok     bool
	}{
		{[]string{"Hostname", "CompositeId"}, "CompositeId", true},
		{[]string{"Composite ID", "Hostname"}, "Composite ID", true},
		{[]string{"composite_id"}, "composite_id", true},
		{[]string{"COMPOSITE_ID"}, "COMPOSITE_ID", true},
		{[]string{"Detection Composite Key"}, "Detection Composite Key", true},
		{[]string{"Hostname", "SeverityName"}, "", false},
	}
	for _, tc := range cases {
		got, ok := FindCompositeIDColumn(tc.fields)
		if ok != tc.ok || got != tc.want {
			t.Errorf("FindCompositeIDColumn(%v) = %q,%v; want %q,%v", tc.fields, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMergeByCompositeIDFillsEmptyOnly(t *testing.T) {
	primary := report.NewRecordSet(
		[]string{"CompositeId", "Hostname", "SeverityName", "UserName"},
		[]report.Record{
			{"CompositeId": "c1", "Hostname": "h1", "SeverityName": "", "UserName": "keepme"},
			{"CompositeId": "c2", "Hostname": "h2", "SeverityName": "", "UserName": ""},
			{"CompositeId": "c9", "Hostname": "h3", "SeverityName": "", "UserName": ""},
		},
	)
	secondary := report.NewRecordSet(
		[]string{"Composite ID", "SeverityName", "UserName", "Country"},
		[]report.Record{
			{"Composite ID": "c1", "SeverityName": "High", "UserName": "alice", "Country": "US"},
			{"Composite ID": "c2", "SeverityName": "Low", "UserName": "bob", "Country": "DE"},
		},
	)

	filled := MergeByCompositeID(primary, secondary)
	if filled == 0 {
		t.Fatal("expected cells to be filled")
	}

	r0 := primary.Records[0]
	if report.StringValue(r0["SeverityName"]) != "High" {
		t.Errorf("expected severity fill, got %q", report.StringValue(r0["SeverityName"]))
	}
	if report.StringValue(r0["UserName"]) != "keepme" {
		t.Error("existing value overwritten, fill must be empty-only")
	}
	if report.StringValue(r0["Country"]) != "US" {
		t.Error("Country from secondary not carried over")
	}
	if !primary.HasField("Country") {
		t.Error("merged column missing from primary schema")
	}
	// Unmatched key stays untouched.
	if report.StringValue(primary.Records[2]["SeverityName"]) != "" {
		t.Error("unmatched record must stay empty")
	}
}

func TestMergeHostExport(t *testing.T) {
	primary := report.NewRecordSet(
		[]string{"Hostname", "SeverityName"},
		[]report.Record{
			{"Hostname": "HOST-1", "SeverityName": "High"},
			{"Hostname": "host-2", "SeverityName": "Low"},
		},
	)
	hosts := report.NewRecordSet(
		[]string{"Hostname", "OS Version", "Sensor Version", "Site"},
		[]report.Record{
			{"Hostname": "host-1", "OS Version": "Windows 11", "Sensor Version": "7.0", "Site": "HQ"},
		},
	)

	filled := MergeHostExport(primary, hosts)
	if filled != 3 {
		t.Fatalf("expected 3 filled cells, got %d", filled)
	}
	if got := report.StringValue(primary.Records[0]["OS Version"]); got != "Windows 11" {
		t.Errorf("case-insensitive hostname join failed, got %q", got)
	}
	if got := report.StringValue(primary.Records[1]["OS Version"]); got != "" {
		t.Errorf("unmatched host filled unexpectedly: %q", got)
	}
}

// ============================================================================
// DURATION AND TIMESTAMP PARSING
// ============================================================================

func TestParseDurationHours(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1d2h38m", 24 + 2 + 38.0/60, true},
		{"2h", 2, true},
		{"45m", 0.75, true},
		{"3600s", 1, true},
		{"1d", 24, true},
		{"1D2H", 26, true},
		{"7.5", 7.5, true},
		{"", 0, false},
		{"soon", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseDurationHours(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseDurationHours(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if tc.ok && math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseDurationHours(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	cases := []struct {
		in        string
		wantMonth string
	}{
		{"2025/06/15 09:30:00 AM", "June 2025"},
		{"15/07/2025 14:00:00", "July 2025"},
		{"2025-08-01 00:00:00", "August 2025"},
		{"2025-09-03", "September 2025"},
	}
	for _, tc := range cases {
		ts, ok := ParseTimestamp(tc.in)
		if !ok {
			t.Errorf("ParseTimestamp(%q) failed", tc.in)
			continue
		}
		if got := MonthLabel(ts); got != tc.wantMonth {
			t.Errorf("MonthLabel(%q) = %q, want %q", tc.in, got, tc.wantMonth)
		}
	}
	if _, ok := ParseTimestamp("not a date"); ok {
		t.Error("expected failure for junk input")
	}
}

func TestMonthSortValue(t *testing.T) {
	ts, _ := ParseTimestamp("2025-06-01")
	if got := MonthSortValue(ts); got != 202506 {
		t.Errorf("expected 202506, got %d", got)
	}
}

// ============================================================================
// COUNTRY ENRICHMENT
// ============================================================================

type staticResolver map[string]string

func (r staticResolver) Country(ip string) string { return r[ip] }

func TestEnrichCountry(t *testing.T) {
	rs := report.NewRecordSet(
		[]string{"Hostname", "LocalIP", "Country"},
		[]report.Record{
			{"Hostname": "xx-host", "LocalIP": "10.0.0.1", "Country": "SG"},
			{"Hostname": "yy-host", "LocalIP": "10.0.0.2", "Country": ""},
			{"Hostname": "de-host", "LocalIP": "10.0.0.9", "Country": ""},
		},
	)
	resolver := staticResolver{"10.0.0.2": "US"}

	filled := EnrichCountry(rs, resolver)
	if filled != 2 {
		t.Fatalf("expected 2 filled cells, got %d", filled)
	}
	if got := report.StringValue(rs.Records[0]["Country"]); got != "SG" {
		t.Error("existing country overwritten")
	}
	if got := report.StringValue(rs.Records[1]["Country"]); got != "US" {
		t.Errorf("expected GeoIP fill US, got %q", got)
	}
	if got := report.StringValue(rs.Records[2]["Country"]); got != "DE" {
		t.Errorf("expected hostname-prefix fallback DE, got %q", got)
	}
}
