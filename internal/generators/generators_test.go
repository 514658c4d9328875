package generators

import (
	"testing"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// detectionFixture spans two months of June/July 2025 detections with
// hosts, users, files, and severities.
func detectionFixture() *report.RecordSet {
	rows := []struct {
		ts, host, user, sev, file, status string
	}{
		{"2025/06/02 09:15:00 AM", "us-host-1", "alice", "Critical", "evil.exe", "Open"},
		{"2025/06/02 10:00:00 PM", "us-host-1", "alice", "High", "evil.exe", "Closed"},
		{"2025/06/03 01:00:00 AM", "de-host-2", "bob", "Low", "bad.dll", "Closed"},
		{"2025/06/07 11:30:00 AM", "de-host-2", "bob", "Medium", "bad.dll", "Pending"},
		{"2025/07/14 03:45:00 PM", "us-host-1", "carol", "Critical", "worm.bin", "Open"},
		{"2025/07/14 04:00:00 PM", "sg-host-3", "carol", "High", "worm.bin", "On-hold"},
		{"2025/07/20 08:00:00 AM", "sg-host-3", "alice", "High", "evil.exe", "Closed"},
	}
	records := make([]report.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, report.Record{
			"Timestamp":    r.ts,
			"Hostname":     r.host,
			"UserName":     r.user,
			"SeverityName": r.sev,
			"FileName":     r.file,
			"Status":       r.status,
		})
	}
	rs := report.NewRecordSet(
		[]string{"Timestamp", "Hostname", "UserName", "SeverityName", "FileName", "Status"},
		records,
	)
	rs.SetKind("SeverityName", report.FieldKindSeverity)
	rs.SetKind("Status", report.FieldKindTicketStatus)
	return rs
}

func countRowsWhere(rs *report.RecordSet, field, value string) int {
	n := 0
	for _, rec := range rs.Records {
		if report.StringValue(rec[field]) == value {
			n++
		}
	}
	return n
}

func TestLookupKnowsAllNames(t *testing.T) {
	for _, name := range Names() {
		if _, ok := Lookup(name); !ok {
			t.Errorf("registered name %q not resolvable", name)
		}
	}
	if _, ok := Lookup("no-such-generator"); ok {
		t.Error("unknown generator resolved")
	}
}

// ============================================================================
// TIME ANALYSIS
// ============================================================================

func TestDailyTrendCumulativePerMonth(t *testing.T) {
	out := DailyTrend(detectionFixture())

	// 2025-06-02 has 2 detections, 2025-06-03 one more, cumulative 3.
	var cumul03 float64
	for _, rec := range out.Records {
		if report.StringValue(rec["Date"]) == "2025-06-03" {
			cumul03, _ = report.NumericValue(rec["Cumulative"])
		}
	}
	if cumul03 != 3 {
		t.Errorf("expected June cumulative 3 on the 3rd, got %v", cumul03)
	}

	// Cumulative resets in July.
	for _, rec := range out.Records {
		if report.StringValue(rec["Date"]) == "2025-07-14" {
			if c, _ := report.NumericValue(rec["Cumulative"]); c != 2 {
				t.Errorf("expected July cumulative restart at 2, got %v", c)
			}
		}
	}

	// June rows come before July rows.
	lastJune, firstJuly := -1, -1
	for i, rec := range out.Records {
		switch report.StringValue(rec["Month"]) {
		case "June 2025":
			lastJune = i
		case "July 2025":
			if firstJuly == -1 {
				firstJuly = i
			}
		}
	}
	if lastJune > firstJuly {
		t.Error("months not chronological in daily trend")
	}
}

func TestHourlyDistributionAllBucketsPresent(t *testing.T) {
	out := HourlyDistribution(detectionFixture())

	// 24 buckets for each of the two months.
	if out.Len() != 48 {
		t.Fatalf("expected 48 rows, got %d", out.Len())
	}
	for _, rec := range out.Records {
		hour := report.StringValue(rec["Hour"])
		period := report.StringValue(rec["Period"])
		switch hour {
		case "09:00", "11:00", "15:00":
			if period != "Business Hours" {
				t.Errorf("%s tagged %q", hour, period)
			}
		case "01:00", "22:00":
			if period != "Non-Business Hours" {
				t.Errorf("%s tagged %q", hour, period)
			}
		}
	}

	// 09:00 in June holds one of four June detections.
	for _, rec := range out.Records {
		if report.StringValue(rec["Hour"]) == "09:00" && report.StringValue(rec["Month"]) == "June 2025" {
			if pct := report.StringValue(rec["Percentage"]); pct != "25.0%" {
				t.Errorf("expected 25.0%%, got %s", pct)
			}
		}
	}
}

func TestDayOfWeekBucketsAndTypes(t *testing.T) {
	out := DayOfWeek(detectionFixture())
	if out.Len() != 14 {
		t.Fatalf("expected 7 days x 2 months, got %d rows", out.Len())
	}
	for _, rec := range out.Records {
		day := report.StringValue(rec["Day"])
		dayType := report.StringValue(rec["Type"])
		isWeekend := day == "Saturday" || day == "Sunday"
		if isWeekend != (dayType == "Weekend") {
			t.Errorf("%s tagged %q", day, dayType)
		}
	}
	// 2025-06-07 was a Saturday.
	if got := countRowsWhere(out, "Day", "Saturday"); got != 2 {
		t.Errorf("expected Saturday bucket per month, got %d", got)
	}
}

// ============================================================================
// TICKET LIFECYCLE
// ============================================================================

func TestTicketStatusTrendDense(t *testing.T) {
	out := TicketStatusTrend(detectionFixture())
	// 4 statuses x 2 months.
	if out.Len() != 8 {
		t.Fatalf("expected 8 rows, got %d", out.Len())
	}
	for _, rec := range out.Records {
		if report.StringValue(rec["Month"]) == "June 2025" &&
			report.StringValue(rec["Status"]) == "Closed" {
			if c, _ := report.NumericValue(rec["Ticket Count"]); c != 2 {
				t.Errorf("expected 2 closed in June, got %v", c)
			}
		}
	}
}

func TestTicketMonthlySummaryTotals(t *testing.T) {
	out := TicketMonthlySummary(detectionFixture())
	if out.Len() != 2 {
		t.Fatalf("expected one row per month, got %d", out.Len())
	}
	june := out.Records[0]
	if report.StringValue(june["Month"]) != "June 2025" {
		t.Fatalf("expected June first, got %v", june["Month"])
	}
	if total, _ := report.NumericValue(june["Total"]); total != 4 {
		t.Errorf("expected June total 4, got %v", total)
	}
}

func TestTicketStatusDistributionPercentage(t *testing.T) {
	out := TicketStatusDistribution(detectionFixture())
	if out.Len() != 4 {
		t.Fatalf("expected 4 status rows, got %d", out.Len())
	}
	sum := 0.0
	for _, rec := range out.Records {
		p, _ := report.NumericValue(rec["Percentage"])
		sum += p
	}
	if sum < 99.9 || sum > 100.1 {
		t.Errorf("percentages should sum to ~100, got %v", sum)
	}
}

// ============================================================================
// DETECTION AND HOST ANALYSIS
// ============================================================================

func TestDetectionKeyMetrics(t *testing.T) {
	out := DetectionKeyMetrics(detectionFixture())
	want := map[string]float64{
		"Total Detections":    4,
		"Unique Devices":      2,
		"Critical Detections": 1,
		"High Detections":     1,
	}
	for _, rec := range out.Records {
		if report.StringValue(rec["Month"]) != "June 2025" {
			continue
		}
		name := report.StringValue(rec["KEY METRICS"])
		if v, _ := report.NumericValue(rec["Count"]); v != want[name] {
			t.Errorf("June %s: expected %v, got %v", name, want[name], v)
		}
	}
}

func TestTacticTechniqueBreakdown(t *testing.T) {
	rows := []struct {
		tactic, technique, sev string
	}{
		{"Execution", "PowerShell", "Critical"},
		{"Execution", "PowerShell", "Critical"},
		{"Execution", "PowerShell", "High"},
		{"Execution", "WMI", "Low"},
		{"Persistence", "Registry Run Keys", "Medium"},
	}
	records := make([]report.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, report.Record{
			"Tactic":       r.tactic,
			"Technique":    r.technique,
			"SeverityName": r.sev,
		})
	}
	rs := report.NewRecordSet([]string{"Tactic", "Technique", "SeverityName"}, records)
	rs.SetKind("SeverityName", report.FieldKindSeverity)

	out := TacticTechnique(rs)
	if out.Len() != 4 {
		t.Fatalf("expected 4 tactic/technique/severity rows, got %d", out.Len())
	}

	// Execution has 4 detections, Persistence 1: Execution rows first,
	// severities ranked inside the technique.
	first := out.Records[0]
	if report.StringValue(first["Tactic"]) != "Execution" ||
		report.StringValue(first["Technique"]) != "PowerShell" ||
		report.StringValue(first["SeverityName"]) != "Critical" {
		t.Fatalf("unexpected first row: %v", first)
	}
	if c, _ := report.NumericValue(first["Detection Count"]); c != 2 {
		t.Errorf("expected 2 critical PowerShell detections, got %v", c)
	}
	last := out.Records[out.Len()-1]
	if report.StringValue(last["Tactic"]) != "Persistence" {
		t.Errorf("expected Persistence last, got %v", last)
	}
}

func TestTacticTechniqueMissingColumns(t *testing.T) {
	out := TacticTechnique(detectionFixture())
	if out.Len() != 0 {
		t.Fatalf("expected empty table without Tactic/Technique columns, got %d rows", out.Len())
	}
	if !out.HasField("Tactic") || !out.HasField("Detection Count") {
		t.Error("empty table must still carry the output columns")
	}
}

func TestTopSeveritiesOrder(t *testing.T) {
	out := TopSeverities(detectionFixture())
	if out.Len() == 0 {
		t.Fatal("expected severity trend rows")
	}
	if got := report.StringValue(out.Records[0]["SeverityName"]); got != "Critical" {
		t.Errorf("expected Critical first, got %q", got)
	}
}

func TestFileAnalysisDenseAndSorted(t *testing.T) {
	out := FileAnalysis(detectionFixture())
	// 3 files x 2 months, dense.
	if out.Len() != 6 {
		t.Fatalf("expected 6 rows, got %d", out.Len())
	}
	prev := ""
	for _, rec := range out.Records {
		name := report.StringValue(rec["File Name"])
		if name < prev {
			t.Errorf("file order broken: %q after %q", name, prev)
		}
		prev = name
	}
}

func TestSensorAnalysisLatestFlag(t *testing.T) {
	rs := detectionFixture()
	rs.Fields = append(rs.Fields, report.Field{Name: "Sensor Version", Kind: report.FieldKindGeneric})
	for i, rec := range rs.Records {
		if i%2 == 0 {
			rec["Sensor Version"] = "7.10.1"
		} else {
			rec["Sensor Version"] = "7.9.5"
		}
	}

	out := SensorAnalysis(rs)
	for _, rec := range out.Records {
		v := report.StringValue(rec["Sensor Version"])
		status := report.StringValue(rec["Status"])
		if v == "7.10.1" && status != "Latest" {
			t.Errorf("7.10.1 should be Latest, got %q", status)
		}
		if v == "7.9.5" && status != "Outdated" {
			t.Errorf("7.9.5 should be Outdated, got %q", status)
		}
	}
}

func TestUserAnalysisTopN(t *testing.T) {
	out := UserAnalysis(detectionFixture())
	users := make(map[string]bool)
	for _, rec := range out.Records {
		users[report.StringValue(rec["Username"])] = true
	}
	if len(users) > 5 {
		t.Errorf("expected at most 5 users, got %d", len(users))
	}
}
