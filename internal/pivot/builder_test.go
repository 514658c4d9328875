package pivot

import (
	"testing"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// detectionSet builds the canonical 15-detection fixture:
// Low x4, Medium x4, High x4, Critical x3 across two months.
func detectionSet() *report.RecordSet {
	type det struct {
		severity string
		month    string
		hours    float64
	}
	data := []det{
		{"Low", "June 2025", 1}, {"Low", "June 2025", 2},
		{"Low", "July 2025", 3}, {"Low", "July 2025", 4},
		{"Medium", "June 2025", 5}, {"Medium", "June 2025", 6},
		{"Medium", "July 2025", 7}, {"Medium", "July 2025", 8},
		{"High", "June 2025", 9}, {"High", "June 2025", 10},
		{"High", "July 2025", 11}, {"High", "July 2025", 12},
		{"Critical", "June 2025", 13}, {"Critical", "July 2025", 14},
		{"Critical", "July 2025", 15},
	}
	records := make([]report.Record, 0, len(data))
	for _, d := range data {
		records = append(records, report.Record{
			"SeverityName":   d.severity,
			"Month":          d.month,
			"ResolutionTime": d.hours,
		})
	}
	rs := report.NewRecordSet([]string{"SeverityName", "Month", "ResolutionTime"}, records)
	rs.SetKind("SeverityName", report.FieldKindSeverity)
	rs.SetKind("Month", report.FieldKindMonth)
	return rs
}

// ============================================================================
// VALIDATION
// ============================================================================

// Duplicate field in rows and columns must never produce a partial table
func TestBuildDuplicateFieldRejected(t *testing.T) {
	rs := detectionSet()
	cfg := &report.PivotConfig{
		Rows:    []string{"SeverityName"},
		Columns: []string{"SeverityName"},
	}
	table, err := Build(rs, cfg)
	if err == nil {
		t.Fatal("expected error for duplicate field, got nil")
	}
	if !report.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if table != nil {
		t.Fatal("expected no table alongside validation error")
	}
}

func TestBuildUnknownAggregationRejected(t *testing.T) {
	rs := detectionSet()
	cfg := &report.PivotConfig{
		Rows:        []string{"SeverityName"},
		Values:      []string{"ResolutionTime"},
		Aggregation: "variance",
	}
	if _, err := Build(rs, cfg); !report.IsValidationError(err) {
		t.Fatalf("expected ValidationError for unknown aggregation, got %v", err)
	}
}

// ============================================================================
// GROUPED (ROWS-ONLY) SHAPE
// ============================================================================

// Severity-ordered counts with a grand total row
func TestBuildSeverityCounts(t *testing.T) {
	rs := detectionSet()
	cfg := &report.PivotConfig{
		Rows:        []string{"SeverityName"},
		Values:      []string{"SeverityName"},
		Aggregation: report.AggCount,
	}
	table, err := Build(rs, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	valueCol := "Count of SeverityName"
	wantOrder := []string{"Critical", "High", "Medium", "Low", "Total"}
	wantCount := []float64{3, 4, 4, 4, 15}
	if len(table.Rows) != len(wantOrder) {
		t.Fatalf("expected %d rows, got %d", len(wantOrder), len(table.Rows))
	}
	for i, row := range table.Rows {
		if got := report.StringValue(row["SeverityName"]); got != wantOrder[i] {
			t.Errorf("row %d: expected %q, got %q", i, wantOrder[i], got)
		}
		if got, _ := report.NumericValue(row[valueCol]); got != wantCount[i] {
			t.Errorf("row %d (%s): expected count %v, got %v", i, wantOrder[i], wantCount[i], got)
		}
	}
	if !table.HasTotalRow {
		t.Error("expected synthetic Total row")
	}
}

// Month labels must come out chronological regardless of input order
func TestBuildMonthChronologicalSort(t *testing.T) {
	records := []report.Record{
		{"Month": "March 2025", "Count": 3},
		{"Month": "January 2025", "Count": 1},
		{"Month": "February 2025", "Count": 2},
	}
	rs := report.NewRecordSet([]string{"Month", "Count"}, records)
	rs.SetKind("Month", report.FieldKindMonth)

	cfg := &report.PivotConfig{
		Rows:        []string{"Month"},
		Values:      []string{"Count"},
		Aggregation: report.AggSum,
	}
	table, err := Build(rs, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []string{"January 2025", "February 2025", "March 2025", "Total"}
	for i, row := range table.Rows {
		if got := report.StringValue(row["Month"]); got != want[i] {
			t.Errorf("row %d: expected %q, got %q", i, want[i], got)
		}
	}
}

func TestBuildFiltersAreANDedAcrossFields(t *testing.T) {
	rs := detectionSet()
	cfg := &report.PivotConfig{
		Rows: []string{"SeverityName"},
		Filters: map[string][]string{
			"SeverityName": {"Critical", "High"},
			"Month":        {"July 2025"},
		},
	}
	table, err := Build(rs, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Critical x2 and High x2 in July, plus the Total row.
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if got, _ := report.NumericValue(table.Rows[2]["Count"]); got != 4 {
		t.Errorf("expected filtered total 4, got %v", got)
	}
}

func TestBuildPassThroughWithoutGrouping(t *testing.T) {
	rs := detectionSet()
	table, err := Build(rs, &report.PivotConfig{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(table.Rows) != rs.Len() {
		t.Fatalf("expected %d pass-through rows, got %d", rs.Len(), len(table.Rows))
	}
	if table.HasTotalRow || table.HasTotalCol {
		t.Error("pass-through table must not grow Total margins")
	}
}

func TestBuildNumericAggregations(t *testing.T) {
	records := []report.Record{
		{"Group": "a", "V": 1.0},
		{"Group": "a", "V": 3.0},
		{"Group": "a", "V": "broken"},
		{"Group": "b", "V": 10.0},
	}
	rs := report.NewRecordSet([]string{"Group", "V"}, records)

	cases := []struct {
		agg  report.Aggregation
		want float64 // group "a" cell
	}{
		{report.AggSum, 4},     // non-numeric coerces to 0
		{report.AggMean, 4.0 / 3.0},
		{report.AggMedian, 1},
		{report.AggMin, 0},
		{report.AggMax, 3},
		{report.AggNunique, 3},
	}
	for _, tc := range cases {
		cfg := &report.PivotConfig{
			Rows:        []string{"Group"},
			Values:      []string{"V"},
			Aggregation: tc.agg,
		}
		table, err := Build(rs, cfg)
		if err != nil {
			t.Fatalf("%s: Build failed: %v", tc.agg, err)
		}
		got, _ := report.NumericValue(table.Rows[0]["V"])
		if got != tc.want {
			t.Errorf("%s: expected %v for group a, got %v", tc.agg, tc.want, got)
		}
	}
}

// ============================================================================
// CROSS-TAB SHAPE
// ============================================================================

// Removing the Total margins and re-summing must reproduce them exactly
func TestBuildTotalsIdempotence(t *testing.T) {
	rs := detectionSet()
	cfg := &report.PivotConfig{
		Rows:    []string{"SeverityName"},
		Columns: []string{"Month"},
	}
	table, err := Build(rs, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !table.HasTotalRow || !table.HasTotalCol {
		t.Fatal("cross-tab must carry both Total margins")
	}

	dataRows := table.DataRows()
	dataCols := table.DataColumns()

	// Total column per data row.
	cellSum := 0.0
	for _, row := range dataRows {
		rowSum := 0.0
		for _, c := range dataCols {
			n, _ := report.NumericValue(row[c])
			rowSum += n
		}
		total, _ := report.NumericValue(row[report.TotalLabel])
		if rowSum != total {
			t.Errorf("row %v: Total %v != re-summed %v", row[table.RowFields[0]], total, rowSum)
		}
		cellSum += rowSum
	}

	// Total row per data column plus grand total.
	var totalRow report.Record
	for _, row := range table.Rows {
		if table.IsTotalRow(row) {
			totalRow = row
		}
	}
	if totalRow == nil {
		t.Fatal("Total row missing")
	}
	for _, c := range dataCols {
		colSum := 0.0
		for _, row := range dataRows {
			n, _ := report.NumericValue(row[c])
			colSum += n
		}
		total, _ := report.NumericValue(totalRow[c])
		if colSum != total {
			t.Errorf("column %s: Total %v != re-summed %v", c, total, colSum)
		}
	}
	grand, _ := report.NumericValue(totalRow[report.TotalLabel])
	if grand != cellSum {
		t.Errorf("grand total %v != sum of all cells %v", grand, cellSum)
	}
	if grand != 15 {
		t.Errorf("expected 15 detections in grand total, got %v", grand)
	}
}

// Missing row/column combinations are densely filled with zero
func TestBuildCrossTabDenseFill(t *testing.T) {
	records := []report.Record{
		{"SeverityName": "Critical", "Month": "June 2025"},
		{"SeverityName": "Low", "Month": "July 2025"},
	}
	rs := report.NewRecordSet([]string{"SeverityName", "Month"}, records)
	rs.SetKind("SeverityName", report.FieldKindSeverity)
	rs.SetKind("Month", report.FieldKindMonth)

	table, err := Build(rs, &report.PivotConfig{
		Rows:    []string{"SeverityName"},
		Columns: []string{"Month"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, row := range table.DataRows() {
		for _, c := range table.DataColumns() {
			if _, ok := row[c]; !ok {
				t.Errorf("cell %v/%s missing, expected dense 0 fill", row["SeverityName"], c)
			}
		}
	}
	june, _ := report.NumericValue(table.DataRows()[1]["June 2025"])
	if june != 0 {
		t.Errorf("expected 0 for Low/June, got %v", june)
	}
}

// Pivoted month columns come out chronological
func TestBuildCrossTabColumnOrder(t *testing.T) {
	records := []report.Record{
		{"SeverityName": "High", "Month": "July 2025"},
		{"SeverityName": "High", "Month": "June 2025"},
	}
	rs := report.NewRecordSet([]string{"SeverityName", "Month"}, records)
	rs.SetKind("Month", report.FieldKindMonth)

	table, err := Build(rs, &report.PivotConfig{
		Rows:    []string{"SeverityName"},
		Columns: []string{"Month"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	cols := table.DataColumns()
	if len(cols) != 2 || cols[0] != "June 2025" || cols[1] != "July 2025" {
		t.Fatalf("expected chronological columns, got %v", cols)
	}
}

// ============================================================================
// BENCHMARKS
// ============================================================================

func BenchmarkBuildCrossTab(b *testing.B) {
	rs := detectionSet()
	cfg := &report.PivotConfig{
		Rows:    []string{"SeverityName"},
		Columns: []string{"Month"},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Build(rs, cfg)
	}
}
