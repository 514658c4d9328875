package chart

import (
	"testing"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
)

func severitySet() *report.RecordSet {
	counts := map[string]int{"Low": 4, "Medium": 4, "High": 4, "Critical": 3}
	records := make([]report.Record, 0, 15)
	for _, sev := range []string{"Low", "Medium", "High", "Critical"} {
		for i := 0; i < counts[sev]; i++ {
			records = append(records, report.Record{"SeverityName": sev})
		}
	}
	rs := report.NewRecordSet([]string{"SeverityName"}, records)
	rs.SetKind("SeverityName", report.FieldKindSeverity)
	return rs
}

func severityByMonthSet() *report.RecordSet {
	records := []report.Record{
		{"SeverityName": "High", "Month": "July 2025"},
		{"SeverityName": "Critical", "Month": "July 2025"},
		{"SeverityName": "Critical", "Month": "June 2025"},
		{"SeverityName": "Low", "Month": "June 2025"},
		{"SeverityName": "High", "Month": "June 2025"},
		{"SeverityName": "Low", "Month": "July 2025"},
	}
	rs := report.NewRecordSet([]string{"SeverityName", "Month"}, records)
	rs.SetKind("SeverityName", report.FieldKindSeverity)
	rs.SetKind("Month", report.FieldKindMonth)
	return rs
}

func mustBuild(t *testing.T, rs *report.RecordSet, cfg *report.PivotConfig) *report.PivotTable {
	t.Helper()
	table, err := pivot.Build(rs, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return table
}

// ============================================================================
// INVARIANTS
// ============================================================================

// Every series must align exactly to the category axis
func TestComposeSeriesLengthInvariant(t *testing.T) {
	rs := severityByMonthSet()
	for _, ct := range []report.ChartType{
		report.ChartBar, report.ChartClusteredBar, report.ChartStackedBar,
		report.ChartLine, report.ChartArea, report.ChartPie, report.ChartHeatmap,
	} {
		cfg := &report.PivotConfig{
			Rows:      []string{"SeverityName"},
			Columns:   []string{"Month"},
			ChartType: ct,
		}
		table := mustBuild(t, rs, cfg)
		spec, err := Compose(table, cfg)
		if err != nil {
			t.Fatalf("%s: Compose failed: %v", ct, err)
		}
		if spec == nil {
			t.Fatalf("%s: expected spec, got nil", ct)
		}
		for _, s := range spec.Series {
			if len(s.Values) != len(spec.Categories) {
				t.Errorf("%s: series %q has %d values for %d categories",
					ct, s.Name, len(s.Values), len(spec.Categories))
			}
		}
	}
}

// Empty input composes to a nil spec, never an error
func TestComposeEmptyTable(t *testing.T) {
	rs := report.NewRecordSet([]string{"SeverityName"}, nil)
	cfg := &report.PivotConfig{Rows: []string{"SeverityName"}, ChartType: report.ChartBar}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if spec != nil {
		t.Fatalf("expected nil spec for empty table, got %+v", spec)
	}
}

func TestComposeUnknownChartTypeRejected(t *testing.T) {
	rs := severitySet()
	cfg := &report.PivotConfig{Rows: []string{"SeverityName"}, ChartType: "sunburst"}
	table := mustBuild(t, rs, &report.PivotConfig{Rows: []string{"SeverityName"}})
	if _, err := Compose(table, cfg); !report.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// ============================================================================
// COLOR POLICY
// ============================================================================

// Severity counts get per-bar palette colors in severity order
func TestComposeSeverityPaletteScenario(t *testing.T) {
	rs := severitySet()
	cfg := &report.PivotConfig{
		Rows:              []string{"SeverityName"},
		Values:            []string{"SeverityName"},
		Aggregation:       report.AggCount,
		UseSeverityColors: true,
		ChartType:         report.ChartBar,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}

	wantCats := []string{"Critical", "High", "Medium", "Low"}
	wantVals := []float64{3, 4, 4, 4}
	wantColors := []string{"#DC143C", "#ED7D31", "#5B9BD5", "#70AD47"}
	if len(spec.Categories) != len(wantCats) {
		t.Fatalf("expected %d categories, got %v", len(wantCats), spec.Categories)
	}
	for i := range wantCats {
		if spec.Categories[i] != wantCats[i] {
			t.Errorf("category %d: expected %q, got %q", i, wantCats[i], spec.Categories[i])
		}
		if spec.Series[0].Values[i] != wantVals[i] {
			t.Errorf("value %d: expected %v, got %v", i, wantVals[i], spec.Series[0].Values[i])
		}
		if spec.Series[0].Colors[i] != wantColors[i] {
			t.Errorf("color %d: expected %s, got %s", i, wantColors[i], spec.Series[0].Colors[i])
		}
	}
}

// Labels that contain a severity keyword pick up its color, the way
// the key-metrics views label rows ("Critical Detections")
func TestComposeSeverityPaletteSubstringMatch(t *testing.T) {
	records := []report.Record{
		{"Metric": "Critical Detections", "Count": 3},
		{"Metric": "High Detections", "Count": 4},
		{"Metric": "Critical/High Ratio", "Count": 1},
	}
	rs := report.NewRecordSet([]string{"Metric", "Count"}, records)

	cfg := &report.PivotConfig{
		Rows:              []string{"Metric"},
		Values:            []string{"Count"},
		Aggregation:       report.AggSum,
		UseSeverityColors: true,
		ChartType:         report.ChartBar,
		CategoryOrder:     []string{"Critical Detections", "High Detections", "Critical/High Ratio"},
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}

	if len(spec.Series[0].Colors) != 3 {
		t.Fatalf("expected per-category colors, got series color %q colors %v",
			spec.Series[0].Color, spec.Series[0].Colors)
	}
	// "Critical/High Ratio" contains both keywords; critical wins.
	wantColors := []string{"#DC143C", "#ED7D31", "#DC143C"}
	for i := range wantColors {
		if spec.Series[0].Colors[i] != wantColors[i] {
			t.Errorf("category %q: expected %s, got %s",
				spec.Categories[i], wantColors[i], spec.Series[0].Colors[i])
		}
	}
}

// Series named by keyword-bearing labels color by series, not per point
func TestComposeTicketStatusSubstringMatch(t *testing.T) {
	records := []report.Record{
		{"Status": "Closed Tickets", "Month": "June 2025"},
		{"Status": "Open Tickets", "Month": "June 2025"},
		{"Status": "Open Tickets", "Month": "July 2025"},
	}
	rs := report.NewRecordSet([]string{"Status", "Month"}, records)
	rs.SetKind("Month", report.FieldKindMonth)

	cfg := &report.PivotConfig{
		Rows:                  []string{"Month"},
		Columns:               []string{"Status"},
		UseTicketStatusColors: true,
		ChartType:             report.ChartStackedBar,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}

	want := map[string]string{
		"Closed Tickets": "#70AD47",
		"Open Tickets":   "#DC143C",
	}
	for _, s := range spec.Series {
		if s.Color != want[s.Name] {
			t.Errorf("series %q: expected %s, got %s", s.Name, want[s.Name], s.Color)
		}
	}
}

// Severity palette wins over monthly when both flags are set
func TestComposeColorPolicyPriority(t *testing.T) {
	rs := severityByMonthSet()
	cfg := &report.PivotConfig{
		Rows:              []string{"Month"},
		Columns:           []string{"SeverityName"},
		UseSeverityColors: true,
		UseMonthlyColors:  true,
		ChartType:         report.ChartStackedBar,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}

	want := map[string]string{
		"Critical": "#DC143C",
		"High":     "#ED7D31",
		"Low":      "#70AD47",
	}
	for _, s := range spec.Series {
		if want[s.Name] == "" {
			continue
		}
		if s.Color != want[s.Name] {
			t.Errorf("series %s: expected severity color %s, got %s", s.Name, want[s.Name], s.Color)
		}
		if s.Color == "#70AD47" && s.Name != "Low" {
			t.Errorf("monthly palette leaked into series %s", s.Name)
		}
	}
}

func TestComposeTicketStatusColors(t *testing.T) {
	records := []report.Record{
		{"Status": "Open"}, {"Status": "Closed"},
		{"Status": "On-hold"}, {"Status": "Pending"},
	}
	rs := report.NewRecordSet([]string{"Status"}, records)
	rs.SetKind("Status", report.FieldKindTicketStatus)

	cfg := &report.PivotConfig{
		Rows:                  []string{"Status"},
		UseTicketStatusColors: true,
		ChartType:             report.ChartPie,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}

	want := map[string]string{
		"Closed":  "#70AD47",
		"Open":    "#DC143C",
		"On-hold": "#FFC000",
		"Pending": "#A9A9A9",
	}
	for i, cat := range spec.Categories {
		if spec.Series[0].Colors[i] != want[cat] {
			t.Errorf("slice %s: expected %s, got %s", cat, want[cat], spec.Series[0].Colors[i])
		}
	}
}

// First three chronological months get the fixed monthly colors
func TestComposeMonthlyColors(t *testing.T) {
	records := []report.Record{
		{"Month": "August 2025", "Count": 3},
		{"Month": "June 2025", "Count": 1},
		{"Month": "July 2025", "Count": 2},
		{"Month": "September 2025", "Count": 4},
	}
	rs := report.NewRecordSet([]string{"Month", "Count"}, records)
	rs.SetKind("Month", report.FieldKindMonth)

	cfg := &report.PivotConfig{
		Rows:             []string{"Month"},
		Values:           []string{"Count"},
		Aggregation:      report.AggSum,
		UseMonthlyColors: true,
		ChartType:        report.ChartBar,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}

	wantCats := []string{"June 2025", "July 2025", "August 2025", "September 2025"}
	wantColors := []string{"#70AD47", "#5B9BD5", "#FFC000", DefaultColor}
	for i := range wantCats {
		if spec.Categories[i] != wantCats[i] {
			t.Errorf("category %d: expected %q, got %q", i, wantCats[i], spec.Categories[i])
		}
		if spec.Series[0].Colors[i] != wantColors[i] {
			t.Errorf("color %d: expected %s, got %s", i, wantColors[i], spec.Series[0].Colors[i])
		}
	}
}

func TestComposeDefaultFlatColor(t *testing.T) {
	records := []report.Record{{"G": "x"}, {"G": "y"}}
	rs := report.NewRecordSet([]string{"G"}, records)
	cfg := &report.PivotConfig{Rows: []string{"G"}, ChartType: report.ChartBar}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}
	if spec.Series[0].Color != DefaultColor {
		t.Errorf("expected flat default color, got %s", spec.Series[0].Color)
	}
}

// ============================================================================
// CATEGORY CONSTRUCTION AND SORTING
// ============================================================================

// Two row fields produce hierarchical labels with the month/severity/
// value tie-break
func TestComposeHierarchicalCategories(t *testing.T) {
	rs := severityByMonthSet()
	cfg := &report.PivotConfig{
		Rows:      []string{"Month", "SeverityName"},
		ChartType: report.ChartBar,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}

	want := []string{
		"Critical\nJune 2025",
		"High\nJune 2025",
		"Low\nJune 2025",
		"Critical\nJuly 2025",
		"High\nJuly 2025",
		"Low\nJuly 2025",
	}
	if len(spec.Categories) != len(want) {
		t.Fatalf("expected %d categories, got %v", len(want), spec.Categories)
	}
	for i := range want {
		if spec.Categories[i] != want[i] {
			t.Errorf("category %d: expected %q, got %q", i, want[i], spec.Categories[i])
		}
	}
}

// More than two row fields join with " - " and keep insertion order
func TestComposeManyFieldCategories(t *testing.T) {
	records := []report.Record{
		{"A": "z", "B": "1", "C": "x"},
		{"A": "a", "B": "2", "C": "y"},
	}
	rs := report.NewRecordSet([]string{"A", "B", "C"}, records)
	cfg := &report.PivotConfig{Rows: []string{"A", "B", "C"}, ChartType: report.ChartBar}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}
	for _, cat := range spec.Categories {
		if cat != "z - 1 - x" && cat != "a - 2 - y" {
			t.Errorf("unexpected joined category %q", cat)
		}
	}
}

// Hour labels sort numerically when Hour is the sort field
func TestComposeHourSortField(t *testing.T) {
	records := []report.Record{
		{"Hour": "10:00", "Count": 1},
		{"Hour": "2:00", "Count": 5},
		{"Hour": "23:00", "Count": 3},
	}
	rs := report.NewRecordSet([]string{"Hour", "Count"}, records)
	cfg := &report.PivotConfig{
		Rows:        []string{"Hour"},
		Values:      []string{"Count"},
		Aggregation: report.AggSum,
		SortField:   "Hour",
		ChartType:   report.ChartBar,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}
	want := []string{"2:00", "10:00", "23:00"}
	for i := range want {
		if spec.Categories[i] != want[i] {
			t.Errorf("category %d: expected %q, got %q", i, want[i], spec.Categories[i])
		}
	}
}

// Weekday labels sort Monday first when Day is the sort field
func TestComposeDaySortField(t *testing.T) {
	records := []report.Record{
		{"Day": "Sunday", "Count": 1},
		{"Day": "Monday", "Count": 5},
		{"Day": "Friday", "Count": 3},
	}
	rs := report.NewRecordSet([]string{"Day", "Count"}, records)
	cfg := &report.PivotConfig{
		Rows:        []string{"Day"},
		Values:      []string{"Count"},
		Aggregation: report.AggSum,
		SortField:   "Day",
		ChartType:   report.ChartBar,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}
	want := []string{"Monday", "Friday", "Sunday"}
	for i := range want {
		if spec.Categories[i] != want[i] {
			t.Errorf("category %d: expected %q, got %q", i, want[i], spec.Categories[i])
		}
	}
}

// Default sort orders by aggregated value in the configured direction
func TestComposeValueSortDescending(t *testing.T) {
	records := []report.Record{
		{"G": "small", "V": 1.0},
		{"G": "big", "V": 9.0},
		{"G": "mid", "V": 5.0},
	}
	rs := report.NewRecordSet([]string{"G", "V"}, records)
	cfg := &report.PivotConfig{
		Rows:           []string{"G"},
		Values:         []string{"V"},
		Aggregation:    report.AggSum,
		SortDescending: true,
		ChartType:      report.ChartBar,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}
	want := []string{"big", "mid", "small"}
	for i := range want {
		if spec.Categories[i] != want[i] {
			t.Errorf("category %d: expected %q, got %q", i, want[i], spec.Categories[i])
		}
	}
}

// Manual order overrides every automatic sort
func TestComposeManualCategoryOrder(t *testing.T) {
	rs := severitySet()
	cfg := &report.PivotConfig{
		Rows:          []string{"SeverityName"},
		ChartType:     report.ChartBar,
		CategoryOrder: []string{"Low", "Critical"},
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}
	if spec.Categories[0] != "Low" || spec.Categories[1] != "Critical" {
		t.Fatalf("manual order not applied: %v", spec.Categories)
	}
}

// ============================================================================
// SPECIAL CHART KINDS
// ============================================================================

// Pie ignores the columns axis and sums across it
func TestComposePieIgnoresColumns(t *testing.T) {
	rs := severityByMonthSet()
	cfg := &report.PivotConfig{
		Rows:      []string{"SeverityName"},
		Columns:   []string{"Month"},
		ChartType: report.ChartPie,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}
	if len(spec.Series) != 1 {
		t.Fatalf("pie expects a single series, got %d", len(spec.Series))
	}
	total := 0.0
	for _, v := range spec.Series[0].Values {
		total += v
	}
	if total != 6 {
		t.Errorf("expected slices to sum to 6 detections, got %v", total)
	}
}

// Heatmap emits one cell per table position with no extra sorting
func TestComposeHeatmapCells(t *testing.T) {
	rs := severityByMonthSet()
	cfg := &report.PivotConfig{
		Rows:      []string{"SeverityName"},
		Columns:   []string{"Month"},
		ChartType: report.ChartHeatmap,
	}
	table := mustBuild(t, rs, cfg)
	spec, err := Compose(table, cfg)
	if err != nil || spec == nil {
		t.Fatalf("Compose failed: spec=%v err=%v", spec, err)
	}

	wantCells := len(table.DataRows()) * len(table.DataColumns())
	if len(spec.Cells) != wantCells {
		t.Fatalf("expected %d dense cells, got %d", wantCells, len(spec.Cells))
	}
}

// ============================================================================
// THEME
// ============================================================================

func TestApplyTheme(t *testing.T) {
	provider := NewStaticThemeProvider("light")

	spec := &report.ChartSpec{ChartType: report.ChartBar}
	out := ApplyTheme(spec, provider, "dark")
	if out.Theme == nil || out.Theme.Name != "dark" {
		t.Fatalf("expected dark theme, got %+v", out.Theme)
	}

	out = ApplyTheme(spec, provider, "no-such-theme")
	if out.Theme.Name != "light" {
		t.Errorf("expected fallback to default theme, got %s", out.Theme.Name)
	}

	if ApplyTheme(nil, provider, "dark") != nil {
		t.Error("nil spec must stay nil")
	}
}

// The configured default is normalized and validated up front, so an
// odd or unknown config value still yields a real theme on fallback.
func TestStaticThemeProviderDefaultNormalized(t *testing.T) {
	provider := NewStaticThemeProvider(" DARK ")
	if th := provider.Theme("no-such-theme"); th.Name != "dark" || th.Background == "" {
		t.Fatalf("expected dark fallback, got %+v", th)
	}

	provider = NewStaticThemeProvider("neon")
	if th := provider.Theme("no-such-theme"); th.Name != "light" || th.Background == "" {
		t.Fatalf("expected light fallback for unknown default, got %+v", th)
	}
}

func BenchmarkCompose(b *testing.B) {
	rs := severityByMonthSet()
	cfg := &report.PivotConfig{
		Rows:              []string{"SeverityName"},
		Columns:           []string{"Month"},
		UseSeverityColors: true,
		ChartType:         report.ChartStackedBar,
	}
	table, err := pivot.Build(rs, cfg)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Compose(table, cfg)
	}
}
