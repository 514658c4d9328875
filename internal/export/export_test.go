package export

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/benedict-erwin/detection-reporter/internal/chart"
	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
)

func buildFixture(t *testing.T) (*report.PivotConfig, *report.PivotTable, *report.ChartSpec) {
	t.Helper()
	records := []report.Record{
		{"SeverityName": "Critical", "Month": "June 2025"},
		{"SeverityName": "High", "Month": "June 2025"},
		{"SeverityName": "High", "Month": "July 2025"},
	}
	rs := report.NewRecordSet([]string{"SeverityName", "Month"}, records)
	rs.SetKind("SeverityName", report.FieldKindSeverity)
	rs.SetKind("Month", report.FieldKindMonth)

	cfg := &report.PivotConfig{
		Rows:              []string{"SeverityName"},
		Columns:           []string{"Month"},
		UseSeverityColors: true,
		ChartType:         report.ChartStackedBar,
	}
	table, err := pivot.Build(rs, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	spec, err := chart.Compose(table, cfg)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	return cfg, table, spec
}

func TestWriteCSVDeterministicOrder(t *testing.T) {
	_, table, _ := buildFixture(t)

	var first, second bytes.Buffer
	if err := WriteCSV(&first, table); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if err := WriteCSV(&second, table); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if first.String() != second.String() {
		t.Fatal("CSV output not deterministic")
	}

	lines := strings.Split(strings.TrimSpace(first.String()), "\n")
	if lines[0] != "SeverityName,June 2025,July 2025,Total" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// Critical first, Total row last.
	if !strings.HasPrefix(lines[1], "Critical,") {
		t.Errorf("expected Critical row first, got %s", lines[1])
	}
	if !strings.HasPrefix(lines[len(lines)-1], "Total,") {
		t.Errorf("expected Total row last, got %s", lines[len(lines)-1])
	}
}

func TestWriteRecordSetCSV(t *testing.T) {
	rs := report.NewRecordSet(
		[]string{"A", "B"},
		[]report.Record{{"A": "1", "B": "x,y"}},
	)
	var buf bytes.Buffer
	if err := WriteRecordSetCSV(&buf, rs); err != nil {
		t.Fatalf("WriteRecordSetCSV failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"x,y"`) {
		t.Errorf("comma value not quoted: %q", buf.String())
	}
}

func TestWritePDFProducesDocument(t *testing.T) {
	cfg, table, spec := buildFixture(t)

	var buf bytes.Buffer
	if err := WritePDF(&buf, "Detection Report", cfg, table, spec); err != nil {
		t.Fatalf("WritePDF failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestWritePDFEmptySpec(t *testing.T) {
	cfg, table, _ := buildFixture(t)
	var buf bytes.Buffer
	if err := WritePDF(&buf, "Empty", cfg, table, nil); err != nil {
		t.Fatalf("WritePDF with nil spec failed: %v", err)
	}
}

func TestHexToRGB(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b int
	}{
		{"#DC143C", 220, 20, 60},
		{"#70AD47", 112, 173, 71},
		{"steelblue", 70, 130, 180},
		{"", 70, 130, 180},
	}
	for _, tc := range cases {
		r, g, b := hexToRGB(tc.in)
		if r != tc.r || g != tc.g || b != tc.b {
			t.Errorf("hexToRGB(%q) = %d,%d,%d", tc.in, r, g, b)
		}
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a long host name", 7, "a long…"},
		{"пример-хоста", 7, "пример…"},
		{"日本語のホスト名です", 5, "日本語の…"},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tc.in, tc.n)
		}
	}
}
