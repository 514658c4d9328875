package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// Table rows rendered into the PDF before truncation.
const pdfTableRowLimit = 20

// Columns rendered before the table is clipped to the page width.
const pdfTableColLimit = 8

// WritePDF renders a one-chart report: title, configuration summary,
// the pivot table (first rows only), and the chart drawn from the
// composed spec's categories, values, and colors.
func WritePDF(w io.Writer, title string, cfg *report.PivotConfig, table *report.PivotTable, spec *report.ChartSpec) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 12, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	addConfigSummary(pdf, cfg)
	addTable(pdf, table)
	if spec != nil {
		addChart(pdf, spec)
	} else {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, "No data for the selected configuration.", "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

// addConfigSummary prints the request shape so an exported report is
// reproducible without the originating session.
func addConfigSummary(pdf *gofpdf.Fpdf, cfg *report.PivotConfig) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 8, "Configuration", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(80, 80, 80)
	lines := []string{
		"Rows: " + orDash(strings.Join(cfg.Rows, ", ")),
		"Columns: " + orDash(strings.Join(cfg.Columns, ", ")),
		"Values: " + orDash(strings.Join(cfg.Values, ", ")),
		"Aggregation: " + string(cfg.EffectiveAggregation()),
		"Chart: " + string(cfg.ChartType),
	}
	if cfg.TopN != nil && cfg.TopN.N > 0 {
		lines = append(lines, fmt.Sprintf("Top N: %d by %s (%s)", cfg.TopN.N, cfg.TopN.RankByField, orDash(cfg.TopN.Direction)))
	}
	for _, l := range lines {
		pdf.CellFormat(0, 5, l, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addTable(pdf *gofpdf.Fpdf, table *report.PivotTable) {
	columns := table.Columns()
	clipped := false
	if len(columns) > pdfTableColLimit {
		columns = columns[:pdfTableColLimit]
		clipped = true
	}
	if len(columns) == 0 {
		return
	}

	pageW, _ := pdf.GetPageSize()
	cellW := (pageW - 20) / float64(len(columns))

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range columns {
		pdf.CellFormat(cellW, 7, truncate(c, 24), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(40, 40, 40)
	rendered := 0
	for _, row := range table.Rows {
		if rendered >= pdfTableRowLimit {
			break
		}
		if table.IsTotalRow(row) {
			pdf.SetFont("Helvetica", "B", 8)
		}
		for _, c := range columns {
			pdf.CellFormat(cellW, 6, truncate(report.StringValue(row[c]), 24), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		if table.IsTotalRow(row) {
			pdf.SetFont("Helvetica", "", 8)
		}
		rendered++
	}
	if len(table.Rows) > rendered || clipped {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Showing %d of %d rows.", rendered, len(table.Rows)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// addChart draws the composed spec as horizontal bars, one block per
// category. Print output keeps the chart readable regardless of the
// interactive chart kind.
func addChart(pdf *gofpdf.Fpdf, spec *report.ChartSpec) {
	if len(spec.Categories) == 0 || len(spec.Series) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 8, "Chart ("+string(spec.ChartType)+")", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	max := 0.0
	for _, s := range spec.Series {
		for _, v := range s.Values {
			if v > max {
				max = v
			}
		}
	}
	if max <= 0 {
		max = 1
	}

	pageW, pageH := pdf.GetPageSize()
	labelW := 50.0
	barMaxW := pageW - 20 - labelW - 15

	pdf.SetFont("Helvetica", "", 8)
	for i, cat := range spec.Categories {
		for _, s := range spec.Series {
			if pdf.GetY() > pageH-20 {
				pdf.AddPage()
			}
			r, g, b := hexToRGB(barColor(s, i))
			pdf.SetTextColor(40, 40, 40)
			label := cat
			if len(spec.Series) > 1 {
				label = cat + " / " + s.Name
			}
			pdf.CellFormat(labelW, 5, truncate(strings.ReplaceAll(label, "\n", " "), 34), "", 0, "L", false, 0, "")

			w := s.Values[i] / max * barMaxW
			pdf.SetFillColor(r, g, b)
			pdf.CellFormat(w, 4.2, "", "", 0, "L", true, 0, "")
			pdf.CellFormat(15, 5, " "+report.StringValue(s.Values[i]), "", 1, "L", false, 0, "")
		}
	}
}

// barColor prefers the per-point palette when the policy colored
// categories instead of series.
func barColor(s report.Series, idx int) string {
	if idx < len(s.Colors) && s.Colors[idx] != "" {
		return s.Colors[idx]
	}
	if s.Color != "" {
		return s.Color
	}
	return "#4682B4"
}

// hexToRGB parses "#RRGGBB" with a steelblue fallback for named or
// malformed colors.
func hexToRGB(c string) (int, int, int) {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(c) != 6 {
		return 70, 130, 180
	}
	n, err := strconv.ParseUint(c, 16, 32)
	if err != nil {
		return 70, 130, 180
	}
	return int(n >> 16 & 0xFF), int(n >> 8 & 0xFF), int(n & 0xFF)
}

// truncate caps a cell at n runes, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
