package report

import "fmt"

// TotalLabel names the synthetic margin row and column.
const TotalLabel = "Total"

type (
	// PivotTable is the grouped/aggregated result of applying
	// rows x columns x values to a flat record set. Rows keep the
	// order the builder produced, Total margins last.
	PivotTable struct {
		RowFields    []string `json:"row_fields"`    // group-by field names, in config order
		ValueColumns []string `json:"value_columns"` // aggregated output columns, in output order
		Rows         []Record `json:"rows"`
		HasTotalRow  bool     `json:"has_total_row"`
		HasTotalCol  bool     `json:"has_total_col"`

		// RowKinds mirrors the source schema kinds for the row fields.
		RowKinds map[string]FieldKind `json:"row_kinds,omitempty"`
	}

	// Series is one plotted data series aligned to the chart categories.
	// Color is the series-level marker color; Colors, when set, carries
	// one color per point for categorical palettes.
	Series struct {
		Name   string    `json:"name"`
		Values []float64 `json:"values"`
		Color  string    `json:"color"`
		Colors []string  `json:"colors,omitempty"`
	}

	// HeatmapCell is one (x, y, value) triple of a dense heatmap grid.
	HeatmapCell struct {
		X     string  `json:"x"`
		Y     string  `json:"y"`
		Value float64 `json:"value"`
	}

	// ChartSpec is a backend-agnostic chart description: the chart
	// kind, ordered category labels, and colored series ready to be
	// handed to any charting library.
	ChartSpec struct {
		ChartType  ChartType     `json:"chart_type"`
		Categories []string      `json:"categories"`
		Series     []Series      `json:"series"`
		Cells      []HeatmapCell `json:"cells,omitempty"` // heatmap only
		Theme      *Theme        `json:"theme,omitempty"`
	}

	// Theme carries presentation defaults resolved by a ThemeProvider.
	Theme struct {
		Name       string `json:"name"`
		Background string `json:"background"`
		Foreground string `json:"foreground"`
		GridColor  string `json:"grid_color"`
	}
)

// IsTotalRow reports whether row is the synthetic margin row of t.
func (t *PivotTable) IsTotalRow(row Record) bool {
	if len(t.RowFields) == 0 {
		return false
	}
	return StringValue(row[t.RowFields[0]]) == TotalLabel
}

// DataRows returns the rows without the Total margin.
func (t *PivotTable) DataRows() []Record {
	if !t.HasTotalRow {
		return t.Rows
	}
	out := make([]Record, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !t.IsTotalRow(r) {
			out = append(out, r)
		}
	}
	return out
}

// DataColumns returns the value columns without the Total margin.
func (t *PivotTable) DataColumns() []string {
	if !t.HasTotalCol {
		return t.ValueColumns
	}
	out := make([]string, 0, len(t.ValueColumns))
	for _, c := range t.ValueColumns {
		if c != TotalLabel {
			out = append(out, c)
		}
	}
	return out
}

// Columns returns all output column names, row fields first.
func (t *PivotTable) Columns() []string {
	out := make([]string, 0, len(t.RowFields)+len(t.ValueColumns))
	out = append(out, t.RowFields...)
	out = append(out, t.ValueColumns...)
	return out
}

// IsEmpty reports whether the table holds no data rows.
func (t *PivotTable) IsEmpty() bool {
	return t == nil || len(t.DataRows()) == 0
}

// ValidationError marks a structurally invalid pivot configuration.
// It stops the pipeline before any partial table is produced.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}
