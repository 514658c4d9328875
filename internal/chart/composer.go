package chart

import (
	"sort"
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
)

// Compose turns a pivot table into a chart specification: ordered
// category labels, one colored series per plotted column, chart kind
// from the config. Synthetic Total margins are stripped first; an
// empty table composes to nil so the caller can show a "no data"
// placeholder.
func Compose(table *report.PivotTable, cfg *report.PivotConfig) (*report.ChartSpec, error) {
	if !report.ValidChartType(cfg.ChartType) {
		return nil, report.NewValidationError("unknown chart type %q", cfg.ChartType)
	}
	if table.IsEmpty() {
		return nil, nil
	}

	chartType := cfg.ChartType
	if chartType == "" {
		chartType = report.ChartBar
	}

	var spec *report.ChartSpec
	switch chartType {
	case report.ChartPie:
		spec = composePie(table, cfg)
	case report.ChartHeatmap:
		spec = composeHeatmap(table)
	default:
		spec = composeCartesian(table, cfg)
	}
	if spec == nil {
		return nil, nil
	}
	spec.ChartType = chartType

	applyManualOrder(spec, cfg)
	applyColorPolicy(spec, cfg)
	return spec, nil
}

// composeCartesian builds the bar/line/area family: categories from
// the row axis, one series per plotted value column.
func composeCartesian(table *report.PivotTable, cfg *report.PivotConfig) *report.ChartSpec {
	rows := table.DataRows()
	cols := table.DataColumns()
	if len(rows) == 0 || len(cols) == 0 {
		return nil
	}

	order := categoryOrder(table, cfg, rows)
	categories := make([]string, 0, len(order))
	for _, idx := range order {
		categories = append(categories, categoryLabel(table, rows[idx]))
	}

	series := make([]report.Series, 0, len(cols))
	for _, col := range cols {
		values := make([]float64, 0, len(order))
		for _, idx := range order {
			n, _ := report.NumericValue(rows[idx][col])
			values = append(values, n)
		}
		series = append(series, report.Series{Name: col, Values: values})
	}
	return &report.ChartSpec{Categories: categories, Series: series}
}

// categoryLabel renders one table row as a chart category label.
// Two row fields produce the hierarchical "{field2}\n{field1}" form,
// more than two join with " - ".
func categoryLabel(table *report.PivotTable, row report.Record) string {
	switch len(table.RowFields) {
	case 0:
		return ""
	case 1:
		return report.StringValue(row[table.RowFields[0]])
	case 2:
		return report.StringValue(row[table.RowFields[1]]) + "\n" +
			report.StringValue(row[table.RowFields[0]])
	default:
		parts := make([]string, 0, len(table.RowFields))
		for _, f := range table.RowFields {
			parts = append(parts, report.StringValue(row[f]))
		}
		return strings.Join(parts, " - ")
	}
}

// categoryOrder returns row indices in final category order.
func categoryOrder(table *report.PivotTable, cfg *report.PivotConfig, rows []report.Record) []int {
	order := make([]int, len(rows))
	for i := range rows {
		order[i] = i
	}

	switch len(table.RowFields) {
	case 1:
		sortSingleField(table, cfg, rows, order)
	case 2:
		sortHierarchical(table, cfg, rows, order)
	}
	// More than two row fields: insertion order is preserved, the
	// concatenated label is not independently sortable per sub-field.
	return order
}

// sortSingleField applies the chart-level sort policy for a single
// row field: a custom sort field uses that field's natural order,
// the default sorts by aggregated value.
func sortSingleField(table *report.PivotTable, cfg *report.PivotConfig, rows []report.Record, order []int) {
	field := table.RowFields[0]
	kind := table.RowKinds[field]

	if cfg.SortField != "" && cfg.SortField != "value" {
		sortByNaturalOrder(cfg.SortField, table, rows, order, cfg.SortDescending)
		return
	}

	// Month axes stay chronological regardless of values.
	if kind == report.FieldKindMonth {
		sort.SliceStable(order, func(i, j int) bool {
			return pivot.MonthSortKey(report.StringValue(rows[order[i]][field])) <
				pivot.MonthSortKey(report.StringValue(rows[order[j]][field]))
		})
		return
	}
	if kind == report.FieldKindSeverity {
		sort.SliceStable(order, func(i, j int) bool {
			return pivot.SeverityRank(report.StringValue(rows[order[i]][field])) <
				pivot.SeverityRank(report.StringValue(rows[order[j]][field]))
		})
		return
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := rowTotal(table, rows[order[i]]), rowTotal(table, rows[order[j]])
		if cfg.SortDescending {
			return a > b
		}
		return a < b
	})
}

// sortByNaturalOrder sorts categories by a named field's natural
// order: numeric hour for "HH:00" labels, Monday-first weekday rank,
// chronological months, numeric or lexicographic otherwise. When the
// table carries the field as a value column (a "Sort" helper column),
// that column's numeric value wins.
func sortByNaturalOrder(sortField string, table *report.PivotTable, rows []report.Record, order []int, descending bool) {
	rowField := table.RowFields[0]
	hasColumn := false
	for _, c := range table.ValueColumns {
		if c == sortField {
			hasColumn = true
			break
		}
	}

	key := func(idx int) (float64, string) {
		if hasColumn {
			n, _ := report.NumericValue(rows[idx][sortField])
			return n, ""
		}
		label := report.StringValue(rows[idx][rowField])
		switch {
		case strings.EqualFold(sortField, "Hour"):
			return float64(pivot.HourRank(label)), ""
		case strings.EqualFold(sortField, "Day"):
			return float64(pivot.DayRank(label)), ""
		case strings.EqualFold(sortField, "Month"):
			return float64(pivot.MonthSortKey(label)), ""
		}
		if n, ok := report.NumericValue(label); ok {
			return n, ""
		}
		return 0, label
	}

	sort.SliceStable(order, func(i, j int) bool {
		ni, si := key(order[i])
		nj, sj := key(order[j])
		if ni == nj && si == sj {
			return false
		}
		var less bool
		if si == "" && sj == "" {
			less = ni < nj
		} else {
			less = si < sj
		}
		if descending {
			return !less
		}
		return less
	})
}

// sortHierarchical applies the three-level tie-break for two row
// fields when one of them is a month: chronological month first, then
// severity rank (or alphabetical) on the other field, then row total
// in the configured direction.
func sortHierarchical(table *report.PivotTable, cfg *report.PivotConfig, rows []report.Record, order []int) {
	monthField, otherField := "", ""
	for _, f := range table.RowFields {
		if table.RowKinds[f] == report.FieldKindMonth && monthField == "" {
			monthField = f
		} else {
			otherField = f
		}
	}
	if monthField == "" {
		// No month dimension: table order already carries the
		// builder's month/severity-aware sort.
		return
	}

	otherIsSeverity := table.RowKinds[otherField] == report.FieldKindSeverity
	sort.SliceStable(order, func(i, j int) bool {
		a, b := rows[order[i]], rows[order[j]]

		ma := pivot.MonthSortKey(report.StringValue(a[monthField]))
		mb := pivot.MonthSortKey(report.StringValue(b[monthField]))
		if ma != mb {
			return ma < mb
		}

		oa := report.StringValue(a[otherField])
		ob := report.StringValue(b[otherField])
		if otherIsSeverity {
			ra, rb := pivot.SeverityRank(oa), pivot.SeverityRank(ob)
			if ra != rb {
				return ra < rb
			}
		} else if oa != ob {
			return oa < ob
		}

		ta, tb := rowTotal(table, a), rowTotal(table, b)
		if cfg.SortDescending {
			return ta > tb
		}
		return ta < tb
	})
}

// rowTotal reads the Total margin when present, otherwise sums the
// plotted columns.
func rowTotal(table *report.PivotTable, row report.Record) float64 {
	if table.HasTotalCol {
		n, _ := report.NumericValue(row[report.TotalLabel])
		return n
	}
	total := 0.0
	for _, c := range table.DataColumns() {
		n, _ := report.NumericValue(row[c])
		total += n
	}
	return total
}

// composePie ignores the columns axis: populated rows give one slice
// per distinct first-row-field value (summed across everything else),
// an empty row axis gives one slice per plotted column.
func composePie(table *report.PivotTable, cfg *report.PivotConfig) *report.ChartSpec {
	rows := table.DataRows()
	cols := table.DataColumns()

	if len(table.RowFields) == 0 {
		if len(rows) == 0 {
			return nil
		}
		values := make([]float64, 0, len(cols))
		for _, c := range cols {
			total := 0.0
			for _, r := range rows {
				n, _ := report.NumericValue(r[c])
				total += n
			}
			values = append(values, total)
		}
		return &report.ChartSpec{
			Categories: cols,
			Series:     []report.Series{{Name: report.TotalLabel, Values: values}},
		}
	}

	first := table.RowFields[0]
	labels := make([]string, 0)
	totals := make(map[string]float64)
	for _, r := range rows {
		label := report.StringValue(r[first])
		if _, seen := totals[label]; !seen {
			labels = append(labels, label)
		}
		totals[label] += rowTotal(table, r)
	}
	if len(labels) == 0 {
		return nil
	}

	values := make([]float64, 0, len(labels))
	for _, l := range labels {
		values = append(values, totals[l])
	}
	return &report.ChartSpec{
		Categories: labels,
		Series:     []report.Series{{Name: first, Values: values}},
	}
}

// composeHeatmap emits the dense (x, y, value) grid straight off the
// table, no sorting beyond the table's own row and column order.
func composeHeatmap(table *report.PivotTable) *report.ChartSpec {
	rows := table.DataRows()
	cols := table.DataColumns()
	if len(rows) == 0 || len(cols) == 0 {
		return nil
	}

	categories := make([]string, 0, len(rows))
	cells := make([]report.HeatmapCell, 0, len(rows)*len(cols))
	for _, r := range rows {
		categories = append(categories, categoryLabel(table, r))
	}
	series := make([]report.Series, 0, len(cols))
	for _, c := range cols {
		values := make([]float64, 0, len(rows))
		for i, r := range rows {
			n, _ := report.NumericValue(r[c])
			values = append(values, n)
			cells = append(cells, report.HeatmapCell{X: c, Y: categories[i], Value: n})
		}
		series = append(series, report.Series{Name: c, Values: values})
	}
	return &report.ChartSpec{Categories: categories, Series: series, Cells: cells}
}

// applyManualOrder reorders categories and series per the explicit
// override lists, which take precedence over every automatic sort.
func applyManualOrder(spec *report.ChartSpec, cfg *report.PivotConfig) {
	if len(cfg.CategoryOrder) > 0 && len(spec.Cells) == 0 {
		idx := reorderIndices(spec.Categories, cfg.CategoryOrder)
		categories := make([]string, len(idx))
		for i, from := range idx {
			categories[i] = spec.Categories[from]
		}
		for s := range spec.Series {
			values := make([]float64, len(idx))
			for i, from := range idx {
				values[i] = spec.Series[s].Values[from]
			}
			spec.Series[s].Values = values
		}
		spec.Categories = categories
	}

	if len(cfg.SeriesOrder) > 0 {
		names := make([]string, 0, len(spec.Series))
		for _, s := range spec.Series {
			names = append(names, s.Name)
		}
		idx := reorderIndices(names, cfg.SeriesOrder)
		series := make([]report.Series, len(idx))
		for i, from := range idx {
			series[i] = spec.Series[from]
		}
		spec.Series = series
	}
}

// reorderIndices maps labels onto the explicit order: listed labels
// first in the given order, unlisted ones after in current order.
func reorderIndices(labels []string, explicit []string) []int {
	pos := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := pos[l]; !dup {
			pos[l] = i
		}
	}
	used := make(map[int]bool, len(labels))
	out := make([]int, 0, len(labels))
	for _, want := range explicit {
		if i, ok := pos[want]; ok && !used[i] {
			out = append(out, i)
			used[i] = true
		}
	}
	for i := range labels {
		if !used[i] {
			out = append(out, i)
		}
	}
	return out
}
