package pivot

import (
	"sort"
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
)

// keySep joins multi-field group keys without colliding with data.
const keySep = "\x1f"

// labelSep joins multi-field column labels for display.
const labelSep = " - "

// Build cross-tabulates a flat record set according to cfg and returns
// the resulting pivot table. Configuration errors return a
// ValidationError before any partial table is produced; shape problems
// in the data degrade to zero-valued cells instead of failing.
func Build(rs *report.RecordSet, cfg *report.PivotConfig) (*report.PivotTable, error) {
	if !report.ValidAggregation(cfg.Aggregation) {
		return nil, report.NewValidationError("unknown aggregation %q", cfg.Aggregation)
	}
	for _, r := range cfg.Rows {
		for _, c := range cfg.Columns {
			if r == c {
				return nil, report.NewValidationError("duplicate field %q in rows and columns", r)
			}
		}
	}

	records := applyFilters(rs, cfg.Filters)

	// No grouping requested: the filtered records pass through.
	if len(cfg.Rows) == 0 && len(cfg.Columns) == 0 {
		return &report.PivotTable{
			RowFields: rs.FieldNames(),
			Rows:      records,
			RowKinds:  kindsFor(rs, rs.FieldNames()),
		}, nil
	}

	agg := cfg.EffectiveAggregation()
	if len(cfg.Columns) > 0 {
		return buildCrossTab(rs, cfg, records, agg)
	}
	return buildGrouped(rs, cfg, records, agg)
}

// applyFilters keeps records whose values are allowed for every
// filtered field (logical AND across fields).
func applyFilters(rs *report.RecordSet, filters map[string][]string) []report.Record {
	if len(filters) == 0 {
		return rs.Records
	}
	allowed := make(map[string]map[string]bool, len(filters))
	for field, values := range filters {
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v] = true
		}
		allowed[field] = set
	}
	out := make([]report.Record, 0, len(rs.Records))
	for _, rec := range rs.Records {
		keep := true
		for field, set := range allowed {
			if !set[report.StringValue(rec[field])] {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out
}

// buildGrouped handles the rows-only shape: one output row per
// distinct rows-tuple, one aggregated column per values field.
func buildGrouped(rs *report.RecordSet, cfg *report.PivotConfig, records []report.Record, agg report.Aggregation) (*report.PivotTable, error) {
	valueCols := make([]string, 0, len(cfg.Values))
	for _, v := range cfg.Values {
		valueCols = append(valueCols, valueColumnName(v, cfg.Rows, agg))
	}
	if len(valueCols) == 0 {
		valueCols = []string{"Count"}
	}

	order := make([]string, 0)
	groups := make(map[string][]report.Record)
	labels := make(map[string][]string)
	for _, rec := range records {
		tuple := tupleOf(rec, cfg.Rows)
		key := strings.Join(tuple, keySep)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			labels[key] = tuple
		}
		groups[key] = append(groups[key], rec)
	}

	rows := make([]report.Record, 0, len(order)+1)
	colTotals := make(map[string]float64, len(valueCols))
	for _, key := range order {
		row := report.Record{}
		for i, f := range cfg.Rows {
			row[f] = labels[key][i]
		}
		for i, col := range valueCols {
			var v float64
			if len(cfg.Values) == 0 {
				v = float64(len(groups[key]))
			} else {
				v = aggregate(groups[key], cfg.Values[i], agg)
			}
			row[col] = v
			colTotals[col] += v
		}
		rows = append(rows, row)
	}

	table := &report.PivotTable{
		RowFields:    cfg.Rows,
		ValueColumns: valueCols,
		Rows:         rows,
		RowKinds:     kindsFor(rs, cfg.Rows),
	}
	sortTableRows(table)

	total := report.Record{}
	for i, f := range cfg.Rows {
		if i == 0 {
			total[f] = report.TotalLabel
		} else {
			total[f] = ""
		}
	}
	for _, col := range valueCols {
		total[col] = colTotals[col]
	}
	table.Rows = append(table.Rows, total)
	table.HasTotalRow = true
	return table, nil
}

// buildCrossTab handles the two-dimensional shape: one output row per
// rows-tuple, one output column per columns-tuple, dense fill with 0,
// Total margins on both axes.
func buildCrossTab(rs *report.RecordSet, cfg *report.PivotConfig, records []report.Record, agg report.Aggregation) (*report.PivotTable, error) {
	valueField := ""
	if len(cfg.Values) > 0 {
		valueField = cfg.Values[0]
	}

	rowOrder := make([]string, 0)
	rowLabels := make(map[string][]string)
	colSets := make([]map[string]bool, len(cfg.Columns))
	colOrders := make([][]string, len(cfg.Columns))
	for i := range cfg.Columns {
		colSets[i] = make(map[string]bool)
	}
	cells := make(map[string]map[string][]report.Record)

	for _, rec := range records {
		tuple := tupleOf(rec, cfg.Rows)
		rowKey := strings.Join(tuple, keySep)
		if _, seen := cells[rowKey]; !seen {
			rowOrder = append(rowOrder, rowKey)
			rowLabels[rowKey] = tuple
			cells[rowKey] = make(map[string][]report.Record)
		}
		colTuple := tupleOf(rec, cfg.Columns)
		for i, v := range colTuple {
			if !colSets[i][v] {
				colSets[i][v] = true
				colOrders[i] = append(colOrders[i], v)
			}
		}
		colLabel := strings.Join(colTuple, labelSep)
		cells[rowKey][colLabel] = append(cells[rowKey][colLabel], rec)
	}

	if len(rowOrder) == 0 {
		return &report.PivotTable{RowFields: cfg.Rows, RowKinds: kindsFor(rs, cfg.Rows)}, nil
	}

	for i, field := range cfg.Columns {
		sortColumnLabels(colOrders[i], rs.KindOf(field))
	}
	colLabels := cartesianLabels(colOrders)

	rows := make([]report.Record, 0, len(rowOrder)+1)
	colTotals := make(map[string]float64, len(colLabels))
	grand := 0.0
	for _, rowKey := range rowOrder {
		row := report.Record{}
		for i, f := range cfg.Rows {
			row[f] = rowLabels[rowKey][i]
		}
		rowTotal := 0.0
		for _, col := range colLabels {
			var v float64
			recs := cells[rowKey][col]
			if valueField == "" {
				v = float64(len(recs))
			} else if len(recs) > 0 {
				v = aggregate(recs, valueField, agg)
			}
			row[col] = v
			rowTotal += v
			colTotals[col] += v
		}
		row[report.TotalLabel] = rowTotal
		grand += rowTotal
		rows = append(rows, row)
	}

	table := &report.PivotTable{
		RowFields:    cfg.Rows,
		ValueColumns: append(append([]string{}, colLabels...), report.TotalLabel),
		Rows:         rows,
		HasTotalCol:  true,
		RowKinds:     kindsFor(rs, cfg.Rows),
	}
	sortTableRows(table)

	total := report.Record{}
	for i, f := range cfg.Rows {
		if i == 0 {
			total[f] = report.TotalLabel
		} else {
			total[f] = ""
		}
	}
	for _, col := range colLabels {
		total[col] = colTotals[col]
	}
	total[report.TotalLabel] = grand
	table.Rows = append(table.Rows, total)
	table.HasTotalRow = true
	return table, nil
}

// sortTableRows applies the month-aware post-sort: chronological month
// first, severity rank second, then the row label tuple. The sort is
// stable so untouched rows keep their insertion order.
func sortTableRows(t *report.PivotTable) {
	monthField := ""
	severityField := ""
	for _, f := range t.RowFields {
		switch t.RowKinds[f] {
		case report.FieldKindMonth:
			if monthField == "" {
				monthField = f
			}
		case report.FieldKindSeverity:
			if severityField == "" {
				severityField = f
			}
		}
	}
	if monthField == "" && severityField == "" {
		sort.SliceStable(t.Rows, func(i, j int) bool {
			return rowLabelKey(t, t.Rows[i]) < rowLabelKey(t, t.Rows[j])
		})
		return
	}
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		if monthField != "" {
			ka := MonthSortKey(report.StringValue(a[monthField]))
			kb := MonthSortKey(report.StringValue(b[monthField]))
			if ka != kb {
				return ka < kb
			}
		}
		if severityField != "" {
			ra := SeverityRank(report.StringValue(a[severityField]))
			rb := SeverityRank(report.StringValue(b[severityField]))
			if ra != rb {
				return ra < rb
			}
		}
		return rowLabelKey(t, a) < rowLabelKey(t, b)
	})
}

func rowLabelKey(t *report.PivotTable, row report.Record) string {
	parts := make([]string, 0, len(t.RowFields))
	for _, f := range t.RowFields {
		parts = append(parts, report.StringValue(row[f]))
	}
	return strings.Join(parts, keySep)
}

// sortColumnLabels orders pivoted column labels by the field kind:
// chronological for months, rank order for severities, lexicographic
// otherwise.
func sortColumnLabels(labels []string, kind report.FieldKind) {
	switch kind {
	case report.FieldKindMonth:
		sort.SliceStable(labels, func(i, j int) bool {
			return MonthSortKey(labels[i]) < MonthSortKey(labels[j])
		})
	case report.FieldKindSeverity:
		sort.SliceStable(labels, func(i, j int) bool {
			return SeverityRank(labels[i]) < SeverityRank(labels[j])
		})
	default:
		sort.Strings(labels)
	}
}

// cartesianLabels expands per-field label lists into the full product
// of column labels, first field varying slowest.
func cartesianLabels(orders [][]string) []string {
	labels := []string{""}
	for _, values := range orders {
		next := make([]string, 0, len(labels)*len(values))
		for _, prefix := range labels {
			for _, v := range values {
				if prefix == "" {
					next = append(next, v)
				} else {
					next = append(next, prefix+labelSep+v)
				}
			}
		}
		labels = next
	}
	return labels
}

// valueColumnName keeps the aggregated field's own name unless it
// collides with a group-by field, in which case the column is renamed
// after the aggregation ("Count of SeverityName").
func valueColumnName(field string, rows []string, agg report.Aggregation) string {
	collides := false
	for _, r := range rows {
		if r == field {
			collides = true
			break
		}
	}
	if !collides {
		return field
	}
	return aggLabel(agg) + " of " + field
}

func aggLabel(agg report.Aggregation) string {
	switch agg {
	case report.AggSum:
		return "Sum"
	case report.AggMean:
		return "Mean"
	case report.AggMedian:
		return "Median"
	case report.AggMin:
		return "Min"
	case report.AggMax:
		return "Max"
	case report.AggNunique:
		return "Unique"
	default:
		return "Count"
	}
}

func tupleOf(rec report.Record, fields []string) []string {
	tuple := make([]string, 0, len(fields))
	for _, f := range fields {
		tuple = append(tuple, report.StringValue(rec[f]))
	}
	return tuple
}

func kindsFor(rs *report.RecordSet, fields []string) map[string]report.FieldKind {
	kinds := make(map[string]report.FieldKind, len(fields))
	for _, f := range fields {
		kinds[f] = rs.KindOf(f)
	}
	return kinds
}

// aggregate reduces one pivot cell. Non-numeric values coerce to 0 for
// the numeric aggregations so messy CSV input degrades instead of
// failing.
func aggregate(recs []report.Record, field string, agg report.Aggregation) float64 {
	switch agg {
	case report.AggCount, "":
		return float64(len(recs))
	case report.AggNunique:
		seen := make(map[string]bool, len(recs))
		for _, r := range recs {
			seen[report.StringValue(r[field])] = true
		}
		return float64(len(seen))
	}

	nums := make([]float64, 0, len(recs))
	coerced := false
	for _, r := range recs {
		n, ok := report.NumericValue(r[field])
		if !ok {
			coerced = true
			n = 0
		}
		nums = append(nums, n)
	}
	if coerced {
		logger.WithScope("pivot").Warn().
			Str("field", field).
			Str("aggregation", string(agg)).
			Msg("Non-numeric cell coerced to 0")
	}
	if len(nums) == 0 {
		return 0
	}

	switch agg {
	case report.AggSum:
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total
	case report.AggMean:
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total / float64(len(nums))
	case report.AggMedian:
		sorted := append([]float64{}, nums...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid]
		}
		return (sorted[mid-1] + sorted[mid]) / 2
	case report.AggMin:
		min := nums[0]
		for _, n := range nums[1:] {
			if n < min {
				min = n
			}
		}
		return min
	case report.AggMax:
		max := nums[0]
		for _, n := range nums[1:] {
			if n > max {
				max = n
			}
		}
		return max
	}
	return 0
}
