package pivot

import (
	"sort"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// FilterTopN keeps the records whose group (by cfg.Field) ranks in the
// top or bottom N by summed cfg.RankByField. It operates on raw
// records and therefore runs before Build. The filter is advisory: a
// missing rank field or a non-positive N make it a no-op instead of an
// error.
func FilterTopN(rs *report.RecordSet, cfg *report.TopNConfig) *report.RecordSet {
	if cfg == nil || cfg.N <= 0 {
		return rs
	}
	if !rs.HasField(cfg.Field) || !rs.HasField(cfg.RankByField) {
		return rs
	}

	var selected map[string]bool
	if cfg.PerMonth {
		if monthField, ok := rs.FirstFieldOfKind(report.FieldKindMonth); ok {
			selected = selectPerMonth(rs.Records, cfg, monthField)
		}
	}
	if selected == nil {
		selected = selectGroups(rs.Records, cfg)
	}

	out := make([]report.Record, 0, len(rs.Records))
	for _, rec := range rs.Records {
		if selected[report.StringValue(rec[cfg.Field])] {
			out = append(out, rec)
		}
	}
	return &report.RecordSet{Fields: rs.Fields, Records: out}
}

// selectGroups ranks groups by summed rank field and returns the N
// winners. Ties keep first-encountered insertion order.
func selectGroups(records []report.Record, cfg *report.TopNConfig) map[string]bool {
	order := make([]string, 0)
	totals := make(map[string]float64)
	for _, rec := range records {
		g := report.StringValue(rec[cfg.Field])
		if _, seen := totals[g]; !seen {
			order = append(order, g)
		}
		n, _ := report.NumericValue(rec[cfg.RankByField])
		totals[g] += n
	}

	ranked := append([]string{}, order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if cfg.Direction == report.TopNDirectionBottom {
			return totals[ranked[i]] < totals[ranked[j]]
		}
		return totals[ranked[i]] > totals[ranked[j]]
	})

	n := cfg.N
	if n > len(ranked) {
		n = len(ranked)
	}
	selected := make(map[string]bool, n)
	for _, g := range ranked[:n] {
		selected[g] = true
	}
	return selected
}

// selectPerMonth repeats the selection independently per month and
// unions the winners, so each month contributes its own top N.
func selectPerMonth(records []report.Record, cfg *report.TopNConfig, monthField string) map[string]bool {
	monthOrder := make([]string, 0)
	byMonth := make(map[string][]report.Record)
	for _, rec := range records {
		m := report.StringValue(rec[monthField])
		if _, seen := byMonth[m]; !seen {
			monthOrder = append(monthOrder, m)
		}
		byMonth[m] = append(byMonth[m], rec)
	}

	selected := make(map[string]bool)
	for _, m := range monthOrder {
		for g := range selectGroups(byMonth[m], cfg) {
			selected[g] = true
		}
	}
	return selected
}
