package generators

import (
	"sort"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
)

func severityField(rs *report.RecordSet) (string, bool) {
	return rs.FirstFieldOfKind(report.FieldKindSeverity)
}

// DetectionKeyMetrics emits the overview card numbers in long format:
// Total Detections, Unique Devices, Critical Detections, High
// Detections, one row per metric per month.
func DetectionKeyMetrics(rs *report.RecordSet) *report.RecordSet {
	sevField, _ := severityField(rs)

	type metrics struct {
		total    int
		devices  map[string]bool
		critical int
		high     int
	}
	byMonth := make(map[string]*metrics)
	for _, rec := range rs.Records {
		m := monthOf(rs, rec)
		if m == "" {
			continue
		}
		mm := byMonth[m]
		if mm == nil {
			mm = &metrics{devices: make(map[string]bool)}
			byMonth[m] = mm
		}
		mm.total++
		if h := report.StringValue(rec["Hostname"]); h != "" {
			mm.devices[h] = true
		}
		if sevField != "" {
			switch pivot.SeverityRank(report.StringValue(rec[sevField])) {
			case 0:
				mm.critical++
			case 1:
				mm.high++
			}
		}
	}

	records := make([]report.Record, 0)
	for _, m := range monthsOf(rs) {
		mm := byMonth[m]
		if mm == nil {
			continue
		}
		for _, kv := range []struct {
			name  string
			value int
		}{
			{"Total Detections", mm.total},
			{"Unique Devices", len(mm.devices)},
			{"Critical Detections", mm.critical},
			{"High Detections", mm.high},
		} {
			records = append(records, report.Record{
				"KEY METRICS": kv.name,
				"Month":       m,
				"Count":       float64(kv.value),
			})
		}
	}
	return newTable([]string{"KEY METRICS", "Month", "Count"}, records)
}

// TopSeverities counts detections per severity and month, severity
// order preserved for the trend chart.
func TopSeverities(rs *report.RecordSet) *report.RecordSet {
	sevField, ok := severityField(rs)
	if !ok {
		return newTable([]string{"SeverityName", "Month", "Detection Count"}, nil)
	}

	counts := make(map[string]map[string]int)
	severities := make([]string, 0)
	seen := make(map[string]bool)
	for _, rec := range rs.Records {
		m := monthOf(rs, rec)
		s := report.StringValue(rec[sevField])
		if m == "" || s == "" {
			continue
		}
		if !seen[s] {
			seen[s] = true
			severities = append(severities, s)
		}
		if counts[s] == nil {
			counts[s] = make(map[string]int)
		}
		counts[s][m]++
	}
	sort.SliceStable(severities, func(i, j int) bool {
		return pivot.SeverityRank(severities[i]) < pivot.SeverityRank(severities[j])
	})

	records := make([]report.Record, 0)
	for _, s := range severities {
		for _, m := range monthsOf(rs) {
			records = append(records, report.Record{
				"SeverityName":    s,
				"Month":           m,
				"Detection Count": float64(counts[s][m]),
			})
		}
	}
	return newTable([]string{"SeverityName", "Month", "Detection Count"}, records)
}

// GeographicAnalysis counts detections per country and month for the
// top ten countries overall, with a per-month share.
func GeographicAnalysis(rs *report.RecordSet) *report.RecordSet {
	return topGroupAnalysis(rs, "Country", "Country", 10, 1)
}

// FileAnalysis counts detections per file name and month for the top
// ten files overall, densely filled across months and sorted by file
// then month.
func FileAnalysis(rs *report.RecordSet) *report.RecordSet {
	field := "FileName"
	if !rs.HasField(field) && rs.HasField("File Name") {
		field = "File Name"
	}
	out := topGroupAnalysis(rs, field, "File Name", 10, 2)
	sort.SliceStable(out.Records, func(i, j int) bool {
		a := report.StringValue(out.Records[i]["File Name"])
		b := report.StringValue(out.Records[j]["File Name"])
		if a != b {
			return a < b
		}
		return pivot.MonthSortKey(report.StringValue(out.Records[i]["Month"])) <
			pivot.MonthSortKey(report.StringValue(out.Records[j]["Month"]))
	})
	return out
}

// TacticTechnique breaks detections down by tactic and technique with
// a per-severity count. Tactics order by total detections descending,
// techniques and severities nest inside.
func TacticTechnique(rs *report.RecordSet) *report.RecordSet {
	columns := []string{"Tactic", "Technique", "SeverityName", "Detection Count"}
	if !rs.HasField("Tactic") || !rs.HasField("Technique") {
		return newTable(columns, nil)
	}
	sevField, _ := severityField(rs)

	type key struct{ tactic, technique, severity string }
	counts := make(map[key]int)
	tacticTotals := make(map[string]int)
	for _, rec := range rs.Records {
		tac := report.StringValue(rec["Tactic"])
		tech := report.StringValue(rec["Technique"])
		if tac == "" || tech == "" {
			continue
		}
		sev := ""
		if sevField != "" {
			sev = report.StringValue(rec[sevField])
		}
		counts[key{tac, tech, sev}]++
		tacticTotals[tac]++
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if tacticTotals[a.tactic] != tacticTotals[b.tactic] {
			return tacticTotals[a.tactic] > tacticTotals[b.tactic]
		}
		if a.tactic != b.tactic {
			return a.tactic < b.tactic
		}
		if a.technique != b.technique {
			return a.technique < b.technique
		}
		if ra, rb := pivot.SeverityRank(a.severity), pivot.SeverityRank(b.severity); ra != rb {
			return ra < rb
		}
		return a.severity < b.severity
	})

	records := make([]report.Record, 0, len(keys))
	for _, k := range keys {
		records = append(records, report.Record{
			"Tactic":          k.tactic,
			"Technique":       k.technique,
			"SeverityName":    k.severity,
			"Detection Count": float64(counts[k]),
		})
	}
	return newTable(columns, records)
}

// topGroupAnalysis is the shared top-N-groups-per-month shape: the N
// biggest groups overall, one row per group and month (dense), with
// the group's share of that month's detections.
func topGroupAnalysis(rs *report.RecordSet, field, outField string, n int, pctPlaces int) *report.RecordSet {
	columns := []string{outField, "Month", "Detection Count", "Percentage"}
	if !rs.HasField(field) {
		return newTable(columns, nil)
	}

	counts := make(map[string]map[string]int)
	groupTotals := make(map[string]int)
	monthTotals := make(map[string]int)
	order := make([]string, 0)
	for _, rec := range rs.Records {
		g := report.StringValue(rec[field])
		m := monthOf(rs, rec)
		if g == "" || m == "" {
			continue
		}
		if _, seen := groupTotals[g]; !seen {
			order = append(order, g)
		}
		if counts[g] == nil {
			counts[g] = make(map[string]int)
		}
		counts[g][m]++
		groupTotals[g]++
		monthTotals[m]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return groupTotals[order[i]] > groupTotals[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}

	records := make([]report.Record, 0)
	for _, g := range order {
		for _, m := range monthsOf(rs) {
			c := counts[g][m]
			pct := 0.0
			if monthTotals[m] > 0 {
				pct = roundTo(float64(c)/float64(monthTotals[m])*100, pctPlaces)
			}
			records = append(records, report.Record{
				outField:          g,
				"Month":           m,
				"Detection Count": float64(c),
				"Percentage":      pct,
			})
		}
	}
	return newTable(columns, records)
}
