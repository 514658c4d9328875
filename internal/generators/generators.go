// Package generators builds the canned long-format analysis tables
// that feed the pivot engine: time analysis, ticket lifecycle, host
// and detection analysis. Every generator is a pure function over a
// flat record set.
package generators

import (
	"math"
	"sort"
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/ingest"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
)

// Generator produces one analysis table from uploaded records.
type Generator func(rs *report.RecordSet) *report.RecordSet

var registry = map[string]Generator{
	"daily-trend":                DailyTrend,
	"hourly-distribution":        HourlyDistribution,
	"day-of-week":                DayOfWeek,
	"ticket-status-trend":        TicketStatusTrend,
	"ticket-status-distribution": TicketStatusDistribution,
	"ticket-monthly-summary":     TicketMonthlySummary,
	"detection-key-metrics":      DetectionKeyMetrics,
	"top-severities":             TopSeverities,
	"geographic-analysis":        GeographicAnalysis,
	"tactic-technique":           TacticTechnique,
	"file-analysis":              FileAnalysis,
	"host-key-metrics":           HostKeyMetrics,
	"top-hosts":                  TopHosts,
	"user-analysis":              UserAnalysis,
	"sensor-analysis":            SensorAnalysis,
}

// Lookup returns the named generator.
func Lookup(name string) (Generator, bool) {
	g, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// Names lists the registered generator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Timestamp columns tried in order when a record set has no Month.
var timestampColumns = []string{
	"Timestamp",
	"DetectTimestamp",
	"Detect Time",
	"DetectDate",
	"Detection Time",
	"Created",
	"Date",
}

// monthOf resolves the month label for one record: the tagged Month
// field when present, otherwise the first parseable timestamp column.
func monthOf(rs *report.RecordSet, rec report.Record) string {
	if f, ok := rs.FirstFieldOfKind(report.FieldKindMonth); ok {
		if m := report.StringValue(rec[f]); m != "" {
			return m
		}
	}
	for _, c := range timestampColumns {
		if !rs.HasField(c) {
			continue
		}
		if ts, ok := ingest.ParseTimestamp(report.StringValue(rec[c])); ok {
			return ingest.MonthLabel(ts)
		}
	}
	return ""
}

// monthsOf returns the distinct month labels in chronological order.
func monthsOf(rs *report.RecordSet) []string {
	seen := make(map[string]bool)
	months := make([]string, 0)
	for _, rec := range rs.Records {
		m := monthOf(rs, rec)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}
	sort.SliceStable(months, func(i, j int) bool {
		return pivot.MonthSortKey(months[i]) < pivot.MonthSortKey(months[j])
	})
	return months
}

// timestampOf parses the first usable timestamp column of a record.
func timestampOf(rs *report.RecordSet, rec report.Record) (string, bool) {
	for _, c := range timestampColumns {
		if !rs.HasField(c) {
			continue
		}
		if raw := report.StringValue(rec[c]); raw != "" {
			if ts, ok := ingest.ParseTimestamp(raw); ok {
				return ts.Format("2006-01-02 15:04:05"), true
			}
		}
	}
	return "", false
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// newTable builds a generator output table with the Month column
// tagged so downstream pivots sort chronologically.
func newTable(fields []string, records []report.Record) *report.RecordSet {
	out := report.NewRecordSet(fields, records)
	ingest.TagFieldKinds(out)
	return out
}
