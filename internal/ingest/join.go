package ingest

import (
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
)

// Exact header variants observed across endpoint-detection exports.
var compositeIDVariants = []string{
	"CompositeId",
	"CompositeID",
	"Composite Id",
	"Composite ID",
	"composite_id",
	"compositeid",
	"COMPOSITEID",
}

// Fields pulled across files during a CompositeID merge, in fill order.
var compositeMergeFields = []string{
	"UserName",
	"SeverityName",
	"Status",
	"LocalIP",
	"Objective",
	"Country",
}

// Fields pulled from a host export during a Hostname merge.
var hostMergeFields = []string{
	"OS Version",
	"Sensor Version",
	"Site",
	"OU",
}

// FindCompositeIDColumn locates the composite-key column in a header
// set: exact variants first, then a case-insensitive normalized match,
// then any header containing "composite".
func FindCompositeIDColumn(fields []string) (string, bool) {
	for _, v := range compositeIDVariants {
		for _, f := range fields {
			if f == v {
				return f, true
			}
		}
	}
	for _, f := range fields {
		if normalizeHeader(f) == "compositeid" {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), "composite") {
			return f, true
		}
	}
	return "", false
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// MergeByCompositeID fills empty cells of the primary set from a
// secondary export sharing the composite key. Only the well-known
// merge fields move, and existing primary values always win. Returns
// the number of filled cells.
func MergeByCompositeID(primary, secondary *report.RecordSet) int {
	log := logger.WithScope("ingest")

	primaryKey, ok := FindCompositeIDColumn(primary.FieldNames())
	if !ok {
		log.Warn().Msg("Primary file has no composite key column, merge skipped")
		return 0
	}
	secondaryKey, ok := FindCompositeIDColumn(secondary.FieldNames())
	if !ok {
		log.Warn().Msg("Secondary file has no composite key column, merge skipped")
		return 0
	}

	fields := make([]string, 0, len(compositeMergeFields))
	for _, f := range compositeMergeFields {
		if secondary.HasField(f) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return 0
	}

	// First occurrence per key wins, matching the export's own order.
	lookup := make(map[string]report.Record, secondary.Len())
	for _, rec := range secondary.Records {
		key := report.StringValue(rec[secondaryKey])
		if key == "" {
			continue
		}
		if _, seen := lookup[key]; !seen {
			lookup[key] = rec
		}
	}

	filled := 0
	for _, rec := range primary.Records {
		src, ok := lookup[report.StringValue(rec[primaryKey])]
		if !ok {
			continue
		}
		for _, f := range fields {
			if report.StringValue(rec[f]) != "" {
				continue
			}
			if v := report.StringValue(src[f]); v != "" {
				rec[f] = v
				filled++
			}
		}
	}

	// Newly filled columns may not exist in the primary schema yet.
	for _, f := range fields {
		if !primary.HasField(f) {
			primary.Fields = append(primary.Fields, report.Field{Name: f, Kind: secondary.KindOf(f)})
		}
	}
	TagFieldKinds(primary)

	log.Info().
		Str("key", primaryKey).
		Int("filled", filled).
		Msg("Composite key merge applied")
	return filled
}

// MergeHostExport joins a host inventory export on Hostname, adding
// OS/sensor/site columns to every matching detection. Existing values
// are never overwritten.
func MergeHostExport(primary, hosts *report.RecordSet) int {
	if !primary.HasField("Hostname") || !hosts.HasField("Hostname") {
		logger.WithScope("ingest").Warn().Msg("Hostname column missing, host merge skipped")
		return 0
	}

	fields := make([]string, 0, len(hostMergeFields))
	for _, f := range hostMergeFields {
		if hosts.HasField(f) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return 0
	}

	lookup := make(map[string]report.Record, hosts.Len())
	for _, rec := range hosts.Records {
		key := strings.ToLower(report.StringValue(rec["Hostname"]))
		if key == "" {
			continue
		}
		if _, seen := lookup[key]; !seen {
			lookup[key] = rec
		}
	}

	filled := 0
	for _, rec := range primary.Records {
		src, ok := lookup[strings.ToLower(report.StringValue(rec["Hostname"]))]
		if !ok {
			continue
		}
		for _, f := range fields {
			if report.StringValue(rec[f]) != "" {
				continue
			}
			if v := report.StringValue(src[f]); v != "" {
				rec[f] = v
				filled++
			}
		}
	}

	for _, f := range fields {
		if !primary.HasField(f) {
			primary.Fields = append(primary.Fields, report.Field{Name: f, Kind: report.FieldKindGeneric})
		}
	}
	return filled
}
