package generators

import (
	"sort"
	"strconv"
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// HostKeyMetrics emits the host overview card numbers in long format,
// one row per metric per month.
func HostKeyMetrics(rs *report.RecordSet) *report.RecordSet {
	type metrics struct {
		hosts map[string]bool
		total int
		users map[string]bool
	}
	byMonth := make(map[string]*metrics)
	for _, rec := range rs.Records {
		m := monthOf(rs, rec)
		if m == "" {
			continue
		}
		mm := byMonth[m]
		if mm == nil {
			mm = &metrics{hosts: make(map[string]bool), users: make(map[string]bool)}
			byMonth[m] = mm
		}
		mm.total++
		if h := report.StringValue(rec["Hostname"]); h != "" {
			mm.hosts[h] = true
		}
		if u := report.StringValue(rec["UserName"]); u != "" {
			mm.users[u] = true
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
			{"Total Hosts", len(mm.hosts)},
			{"Total Detections", mm.total},
			{"Unique Users", len(mm.users)},
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

// TopHosts lists the ten hosts with most detections, month by month,
// with the host's share of that month's detections.
func TopHosts(rs *report.RecordSet) *report.RecordSet {
	return topGroupAnalysis(rs, "Hostname", "Hostname", 10, 1)
}

// UserAnalysis lists the five users with most detections per month.
func UserAnalysis(rs *report.RecordSet) *report.RecordSet {
	return topGroupAnalysis(rs, "UserName", "Username", 5, 1)
}

// SensorAnalysis counts distinct hosts per sensor version and month.
// The newest version is tagged Latest, everything else Outdated.
func SensorAnalysis(rs *report.RecordSet) *report.RecordSet {
	columns := []string{"Sensor Version", "Month", "Host Count", "Percentage", "Status"}
	if !rs.HasField("Sensor Version") || !rs.HasField("Hostname") {
		return newTable(columns, nil)
	}

	hosts := make(map[string]map[string]map[string]bool) // version -> month -> hosts
	monthHosts := make(map[string]map[string]bool)
	versions := make([]string, 0)
	seen := make(map[string]bool)
	for _, rec := range rs.Records {
		v := report.StringValue(rec["Sensor Version"])
		m := monthOf(rs, rec)
		h := report.StringValue(rec["Hostname"])
		if v == "" || m == "" || h == "" {
			continue
		}
		if !seen[v] {
			seen[v] = true
			versions = append(versions, v)
		}
		if hosts[v] == nil {
			hosts[v] = make(map[string]map[string]bool)
		}
		if hosts[v][m] == nil {
			hosts[v][m] = make(map[string]bool)
		}
		hosts[v][m][h] = true
		if monthHosts[m] == nil {
			monthHosts[m] = make(map[string]bool)
		}
		monthHosts[m][h] = true
	}
	if len(versions) == 0 {
		return newTable(columns, nil)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versionLess(versions[j], versions[i]) // newest first
	})
	latest := versions[0]

	records := make([]report.Record, 0)
	for _, v := range versions {
		for _, m := range monthsOf(rs) {
			count := len(hosts[v][m])
			pct := 0.0
			if n := len(monthHosts[m]); n > 0 {
				pct = roundTo(float64(count)/float64(n)*100, 1)
			}
			status := "Outdated"
			if v == latest {
				status = "Latest"
			}
			records = append(records, report.Record{
				"Sensor Version": v,
				"Month":          m,
				"Host Count":     float64(count),
				"Percentage":     pct,
				"Status":         status,
			})
		}
	}
	out := newTable(columns, records)
	// Status here is a rollout flag, not a ticket lifecycle state.
	out.SetKind("Status", report.FieldKindGeneric)
	return out
}

// versionLess compares dotted version strings numerically per part.
func versionLess(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var ai, bi int
		if i < len(as) {
			ai, _ = strconv.Atoi(strings.TrimSpace(as[i]))
		}
		if i < len(bs) {
			bi, _ = strconv.Atoi(strings.TrimSpace(bs[i]))
		}
		if ai != bi {
			return ai < bi
		}
	}
	return a < b
}
