package generators

import (
	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// Ticket statuses in lifecycle order.
var ticketStatuses = []string{"Open", "Pending", "On-hold", "Closed"}

func statusField(rs *report.RecordSet) (string, bool) {
	return rs.FirstFieldOfKind(report.FieldKindTicketStatus)
}

// TicketStatusTrend counts tickets per month and status, every known
// status present for every month.
func TicketStatusTrend(rs *report.RecordSet) *report.RecordSet {
	field, ok := statusField(rs)
	if !ok {
		return newTable([]string{"Month", "Status", "Ticket Count"}, nil)
	}

	counts := make(map[string]map[string]int)
	for _, rec := range rs.Records {
		m := monthOf(rs, rec)
		if m == "" {
			continue
		}
		if counts[m] == nil {
			counts[m] = make(map[string]int)
		}
		counts[m][report.StringValue(rec[field])]++
	}

	records := make([]report.Record, 0)
	for _, m := range monthsOf(rs) {
		for _, status := range ticketStatuses {
			records = append(records, report.Record{
				"Month":        m,
				"Status":       status,
				"Ticket Count": float64(counts[m][status]),
			})
		}
	}
	return newTable([]string{"Month", "Status", "Ticket Count"}, records)
}

// TicketMonthlySummary pivots the trend into one row per month with a
// column per status and a row total.
func TicketMonthlySummary(rs *report.RecordSet) *report.RecordSet {
	field, ok := statusField(rs)
	if !ok {
		return newTable(append([]string{"Month"}, append(ticketStatuses, "Total")...), nil)
	}

	counts := make(map[string]map[string]int)
	for _, rec := range rs.Records {
		m := monthOf(rs, rec)
		if m == "" {
			continue
		}
		if counts[m] == nil {
			counts[m] = make(map[string]int)
		}
		counts[m][report.StringValue(rec[field])]++
	}

	records := make([]report.Record, 0)
	for _, m := range monthsOf(rs) {
		row := report.Record{"Month": m}
		total := 0
		for _, status := range ticketStatuses {
			c := counts[m][status]
			row[status] = float64(c)
			total += c
		}
		row["Total"] = float64(total)
		records = append(records, row)
	}
	return newTable(append([]string{"Month"}, append(ticketStatuses, "Total")...), records)
}

// TicketStatusDistribution totals each status across all months with
// its share of all tickets, rounded to two decimals.
func TicketStatusDistribution(rs *report.RecordSet) *report.RecordSet {
	field, ok := statusField(rs)
	if !ok {
		return newTable([]string{"Status", "Ticket Count", "Percentage"}, nil)
	}

	counts := make(map[string]int)
	total := 0
	for _, rec := range rs.Records {
		s := report.StringValue(rec[field])
		if s == "" {
			continue
		}
		counts[s]++
		total++
	}

	records := make([]report.Record, 0, len(ticketStatuses))
	for _, status := range ticketStatuses {
		pct := 0.0
		if total > 0 {
			pct = roundTo(float64(counts[status])/float64(total)*100, 2)
		}
		records = append(records, report.Record{
			"Status":       status,
			"Ticket Count": float64(counts[status]),
			"Percentage":   pct,
		})
	}
	return newTable([]string{"Status", "Ticket Count", "Percentage"}, records)
}
