package generators

import (
	"fmt"
	"sort"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/ingest"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
)

// DailyTrend counts detections per calendar day with a running
// cumulative per month. Output order: month, then count descending,
// then date.
func DailyTrend(rs *report.RecordSet) *report.RecordSet {
	type bucket struct {
		date  string
		month string
		count int
	}
	order := make([]string, 0)
	buckets := make(map[string]*bucket)
	for _, rec := range rs.Records {
		raw, ok := timestampOf(rs, rec)
		if !ok {
			continue
		}
		ts, _ := ingest.ParseTimestamp(raw)
		date := ts.Format("2006-01-02")
		b, seen := buckets[date]
		if !seen {
			b = &bucket{date: date, month: ingest.MonthLabel(ts)}
			buckets[date] = b
			order = append(order, date)
		}
		b.count++
	}

	// Cumulative runs chronologically within each month.
	sort.Strings(order)
	cumulative := make(map[string]int)
	running := make(map[string]int)
	for _, date := range order {
		b := buckets[date]
		running[b.month] += b.count
		cumulative[date] = running[b.month]
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := buckets[order[i]], buckets[order[j]]
		ma, mb := pivot.MonthSortKey(a.month), pivot.MonthSortKey(b.month)
		if ma != mb {
			return ma < mb
		}
		if a.count != b.count {
			return a.count > b.count
		}
		return a.date < b.date
	})

	records := make([]report.Record, 0, len(order))
	for _, date := range order {
		b := buckets[date]
		records = append(records, report.Record{
			"Date":            b.date,
			"Detection Count": float64(b.count),
			"Cumulative":      float64(cumulative[date]),
			"Month":           b.month,
		})
	}
	return newTable([]string{"Date", "Detection Count", "Cumulative", "Month"}, records)
}

// HourlyDistribution emits all 24 hour buckets per month, business
// period tagged, with a per-month percentage and a numeric sort key.
func HourlyDistribution(rs *report.RecordSet) *report.RecordSet {
	counts := make(map[string]map[int]int)
	totals := make(map[string]int)
	for _, rec := range rs.Records {
		raw, ok := timestampOf(rs, rec)
		if !ok {
			continue
		}
		ts, _ := ingest.ParseTimestamp(raw)
		m := ingest.MonthLabel(ts)
		if counts[m] == nil {
			counts[m] = make(map[int]int)
		}
		counts[m][ts.Hour()]++
		totals[m]++
	}

	records := make([]report.Record, 0)
	for _, m := range monthsOf(rs) {
		for h := 0; h < 24; h++ {
			c := counts[m][h]
			pct := 0.0
			if totals[m] > 0 {
				pct = float64(c) / float64(totals[m]) * 100
			}
			period := "Non-Business Hours"
			if h >= 8 && h <= 17 {
				period = "Business Hours"
			}
			records = append(records, report.Record{
				"Hour":            fmt.Sprintf("%02d:00", h),
				"Detection Count": float64(c),
				"Percentage":      fmt.Sprintf("%.1f%%", pct),
				"Period":          period,
				"Sort":            float64(h + 1),
				"Month":           m,
			})
		}
	}
	return newTable([]string{"Hour", "Detection Count", "Percentage", "Period", "Sort", "Month"}, records)
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayOfWeek emits all seven weekday buckets per month, weekend tagged,
// Monday first via the numeric sort key.
func DayOfWeek(rs *report.RecordSet) *report.RecordSet {
	counts := make(map[string]map[string]int)
	for _, rec := range rs.Records {
		raw, ok := timestampOf(rs, rec)
		if !ok {
			continue
		}
		ts, _ := ingest.ParseTimestamp(raw)
		m := ingest.MonthLabel(ts)
		if counts[m] == nil {
			counts[m] = make(map[string]int)
		}
		counts[m][ts.Weekday().String()]++
	}

	records := make([]report.Record, 0)
	for _, m := range monthsOf(rs) {
		for i, day := range weekdays {
			dayType := "Weekday"
			if day == "Saturday" || day == "Sunday" {
				dayType = "Weekend"
			}
			records = append(records, report.Record{
				"Day":             day,
				"Detection Count": float64(counts[m][day]),
				"Type":            dayType,
				"Sort":            float64(i + 1),
				"Month":           m,
			})
		}
	}
	return newTable([]string{"Day", "Detection Count", "Type", "Sort", "Month"}, records)
}
