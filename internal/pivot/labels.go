package pivot

import (
	"strconv"
	"strings"
	"time"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// Sort rank assigned to labels that do not parse, so they land after
// every real value in ascending order.
const unrankedLast = 999

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var severityRanks = map[string]int{
	"critical":    0,
	"high":        1,
	"medium":      2,
	"low":         3,
	"info":        4,
	"information": 4,
}

var dayRanks = map[string]int{
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
	"sunday":    7,
}

// MonthSortKey turns a month label like "June 2025" into a sortable
// integer (year*100 + month). Bare month names sort within year zero.
// "Total" and unparseable labels sort last.
func MonthSortKey(label string) int {
	s := strings.TrimSpace(label)
	if s == "" || s == report.TotalLabel {
		return unrankedLast * 10000
	}
	for _, layout := range []string{"January 2006", "Jan 2006", "2006-01", "01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year()*100 + int(t.Month())
		}
	}
	if n, ok := monthNumbers[strings.ToLower(s)]; ok {
		return n
	}
	return unrankedLast * 10000
}

// IsMonthLabel reports whether label parses as a month.
func IsMonthLabel(label string) bool {
	return MonthSortKey(label) < unrankedLast*10000
}

// SeverityRank orders severity labels Critical first. Unknown labels
// rank last so mixed data keeps a stable tail.
func SeverityRank(label string) int {
	if r, ok := severityRanks[strings.ToLower(strings.TrimSpace(label))]; ok {
		return r
	}
	return unrankedLast
}

// DayRank orders weekday labels Monday(1) through Sunday(7).
func DayRank(label string) int {
	if r, ok := dayRanks[strings.ToLower(strings.TrimSpace(label))]; ok {
		return r
	}
	return unrankedLast
}

// HourRank extracts the numeric hour from "HH:00" style labels.
func HourRank(label string) int {
	s := strings.TrimSpace(label)
	if i := strings.IndexByte(s, ':'); i > 0 {
		s = s[:i]
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return unrankedLast
}
