package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	daysRe    = regexp.MustCompile(`(\d+)d`)
	hoursRe   = regexp.MustCompile(`(\d+)h`)
	minutesRe = regexp.MustCompile(`(\d+)m`)
	secondsRe = regexp.MustCompile(`(\d+)s`)
)

// ParseDurationHours converts free-text durations like "1d2h38m" into
// fractional hours. Best effort: unrecognized input reports false.
func ParseDurationHours(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	total := 0.0
	matched := false
	if m := daysRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += float64(n) * 24
		matched = true
	}
	if m := hoursRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += float64(n)
		matched = true
	}
	if m := minutesRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += float64(n) / 60
		matched = true
	}
	if m := secondsRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += float64(n) / 3600
		matched = true
	}
	if matched {
		return total, true
	}

	// Bare numbers are already hours.
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, true
	}
	return 0, false
}

// Timestamp layouts tried in order. Detection exports mix a 12-hour
// slash format with a day-first 24-hour one.
var timestampLayouts = []string{
	"2006/01/02 03:04:05 PM",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"01/02/2006 3:04:05 PM",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a detection timestamp with the known layout
// list. Best effort: unparseable input reports false.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthLabel renders a timestamp as the month label used across every
// analysis table ("June 2025").
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

// MonthSortValue returns the numeric sort key (year*100 + month) used
// by the generators for chronological ordering.
func MonthSortValue(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}
