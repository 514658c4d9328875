package ingest

import (
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
)

// CountryResolver maps an IP address to an ISO country code. Empty
// result means unknown.
type CountryResolver interface {
	Country(ip string) string
}

// EnrichCountry fills empty Country cells: GeoIP lookup on LocalIP
// first, then the hostname-prefix site convention as a last resort.
// Returns the number of filled cells.
func EnrichCountry(rs *report.RecordSet, resolver CountryResolver) int {
	if !rs.HasField("Country") {
		rs.Fields = append(rs.Fields, report.Field{Name: "Country", Kind: report.FieldKindGeneric})
	}

	filled := 0
	for _, rec := range rs.Records {
		if report.StringValue(rec["Country"]) != "" {
			continue
		}
		if resolver != nil {
			if ip := report.StringValue(rec["LocalIP"]); ip != "" {
				if c := resolver.Country(ip); c != "" {
					rec["Country"] = c
					filled++
					continue
				}
			}
		}
		// Site convention: hostnames start with a two-letter country code.
		host := report.StringValue(rec["Hostname"])
		if len(host) >= 2 && isAlpha(host[:2]) {
			rec["Country"] = strings.ToUpper(host[:2])
			filled++
		}
	}

	if filled > 0 {
		logger.WithScope("ingest").Info().
			Int("filled", filled).
			Msg("Country cells enriched")
	}
	return filled
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
