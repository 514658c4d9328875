package chart

import (
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
)

// DefaultColor is the flat fallback used when no palette applies.
const DefaultColor = "steelblue"

// paletteEntry pairs a keyword with its color. A label matches when it
// case-insensitively contains the keyword, so "Critical Detections"
// picks up the critical color. Entries are scanned in order: "critical"
// must be tried before "high" or a "Critical/High" style label would
// land on the wrong color.
type paletteEntry struct {
	keyword string
	color   string
}

var (
	severityPalette = []paletteEntry{
		{"critical", "#DC143C"},
		{"high", "#ED7D31"},
		{"medium", "#5B9BD5"},
		{"low", "#70AD47"},
	}

	ticketStatusPalette = []paletteEntry{
		{"closed", "#70AD47"},
		{"open", "#DC143C"},
		{"on-hold", "#FFC000"},
		{"pending", "#A9A9A9"},
	}

	// First three chronological months get fixed colors, any further
	// months fall back to the default.
	monthlyColors = []string{"#70AD47", "#5B9BD5", "#FFC000"}
)

func paletteColor(palette []paletteEntry, label string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(label))
	for _, e := range palette {
		if strings.Contains(lower, e.keyword) {
			return e.color, true
		}
	}
	return "", false
}

func paletteMatchesAny(palette []paletteEntry, labels []string) bool {
	for _, l := range labels {
		if _, ok := paletteColor(palette, l); ok {
			return true
		}
	}
	return false
}

// applyColorPolicy assigns colors to the composed spec. Policies are
// evaluated in fixed priority order (severity, ticket status, monthly,
// flat default) and only the first matching policy is applied.
func applyColorPolicy(spec *report.ChartSpec, cfg *report.PivotConfig) {
	names := make([]string, 0, len(spec.Series))
	for _, s := range spec.Series {
		names = append(names, s.Name)
	}

	if cfg.UseSeverityColors && applyPalette(spec, severityPalette, names) {
		return
	}
	if cfg.UseTicketStatusColors && applyPalette(spec, ticketStatusPalette, names) {
		return
	}
	if cfg.UseMonthlyColors && applyMonthlyColors(spec, names) {
		return
	}
	for i := range spec.Series {
		spec.Series[i].Color = DefaultColor
	}
}

// applyPalette colors series by name when the names match the palette,
// otherwise colors points by category label. Returns false when the
// palette matches nothing so the next policy can be tried.
func applyPalette(spec *report.ChartSpec, palette []paletteEntry, names []string) bool {
	if paletteMatchesAny(palette, names) {
		for i := range spec.Series {
			if c, ok := paletteColor(palette, spec.Series[i].Name); ok {
				spec.Series[i].Color = c
			} else {
				spec.Series[i].Color = DefaultColor
			}
		}
		return true
	}
	if paletteMatchesAny(palette, spec.Categories) {
		colors := make([]string, len(spec.Categories))
		for i, cat := range spec.Categories {
			if c, ok := paletteColor(palette, lastLabelPart(cat)); ok {
				colors[i] = c
			} else if c, ok := paletteColor(palette, cat); ok {
				colors[i] = c
			} else {
				colors[i] = DefaultColor
			}
		}
		for i := range spec.Series {
			spec.Series[i].Color = DefaultColor
			spec.Series[i].Colors = colors
		}
		return true
	}
	return false
}

// applyMonthlyColors assigns the fixed month colors to the first three
// chronological month labels found among series names or categories.
func applyMonthlyColors(spec *report.ChartSpec, names []string) bool {
	if byName := monthColorMap(names); byName != nil {
		for i := range spec.Series {
			if c, ok := byName[spec.Series[i].Name]; ok {
				spec.Series[i].Color = c
			} else {
				spec.Series[i].Color = DefaultColor
			}
		}
		return true
	}
	if byCat := monthColorMap(spec.Categories); byCat != nil {
		colors := make([]string, len(spec.Categories))
		for i, cat := range spec.Categories {
			if c, ok := byCat[cat]; ok {
				colors[i] = c
			} else {
				colors[i] = DefaultColor
			}
		}
		for i := range spec.Series {
			spec.Series[i].Color = DefaultColor
			spec.Series[i].Colors = colors
		}
		return true
	}
	return false
}

// monthColorMap maps the first three chronological month labels to the
// monthly palette, nil when no label parses as a month.
func monthColorMap(labels []string) map[string]string {
	months := make([]string, 0, len(labels))
	for _, l := range labels {
		if pivot.IsMonthLabel(l) {
			months = append(months, l)
		}
	}
	if len(months) == 0 {
		return nil
	}
	for i := 1; i < len(months); i++ {
		for j := i; j > 0 && pivot.MonthSortKey(months[j]) < pivot.MonthSortKey(months[j-1]); j-- {
			months[j], months[j-1] = months[j-1], months[j]
		}
	}
	out := make(map[string]string, len(monthlyColors))
	for i, m := range months {
		if i >= len(monthlyColors) {
			break
		}
		out[m] = monthlyColors[i]
	}
	return out
}

// lastLabelPart extracts the leading line of a hierarchical category
// label, which carries the second row field's value.
func lastLabelPart(label string) string {
	if i := strings.IndexByte(label, '\n'); i >= 0 {
		return label[:i]
	}
	return label
}
