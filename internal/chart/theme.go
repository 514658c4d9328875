package chart

import (
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
)

// ThemeProvider resolves a named presentation theme. It is passed by
// reference into the presentation path and composed into the spec
// before hand-off, never patched in afterwards.
type ThemeProvider interface {
	Theme(name string) *report.Theme
}

// StaticThemeProvider serves the built-in light and dark themes.
type StaticThemeProvider struct {
	defaultName string
}

// NewStaticThemeProvider builds a provider with the given default
// theme name. Empty or unknown defaults resolve to "light".
func NewStaticThemeProvider(defaultName string) *StaticThemeProvider {
	defaultName = strings.ToLower(strings.TrimSpace(defaultName))
	if _, ok := builtinThemes[defaultName]; !ok {
		if defaultName != "" {
			logger.Warn().Str("theme", defaultName).Msg("Unknown default theme, using light")
		}
		defaultName = "light"
	}
	return &StaticThemeProvider{defaultName: defaultName}
}

var builtinThemes = map[string]report.Theme{
	"light": {
		Name:       "light",
		Background: "#FFFFFF",
		Foreground: "#262730",
		GridColor:  "#E6E6E6",
	},
	"dark": {
		Name:       "dark",
		Background: "#0E1117",
		Foreground: "#FAFAFA",
		GridColor:  "#31333F",
	},
}

// Theme returns the named theme, falling back to the provider default
// for unknown names.
func (p *StaticThemeProvider) Theme(name string) *report.Theme {
	key := strings.ToLower(strings.TrimSpace(name))
	if t, ok := builtinThemes[key]; ok {
		clone := t
		return &clone
	}
	if key != "" {
		logger.Warn().Str("theme", name).Str("fallback", p.defaultName).Msg("Unknown theme requested")
	}
	t := builtinThemes[p.defaultName]
	clone := t
	return &clone
}

// ApplyTheme attaches a resolved theme to a composed spec. A nil spec
// stays nil so empty-result handling is unchanged.
func ApplyTheme(spec *report.ChartSpec, provider ThemeProvider, name string) *report.ChartSpec {
	if spec == nil || provider == nil {
		return spec
	}
	spec.Theme = provider.Theme(name)
	return spec
}
