package report

// Aggregation selects the reduction applied to each pivot cell.
type Aggregation string

const (
	AggCount   Aggregation = "count"
	AggSum     Aggregation = "sum"
	AggMean    Aggregation = "mean"
	AggMedian  Aggregation = "median"
	AggMin     Aggregation = "min"
	AggMax     Aggregation = "max"
	AggNunique Aggregation = "nunique"
)

// ValidAggregation reports whether name is a known aggregation.
// The empty string is accepted and treated as count.
func ValidAggregation(a Aggregation) bool {
	switch a {
	case "", AggCount, AggSum, AggMean, AggMedian, AggMin, AggMax, AggNunique:
		return true
	}
	return false
}

// ChartType selects the rendering primitive for a composed chart.
type ChartType string

const (
	ChartBar                  ChartType = "bar"
	ChartHorizontalBar        ChartType = "horizontal-bar"
	ChartClusteredBar         ChartType = "clustered-bar"
	ChartStackedBar           ChartType = "stacked-bar"
	ChartHorizontalStackedBar ChartType = "horizontal-stacked-bar"
	ChartLine                 ChartType = "line"
	ChartArea                 ChartType = "area"
	ChartPie                  ChartType = "pie"
	ChartHeatmap              ChartType = "heatmap"
)

// ValidChartType reports whether t is a supported chart type.
func ValidChartType(t ChartType) bool {
	switch t {
	case "", ChartBar, ChartHorizontalBar, ChartClusteredBar, ChartStackedBar,
		ChartHorizontalStackedBar, ChartLine, ChartArea, ChartPie, ChartHeatmap:
		return true
	}
	return false
}

// Top-N directions.
const (
	TopNDirectionTop    = "top"
	TopNDirectionBottom = "bottom"
)

type (
	// TopNConfig selects the N groups with largest or smallest total
	// of RankByField, optionally computed independently per month.
	TopNConfig struct {
		Field       string `json:"field" validate:"required"`
		N           int    `json:"n"`
		Direction   string `json:"direction" validate:"omitempty,oneof=top bottom"`
		RankByField string `json:"rank_by_field"`
		PerMonth    bool   `json:"per_month"`
	}

	// PivotConfig is the declarative request driving one pivot and
	// one chart composition. It is created fresh per request and
	// never mutated by the engine.
	PivotConfig struct {
		// === SHAPE GROUP ===
		Rows    []string `json:"rows"`    // vertical group-by fields
		Columns []string `json:"columns"` // horizontal (pivoted) group-by fields
		Values  []string `json:"values"`  // fields to aggregate, empty means record count

		// === REDUCTION GROUP ===
		Aggregation Aggregation         `json:"aggregation"`
		Filters     map[string][]string `json:"filters"` // field -> allowed values, AND across fields
		TopN        *TopNConfig         `json:"top_n,omitempty"`

		// === CHART SORT GROUP ===
		SortField      string `json:"sort_field"`
		SortDescending bool   `json:"sort_descending"`

		// === COLOR GROUP (priority: severity > ticket status > monthly) ===
		UseSeverityColors     bool `json:"use_severity_colors"`
		UseTicketStatusColors bool `json:"use_ticket_status_colors"`
		UseMonthlyColors      bool `json:"use_monthly_colors"`

		ChartType ChartType `json:"chart_type"`

		// === MANUAL OVERRIDE GROUP (drag-to-reorder escape hatch) ===
		CategoryOrder []string `json:"category_order,omitempty"`
		SeriesOrder   []string `json:"series_order,omitempty"`
	}
)

// EffectiveAggregation resolves the implicit count default.
func (c *PivotConfig) EffectiveAggregation() Aggregation {
	if c.Aggregation == "" || len(c.Values) == 0 {
		return AggCount
	}
	return c.Aggregation
}
