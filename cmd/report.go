package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/benedict-erwin/detection-reporter/internal/chart"
	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/export"
	"github.com/benedict-erwin/detection-reporter/internal/generators"
	"github.com/benedict-erwin/detection-reporter/internal/ingest"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
	"github.com/benedict-erwin/detection-reporter/pkg/geoip"
)

var reportCmd = &cobra.Command{
	Use:   "report [files...]",
	Short: "Run a one-shot pivot over local CSV files",
	Long: `Reads one or more detection exports, joins them on CompositeID or
Hostname, runs a pivot and prints the table. The first file becomes the
primary dataset.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

// Command flags
var (
	reportRows      []string
	reportColumns   []string
	reportValues    []string
	reportAgg       string
	reportSort      string
	reportDesc      bool
	reportTopField  string
	reportTopN      int
	reportTopBy     string
	reportGenerator string
	reportCSVOut    string
	reportPDFOut    string
	reportTitle     string
)

func init() {
	reportCmd.Flags().StringSliceVarP(&reportRows, "rows", "r", nil, "Row group-by fields")
	reportCmd.Flags().StringSliceVarP(&reportColumns, "columns", "c", nil, "Column (pivoted) group-by fields")
	reportCmd.Flags().StringSliceVarP(&reportValues, "values", "v", nil, "Fields to aggregate (empty = record count)")
	reportCmd.Flags().StringVarP(&reportAgg, "agg", "a", "count", "Aggregation: count, sum, mean, median, min, max, nunique")
	reportCmd.Flags().StringVar(&reportSort, "sort", "", "Sort by this column")
	reportCmd.Flags().BoolVar(&reportDesc, "desc", false, "Sort descending")
	reportCmd.Flags().StringVar(&reportTopField, "top-field", "", "Keep only the top groups of this field")
	reportCmd.Flags().IntVar(&reportTopN, "top-n", 0, "Number of top groups to keep")
	reportCmd.Flags().StringVar(&reportTopBy, "top-by", "", "Rank top groups by this numeric field")
	reportCmd.Flags().StringVarP(&reportGenerator, "generator", "g", "", "Run a canned analysis instead of a pivot")
	reportCmd.Flags().StringVar(&reportCSVOut, "csv", "", "Also write the table as CSV to this path")
	reportCmd.Flags().StringVar(&reportPDFOut, "pdf", "", "Also write a PDF report to this path")
	reportCmd.Flags().StringVar(&reportTitle, "title", "Detection Report", "Report title for PDF output")
}

// runReport loads the files, applies joins and runs the pivot pipeline
func runReport(cmd *cobra.Command, args []string) error {
	rs, err := loadReportFiles(args)
	if err != nil {
		return err
	}
	ingest.EnrichCountry(rs, geoip.Get())

	// Canned analysis short-circuits the pivot config.
	if reportGenerator != "" {
		gen, found := generators.Lookup(reportGenerator)
		if !found {
			return fmt.Errorf("unknown generator %q, available: %s",
				reportGenerator, strings.Join(generators.Names(), ", "))
		}
		out := gen(rs)
		printRecordSet(out)
		if reportCSVOut != "" {
			return writeRecordSetCSV(reportCSVOut, out)
		}
		return nil
	}

	cfg := &report.PivotConfig{
		Rows:           reportRows,
		Columns:        reportColumns,
		Values:         reportValues,
		Aggregation:    report.Aggregation(reportAgg),
		SortField:      reportSort,
		SortDescending: reportDesc,
	}
	if reportTopField != "" && reportTopN > 0 {
		cfg.TopN = &report.TopNConfig{
			Field:       reportTopField,
			N:           reportTopN,
			RankByField: reportTopBy,
		}
	}

	filtered := pivot.FilterTopN(rs, cfg.TopN)
	table, err := pivot.Build(filtered, cfg)
	if err != nil {
		return err
	}

	printPivotTable(table)

	if reportCSVOut != "" {
		if err := writePivotCSV(reportCSVOut, table); err != nil {
			return err
		}
		fmt.Printf("CSV written to %s\n", reportCSVOut)
	}
	if reportPDFOut != "" {
		spec, err := chart.Compose(table, cfg)
		if err != nil {
			return err
		}
		f, err := os.Create(reportPDFOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WritePDF(f, reportTitle, cfg, table, spec); err != nil {
			return err
		}
		fmt.Printf("PDF written to %s\n", reportPDFOut)
	}
	return nil
}

// loadReportFiles reads the primary file and joins the rest.
func loadReportFiles(paths []string) (*report.RecordSet, error) {
	var primary *report.RecordSet
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		rs, err := ingest.ReadTable(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		ingest.TagFieldKinds(rs)

		if primary == nil {
			primary = rs
			continue
		}
		_, primaryHasKey := ingest.FindCompositeIDColumn(primary.FieldNames())
		_, uploadHasKey := ingest.FindCompositeIDColumn(rs.FieldNames())
		switch {
		case primaryHasKey && uploadHasKey:
			ingest.MergeByCompositeID(primary, rs)
		case primary.HasField("Hostname") && rs.HasField("Hostname"):
			ingest.MergeHostExport(primary, rs)
		default:
			fmt.Fprintf(os.Stderr, "warning: %s shares no join key, skipped\n", path)
		}
	}
	return primary, nil
}

// printPivotTable renders a pivot table to stdout
func printPivotTable(t *report.PivotTable) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header(t.Columns())
	for _, row := range t.Rows {
		cells := make([]string, 0, len(t.Columns()))
		for _, col := range t.Columns() {
			cells = append(cells, report.StringValue(row[col]))
		}
		table.Append(cells)
	}
	table.Render()
}

// printRecordSet renders a generator table to stdout
func printRecordSet(rs *report.RecordSet) {
	if rs == nil || rs.Len() == 0 {
		fmt.Println("No data.")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header(rs.FieldNames())
	for _, rec := range rs.Records {
		cells := make([]string, 0, len(rs.Fields))
		for _, f := range rs.Fields {
			cells = append(cells, report.StringValue(rec[f.Name]))
		}
		table.Append(cells)
	}
	table.Render()
}

func writePivotCSV(path string, t *report.PivotTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteCSV(f, t)
}

func writeRecordSetCSV(path string, rs *report.RecordSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteRecordSetCSV(f, rs)
}
