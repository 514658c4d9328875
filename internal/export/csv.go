// Package export renders pivot tables and chart specs into CSV and
// PDF artifacts. Writers iterate the table read-only and rely on the
// engine's deterministic row and column order for reproducible output.
package export

import (
	"encoding/csv"
	"io"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
)

// WriteCSV streams a pivot table as CSV: row fields first, value
// columns after, Total margins included.
func WriteCSV(w io.Writer, table *report.PivotTable) error {
	cw := csv.NewWriter(w)

	columns := table.Columns()
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		out := make([]string, 0, len(columns))
		for _, c := range columns {
			out = append(out, report.StringValue(row[c]))
		}
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecordSetCSV streams a flat record set, schema order preserved.
func WriteRecordSetCSV(w io.Writer, rs *report.RecordSet) error {
	cw := csv.NewWriter(w)

	names := rs.FieldNames()
	if err := cw.Write(names); err != nil {
		return err
	}
	for _, rec := range rs.Records {
		out := make([]string, 0, len(names))
		for _, n := range names {
			out = append(out, report.StringValue(rec[n]))
		}
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
