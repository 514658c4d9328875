package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
)

// Canonical column names that receive a non-generic field kind at
// ingestion time. Downstream consumers branch on the kind tag only.
var (
	severityColumns = map[string]bool{
		"severityname":   true,
		"severity":       true,
		"severity name":  true,
		"severity level": true,
	}
	ticketStatusColumns = map[string]bool{
		"status":         true,
		"ticketstatus":   true,
		"ticket status":  true,
		"current status": true,
	}
	monthColumns = map[string]bool{
		"month": true,
	}
)

// ReadTable parses a CSV or tab-separated export into a flat record
// set. The delimiter is sniffed from the header line, a UTF-8 BOM is
// stripped, and field kinds are tagged from the canonical column
// names.
func ReadTable(r io.Reader) (*report.RecordSet, error) {
	br := bufio.NewReader(r)

	// Strip UTF-8 BOM if present.
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}

	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	delim := sniffDelimiter(string(head))

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return report.NewRecordSet(nil, nil), nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records := make([]report.Record, 0)
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		rec := make(report.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		logger.WithScope("ingest").Warn().
			Int("skipped", skipped).
			Msg("Malformed rows skipped during read")
	}

	rs := report.NewRecordSet(header, records)
	TagFieldKinds(rs)
	return rs, nil
}

// sniffDelimiter picks tab over comma when the header line carries
// more tabs than commas.
func sniffDelimiter(head string) rune {
	line := head
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, "\t") > strings.Count(line, ",") {
		return '\t'
	}
	return ','
}

// TagFieldKinds attaches severity, ticket-status, and month kinds to
// the matching canonical columns. All other fields stay generic.
func TagFieldKinds(rs *report.RecordSet) {
	for _, f := range rs.Fields {
		key := strings.ToLower(strings.TrimSpace(f.Name))
		switch {
		case severityColumns[key]:
			rs.SetKind(f.Name, report.FieldKindSeverity)
		case ticketStatusColumns[key]:
			rs.SetKind(f.Name, report.FieldKindTicketStatus)
		case monthColumns[key]:
			rs.SetKind(f.Name, report.FieldKindMonth)
		}
	}
}
