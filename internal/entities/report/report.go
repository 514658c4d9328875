package report

import (
	"strconv"
	"strings"
)

// FieldKind classifies a field at ingestion time so downstream
// consumers branch on a typed tag instead of re-deriving the
// classification from substring checks on every call.
type FieldKind string

const (
	FieldKindSeverity     FieldKind = "severity"
	FieldKindTicketStatus FieldKind = "ticket_status"
	FieldKindMonth        FieldKind = "month"
	FieldKindGeneric      FieldKind = "generic"
)

type (
	// Field is one column of a flat record set.
	Field struct {
		Name string    `json:"name"`
		Kind FieldKind `json:"kind"`
	}

	// Record maps field name to a scalar value (string, number, or time).
	Record map[string]interface{}

	// RecordSet is an ordered sequence of records sharing one schema.
	// It is the universal input to the pivot engine and is never
	// mutated by it.
	RecordSet struct {
		Fields  []Field  `json:"fields"`
		Records []Record `json:"records"`
	}
)

// NewRecordSet builds a record set with generic field kinds.
func NewRecordSet(fieldNames []string, records []Record) *RecordSet {
	fields := make([]Field, 0, len(fieldNames))
	for _, name := range fieldNames {
		fields = append(fields, Field{Name: name, Kind: FieldKindGeneric})
	}
	return &RecordSet{Fields: fields, Records: records}
}

// HasField reports whether name is part of the schema.
func (rs *RecordSet) HasField(name string) bool {
	for _, f := range rs.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// KindOf returns the field kind for name, generic when unknown.
func (rs *RecordSet) KindOf(name string) FieldKind {
	for _, f := range rs.Fields {
		if f.Name == name {
			return f.Kind
		}
	}
	return FieldKindGeneric
}

// SetKind tags an existing field with a kind.
func (rs *RecordSet) SetKind(name string, kind FieldKind) {
	for i := range rs.Fields {
		if rs.Fields[i].Name == name {
			rs.Fields[i].Kind = kind
			return
		}
	}
}

// FieldNames returns the schema names in order.
func (rs *RecordSet) FieldNames() []string {
	names := make([]string, 0, len(rs.Fields))
	for _, f := range rs.Fields {
		names = append(names, f.Name)
	}
	return names
}

// FirstFieldOfKind returns the name of the first field tagged kind.
func (rs *RecordSet) FirstFieldOfKind(kind FieldKind) (string, bool) {
	for _, f := range rs.Fields {
		if f.Kind == kind {
			return f.Name, true
		}
	}
	return "", false
}

// Len returns the number of records.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// StringValue renders a record value as its label form.
func StringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// NumericValue coerces a record value to float64. Non-numeric values
// coerce to 0 so that numeric aggregations stay usable with
// partially-typed CSV input.
func NumericValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
