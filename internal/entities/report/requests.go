package report

// PivotRequest is the body of the pivot and chart endpoints. Table
// selects a named secondary dataset; empty means the primary one.
type PivotRequest struct {
	Table  string       `json:"table,omitempty"`
	Theme  string       `json:"theme,omitempty"`
	Config *PivotConfig `json:"config" validate:"required"`
}

// ExportRequest adds a document title for CSV/PDF export.
type ExportRequest struct {
	Table  string       `json:"table,omitempty"`
	Title  string       `json:"title"`
	Config *PivotConfig `json:"config" validate:"required"`
}
