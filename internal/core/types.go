// Package core provides the table state engine for the data grid.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"fmt"
)

// ColumnType is the declared data type of a column.
type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
	ColumnEmail  ColumnType = "email"
)

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnText, ColumnNumber, ColumnEmail:
		return true
	}
	return false
}

// Column describes one field of every row.
type Column struct {
	ID       string     `json:"id" yaml:"id"`             // Stable key, unique within the column set
	Label    string     `json:"label" yaml:"label"`       // Display name, also the export header
	Type     ColumnType `json:"type" yaml:"type"`         // Declared type used by validation
	Visible  bool       `json:"visible" yaml:"visible"`   // Shown in the view and exported
	Sortable bool       `json:"sortable" yaml:"sortable"` // Header click may sort by it
	Editable bool       `json:"editable" yaml:"editable"` // Cell may be edited inline
	Required bool       `json:"required" yaml:"required"` // Value must be non-empty on commit
}

// Row is one record of the table: a fixed id, values for declared fields and
// the verbatim extra fields an import carried along.
type Row struct {
	ID     string
	Fields map[string]Value
	Extra  map[string]string
}

// Get returns the value stored under field. The "id" field resolves to the
// row id; unknown fields are empty.
func (r Row) Get(field string) Value {
	if field == "id" {
		return StringValue(r.ID)
	}
	if v, ok := r.Fields[field]; ok {
		return v
	}
	if s, ok := r.Extra[field]; ok {
		return StringValue(s)
	}
	return Value{}
}

// Set stores v under field in Fields, dropping any extra field of the same
// name. Setting "id" is ignored: row identity never changes.
func (r *Row) Set(field string, v Value) {
	if field == "id" {
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]Value)
	}
	r.Fields[field] = v
	delete(r.Extra, field)
}

// Merge sets every entry of fields on the row.
func (r *Row) Merge(fields map[string]Value) {
	for k, v := range fields {
		r.Set(k, v)
	}
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := Row{ID: r.ID}
	if r.Fields != nil {
		out.Fields = make(map[string]Value, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Equal reports whether two rows hold the same id and field values.
func (r Row) Equal(o Row) bool {
	if r.ID != o.ID || len(r.Fields) != len(o.Fields) || len(r.Extra) != len(o.Extra) {
		return false
	}
	for k, v := range r.Fields {
		ov, ok := o.Fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	for k, v := range r.Extra {
		if ov, ok := o.Extra[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the row as a flat object keyed by field name.
func (r Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 1+len(r.Fields)+len(r.Extra))
	for k, v := range r.Extra {
		m[k] = v
	}
	for k, v := range r.Fields {
		m[k] = v
	}
	m["id"] = r.ID
	return json.Marshal(m)
}

// UnmarshalJSON decodes a flat object. Every key other than "id" lands in
// Fields; LoadDocument moves the extras back once the columns are known. A
// missing id decodes as "", which the store replaces with a fresh one.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	id := raw["id"]
	delete(raw, "id")
	if raw == nil {
		raw = make(map[string]Value)
	}
	*r = Row{ID: id.String(), Fields: raw}
	return nil
}

// SortDirection is the ordering of an active sort.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec is the single active sort. A nil *SortSpec means unsorted.
type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// ViewCursor selects the visible page of the derived data.
type ViewCursor struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Theme is the presentation theme flag kept alongside the table state.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ImportError describes one field of one source row that failed validation.
// Row is the 1-based data row index; 0 marks a whole-file parse failure.
type ImportError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ImportResult is the terminal outcome of an import.
type ImportResult struct {
	Success bool          `json:"success"`
	Data    []Row         `json:"data,omitempty"`
	Errors  []ImportError `json:"errors,omitempty"`
}

// ValidateColumns checks that a column set has non-empty unique ids and
// known types.
func ValidateColumns(columns []Column) error {
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if c.ID == "" {
			return fmt.Errorf("%w: column %d has an empty id", ErrInvalidColumns, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate column id %q", ErrInvalidColumns, c.ID)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalidColumns, c.ID, c.Type)
		}
		seen[c.ID] = true
	}
	return nil
}

// VisibleColumns returns the visible columns in column order.
func VisibleColumns(columns []Column) []Column {
	out := make([]Column, 0, len(columns))
	for _, c := range columns {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}

// FindColumn returns the column with id.
func FindColumn(columns []Column, id string) (Column, bool) {
	for _, c := range columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}
