package core

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NewRowID returns a fresh row id. UUIDv7 ids are time ordered and
// monotonic within the process, so two calls never collide.
func NewRowID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewBlankRow returns a row with the given id and an empty string for every
// column, the starting point of an add-row from the toolbar.
func NewBlankRow(id string, columns []Column) Row {
	row := Row{ID: id, Fields: make(map[string]Value, len(columns))}
	for _, c := range columns {
		row.Fields[c.ID] = StringValue("")
	}
	return row
}

// ColumnIDFromLabel derives a column id from a display label:
// lower-cased, with whitespace runs replaced by underscores.
func ColumnIDFromLabel(label string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "_")
}
