package core

// codec.go converts between delimited text and rows.
//
// Import reads a header row followed by data rows. Header cells match columns
// by id or label, case-insensitively. Every data row is validated against
// every column; all field errors are collected and a row with any error is
// left out, while later rows are still processed. Source fields that match no
// column are carried through verbatim.
//
// Export writes the visible columns, labels as the header, one line per row.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseRecords reads delimited text from r and validates it against columns.
func ParseRecords(r io.Reader, columns []Column) ImportResult {
	return parseRecords(r, columns, NewRowID)
}

func parseRecords(r io.Reader, columns []Column, newID func() string) ImportResult {
	header, records, err := readAll(r)
	if err != nil {
		return parseFailure(err)
	}

	idx := matchHeader(header, columns)

	var (
		accepted = make([]Row, 0, len(records))
		errs     []ImportError
	)
	for i, rec := range records {
		rowNum := i + 1
		rowErrs := 0

		for _, col := range columns {
			raw, present := cell(rec, idx.position(col.ID))
			value := Value{}
			if present {
				value = StringValue(raw)
			}
			if err := ValidateField(value, col); err != nil {
				var ve ValidationError
				errors.As(err, &ve)
				errs = append(errs, ImportError{
					Row:     rowNum,
					Field:   col.ID,
					Value:   raw,
					Message: ve.Message,
				})
				rowErrs++
			}
		}
		if rowErrs > 0 {
			continue
		}

		row := Row{ID: newID(), Fields: make(map[string]Value, len(columns))}
		for _, col := range columns {
			raw, present := cell(rec, idx.position(col.ID))
			if !present {
				row.Fields[col.ID] = StringValue("")
				continue
			}
			row.Fields[col.ID] = CoerceValue(raw, col)
		}
		for pos, name := range idx.extra {
			raw, present := cell(rec, pos)
			if !present {
				continue
			}
			if row.Extra == nil {
				row.Extra = make(map[string]string, len(idx.extra))
			}
			row.Extra[name] = raw
		}
		accepted = append(accepted, row)
	}

	return ImportResult{
		Success: len(errs) == 0,
		Data:    accepted,
		Errors:  errs,
	}
}

// readAll parses the whole source first, so a structural error anywhere
// fails the import before any row is validated.
func readAll(r io.Reader) ([]string, [][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, err
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return header, records, nil
}

func parseFailure(err error) ImportResult {
	return ImportResult{
		Success: false,
		Errors: []ImportError{{
			Row:     0,
			Message: fmt.Sprintf("CSV parsing failed: %v", err),
		}},
	}
}

// headerIndex maps columns and leftover source fields to record positions.
type headerIndex struct {
	columns map[string]int // column id -> position
	extra   map[int]string // position -> source header name
}

func matchHeader(header []string, columns []Column) headerIndex {
	idx := headerIndex{
		columns: make(map[string]int, len(columns)),
		extra:   make(map[int]string),
	}
	claimed := make(map[int]bool, len(header))

	for _, col := range columns {
		id := strings.ToLower(col.ID)
		label := strings.ToLower(strings.TrimSpace(col.Label))
		for pos, h := range header {
			if claimed[pos] {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(h))
			if key == id || (label != "" && key == label) {
				idx.columns[col.ID] = pos
				claimed[pos] = true
				break
			}
		}
	}

	seen := make(map[string]bool)
	for pos, h := range header {
		name := strings.TrimSpace(h)
		if claimed[pos] || name == "" || strings.EqualFold(name, "id") || seen[name] {
			continue
		}
		seen[name] = true
		idx.extra[pos] = name
	}
	return idx
}

// position returns the record position of column id, or -1 when the header
// has no matching cell.
func (h headerIndex) position(id string) int {
	if pos, ok := h.columns[id]; ok {
		return pos
	}
	return -1
}

// cell returns the field at pos, if the record has one.
func cell(rec []string, pos int) (string, bool) {
	if pos < 0 || pos >= len(rec) {
		return "", false
	}
	return rec[pos], true
}

// Export writes rows as CSV with the visible columns of columns, their labels
// as the header. Empty cells are written as "".
func Export(w io.Writer, rows []Row, columns []Column) error {
	visible := VisibleColumns(columns)

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := make([]string, len(visible))
	for i, col := range visible {
		header[i] = col.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(visible))
	for _, row := range rows {
		for i, col := range visible {
			record[i] = row.Get(col.ID).String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportBytes returns the Export payload as bytes.
func ExportBytes(rows []Row, columns []Column) ([]byte, error) {
	var b strings.Builder
	if err := Export(&b, rows, columns); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// ExportFilename returns the default download name for an export made at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("table_export_%s.csv", t.UTC().Format("2006-01-02"))
}

// WriteTemplate writes a header-only CSV listing every column label, for
// users preparing a file to import.
func WriteTemplate(w io.Writer, columns []Column) error {
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Label
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(header); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
