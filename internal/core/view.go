package core

// view.go derives the visible slice of the table: filter, then sort, then
// paginate. Every stage is a pure function over a borrowed slice and returns
// a new slice; nothing is cached between reads.

import (
	"slices"
	"strings"
)

// View is the derived, render-ready state for one read of the store.
type View struct {
	Columns   []Column `json:"columns"`   // Visible columns in order
	Rows      []Row    `json:"rows"`      // Current page
	Total     int      `json:"total"`     // Rows matching the search query
	Page      int      `json:"page"`      // Current page index
	PageSize  int      `json:"pageSize"`  // Rows per page
	PageCount int      `json:"pageCount"` // Number of pages for Total
	Editing   []string `json:"editing"`   // Ids on this page with an open draft
}

// Filter keeps rows where any field, id included, contains query as a
// case-insensitive substring. A blank query keeps every row.
func Filter(rows []Row, query string) []Row {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(rows)
	}

	q := strings.ToLower(query)
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if rowMatches(row, q) {
			out = append(out, row)
		}
	}
	return out
}

func rowMatches(row Row, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(row.ID), lowerQuery) {
		return true
	}
	for _, v := range row.Fields {
		if !v.IsNull() && strings.Contains(strings.ToLower(v.String()), lowerQuery) {
			return true
		}
	}
	for _, s := range row.Extra {
		if strings.Contains(strings.ToLower(s), lowerQuery) {
			return true
		}
	}
	return false
}

// Sort orders rows by spec. A nil spec keeps the input order.
// The sort is stable: rows with equal keys keep their relative order in both
// directions.
func Sort(rows []Row, spec *SortSpec) []Row {
	out := slices.Clone(rows)
	if spec == nil {
		return out
	}
	desc := spec.Direction == SortDesc
	slices.SortStableFunc(out, func(a, b Row) int {
		return compareValues(a.Get(spec.Field), b.Get(spec.Field), desc)
	})
	return out
}

// compareValues orders two cells. Nulls go last ascending and first
// descending; two numbers compare numerically, anything else compares as
// lower-cased text.
func compareValues(a, b Value, desc bool) int {
	sign := 1
	if desc {
		sign = -1
	}

	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return sign
	case b.IsNull():
		return -sign
	}

	if an, ok := a.Number(); ok {
		if bn, ok := b.Number(); ok {
			switch {
			case an < bn:
				return -sign
			case an > bn:
				return sign
			}
			return 0
		}
	}

	return sign * strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
}

// Paginate returns rows [page*size, page*size+size). Pages past the end, or a
// non-positive size, yield an empty slice.
func Paginate(rows []Row, page, size int) []Row {
	if page < 0 || size <= 0 {
		return []Row{}
	}
	start := page * size
	if start >= len(rows) {
		return []Row{}
	}
	end := min(start+size, len(rows))
	return slices.Clone(rows[start:end])
}

// PageCount returns how many pages of size are needed for total rows.
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Derive runs the full pipeline over a snapshot.
func Derive(snap Snapshot) View {
	filtered := Filter(snap.Rows, snap.SearchQuery)
	sorted := Sort(filtered, snap.Sort)
	page := Paginate(sorted, snap.Cursor.Page, snap.Cursor.PageSize)

	editing := make([]string, 0)
	for _, row := range page {
		if _, ok := snap.Drafts[row.ID]; ok {
			editing = append(editing, row.ID)
		}
	}

	return View{
		Columns:   VisibleColumns(snap.Columns),
		Rows:      page,
		Total:     len(filtered),
		Page:      snap.Cursor.Page,
		PageSize:  snap.Cursor.PageSize,
		PageCount: PageCount(len(filtered), snap.Cursor.PageSize),
		Editing:   editing,
	}
}

// DeriveAll filters and sorts a snapshot without paginating.
func DeriveAll(snap Snapshot) []Row {
	return Sort(Filter(snap.Rows, snap.SearchQuery), snap.Sort)
}
