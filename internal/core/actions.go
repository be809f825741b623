package core

// actions.go defines every store operation as a value. Each action's apply
// runs under the store's write lock and must leave the state consistent.

// Action is one atomic store operation.
type Action interface {
	// Name is the stable identifier used by the action registry.
	Name() string
	apply(st *state) outcome
}

type outcome struct {
	changed bool
	rowID   string
	errs    []ValidationError
}

var unchanged = outcome{}

// ReplaceAllData swaps the whole row collection.
type ReplaceAllData struct {
	Rows []Row `json:"rows"`
}

func (ReplaceAllData) Name() string { return "replace-all-data" }

func (a ReplaceAllData) apply(st *state) outcome {
	st.rows = normalizeRows(a.Rows, st.newID)
	st.cursor.Page = 0
	st.pruneDrafts()
	return outcome{changed: true}
}

// AddRow appends a row. A nil Row appends a blank row for the current columns.
type AddRow struct {
	Row *Row `json:"row,omitempty"`
}

func (AddRow) Name() string { return "add-row" }

func (a AddRow) apply(st *state) outcome {
	var row Row
	if a.Row == nil {
		row = NewBlankRow(st.newID(), st.columns)
	} else {
		row = a.Row.Clone()
		if row.ID == "" {
			row.ID = st.newID()
		}
	}
	if st.indexOf(row.ID) >= 0 {
		return unchanged
	}
	st.rows = append(st.rows, row)
	return outcome{changed: true, rowID: row.ID}
}

// UpdateRow merges fields into a row without going through a draft.
type UpdateRow struct {
	ID     string           `json:"id"`
	Fields map[string]Value `json:"data"`
}

func (UpdateRow) Name() string { return "update-row" }

func (a UpdateRow) apply(st *state) outcome {
	i := st.indexOf(a.ID)
	if i < 0 || len(a.Fields) == 0 {
		return unchanged
	}
	st.rows[i].Merge(a.Fields)
	return outcome{changed: true}
}

// DeleteRow removes a row by id.
type DeleteRow struct {
	ID string `json:"id"`
}

func (DeleteRow) Name() string { return "delete-row" }

func (a DeleteRow) apply(st *state) outcome {
	i := st.indexOf(a.ID)
	if i < 0 {
		return unchanged
	}
	st.rows = append(st.rows[:i:i], st.rows[i+1:]...)
	delete(st.drafts, a.ID)
	return outcome{changed: true}
}

// SetColumns replaces the column set. Sets with empty, duplicate or
// mistyped columns are ignored.
type SetColumns struct {
	Columns []Column `json:"columns"`
}

func (SetColumns) Name() string { return "set-columns" }

func (a SetColumns) apply(st *state) outcome {
	if ValidateColumns(a.Columns) != nil {
		return unchanged
	}
	st.columns = cloneColumns(a.Columns)
	return outcome{changed: true}
}

// AddColumn appends a column. A column whose id is already present is ignored.
type AddColumn struct {
	Column Column `json:"column"`
}

func (AddColumn) Name() string { return "add-column" }

func (a AddColumn) apply(st *state) outcome {
	next := append(cloneColumns(st.columns), a.Column)
	if ValidateColumns(next) != nil {
		return unchanged
	}
	st.columns = next
	return outcome{changed: true}
}

// ToggleColumnVisibility flips one column's visible flag.
type ToggleColumnVisibility struct {
	ID string `json:"id"`
}

func (ToggleColumnVisibility) Name() string { return "toggle-column-visibility" }

func (a ToggleColumnVisibility) apply(st *state) outcome {
	for i := range st.columns {
		if st.columns[i].ID == a.ID {
			st.columns[i].Visible = !st.columns[i].Visible
			return outcome{changed: true}
		}
	}
	return unchanged
}

// SetSearchQuery sets the filter text and resets the page.
type SetSearchQuery struct {
	Query string `json:"query"`
}

func (SetSearchQuery) Name() string { return "set-search-query" }

func (a SetSearchQuery) apply(st *state) outcome {
	if st.search == a.Query && st.cursor.Page == 0 {
		return unchanged
	}
	st.search = a.Query
	st.cursor.Page = 0
	return outcome{changed: true}
}

// SetSortSpec replaces the active sort. Whether the field is sortable is the
// caller's concern.
type SetSortSpec struct {
	Spec *SortSpec `json:"sort"`
}

func (SetSortSpec) Name() string { return "set-sort-spec" }

func (a SetSortSpec) apply(st *state) outcome {
	if a.Spec == nil {
		if st.sort == nil {
			return unchanged
		}
		st.sort = nil
		return outcome{changed: true}
	}
	spec := *a.Spec
	if spec.Direction != SortDesc {
		spec.Direction = SortAsc
	}
	if st.sort != nil && *st.sort == spec {
		return unchanged
	}
	st.sort = &spec
	return outcome{changed: true}
}

// SetPage moves the cursor. Negative pages clamp to the first page.
type SetPage struct {
	Page int `json:"page"`
}

func (SetPage) Name() string { return "set-page" }

func (a SetPage) apply(st *state) outcome {
	page := max(a.Page, 0)
	if st.cursor.Page == page {
		return unchanged
	}
	st.cursor.Page = page
	return outcome{changed: true}
}

// SetPageSize changes the rows per page and resets the page. Non-positive
// sizes are ignored.
type SetPageSize struct {
	PageSize int `json:"pageSize"`
}

func (SetPageSize) Name() string { return "set-page-size" }

func (a SetPageSize) apply(st *state) outcome {
	if a.PageSize <= 0 {
		return unchanged
	}
	if st.cursor.PageSize == a.PageSize && st.cursor.Page == 0 {
		return unchanged
	}
	st.cursor = ViewCursor{Page: 0, PageSize: a.PageSize}
	return outcome{changed: true}
}

// StartEditing opens (or resets) the draft of a row to a copy of the row.
type StartEditing struct {
	ID string `json:"id"`
}

func (StartEditing) Name() string { return "start-editing" }

func (a StartEditing) apply(st *state) outcome {
	i := st.indexOf(a.ID)
	if i < 0 {
		return unchanged
	}
	st.drafts[a.ID] = st.rows[i].Clone()
	return outcome{changed: true}
}

// UpdateEditingDraft merges fields into a draft. Fields that belong to a
// declared column are validated and coerced first; if any fails the draft
// is left as it was and the errors are returned.
type UpdateEditingDraft struct {
	ID     string           `json:"id"`
	Fields map[string]Value `json:"data"`
}

func (UpdateEditingDraft) Name() string { return "update-editing-draft" }

func (a UpdateEditingDraft) apply(st *state) outcome {
	draft, ok := st.drafts[a.ID]
	if !ok || len(a.Fields) == 0 {
		return unchanged
	}

	coerced := make(map[string]Value, len(a.Fields))
	var errs []ValidationError
	for _, col := range st.columns {
		v, ok := a.Fields[col.ID]
		if !ok {
			continue
		}
		if err := ValidateField(v, col); err != nil {
			errs = append(errs, err.(ValidationError))
			continue
		}
		if v.Kind() == KindString {
			v = CoerceValue(v.String(), col)
		}
		coerced[col.ID] = v
	}
	if len(errs) > 0 {
		return outcome{errs: errs}
	}
	for k, v := range a.Fields {
		if _, declared := coerced[k]; !declared {
			coerced[k] = v
		}
	}

	draft.Merge(coerced)
	st.drafts[a.ID] = draft
	return outcome{changed: true}
}

// SaveEditingRow replaces a row wholesale with its draft and closes the draft.
type SaveEditingRow struct {
	ID string `json:"id"`
}

func (SaveEditingRow) Name() string { return "save-editing-row" }

func (a SaveEditingRow) apply(st *state) outcome {
	draft, ok := st.drafts[a.ID]
	if !ok {
		return unchanged
	}
	if i := st.indexOf(a.ID); i >= 0 {
		st.rows[i] = draft
	}
	delete(st.drafts, a.ID)
	return outcome{changed: true}
}

// CancelEditing discards a draft, leaving the row untouched.
type CancelEditing struct {
	ID string `json:"id"`
}

func (CancelEditing) Name() string { return "cancel-editing" }

func (a CancelEditing) apply(st *state) outcome {
	if _, ok := st.drafts[a.ID]; !ok {
		return unchanged
	}
	delete(st.drafts, a.ID)
	return outcome{changed: true}
}

// SaveAllEditing commits every draft in one transition.
type SaveAllEditing struct{}

func (SaveAllEditing) Name() string { return "save-all-editing" }

func (SaveAllEditing) apply(st *state) outcome {
	if len(st.drafts) == 0 {
		return unchanged
	}
	for id, draft := range st.drafts {
		if i := st.indexOf(id); i >= 0 {
			st.rows[i] = draft
		}
	}
	st.drafts = make(map[string]Row)
	return outcome{changed: true}
}

// CancelAllEditing discards every draft.
type CancelAllEditing struct{}

func (CancelAllEditing) Name() string { return "cancel-all-editing" }

func (CancelAllEditing) apply(st *state) outcome {
	if len(st.drafts) == 0 {
		return unchanged
	}
	st.drafts = make(map[string]Row)
	return outcome{changed: true}
}

// ToggleTheme flips the presentation theme.
type ToggleTheme struct{}

func (ToggleTheme) Name() string { return "toggle-theme" }

func (ToggleTheme) apply(st *state) outcome {
	if st.theme == ThemeDark {
		st.theme = ThemeLight
	} else {
		st.theme = ThemeDark
	}
	return outcome{changed: true}
}

// restoreDocument loads a persisted document, discarding drafts and the
// search query that were never part of it.
type restoreDocument struct {
	doc Document
}

func (restoreDocument) Name() string { return "restore-document" }

func (a restoreDocument) apply(st *state) outcome {
	if len(a.doc.Columns) > 0 && ValidateColumns(a.doc.Columns) == nil {
		st.columns = cloneColumns(a.doc.Columns)
	}
	st.rows = normalizeRows(a.doc.Rows, st.newID)
	st.sort = nil
	if a.doc.Sort != nil {
		spec := *a.doc.Sort
		st.sort = &spec
	}
	st.cursor = a.doc.Cursor
	if st.cursor.PageSize <= 0 {
		st.cursor.PageSize = st.defaultSize
	}
	st.cursor.Page = max(st.cursor.Page, 0)
	st.search = ""
	st.drafts = make(map[string]Row)
	return outcome{changed: true}
}
