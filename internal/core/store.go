package core

// store.go implements the table state store: the single owner and writer of
// rows, columns, search query, sort spec, view cursor, edit drafts and theme.
//
// Every mutation is an Action applied through Dispatch under the write lock,
// so a transition is never partially visible. Readers take a deep-copied
// Snapshot under the read lock. Operations that reference a missing id are
// silent no-ops; the only errors a dispatch reports are field validation
// errors from draft edits.

import (
	"log/slog"
	"sync"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// Snapshot is a consistent, caller-owned copy of the whole store state.
type Snapshot struct {
	Rows        []Row          `json:"rows"`
	Columns     []Column       `json:"columns"`
	SearchQuery string         `json:"searchQuery"`
	Sort        *SortSpec      `json:"sortSpec"`
	Cursor      ViewCursor     `json:"viewCursor"`
	Drafts      map[string]Row `json:"drafts"`
	Theme       Theme          `json:"theme"`
	Version     uint64         `json:"version"`
}

// Result reports the outcome of one dispatched action.
type Result struct {
	Changed bool              `json:"changed"`
	Version uint64            `json:"version"`
	RowID   string            `json:"rowId,omitempty"` // Id of the row created by add-row
	Errors  []ValidationError `json:"errors,omitempty"`
}

// state is the mutable model. Only actions touch it, always under Store.mu.
type state struct {
	rows        []Row
	columns     []Column
	search      string
	sort        *SortSpec
	cursor      ViewCursor
	drafts      map[string]Row
	theme       Theme
	defaultSize int
	newID       func() string
}

func (st *state) indexOf(id string) int {
	for i := range st.rows {
		if st.rows[i].ID == id {
			return i
		}
	}
	return -1
}

// pruneDrafts drops drafts whose row no longer exists.
func (st *state) pruneDrafts() {
	for id := range st.drafts {
		if st.indexOf(id) < 0 {
			delete(st.drafts, id)
		}
	}
}

// Store is the process-wide table state. Construct it with NewStore and pass
// it by reference; it is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	st      state
	version uint64
	logger  *slog.Logger
}

// StoreOption configures a Store at construction.
type StoreOption func(*Store)

// WithColumns sets the initial column set. An invalid set is ignored.
func WithColumns(columns []Column) StoreOption {
	return func(s *Store) {
		if ValidateColumns(columns) == nil {
			s.st.columns = cloneColumns(columns)
		}
	}
}

// WithRows sets the initial rows.
func WithRows(rows []Row) StoreOption {
	return func(s *Store) {
		s.st.rows = normalizeRows(rows, s.st.newID)
	}
}

// WithPageSize sets the initial and fallback page size.
func WithPageSize(size int) StoreOption {
	return func(s *Store) {
		if size > 0 {
			s.st.defaultSize = size
			s.st.cursor.PageSize = size
		}
	}
}

// WithIDFunc replaces the row id generator.
func WithIDFunc(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.st.newID = fn
		}
	}
}

// WithLogger sets the logger used for action tracing.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns a store holding the default columns and no rows, adjusted
// by opts. Options apply in order, so WithIDFunc should precede WithRows.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		st: state{
			columns:     DefaultColumns(),
			rows:        []Row{},
			cursor:      ViewCursor{Page: 0, PageSize: DefaultPageSize},
			drafts:      make(map[string]Row),
			theme:       ThemeLight,
			defaultSize: DefaultPageSize,
			newID:       NewRowID,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies a as one atomic transition and reports what happened.
func (s *Store) Dispatch(a Action) Result {
	s.mu.Lock()
	out := a.apply(&s.st)
	if out.changed {
		s.version++
	}
	version := s.version
	s.mu.Unlock()

	s.logger.Debug("store action",
		"action", a.Name(),
		"changed", out.changed,
		"version", version,
		"errors", len(out.errs),
	)

	return Result{
		Changed: out.changed,
		Version: version,
		RowID:   out.rowID,
		Errors:  out.errs,
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Rows:        cloneRows(s.st.rows),
		Columns:     cloneColumns(s.st.columns),
		SearchQuery: s.st.search,
		Cursor:      s.st.cursor,
		Drafts:      make(map[string]Row, len(s.st.drafts)),
		Theme:       s.st.theme,
		Version:     s.version,
	}
	if s.st.sort != nil {
		sort := *s.st.sort
		snap.Sort = &sort
	}
	for id, d := range s.st.drafts {
		snap.Drafts[id] = d.Clone()
	}
	return snap
}

// Columns returns a copy of the current column set.
func (s *Store) Columns() []Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneColumns(s.st.columns)
}

// Version returns the number of state-changing transitions so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// View derives the visible page from the current state.
func (s *Store) View() View {
	return Derive(s.Snapshot())
}

// ReplaceAllData replaces every row and returns to the first page.
func (s *Store) ReplaceAllData(rows []Row) Result {
	return s.Dispatch(ReplaceAllData{Rows: rows})
}

// AddRow appends row. An empty id is filled in; a duplicate id is a no-op.
func (s *Store) AddRow(row Row) Result {
	return s.Dispatch(AddRow{Row: &row})
}

// AddBlankRow appends a row with an empty value for every column.
func (s *Store) AddBlankRow() Result {
	return s.Dispatch(AddRow{})
}

// UpdateRow merges fields directly into the row, bypassing drafts.
func (s *Store) UpdateRow(id string, fields map[string]Value) Result {
	return s.Dispatch(UpdateRow{ID: id, Fields: fields})
}

// DeleteRow removes the row with id, if present.
func (s *Store) DeleteRow(id string) Result {
	return s.Dispatch(DeleteRow{ID: id})
}

// SetColumns replaces the column set.
func (s *Store) SetColumns(columns []Column) Result {
	return s.Dispatch(SetColumns{Columns: columns})
}

// AddColumn appends a column definition.
func (s *Store) AddColumn(col Column) Result {
	return s.Dispatch(AddColumn{Column: col})
}

// ToggleColumnVisibility flips the visible flag of column id.
func (s *Store) ToggleColumnVisibility(id string) Result {
	return s.Dispatch(ToggleColumnVisibility{ID: id})
}

// SetSearchQuery sets the free-text filter and returns to the first page.
func (s *Store) SetSearchQuery(query string) Result {
	return s.Dispatch(SetSearchQuery{Query: query})
}

// SetSortSpec replaces the active sort. Nil clears it.
func (s *Store) SetSortSpec(spec *SortSpec) Result {
	return s.Dispatch(SetSortSpec{Spec: spec})
}

// SetPage moves the cursor to page.
func (s *Store) SetPage(page int) Result {
	return s.Dispatch(SetPage{Page: page})
}

// SetPageSize changes the page size and returns to the first page.
func (s *Store) SetPageSize(size int) Result {
	return s.Dispatch(SetPageSize{PageSize: size})
}

// StartEditing opens a draft holding a snapshot of row id.
func (s *Store) StartEditing(id string) Result {
	return s.Dispatch(StartEditing{ID: id})
}

// UpdateEditingDraft merges validated fields into the draft of row id.
func (s *Store) UpdateEditingDraft(id string, fields map[string]Value) Result {
	return s.Dispatch(UpdateEditingDraft{ID: id, Fields: fields})
}

// SaveEditingRow commits the draft of row id.
func (s *Store) SaveEditingRow(id string) Result {
	return s.Dispatch(SaveEditingRow{ID: id})
}

// CancelEditing discards the draft of row id.
func (s *Store) CancelEditing(id string) Result {
	return s.Dispatch(CancelEditing{ID: id})
}

// SaveAllEditing commits every open draft as one batch.
func (s *Store) SaveAllEditing() Result {
	return s.Dispatch(SaveAllEditing{})
}

// CancelAllEditing discards every open draft.
func (s *Store) CancelAllEditing() Result {
	return s.Dispatch(CancelAllEditing{})
}

// ToggleTheme flips between the light and dark theme.
func (s *Store) ToggleTheme() Result {
	return s.Dispatch(ToggleTheme{})
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

func cloneColumns(columns []Column) []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// normalizeRows deep-copies rows, fills in empty ids and drops rows whose id
// was already seen, so ids stay unique.
func normalizeRows(rows []Row, newID func() string) []Row {
	out := make([]Row, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		r = r.Clone()
		if r.ID == "" {
			r.ID = newID()
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
