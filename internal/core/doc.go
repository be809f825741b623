// Package core provides the table state engine behind the data grid.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be used by the HTTP server, the gridctl CLI, or tests
// without modification.
//
// # Architecture
//
// The package is organized around four pieces:
//
//   - Validation: [ValidateField] checks one value against a [Column].
//   - View pipeline: [Filter], [Sort] and [Paginate] derive the visible page
//     from the stored rows. [Derive] composes them over a [Snapshot].
//   - Store: [Store] owns rows, columns, the view cursor and edit drafts.
//     Every mutation is an [Action] applied through [Store.Dispatch].
//   - Codec: [ParseRecords] and [Export] convert between CSV and rows.
//
// # Actions
//
// Actions are plain values. Hosts that receive operations by name decode
// them through the action registry:
//
//	a, err := core.DecodeAction("set-search-query", []byte(`{"query":"ali"}`))
//	if err != nil {
//	    return err
//	}
//	res := store.Dispatch(a)
//
// Operations that reference a row or column that does not exist are no-ops
// and report Changed false.
//
// # Editing
//
// Rows are edited through drafts. [Store.StartEditing] copies a row into a
// draft, [Store.UpdateEditingDraft] validates and merges field changes,
// and [Store.SaveEditingRow] or [Store.CancelEditing] close it. Several
// drafts may be open at once; [Store.SaveAllEditing] commits them together.
//
// # Import
//
// [Import] runs a parse in the background and returns an [ImportTask] that
// resolves exactly once. Imports are bounded by an [ImportLimiter]; the
// result is applied with [Store.ReplaceAllData] only when it succeeded.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL001-VAL004: Validation errors (required, number, email, columns)
//   - FILE001-FILE004: File errors (size, format, missing, empty)
//   - IMP001-IMP003: Import errors (busy, cancelled, timeout)
//   - GRID001-GRID003: Store errors (unknown action, payload, snapshot)
//
// # Persistence
//
// [Store.Document] captures rows, columns, sort and cursor. [SaveDocument]
// and [LoadDocument] store it as JSON, and [Store.StartAutosave] writes it
// periodically while the store changes.
package core
