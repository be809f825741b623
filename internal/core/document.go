package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Document is the persisted part of the store: rows, columns, sort and
// cursor. Drafts, the search query and the theme are session state and are
// never saved.
type Document struct {
	Rows    []Row      `json:"rows"`
	Columns []Column   `json:"columns"`
	Sort    *SortSpec  `json:"sortSpec,omitempty"`
	Cursor  ViewCursor `json:"viewCursor"`
}

// Document returns the persistable part of the current state.
func (s *Store) Document() Document {
	snap := s.Snapshot()
	return Document{
		Rows:    snap.Rows,
		Columns: snap.Columns,
		Sort:    snap.Sort,
		Cursor:  snap.Cursor,
	}
}

// Restore replaces the persisted part of the state with doc and clears open
// drafts and the search query. An invalid column set in doc keeps the current
// columns.
func (s *Store) Restore(doc Document) Result {
	return s.Dispatch(restoreDocument{doc: doc})
}

// SaveDocument writes doc to path as JSON. The file is written next to path
// and renamed into place, so readers never see a partial document.
func SaveDocument(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadDocument reads a document written by SaveDocument. A missing file
// returns an error wrapping fs.ErrNotExist. String values under keys that
// are not columns of the document go back to Row.Extra, where the import
// put them.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read snapshot: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	splitExtras(doc.Rows, doc.Columns)
	return doc, nil
}

func splitExtras(rows []Row, columns []Column) {
	if len(columns) == 0 {
		return
	}
	declared := make(map[string]bool, len(columns))
	for _, c := range columns {
		declared[c.ID] = true
	}
	for i := range rows {
		r := &rows[i]
		for k, v := range r.Fields {
			if declared[k] || v.Kind() != KindString {
				continue
			}
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[k] = v.String()
			delete(r.Fields, k)
		}
	}
}

// IsNoSnapshot reports whether err means no document has been saved yet.
func IsNoSnapshot(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
