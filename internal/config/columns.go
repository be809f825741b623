package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/datagrid/internal/core"
)

// columnsFile is the YAML layout of a column set:
//
//	columns:
//	  - label: Name
//	    type: text
//	    required: true
//	  - id: age
//	    label: Age
//	    type: number
//	    visible: false
type columnsFile struct {
	Columns []columnEntry `yaml:"columns"`
}

// columnEntry uses pointers so omitted flags take their defaults.
type columnEntry struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Type     string `yaml:"type"`
	Visible  *bool  `yaml:"visible"`
	Sortable *bool  `yaml:"sortable"`
	Editable *bool  `yaml:"editable"`
	Required bool   `yaml:"required"`
}

// LoadColumns reads a column set from a YAML file.
// A missing id is derived from the label, a missing type is text, and
// visible, sortable and editable default to true.
func LoadColumns(path string) ([]core.Column, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read columns file: %w", err)
	}
	return ParseColumns(data)
}

// ParseColumns decodes a YAML column set. See LoadColumns.
func ParseColumns(data []byte) ([]core.Column, error) {
	var f columnsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	if len(f.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns defined", core.ErrInvalidColumns)
	}

	columns := make([]core.Column, 0, len(f.Columns))
	for _, e := range f.Columns {
		col := core.Column{
			ID:       e.ID,
			Label:    e.Label,
			Type:     core.ColumnType(e.Type),
			Visible:  boolOr(e.Visible, true),
			Sortable: boolOr(e.Sortable, true),
			Editable: boolOr(e.Editable, true),
			Required: e.Required,
		}
		if col.ID == "" {
			col.ID = core.ColumnIDFromLabel(col.Label)
		}
		if col.Label == "" {
			col.Label = col.ID
		}
		if col.Type == "" {
			col.Type = core.ColumnText
		}
		columns = append(columns, col)
	}

	if err := core.ValidateColumns(columns); err != nil {
		return nil, err
	}
	return columns, nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
