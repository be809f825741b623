package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/datagrid/internal/core"
)

const peopleCSV = "Name,Email,Age,Role\r\n" +
	"Zed,zed@example.com,40,Developer\r\n" +
	"Amy,amy@example.com,25,Designer\r\n" +
	"Bob,bob@example.com,33,Developer\r\n"

const brokenCSV = "Name,Email,Age\r\n" +
	",nobody@example.com,20\r\n" +
	"Zed,zed@example.com,forty\r\n" +
	"Amy,amy@example.com,25\r\n"

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantErr    bool
		wantOut    string
		wantStderr []string
	}{
		{"clean", peopleCSV, false, "3 rows valid, 0 errors", nil},
		{"row errors", brokenCSV, true, "1 rows valid, 2 errors", []string{"row 1:", "row 2:"}},
		{"empty file", "", true, "0 rows valid, 1 errors", []string{"file:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "in.csv", tt.content)
			stdout, stderr, err := run(t, "", "validate", path)

			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errValidationFailed) {
				t.Errorf("err = %v, want errValidationFailed", err)
			}
			if !strings.Contains(stdout, tt.wantOut) {
				t.Errorf("stdout = %q, want %q", stdout, tt.wantOut)
			}
			for _, want := range tt.wantStderr {
				if !strings.Contains(stderr, want) {
					t.Errorf("stderr = %q, missing %q", stderr, want)
				}
			}
		})
	}
}

func TestValidate_StdinAndJSON(t *testing.T) {
	stdout, _, err := run(t, peopleCSV, "validate", "--json", "-")
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if !strings.Contains(stdout, `"success": true`) || !strings.Contains(stdout, `"rows": 3`) {
		t.Errorf("stdout = %s", stdout)
	}
}

func TestValidate_CustomColumns(t *testing.T) {
	columns := writeFile(t, "columns.yaml", "columns:\n  - label: SKU\n    required: true\n  - label: Price\n    type: number\n")
	in := writeFile(t, "in.csv", "SKU,Price\r\nA1,9.99\r\nA2,cheap\r\n")

	stdout, stderr, err := run(t, "", "--columns", columns, "validate", in)
	if !errors.Is(err, errValidationFailed) {
		t.Fatalf("err = %v, want errValidationFailed", err)
	}
	if !strings.Contains(stdout, "1 rows valid, 1 errors") || !strings.Contains(stderr, "row 2:") {
		t.Errorf("stdout = %q, stderr = %q", stdout, stderr)
	}
}

func TestImportThenExport(t *testing.T) {
	in := writeFile(t, "in.csv", peopleCSV)
	snapshot := filepath.Join(t.TempDir(), "data", "grid.json")

	stdout, _, err := run(t, "", "import", in, "--snapshot", snapshot)
	if err != nil {
		t.Fatalf("import error: %v", err)
	}
	if !strings.Contains(stdout, "imported 3 rows") {
		t.Errorf("stdout = %q", stdout)
	}

	doc, err := core.LoadDocument(snapshot)
	if err != nil {
		t.Fatalf("LoadDocument error: %v", err)
	}
	if len(doc.Rows) != 3 {
		t.Fatalf("snapshot has %d rows, want 3", len(doc.Rows))
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "stored order",
			want: "Name,Email,Age,Role\r\n" +
				"Zed,zed@example.com,40,Developer\r\n" +
				"Amy,amy@example.com,25,Designer\r\n" +
				"Bob,bob@example.com,33,Developer\r\n",
		},
		{
			name: "search and sort",
			args: []string{"--search", "developer", "--sort", "age:desc"},
			want: "Name,Email,Age,Role\r\n" +
				"Zed,zed@example.com,40,Developer\r\n" +
				"Bob,bob@example.com,33,Developer\r\n",
		},
		{
			name: "sort ascending by default",
			args: []string{"--sort", "age"},
			want: "Name,Email,Age,Role\r\n" +
				"Amy,amy@example.com,25,Designer\r\n" +
				"Bob,bob@example.com,33,Developer\r\n" +
				"Zed,zed@example.com,40,Developer\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"export", "--snapshot", snapshot}, tt.args...)
			stdout, _, err := run(t, "", args...)
			if err != nil {
				t.Fatalf("export error: %v", err)
			}
			if stdout != tt.want {
				t.Errorf("export =\n%q\nwant\n%q", stdout, tt.want)
			}
		})
	}
}

func TestExport_ToFile(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "grid.json")
	if err := core.SaveDocument(snapshot, core.Document{Rows: core.SampleRows(), Columns: core.DefaultColumns()}); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "out.csv")

	_, stderr, err := run(t, "", "export", "--snapshot", snapshot, "--out", out)
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	if !strings.Contains(stderr, "exported 5 rows") {
		t.Errorf("stderr = %q", stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Name,Email,Age,Role\r\nJohn Doe,") {
		t.Errorf("file = %q", data)
	}
}

func TestImport_RowErrors(t *testing.T) {
	in := writeFile(t, "in.csv", brokenCSV)

	t.Run("rejected without allow-partial", func(t *testing.T) {
		snapshot := filepath.Join(t.TempDir(), "grid.json")
		_, stderr, err := run(t, "", "import", in, "--snapshot", snapshot)
		if !errors.Is(err, errValidationFailed) {
			t.Fatalf("err = %v, want errValidationFailed", err)
		}
		if !strings.Contains(stderr, "row 1:") {
			t.Errorf("stderr = %q", stderr)
		}
		if _, err := os.Stat(snapshot); !os.IsNotExist(err) {
			t.Errorf("snapshot written for a rejected import: %v", err)
		}
	})

	t.Run("allow-partial keeps valid rows", func(t *testing.T) {
		snapshot := filepath.Join(t.TempDir(), "grid.json")
		_, _, err := run(t, "", "import", in, "--snapshot", snapshot, "--allow-partial")
		if err != nil {
			t.Fatalf("import error: %v", err)
		}
		doc, err := core.LoadDocument(snapshot)
		if err != nil {
			t.Fatal(err)
		}
		if len(doc.Rows) != 1 || doc.Rows[0].Get("name").String() != "Amy" {
			t.Errorf("rows = %+v", doc.Rows)
		}
	})
}

func TestExport_Errors(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "grid.json")
	if err := core.SaveDocument(snapshot, core.Document{Rows: core.SampleRows(), Columns: core.DefaultColumns()}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"missing snapshot flag", []string{"export"}},
		{"missing snapshot file", []string{"export", "--snapshot", filepath.Join(t.TempDir(), "none.json")}},
		{"unknown sort field", []string{"export", "--snapshot", snapshot, "--sort", "salary"}},
		{"bad direction", []string{"export", "--snapshot", snapshot, "--sort", "age:sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, "", tt.args...); err == nil {
				t.Error("export succeeded, want error")
			}
		})
	}
}

func TestParseSort(t *testing.T) {
	columns := []core.Column{
		{ID: "age", Label: "Age", Type: core.ColumnNumber, Sortable: true},
		{ID: "notes", Label: "Notes", Type: core.ColumnText},
	}

	tests := []struct {
		in      string
		want    core.SortSpec
		wantErr bool
	}{
		{"age", core.SortSpec{Field: "age", Direction: core.SortAsc}, false},
		{"age:DESC", core.SortSpec{Field: "age", Direction: core.SortDesc}, false},
		{" age : asc", core.SortSpec{Field: "age", Direction: core.SortAsc}, false},
		{"notes", core.SortSpec{}, true},
		{"missing", core.SortSpec{}, true},
		{"age:up", core.SortSpec{}, true},
	}

	for _, tt := range tests {
		got, err := parseSort(tt.in, columns)
		if tt.wantErr != (err != nil) {
			t.Errorf("parseSort(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSort(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
