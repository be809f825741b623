package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datagrid/internal/core"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		snapshotPath string
		outPath      string
		search       string
		sortFlag     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot's rows as CSV",
		Long: `Exports the visible columns of a snapshot as CSV. Rows come out filtered by
--search and ordered by --sort (FIELD or FIELD:asc|desc); without --sort the
snapshot's own sort applies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.loadStore(snapshotPath, true)
			if err != nil {
				return err
			}

			if sortFlag != "" {
				spec, err := parseSort(sortFlag, store.Columns())
				if err != nil {
					return err
				}
				store.SetSortSpec(&spec)
			}
			store.SetSearchQuery(search)

			snap := store.Snapshot()
			rows := core.DeriveAll(snap)

			if outPath == "" || outPath == "-" {
				return core.Export(cmd.OutOrStdout(), rows, snap.Columns)
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			if err := core.Export(f, rows, snap.Columns); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing output file: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d rows to %s\n", len(rows), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot document to read (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&search, "search", "", "keep rows containing this text in any field")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "sort as FIELD or FIELD:asc|desc")
	cmd.MarkFlagRequired("snapshot")
	return cmd
}

// parseSort reads FIELD[:asc|desc]. The field must be a sortable column.
func parseSort(s string, columns []core.Column) (core.SortSpec, error) {
	field, dir, hasDir := strings.Cut(s, ":")
	spec := core.SortSpec{Field: strings.TrimSpace(field), Direction: core.SortAsc}

	col, ok := core.FindColumn(columns, spec.Field)
	if !ok {
		return core.SortSpec{}, fmt.Errorf("unknown sort field %q", spec.Field)
	}
	if !col.Sortable {
		return core.SortSpec{}, fmt.Errorf("column %q is not sortable", spec.Field)
	}

	if hasDir {
		switch core.SortDirection(strings.ToLower(strings.TrimSpace(dir))) {
		case core.SortAsc:
		case core.SortDesc:
			spec.Direction = core.SortDesc
		default:
			return core.SortSpec{}, fmt.Errorf("invalid sort direction %q, want asc or desc", dir)
		}
	}
	return spec, nil
}
