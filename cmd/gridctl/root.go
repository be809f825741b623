package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datagrid/internal/config"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/logging"
)

// rootOptions holds the persistent flags and what PersistentPreRunE derives
// from them.
type rootOptions struct {
	columnsPath string
	logLevel    string

	columns []core.Column
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gridctl",
		Short: "Validate, import and export table CSV files",
		Long: `gridctl checks CSV files against a column set and moves rows between CSV
files and snapshot documents. Snapshots are the JSON documents the server
restores on startup and autosaves while running.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// stdout may carry CSV, so logs go to stderr
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))

			opts.columns = core.DefaultColumns()
			if opts.columnsPath == "" {
				return nil
			}
			columns, err := config.LoadColumns(opts.columnsPath)
			if err != nil {
				return err
			}
			opts.columns = columns
			slog.Debug("columns loaded", "file", opts.columnsPath, "count", len(columns))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.columnsPath, "columns", "", "path to a YAML column set (default: built-in columns)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newValidateCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// loadStore returns a store holding the snapshot at path. When no snapshot
// exists yet it returns a fresh store over the root columns, unless mustExist
// is set. An explicit --columns replaces the snapshot's columns.
func (o *rootOptions) loadStore(path string, mustExist bool) (*core.Store, error) {
	store := core.NewStore(core.WithColumns(o.columns), core.WithLogger(slog.Default()))

	doc, err := core.LoadDocument(path)
	switch {
	case err == nil:
		store.Restore(doc)
		if o.columnsPath != "" {
			store.SetColumns(o.columns)
		}
	case core.IsNoSnapshot(err) && mustExist:
		return nil, err
	case core.IsNoSnapshot(err):
		slog.Info("no snapshot found, starting fresh", "path", path)
	default:
		return nil, err
	}
	return store, nil
}

// openInput opens path for reading; "-" is stdin.
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// printErrors writes import errors one per line.
func printErrors(cmd *cobra.Command, errs []core.ImportError) {
	w := cmd.ErrOrStderr()
	for _, e := range errs {
		if e.Row == 0 {
			fmt.Fprintf(w, "file: %s\n", e.Message)
			continue
		}
		fmt.Fprintf(w, "row %d: %s\n", e.Row, e.Message)
	}
}
