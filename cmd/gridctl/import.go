package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datagrid/internal/core"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		snapshotPath string
		allowPartial bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace a snapshot's rows with a CSV file",
		Long: `Imports FILE ("-" for stdin) against the snapshot's columns and writes the
rows back to the snapshot, creating it if needed. A file with row errors is
rejected unless --allow-partial is set, in which case the valid rows are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.loadStore(snapshotPath, false)
			if err != nil {
				return err
			}

			r, closeInput, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeInput()

			ctx := cmd.Context()
			res, err := core.Import(ctx, r, store.Columns()).Wait(ctx)
			if err != nil {
				return err
			}
			printErrors(cmd, res.Errors)

			if !res.Success && !(allowPartial && len(res.Data) > 0) {
				return fmt.Errorf("%w: %d errors, snapshot unchanged", errValidationFailed, len(res.Errors))
			}

			store.ReplaceAllData(res.Data)
			if err := core.SaveDocument(snapshotPath, store.Document()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s\n", len(res.Data), snapshotPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot document to write (required)")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "keep the valid rows of a file with row errors")
	cmd.MarkFlagRequired("snapshot")
	return cmd
}
