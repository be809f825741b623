package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datagrid/internal/core"
)

var errValidationFailed = errors.New("validation failed")

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a CSV file against the column set",
		Long: `Parses FILE ("-" for stdin) exactly as an import would and reports every
row error. Exits non-zero when the file would not import cleanly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeInput, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeInput()

			res := core.ParseRecords(r, opts.columns)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(struct {
					Success bool               `json:"success"`
					Rows    int                `json:"rows"`
					Errors  []core.ImportError `json:"errors"`
				}{res.Success, len(res.Data), res.Errors}); err != nil {
					return err
				}
			} else {
				printErrors(cmd, res.Errors)
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows valid, %d errors\n", len(res.Data), len(res.Errors))
			}

			if !res.Success {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
