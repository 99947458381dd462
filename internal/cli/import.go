package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type importResult struct {
	Vendor   string `json:"vendor"`
	File     string `json:"file"`
	Listings int    `json:"listings"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <vendor> <sheet.xlsx>",
		Short: "Replace a vendor's listings with an .xlsx price sheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return WrapExitError(ExitCommandError, "startup failed", err)
			}
			defer a.Close()

			n, err := a.catalog.ImportFile(cmd.Context(), args[0], args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "import failed", err)
			}

			res := importResult{Vendor: args[0], File: args[1], Listings: n}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d listings for %s\n", n, args[0])
			})
		},
	}
}
