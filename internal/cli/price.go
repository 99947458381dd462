package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// NewPriceCommand creates the price command.
func NewPriceCommand(rootOpts *RootOptions) *cobra.Command {
	var sku string

	cmd := &cobra.Command{
		Use:   "price <manufacturer> <model...>",
		Short: "Aggregate vendor offers for a part",
		Example: `  pcbuilder price AMD Ryzen 7 7800X3D
  pcbuilder price --format json NVIDIA RTX 4070 Super`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			part := entity.PartIdentity{
				Manufacturer: args[0],
				Model:        strings.Join(args[1:], " "),
				SKU:          sku,
			}
			part.ID = part.Key()

			a, err := newApp(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return WrapExitError(ExitCommandError, "startup failed", err)
			}
			defer a.Close()

			result := a.pricing.FetchPrices(cmd.Context(), part)
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", part.Manufacturer, part.Model)
				writePrices(w, result)
			})
		},
	}

	cmd.Flags().StringVar(&sku, "sku", "", "vendor SKU of the part")
	return cmd
}
