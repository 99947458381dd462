package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions global flags for all commands
type RootOptions struct {
	Format   string // "text" | "json"
	LogLevel string // overrides LOG_LEVEL when set
}

// ValidFormats allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the pcbuilder command tree
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pcbuilder",
		Short: "PC build compatibility checks and vendor price aggregation",
		Long: `pcbuilder checks PC builds against a catalogue of physical and electrical
compatibility rules and aggregates offers from imported vendor price sheets.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), defaults to LOG_LEVEL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewPriceCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
