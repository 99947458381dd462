package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Build has hard incompatibilities
	ExitCommandError = 2 // Invalid input, unreadable file, config error
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error, ExitFailure when it carries none.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse JSON envelope of every command
type CLIResponse struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OutputFormatter writes command results as text or JSON
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success writes data as a JSON envelope, or runs text for the text format.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

func writeCompatibility(w io.Writer, r entity.BuildCompatibility) {
	fmt.Fprintf(w, "score %d (rules %s)\n", r.Score, r.RulesVersion)
	if r.OverrideReason != "" {
		fmt.Fprintf(w, "override: %s\n", r.OverrideReason)
	}
	for _, f := range r.HardFails {
		writeFinding(w, "FAIL", f)
	}
	for _, f := range r.SoftWarns {
		writeFinding(w, "WARN", f)
	}
	if len(r.HardFails) == 0 && len(r.SoftWarns) == 0 {
		fmt.Fprintln(w, "no issues found")
	}
}

func writeFinding(w io.Writer, label string, f entity.Finding) {
	fmt.Fprintf(w, "%s %s %s: %s [%s]\n", label, f.RuleID, f.Issue, f.Details, strings.Join(f.ComponentIDs, ", "))
}

func writePrices(w io.Writer, r entity.PriceResult) {
	if len(r.Offers) == 0 {
		fmt.Fprintf(w, "no offers for %s\n", r.PartID)
		return
	}
	for i, o := range r.Offers {
		stock := "in stock"
		if !o.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(w, "%d. %-10s %10s %s  base %s shipping %s tax %s  %s\n",
			i+1, o.Vendor, amount(o.Total), o.Currency,
			amount(o.BasePrice), amount(o.Shipping), amount(o.TaxEstimate),
			stock,
		)
		fmt.Fprintf(w, "   %s\n", o.URL)
	}
}

func amount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
