package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// CheckOptions flags of the check command
type CheckOptions struct {
	*RootOptions
	OverrideReason string
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <build.json|->",
		Short: "Check a build for compatibility",
		Long: `Check reads a build as JSON, either {"build": {...}, "overrideReason": "..."}
or the bare category map {"CPU": {"id": "...", "spec": "..."}, ...}, and prints
the score with every hard failure and soft warning.

Exits with code 1 when the build has hard failures.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.OverrideReason, "override-reason", "", "reason recorded when proceeding despite hard failures")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions, path string) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read build", err)
	}
	build, reason, err := decodeBuild(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid build", err)
	}
	if opts.OverrideReason != "" {
		reason = opts.OverrideReason
	}

	a, err := newApp(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "startup failed", err)
	}
	defer a.Close()

	result, err := a.compatibility.Evaluate(cmd.Context(), build, reason)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid build", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := out.Success(result, func(w io.Writer) { writeCompatibility(w, result) }); err != nil {
		return err
	}
	if len(result.HardFails) > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("build has %d hard incompatibilities", len(result.HardFails))}
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// decodeBuild accepts the request envelope or a bare category map
func decodeBuild(data []byte) (entity.Build, string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, "", err
	}
	if _, ok := raw["build"]; ok {
		var req struct {
			Build          entity.Build `json:"build"`
			OverrideReason string       `json:"overrideReason"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, "", err
		}
		return req.Build, req.OverrideReason, nil
	}
	var build entity.Build
	if err := json.Unmarshal(data, &build); err != nil {
		return nil, "", err
	}
	return build, "", nil
}
