package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/framekb/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Frames   int                        `json:"frames"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <kb-dir>",
		Short: "Validate a knowledge base without loading it",
		Long: `Validate the CUE frame definitions in a knowledge base directory.

Checks that every frame compiles, that parents exist and form no cycle,
that slots are well formed, that no frame redeclares a Same slot of an
ancestor, and that every FIND payload parses. Warnings do not fail
validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, kbDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	problems, frames, err := ValidateKnowledgeDir(kbDir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Validated %d frame(s) in %s", frames, kbDir)

	result := ValidationResult{Valid: true, Frames: frames}
	for _, p := range problems {
		if p.IsWarning() {
			result.Warnings = append(result.Warnings, p)
			continue
		}
		result.Errors = append(result.Errors, p)
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateKnowledgeDir validates the knowledge base in dir and returns every
// problem found, warnings included, together with the number of frames.
//
// Compilation errors are reported as validation problems. The returned
// error is set only when dir cannot be read as a knowledge base at all.
func ValidateKnowledgeDir(dir string) ([]compiler.ValidationError, int, error) {
	result, err := LoadKnowledge(dir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && !isPathError(loadErr.Code) {
			field := "load"
			if loadErr.Pos.IsValid() {
				field = fmt.Sprintf("%s:%d:%d", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
			}
			return []compiler.ValidationError{{
				Field:   field,
				Message: loadErr.Message,
				Code:    loadErr.Code,
			}}, 0, nil
		}
		return nil, 0, err
	}
	return compiler.Validate(result.Frames), len(result.Frames), nil
}

func isPathError(code string) bool {
	switch code {
	case ErrCodeNotFound, ErrCodeScanError, ErrCodeNoFiles:
		return true
	}
	return false
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Knowledge base valid (%d frame(s))\n", result.Frames)
	writeProblems(formatter, "Warnings", result.Warnings)
	return nil
}

// outputValidateError outputs an error that prevented validation.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs a failed validation.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	writeProblems(formatter, "Errors", result.Errors)
	writeProblems(formatter, "Warnings", result.Warnings)
	return failure
}

func writeProblems(formatter *OutputFormatter, title string, problems []compiler.ValidationError) {
	if len(problems) == 0 {
		return
	}
	fmt.Fprintf(formatter.Writer, "\n%s:\n", title)
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", p.Code, p.Field, p.Message)
	}
}
