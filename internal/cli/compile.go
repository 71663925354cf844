package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/framekb/internal/compiler"
	"github.com/roach88/framekb/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled frame definitions, parents first.
type CompilationResult struct {
	Frames []ir.FrameDef `json:"frames"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	FrameCount      int
	SlotCount       int
	ProcedureCount  int
	InheritedFrames int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <kb-dir>",
		Short: "Compile a knowledge base to frame definitions",
		Long: `Compile the CUE frame definitions in a knowledge base directory.

Frames are emitted parents first, the order in which they can be loaded
into a frame base. Use --format json or -o to get the definitions as JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, kbDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, err := LoadKnowledge(kbDir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputCompileError(formatter, loadErr)
		}
		return outputCompileError(formatter, &LoadError{Code: ErrCodeGeneric, Message: err.Error()})
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, kbDir)
	for _, f := range loadResult.Frames {
		formatter.VerboseLog("Compiled frame: %s", f.Name)
	}

	if problems := compiler.Errors(compiler.Validate(loadResult.Frames)); len(problems) > 0 {
		return outputCompileProblems(formatter, problems)
	}

	frames, err := compiler.OrderParentsFirst(loadResult.Frames)
	if err != nil {
		return outputCompileError(formatter, &LoadError{Code: compiler.ErrParentCycle, Message: err.Error()})
	}
	result := &CompilationResult{Frames: frames}

	if opts.Output != "" {
		if err := writeFramesToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	return outputCompileSuccess(formatter, result, calculateStats(result), opts.Output)
}

// calculateStats computes summary statistics from a compilation result.
func calculateStats(result *CompilationResult) CompilationStats {
	stats := CompilationStats{FrameCount: len(result.Frames)}
	for _, f := range result.Frames {
		if f.Parent != "" {
			stats.InheritedFrames++
		}
		stats.SlotCount += len(f.Slots)
		for _, s := range f.Slots {
			for _, p := range []*ir.ProcedureDef{s.IfNeeded, s.IfAdded, s.Procedure} {
				if p != nil {
					stats.ProcedureCount++
				}
			}
		}
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d frame(s), %d slot(s), %d procedure(s)\n\n",
		stats.FrameCount, stats.SlotCount, stats.ProcedureCount)

	fmt.Fprintln(formatter.Writer, "Frames:")
	for _, f := range result.Frames {
		if f.Parent != "" {
			fmt.Fprintf(formatter.Writer, "  %s (parent %s): %d slot(s)\n", f.Name, f.Parent, len(f.Slots))
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %d slot(s)\n", f.Name, len(f.Slots))
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote frame definitions to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, loadErr *LoadError) error {
	if formatter.Format != "json" && loadErr.Pos.IsValid() {
		fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
			loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
}

// outputCompileProblems outputs the validation errors that block compilation.
func outputCompileProblems(formatter *OutputFormatter, problems []compiler.ValidationError) error {
	failure := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(problems)))

	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(problems))
		for i, p := range problems {
			cliErrors[i] = CLIError{Code: p.Code, Message: p.Message, Details: p.Field}
		}
		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", p.Code, p.Field, p.Message)
	}
	return failure
}

// writeFramesToFile writes the compilation result as indented JSON.
func writeFramesToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling frames: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
