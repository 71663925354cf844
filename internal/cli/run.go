package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/framekb/internal/ir"
)

// ProcedureResult is the JSON payload of the run command.
type ProcedureResult struct {
	Frame  string `json:"frame"`
	Slot   string `json:"slot"`
	Result any    `json:"result,omitempty"`
	Found  bool   `json:"found"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <kb-dir> <frame> <slot>",
		Short: "Run the procedure registered on a slot",
		Long: `Load a knowledge base and run the procedure registered on a slot.

The procedure is looked up on the frame that owns the slot, so a slot
inherited from an ancestor runs the ancestor's procedure with the given
frame as its origin. A FIND that matches nothing prints "not found".

Example:
  framekb run ./kb Apple describe
  framekb run --db trace.db ./kb Apple similar`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcedure(opts, args[0], args[1], args[2], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runProcedure(opts *SessionOptions, kbDir, frame, slot string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	session, err := openSession(cmd.Context(), opts, kbDir, cmd.ErrOrStderr())
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer session.Close()

	formatter.VerboseLog("Loaded %d frame(s) from %s", session.Frames, kbDir)

	res, err := session.Base.RunProcedure(frame, slot)
	if err != nil {
		return formatter.EngineError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ProcedureResult{Frame: frame, Slot: slot, Result: ir.ToAny(res.Value), Found: res.Found})
	}
	if !res.Found {
		fmt.Fprintln(formatter.Writer, "not found")
		return nil
	}
	fmt.Fprintln(formatter.Writer, res.Text())
	return nil
}
