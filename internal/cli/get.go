package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/framekb/internal/ir"
)

// SlotValueResult is the JSON payload of the get command.
type SlotValueResult struct {
	Frame string `json:"frame"`
	Slot  string `json:"slot"`
	Value any    `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <kb-dir> <frame> <slot>",
		Short: "Read a slot value",
		Long: `Load a knowledge base and read a slot from a frame.

The slot is resolved through the parent chain. When it has no stored value
its IF-NEEDED demon, if any, computes one.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], args[2], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runGet(opts *SessionOptions, kbDir, frame, slot string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	session, err := openSession(cmd.Context(), opts, kbDir, cmd.ErrOrStderr())
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer session.Close()

	v, ok, err := session.Base.GetSlotValue(frame, slot)
	if err != nil {
		return formatter.EngineError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(SlotValueResult{Frame: frame, Slot: slot, Value: ir.ToAny(v), Found: ok})
	}
	fmt.Fprintln(formatter.Writer, displayValue(v, ok))
	return nil
}

// displayValue renders a slot value for text output.
func displayValue(v ir.IRValue, ok bool) string {
	if !ok {
		return "no value"
	}
	s, _ := ir.Text(v)
	return s
}
