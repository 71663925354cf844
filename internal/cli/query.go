package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryResult is the JSON payload of the query command.
type QueryResult struct {
	Conditions []string `json:"conditions"`
	Frames     []string `json:"frames"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <kb-dir> <conditions>...",
		Short: "Find the frames matching every condition",
		Long: `Load a knowledge base and print the frames matching all conditions.

Conditions have the form slot=value and may be given as separate arguments
or comma-separated. A slot's value is resolved through inheritance and may
be computed by an IF-NEEDED demon. @type=LISP matches frames that carry a
local slot of that type. Matches are listed in registry order.

Example:
  framekb query ./kb color=red
  framekb query ./kb "covering=feathers, alive=true"`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], splitConditions(args[1:]), cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runQuery(opts *SessionOptions, kbDir string, conditions []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	session, err := openSession(cmd.Context(), opts, kbDir, cmd.ErrOrStderr())
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer session.Close()

	frames, err := session.Base.FindFrames(conditions)
	if err != nil {
		return formatter.EngineError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(QueryResult{Conditions: conditions, Frames: frames})
	}
	if len(frames) == 0 {
		fmt.Fprintln(formatter.Writer, "No frames found")
		return nil
	}
	for _, f := range frames {
		fmt.Fprintln(formatter.Writer, f)
	}
	return nil
}

// splitConditions splits comma-separated arguments into single conditions.
func splitConditions(args []string) []string {
	var out []string
	for _, a := range args {
		for _, c := range strings.Split(a, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}
