package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/framekb/internal/harness"
	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
	"github.com/roach88/framekb/internal/querysql"
	"github.com/roach88/framekb/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Where    string // comma-separated column=value filter
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Where  string               `json:"where,omitempty"`
	Events []harness.TraceEvent `json:"events"`
	Stats  TraceStats           `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Operations int `json:"operations"`
	Rejected   int `json:"rejected"`
	Firings    int `json:"firings"`
	Suppressed int `json:"suppressed"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print a recorded trace",
		Long: `Print the operations and demon firings recorded with --db.

Records are listed in seq order. Each firing follows the operation that
caused it and shares its token.

--where takes column=value conditions joined by commas. Operation columns
are token, op and outcome; firing columns are token, frame, owner, slot,
demon, procedure, result, found and suppressed. A filter that names a
column one record kind lacks excludes that kind entirely.

Examples:
  framekb trace --db ./trace.db
  framekb trace --db ./trace.db --where frame=Bird,demon=IF_NEEDED
  framekb trace --db ./trace.db --where token=0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Where, "where", "", "filter records, e.g. frame=Bird,demon=IF_NEEDED")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}

	where, opsFilter, firingFilter, err := traceFilters(opts.Where)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --where", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeTraceFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ops := []ir.Operation{}
	if opsFilter {
		if ops, err = st.ReadOperations(ctx, where); err != nil {
			_ = formatter.Error(ErrCodeTraceFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read trace", err)
		}
	}
	firings := []ir.Firing{}
	if firingFilter {
		if firings, err = st.ReadFirings(ctx, where); err != nil {
			_ = formatter.Error(ErrCodeTraceFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read trace", err)
		}
	}

	result := TraceResult{
		Where:  opts.Where,
		Events: harness.MergeTrace(ops, firings),
	}
	for _, op := range ops {
		result.Stats.Operations++
		if op.Outcome == ir.OutcomeRejected || op.Outcome == ir.OutcomeFailed {
			result.Stats.Rejected++
		}
	}
	for _, f := range firings {
		result.Stats.Firings++
		if f.Suppressed {
			result.Stats.Suppressed++
		}
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd.OutOrStdout(), result)
}

// traceFilters parses --where and reports which record kinds it can apply
// to. An empty filter selects everything.
func traceFilters(text string) (queryir.Predicate, bool, bool, error) {
	if strings.TrimSpace(text) == "" {
		return nil, true, true, nil
	}
	pred, err := queryir.ParseText(text)
	if err != nil {
		return nil, false, false, err
	}

	opCols := querysql.Columns(querysql.Operations)
	firingCols := querysql.Columns(querysql.Firings)
	ops, firings := true, true
	for _, leaf := range queryir.Flatten(pred) {
		eq, ok := leaf.(queryir.Equals)
		if !ok {
			return nil, false, false, fmt.Errorf("%s cannot filter trace records", leaf)
		}
		inOps := slices.Contains(opCols, eq.Slot)
		inFirings := slices.Contains(firingCols, eq.Slot)
		if !inOps && !inFirings {
			return nil, false, false, fmt.Errorf("unknown trace column %q", eq.Slot)
		}
		ops = ops && inOps
		firings = firings && inFirings
	}
	return pred, ops, firings, nil
}

func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: result})
}

func outputTraceText(w io.Writer, result TraceResult) error {
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "No trace records found")
		return nil
	}

	for _, ev := range result.Events {
		formatTraceEvent(w, ev)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d operation(s) (%d rejected), %d firing(s) (%d suppressed)\n",
		result.Stats.Operations, result.Stats.Rejected, result.Stats.Firings, result.Stats.Suppressed)
	return nil
}

func formatTraceEvent(w io.Writer, ev harness.TraceEvent) {
	if ev.Kind == harness.KindOperation {
		fmt.Fprintf(w, "%4d  %-13s %-28s %-9s [%s]\n", ev.Seq, ev.Op, formatArgs(ev.Args), ev.Outcome, ev.Token)
		if ev.Detail != "" {
			fmt.Fprintf(w, "        %s\n", ev.Detail)
		}
		return
	}

	target := ev.Frame + "." + ev.Slot
	if ev.Owner != ev.Frame {
		target += " (owner " + ev.Owner + ")"
	}
	outcome := "not found"
	switch {
	case ev.Suppressed:
		outcome = "suppressed"
	case ev.Found:
		outcome = fmt.Sprintf("%q", ev.Result)
	}
	fmt.Fprintf(w, "%4d    -> %s %s %s: %s\n", ev.Seq, ev.Demon, ev.Procedure, target, outcome)
}

// formatArgs renders operation arguments as key=value pairs in key order.
func formatArgs(args ir.IRObject) string {
	parts := make([]string, 0, len(args))
	for _, k := range args.SortedKeys() {
		s, ok := ir.Text(args[k])
		if !ok || s == "" {
			continue
		}
		parts = append(parts, k+"="+s)
	}
	return strings.Join(parts, " ")
}
