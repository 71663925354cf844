package harness

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/roach88/framekb/internal/compiler"
	"github.com/roach88/framekb/internal/engine"
	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/store"
	"github.com/roach88/framekb/internal/testutil"
)

// Harness executes one scenario against a fresh frame base.
type Harness struct {
	base   *engine.FrameBase
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a fresh FrameBase whose trace goes to a fresh
// in-memory database, with a deterministic clock and a token sequence
// derived from the scenario token, so two runs produce identical traces.
//
// Execution flow:
//  1. Load the knowledge files, if any
//  2. Execute the steps, checking each expectation
//  3. Capture the trace
//  4. Evaluate assertions
//
// A returned error means the scenario could not be executed at all;
// expectation and assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	token := scenario.Token
	if token == "" {
		token = DefaultToken
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := []engine.Option{
		engine.WithRecorder(st),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithTokenGenerator(engine.NewSequenceGenerator(token)),
		engine.WithLogger(logger),
	}
	if scenario.MaxDepth > 0 {
		opts = append(opts, engine.WithMaxDepth(scenario.MaxDepth))
	}

	h := &Harness{
		base:   engine.New(opts...),
		logger: logger,
	}

	ctx := context.Background()

	if err := h.loadKnowledge(scenario); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if msg := h.executeStep(step); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] %s %s: %s", i, step.Op, stepTarget(step), msg))
		}
	}

	trace, err := readTrace(ctx, st)
	if err != nil {
		return nil, err
	}
	result.Trace = trace

	actx := &AssertionContext{Base: h.base, Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) loadKnowledge(s *Scenario) error {
	if len(s.Knowledge) == 0 {
		return nil
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	files := make([]string, len(s.Knowledge))
	for i, k := range s.Knowledge {
		files[i] = filepath.ToSlash(k)
	}

	defs, err := compiler.LoadFrames(dir, files...)
	if err != nil {
		return fmt.Errorf("failed to load knowledge: %w", err)
	}
	if err := h.base.Load(defs); err != nil {
		return fmt.Errorf("failed to load knowledge: %w", err)
	}
	h.logger.Info("knowledge loaded", "scenario", s.Name, "frames", len(defs))
	return nil
}

// stepOutcome is what one step produced, in a form expectations can check.
type stepOutcome struct {
	value   ir.IRValue
	hasVal  bool
	frames  []string
	removed bool
	err     error
}

// executeStep runs one step and returns a failure message, or "" when the
// step met its expectation.
func (h *Harness) executeStep(step Step) string {
	out, err := h.dispatch(step)
	if err != nil && engine.Code(err) == "" {
		return err.Error()
	}
	out.err = err

	h.logger.Debug("step executed", "op", step.Op, "frame", step.Frame, "slot", step.Slot, "error", err)

	if step.Expect == nil {
		if out.err != nil {
			return fmt.Sprintf("unexpected error: %v", out.err)
		}
		return ""
	}
	return checkExpect(step.Op, *step.Expect, out)
}

// dispatch maps a step onto the matching FrameBase operation. A non-engine
// error means the step itself was malformed.
func (h *Harness) dispatch(step Step) (stepOutcome, error) {
	var out stepOutcome
	b := h.base

	switch step.Op {
	case StepAddFrame:
		_, err := b.AddFrame(step.Frame, step.Parent)
		return out, err

	case StepDeleteFrame:
		return out, b.DeleteFrame(step.Frame)

	case StepReparent:
		return out, b.Reparent(step.Frame, step.Parent)

	case StepAddSlot:
		typ := ir.SlotText
		if step.Type != "" {
			t, err := ir.ParseSlotType(step.Type)
			if err != nil {
				return out, err
			}
			typ = t
		}
		inh, err := ir.ParseInheritance(step.Inheritance)
		if err != nil {
			return out, err
		}
		v, err := stepValue(step.Value)
		if err != nil {
			return out, err
		}
		return out, b.AddSlot(step.Frame, step.Slot, typ, inh, v)

	case StepDeleteSlot:
		removed, err := b.DeleteSlot(step.Frame, step.Slot)
		out.removed = removed
		return out, err

	case StepSet:
		v, err := stepValue(step.Value)
		if err != nil {
			return out, err
		}
		return out, b.SetSlotValue(step.Frame, step.Slot, v)

	case StepGet:
		v, ok, err := b.GetSlotValue(step.Frame, step.Slot)
		out.value, out.hasVal = v, ok
		return out, err

	case StepAttach:
		demon, err := ir.ParseDemonKind(step.Demon)
		if err != nil {
			return out, err
		}
		kind, err := ir.ParseProcedureKind(step.Procedure)
		if err != nil {
			return out, err
		}
		return out, b.AttachProcedure(step.Frame, step.Slot, demon, kind, step.Payload)

	case StepRun:
		res, err := b.RunProcedure(step.Frame, step.Slot)
		out.value, out.hasVal = res.Value, res.Found
		return out, err

	case StepFind:
		frames, err := b.FindFrames(step.Conditions)
		out.frames = frames
		return out, err
	}
	return out, fmt.Errorf("unknown op %q", step.Op)
}

func checkExpect(op string, e Expect, out stepOutcome) string {
	if e.Error != "" {
		want := expectedCode(e.Error)
		if out.err == nil {
			return fmt.Sprintf("expected error %s, got success", want)
		}
		if got := engine.Code(out.err); got != want {
			return fmt.Sprintf("expected error %s, got %v", want, out.err)
		}
		return ""
	}
	if out.err != nil {
		return fmt.Sprintf("unexpected error: %v", out.err)
	}

	switch {
	case e.Value != nil:
		want, err := ir.FromAny(e.Value)
		if err != nil {
			return fmt.Sprintf("expect value: %v", err)
		}
		if !out.hasVal {
			return fmt.Sprintf("expected value %s, got no value", render(want))
		}
		if !ir.Equal(want, out.value) {
			return fmt.Sprintf("expected value %s, got %s", render(want), render(out.value))
		}
	case e.NoValue:
		if op == StepDeleteSlot {
			if out.removed {
				return "expected no slot to be removed"
			}
			return ""
		}
		if out.hasVal {
			return fmt.Sprintf("expected no value, got %s", render(out.value))
		}
	case e.NotFound:
		if out.hasVal {
			return fmt.Sprintf("expected not found, got %s", render(out.value))
		}
	case e.Frames != nil:
		if !slices.Equal(e.Frames, out.frames) {
			return fmt.Sprintf("expected frames %v, got %v", e.Frames, out.frames)
		}
	}
	return ""
}

func expectedCode(name string) engine.ErrorCode {
	switch name {
	case "not_found":
		return engine.ErrCodeNotFound
	case "invariant_violation":
		return engine.ErrCodeInvariantViolation
	case "depth_exceeded":
		return engine.ErrCodeDepthExceeded
	}
	return engine.ErrorCode(name)
}

// stepValue converts a YAML value. A missing value is nil, which clears
// the slot on set and adds it without a value on add_slot.
func stepValue(v any) (ir.IRValue, error) {
	if v == nil {
		return nil, nil
	}
	return ir.FromAny(v)
}

func render(v ir.IRValue) string {
	if v == nil {
		return "<none>"
	}
	if s, ok := ir.Text(v); ok {
		return fmt.Sprintf("%q", s)
	}
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func stepTarget(step Step) string {
	if step.Slot == "" {
		return step.Frame
	}
	return step.Frame + "." + step.Slot
}

// readTrace merges operations and firings into one seq-ordered trace.
func readTrace(ctx context.Context, st *store.Store) ([]TraceEvent, error) {
	ops, err := st.ReadOperations(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	firings, err := st.ReadFirings(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return MergeTrace(ops, firings), nil
}

// MergeTrace interleaves operation and firing records into one
// seq-ordered trace.
func MergeTrace(ops []ir.Operation, firings []ir.Firing) []TraceEvent {
	trace := make([]TraceEvent, 0, len(ops)+len(firings))
	for _, op := range ops {
		trace = append(trace, operationEvent(op))
	}
	for _, f := range firings {
		trace = append(trace, firingEvent(f))
	}
	slices.SortStableFunc(trace, func(a, b TraceEvent) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return trace
}
