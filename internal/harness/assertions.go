package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/framekb/internal/engine"
	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Index    int    // position in the scenario's assertion list
	Type     string // assertion type for categorization
	Expected string // human-readable expected outcome
	Actual   string // human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "assertions[%d] %s failed\n", e.Index, e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext gives assertions access to the final frame base and the
// trace store.
type AssertionContext struct {
	Base  *engine.FrameBase
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions and returns the failure
// messages in assertion order.
//
// firing_count and frame existence assertions are evaluated before
// query_result and slot_value, which run traced operations that may fire
// demons.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	failures := make([]error, len(assertions))

	for i, a := range assertions {
		switch a.Type {
		case AssertFiringCount:
			failures[i] = assertFiringCount(i, a, actx)
		case AssertFrameExists, AssertFrameAbsent:
			failures[i] = assertFramePresence(i, a, actx)
		}
	}
	for i, a := range assertions {
		switch a.Type {
		case AssertFiringCount, AssertFrameExists, AssertFrameAbsent:
		case AssertQueryResult:
			failures[i] = assertQueryResult(i, a, actx)
		case AssertSlotValue:
			failures[i] = assertSlotValue(i, a, actx)
		default:
			failures[i] = fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
	}

	msgs := []string{}
	for _, err := range failures {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

func assertFiringCount(i int, a Assertion, actx *AssertionContext) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("assertions[%d]: firing_count requires a trace store", i)
	}
	demon, err := ir.ParseDemonKind(a.Demon)
	if err != nil {
		return fmt.Errorf("assertions[%d]: %w", i, err)
	}

	n, err := actx.Store.CountFirings(actx.Ctx, a.Frame, a.Slot, demon)
	if err != nil {
		return fmt.Errorf("assertions[%d]: %w", i, err)
	}
	want := 0
	if a.Count != nil {
		want = *a.Count
	}
	if n != want {
		return &AssertionError{
			Index:    i,
			Type:     a.Type,
			Expected: fmt.Sprintf("%s on %s.%s fired %d time(s)", demon, a.Frame, a.Slot, want),
			Actual:   fmt.Sprintf("fired %d time(s)", n),
		}
	}
	return nil
}

func assertFramePresence(i int, a Assertion, actx *AssertionContext) error {
	_, exists := actx.Base.Frame(a.Frame)
	want := a.Type == AssertFrameExists
	if exists == want {
		return nil
	}

	expected, actual := "present", "absent"
	if !want {
		expected, actual = actual, expected
	}
	return &AssertionError{
		Index:    i,
		Type:     a.Type,
		Expected: fmt.Sprintf("frame %s %s", a.Frame, expected),
		Actual:   fmt.Sprintf("frame %s %s (frames: %v)", a.Frame, actual, actx.Base.Frames()),
	}
}

func assertQueryResult(i int, a Assertion, actx *AssertionContext) error {
	got, err := actx.Base.FindFrames(a.Conditions)
	if err != nil {
		return &AssertionError{
			Index:    i,
			Type:     a.Type,
			Expected: fmt.Sprintf("frames %v", a.Frames),
			Actual:   err.Error(),
		}
	}
	if !slices.Equal(a.Frames, got) {
		return &AssertionError{
			Index:    i,
			Type:     a.Type,
			Expected: fmt.Sprintf("%v matches %v", a.Conditions, a.Frames),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertSlotValue(i int, a Assertion, actx *AssertionContext) error {
	var want ir.IRValue
	if a.Value != nil {
		v, err := ir.FromAny(a.Value)
		if err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
		want = v
	}

	fail := func(actual string) error {
		return &AssertionError{
			Index:    i,
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s = %s", a.Frame, a.Slot, render(want)),
			Actual:   actual,
		}
	}

	got, ok, err := actx.Base.GetSlotValue(a.Frame, a.Slot)
	switch {
	case err != nil:
		return fail(err.Error())
	case want == nil && ok:
		return fail(render(got))
	case want != nil && !ok:
		return fail("no value")
	case want != nil && !ir.Equal(want, got):
		return fail(render(got))
	}
	return nil
}
