package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/framekb/internal/ir"
)

// GoldenDir is where golden traces live, relative to the test's package.
const GoldenDir = "testdata/golden"

// TraceSnapshot captures the complete trace for a scenario execution.
// Record IDs are omitted: they are content hashes and add nothing a reader
// can check by eye.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Token        string       `json:"token,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// Empty optional fields are dropped; found is always present on firings.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"kind":  ev.Kind,
			"seq":   ev.Seq,
			"token": ev.Token,
		}
		switch ev.Kind {
		case KindOperation:
			m["op"] = string(ev.Op)
			m["outcome"] = ev.Outcome
			args := ev.Args
			if args == nil {
				args = ir.IRObject{}
			}
			m["args"] = args
			if ev.Detail != "" {
				m["detail"] = ev.Detail
			}
		case KindFiring:
			m["frame"] = ev.Frame
			m["owner"] = ev.Owner
			m["slot"] = ev.Slot
			m["demon"] = string(ev.Demon)
			m["procedure"] = string(ev.Procedure)
			m["found"] = ev.Found
			if ev.Result != "" {
				m["result"] = ev.Result
			}
			if ev.Suppressed {
				m["suppressed"] = true
			}
		}
		traceList[i] = m
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.Token != "" {
		result["token"] = s.Token
	}
	return result
}

// MarshalTrace renders a result's trace as canonical JSON, the golden file
// format.
func MarshalTrace(scenario *Scenario, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Token:        scenario.Token,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass and Errors.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result's trace against the
// scenario's golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)
	return nil
}
