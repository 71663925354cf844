package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/framekb/internal/ir"
)

// DefaultToken prefixes operation tokens when a scenario sets none.
const DefaultToken = "test-token"

// Scenario defines a conformance scenario: an optional knowledge base, a
// list of engine operations with expectations, and assertions on the final
// state and trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Knowledge lists CUE files loaded before the first step.
	// Paths are relative to the scenario file location.
	Knowledge []string `yaml:"knowledge,omitempty"`

	// Token prefixes the per-operation tokens: <token>-1, <token>-2, ...
	Token string `yaml:"token,omitempty"`

	// MaxDepth overrides the demon nesting limit when positive.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Steps are executed in order against one fresh frame base.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Dir is the directory Knowledge paths are resolved against.
	// LoadScenario sets it to the scenario file's directory.
	Dir string `yaml:"-"`
}

// Step is one engine operation.
type Step struct {
	// Op is one of the StepOps values.
	Op string `yaml:"op"`

	Frame       string   `yaml:"frame,omitempty"`
	Parent      string   `yaml:"parent,omitempty"`
	Slot        string   `yaml:"slot,omitempty"`
	Type        string   `yaml:"type,omitempty"`
	Inheritance string   `yaml:"inheritance,omitempty"`
	Value       any      `yaml:"value,omitempty"`
	Demon       string   `yaml:"demon,omitempty"`
	Procedure   string   `yaml:"procedure,omitempty"`
	Payload     string   `yaml:"payload,omitempty"`
	Conditions  []string `yaml:"conditions,omitempty"`

	// Expect validates the step's result. Without it the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected result of one step. At most one of Value,
// NoValue, Frames, NotFound and Error may be set.
type Expect struct {
	// Value is the expected slot value (get) or procedure result (run).
	Value any `yaml:"value,omitempty"`

	// NoValue expects a get without value, or a delete_slot that removed nothing.
	NoValue bool `yaml:"no_value,omitempty"`

	// Frames is the exact expected find result, in order. An empty list
	// expects no matches.
	Frames []string `yaml:"frames,omitempty"`

	// NotFound expects a procedure run that found nothing.
	NotFound bool `yaml:"not_found,omitempty"`

	// Error is the expected error code: not_found, invariant_violation or
	// depth_exceeded.
	Error string `yaml:"error,omitempty"`
}

// Step operations.
const (
	StepAddFrame    = "add_frame"
	StepDeleteFrame = "delete_frame"
	StepReparent    = "reparent"
	StepAddSlot     = "add_slot"
	StepDeleteSlot  = "delete_slot"
	StepSet         = "set"
	StepGet         = "get"
	StepAttach      = "attach"
	StepRun         = "run"
	StepFind        = "find"
)

// StepOps lists every valid step operation.
var StepOps = []string{
	StepAddFrame, StepDeleteFrame, StepReparent,
	StepAddSlot, StepDeleteSlot, StepSet, StepGet,
	StepAttach, StepRun, StepFind,
}

// Expected error names accepted in Expect.Error.
var expectErrors = []string{"not_found", "invariant_violation", "depth_exceeded"}

// Assertion validates the final state or trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Frame string `yaml:"frame,omitempty"`
	Slot  string `yaml:"slot,omitempty"`
	Demon string `yaml:"demon,omitempty"`

	// Count is the expected number of firings (firing_count).
	Count *int `yaml:"count,omitempty"`

	// Conditions and Frames drive query_result.
	Conditions []string `yaml:"conditions,omitempty"`
	Frames     []string `yaml:"frames,omitempty"`

	// Value is the expected slot value (slot_value). Omit it to expect no value.
	Value any `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertFiringCount = "firing_count"
	AssertFrameExists = "frame_exists"
	AssertFrameAbsent = "frame_absent"
	AssertQueryResult = "query_result"
	AssertSlotValue   = "slot_value"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.Dir = filepath.Dir(path)

	for _, k := range scenario.Knowledge {
		p := k
		if !filepath.IsAbs(p) {
			p = filepath.Join(scenario.Dir, p)
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("invalid scenario: knowledge file not found: %s", k)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Knowledge paths are left unresolved.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if !slices.Contains(StepOps, step.Op) {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.Frame == "" && step.Op != StepFind {
		return fmt.Errorf("%s: frame is required", step.Op)
	}

	switch step.Op {
	case StepAddSlot, StepDeleteSlot, StepSet, StepGet, StepAttach, StepRun:
		if step.Slot == "" {
			return fmt.Errorf("%s: slot is required", step.Op)
		}
	}

	if step.Type != "" {
		if _, err := ir.ParseSlotType(step.Type); err != nil {
			return fmt.Errorf("%s: %w", step.Op, err)
		}
	}
	if _, err := ir.ParseInheritance(step.Inheritance); err != nil {
		return fmt.Errorf("%s: %w", step.Op, err)
	}
	if _, err := ir.ParseDemonKind(step.Demon); err != nil {
		return fmt.Errorf("%s: %w", step.Op, err)
	}
	if step.Op == StepAttach {
		if _, err := ir.ParseProcedureKind(step.Procedure); err != nil {
			return fmt.Errorf("%s: %w", step.Op, err)
		}
	}

	if step.Expect != nil {
		return validateExpect(*step.Expect)
	}
	return nil
}

func validateExpect(e Expect) error {
	set := 0
	for _, b := range []bool{e.Value != nil, e.NoValue, e.Frames != nil, e.NotFound, e.Error != ""} {
		if b {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("expect: value, no_value, frames, not_found and error are mutually exclusive")
	}
	if e.Error != "" && !slices.Contains(expectErrors, e.Error) {
		return fmt.Errorf("expect: unknown error %q", e.Error)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertFiringCount:
		if a.Frame == "" || a.Slot == "" {
			return fmt.Errorf("firing_count: frame and slot are required")
		}
		if a.Count == nil {
			return fmt.Errorf("firing_count: count is required")
		}
		d, err := ir.ParseDemonKind(a.Demon)
		if err != nil {
			return fmt.Errorf("firing_count: %w", err)
		}
		if d == ir.DemonNone {
			return fmt.Errorf("firing_count: demon is required")
		}
	case AssertFrameExists, AssertFrameAbsent:
		if a.Frame == "" {
			return fmt.Errorf("%s: frame is required", a.Type)
		}
	case AssertQueryResult:
		if a.Frames == nil {
			return fmt.Errorf("query_result: frames is required (use [] for no matches)")
		}
	case AssertSlotValue:
		if a.Frame == "" || a.Slot == "" {
			return fmt.Errorf("slot_value: frame and slot are required")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
