package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SlotType is the advisory type tag of a slot. It is metadata only; values of
// any type may be stored in a slot of any SlotType.
type SlotType string

const (
	SlotFrame SlotType = "FRAME"
	SlotBool  SlotType = "BOOL"
	SlotText  SlotType = "TEXT"
	SlotLisp  SlotType = "LISP"
)

// SlotTypes lists every slot type in display order.
var SlotTypes = []SlotType{SlotFrame, SlotBool, SlotText, SlotLisp}

// ParseSlotType parses a slot type tag case-insensitively.
func ParseSlotType(s string) (SlotType, error) {
	t := SlotType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case SlotFrame, SlotBool, SlotText, SlotLisp:
		return t, nil
	}
	return "", fmt.Errorf("unknown slot type %q (want one of FRAME, BOOL, TEXT, LISP)", s)
}

// Inheritance controls whether a child frame may override an inherited slot.
type Inheritance string

const (
	// InheritUnique lets a child add its own local slot of the same name.
	InheritUnique Inheritance = "Unique"
	// InheritSame makes every descendant share the ancestor's slot.
	InheritSame Inheritance = "Same"
)

// ParseInheritance parses an inheritance mode case-insensitively.
// The empty string defaults to Unique.
func ParseInheritance(s string) (Inheritance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unique":
		return InheritUnique, nil
	case "same":
		return InheritSame, nil
	}
	return "", fmt.Errorf("unknown inheritance %q (want Unique or Same)", s)
}

// DemonKind selects when an attached procedure runs.
type DemonKind string

const (
	// DemonNone registers a procedure on a slot without a demon hook.
	DemonNone DemonKind = "NONE"
	// DemonIfNeeded runs on a read of a slot with no stored value.
	DemonIfNeeded DemonKind = "IF_NEEDED"
	// DemonIfAdded runs after every write to the slot.
	DemonIfAdded DemonKind = "IF_ADDED"
)

// ParseDemonKind accepts IF_NEEDED, IF-NEEDED, if_needed and so on.
// The empty string means DemonNone.
func ParseDemonKind(s string) (DemonKind, error) {
	norm := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
	switch DemonKind(norm) {
	case "", DemonNone:
		return DemonNone, nil
	case DemonIfNeeded:
		return DemonIfNeeded, nil
	case DemonIfAdded:
		return DemonIfAdded, nil
	}
	return "", fmt.Errorf("unknown demon kind %q (want IF-NEEDED, IF-ADDED or NONE)", s)
}

// ProcedureKind selects the procedure variant.
type ProcedureKind string

const (
	ProcPrint ProcedureKind = "PRINT"
	ProcFind  ProcedureKind = "FIND"
)

// ParseProcedureKind parses a procedure kind case-insensitively.
func ParseProcedureKind(s string) (ProcedureKind, error) {
	switch ProcedureKind(strings.ToUpper(strings.TrimSpace(s))) {
	case ProcPrint:
		return ProcPrint, nil
	case ProcFind:
		return ProcFind, nil
	}
	return "", fmt.Errorf("unknown procedure kind %q (want PRINT or FIND)", s)
}

// ProcedureDef is the declarative form of a procedure attachment.
// For PRINT the payload is the text; for FIND it is the condition list.
type ProcedureDef struct {
	Kind    ProcedureKind `json:"kind"`
	Payload string        `json:"payload"`
}

// SlotDef is the declarative form of a slot.
type SlotDef struct {
	Name        string        `json:"name"`
	Type        SlotType      `json:"type"`
	Inheritance Inheritance   `json:"inheritance"`
	Value       IRValue       `json:"value,omitempty"`
	IfNeeded    *ProcedureDef `json:"if_needed,omitempty"`
	IfAdded     *ProcedureDef `json:"if_added,omitempty"`
	Procedure   *ProcedureDef `json:"procedure,omitempty"`
}

// UnmarshalJSON decodes a slot definition, passing value through the strict
// IRValue decoder. An absent or null value leaves Value nil.
func (d *SlotDef) UnmarshalJSON(data []byte) error {
	type plain SlotDef
	var aux struct {
		*plain
		Value json.RawMessage `json:"value"`
	}
	aux.plain = (*plain)(d)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	d.Value = nil
	if len(aux.Value) == 0 || bytes.Equal(bytes.TrimSpace(aux.Value), []byte("null")) {
		return nil
	}
	v, err := UnmarshalIRValue(aux.Value)
	if err != nil {
		return fmt.Errorf("slot %q value: %w", d.Name, err)
	}
	d.Value = v
	return nil
}

// FrameDef is the declarative form of a frame, as compiled from a knowledge
// definition file. Slots keep declaration order.
type FrameDef struct {
	Name   string    `json:"name"`
	Parent string    `json:"parent,omitempty"`
	Slots  []SlotDef `json:"slots"`
}
