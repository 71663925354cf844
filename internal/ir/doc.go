// Package ir provides the foundational types shared by every framekb package.
//
// This package contains value and record definitions only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Slot values are a closed set (IRString, IRInt, IRBool). A missing value
//     is represented by a nil IRValue, never by a sentinel string.
//   - Tag enums (SlotType, Inheritance, DemonKind, ProcedureKind) are strings
//     so they read naturally in CUE, YAML and SQLite.
//   - All JSON tags use snake_case.
//   - Trace records are ordered by a logical seq, never by wall-clock time.
package ir
