// Package engine implements the framekb frame engine.
//
// A FrameBase owns a registry of named Frames. Each Frame holds an ordered
// list of typed Slots and refers to at most one parent by name. Slot lookups
// that miss locally walk the parent chain, and the slot found there is the
// ancestor's own slot, not a copy: reads and writes through it act on the
// ancestor.
//
// DEMONS:
//
// A slot may carry two demons, each wrapping one Procedure:
//   - IF-NEEDED fires on a read when the slot has no stored value. Its result
//     is returned but never cached, so every such read fires again.
//   - IF-ADDED fires after every write, once the new value is stored. Its
//     result is discarded.
//
// PROCEDURES:
//
//   - PRINT returns fixed text.
//   - FIND returns the first frame in registry order, other than the frame the
//     call was launched from, that satisfies its conditions. When nothing
//     matches it returns the NotFound outcome, which is a result, not an error.
//
// EXECUTION MODEL:
//
// Every public FrameBase method runs to completion under one exclusive lock.
// Demons and FIND procedures re-enter the registry through unexported methods
// that assume the lock is held, so a FIND started from a demon sees a
// consistent registry. A demon that is already running further up the call
// stack is not fired again (the inner read yields no value), and nesting
// deeper than MaxDepth aborts the operation with DEPTH_EXCEEDED.
//
// TRACING:
//
// When a Recorder is configured, every public operation and every demon firing
// is recorded with a logical seq from the engine clock and a per-operation
// token. Recording failures are logged and never fail the operation.
package engine
