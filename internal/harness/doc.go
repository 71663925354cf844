// Package harness runs conformance scenarios against the frame engine.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: bird_inheritance
//	description: "Same slots are shared through the parent chain"
//	knowledge: [kb/animals.cue]
//	token: bird
//	steps:
//	  - op: add_frame
//	    frame: Sparrow
//	    parent: Bird
//	  - op: get
//	    frame: Sparrow
//	    slot: wings
//	    expect: { value: 2 }
//	assertions:
//	  - { type: firing_count, frame: Bird, slot: sound, demon: IF_NEEDED, count: 1 }
//	  - { type: slot_value, frame: Sparrow, slot: wings, value: 2 }
//
// Step ops are add_frame, delete_frame, reparent, add_slot, delete_slot,
// set, get, attach, run and find. A step without expect must succeed. An
// expect clause holds exactly one of value, no_value, frames, not_found or
// error (not_found, invariant_violation or depth_exceeded).
//
// # Assertion Types
//
//   - firing_count: a demon on owner.slot fired exactly count times
//   - frame_exists / frame_absent: the frame is or is not registered
//   - query_result: find with the given conditions returns exactly frames
//   - slot_value: a read of frame.slot yields value (or no value if omitted)
//
// # Deterministic Testing
//
// Every scenario runs on a fresh FrameBase recording into a fresh in-memory
// SQLite trace store, with testutil.DeterministicClock for seq numbers and
// engine.SequenceGenerator for tokens (<token>-1, <token>-2, ...). The
// same scenario therefore always produces the same trace, which is compared
// against testdata/golden/<name>.golden as canonical JSON.
package harness
