// Package queryir provides the condition IR shared by every framekb query.
//
// The same predicates drive three evaluators:
//
//	[slot=value,... text] → [Predicate] → engine matcher (FIND procedures, FindFrames)
//	                                    → querysql backend (trace log filters)
//
// PREDICATES:
//
//   - Equals(slot, value): the string-coerced resolved slot value equals value.
//     A slot with no value never matches.
//   - HasSlotType(type): the frame carries a local slot with that type tag
//     (written "@type=LISP" in condition text).
//   - And(p...): every predicate must hold. An empty And matches everything.
//
// There is no OR and no negation. Conditions are a single conjunction.
//
// SEALED INTERFACES:
//
// Predicate is sealed with a marker method, so evaluators can use exhaustive
// type switches and reject anything they do not understand.
package queryir
