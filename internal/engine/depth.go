package engine

import "fmt"

// DefaultMaxDepth bounds how deeply demon firings may nest within one
// operation.
const DefaultMaxDepth = 64

// depthQuota tracks the nesting depth of demon firings within one operation.
//
// The re-entry guard stops a demon from re-firing itself, but a long chain of
// distinct demons (A reads B reads C ...) is still legal. The quota turns a
// pathological chain into a DEPTH_EXCEEDED error instead of a stack overflow.
type depthQuota struct {
	max     int
	current int
	peak    int
}

func newDepthQuota(max int) *depthQuota {
	return &depthQuota{max: max}
}

// enter increments the nesting depth. It fails without incrementing when the
// new depth would exceed the limit.
func (q *depthQuota) enter(frame, slot string) error {
	if q.current+1 > q.max {
		return &Error{
			Code:    ErrCodeDepthExceeded,
			Frame:   frame,
			Slot:    slot,
			Message: fmt.Sprintf("demon nesting exceeds max depth %d", q.max),
		}
	}
	q.current++
	if q.current > q.peak {
		q.peak = q.current
	}
	return nil
}

func (q *depthQuota) leave() {
	if q.current > 0 {
		q.current--
	}
}

func (q *depthQuota) reset() {
	q.current = 0
	q.peak = 0
}
