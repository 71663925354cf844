package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/framekb/internal/ir"
)

// Recorder receives the trace of engine activity. *store.Store implements it.
type Recorder interface {
	RecordOperation(ctx context.Context, op ir.Operation) error
	RecordFiring(ctx context.Context, f ir.Firing) error
}

// ProcedureKey identifies a registered procedure by the frame that owns the
// slot and the slot name.
type ProcedureKey struct {
	Frame string
	Slot  string
}

// FrameBase is the registry of frames and the entry point for every
// operation.
//
// Thread-safety: each public method holds an exclusive lock for its whole
// duration, including any demons it fires. Frame and Slot handles returned
// by the base are not synchronized; do not read them while another goroutine
// mutates the base.
type FrameBase struct {
	mu sync.Mutex

	frames map[string]*Frame
	order  []string // registry order: insertion order of frames

	procedures map[ProcedureKey]Procedure
	procOrder  []ProcedureKey

	recorder Recorder
	tokens   TokenGenerator
	clock    Sequencer
	logger   *slog.Logger
	maxDepth int

	// Per-operation state. Valid only while mu is held.
	token string
	guard *reentryGuard
	depth *depthQuota
}

// Option configures a FrameBase.
type Option func(*FrameBase)

// WithRecorder sends operation and firing records to r.
func WithRecorder(r Recorder) Option {
	return func(b *FrameBase) { b.recorder = r }
}

// WithTokenGenerator sets the generator for per-operation tokens.
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(b *FrameBase) { b.tokens = g }
}

// WithClock sets the seq source for trace records. Default: NewClock().
func WithClock(c Sequencer) Option {
	return func(b *FrameBase) { b.clock = c }
}

// WithMaxDepth sets the demon nesting limit. Default: DefaultMaxDepth.
// Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(b *FrameBase) {
		if n >= 1 {
			b.maxDepth = n
		}
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *FrameBase) { b.logger = l }
}

// New creates an empty FrameBase.
func New(opts ...Option) *FrameBase {
	b := &FrameBase{
		frames:     make(map[string]*Frame),
		procedures: make(map[ProcedureKey]Procedure),
		tokens:     UUIDv7Generator{},
		clock:      NewClock(),
		logger:     slog.Default(),
		maxDepth:   DefaultMaxDepth,
		guard:      newReentryGuard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.depth = newDepthQuota(b.maxDepth)
	return b
}

// Frames returns the frame names in registry order.
func (b *FrameBase) Frames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.order)
}

// Frame returns the frame named name.
func (b *FrameBase) Frame(name string) (*Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.frames[name]
	return f, ok
}

// Len returns the number of frames.
func (b *FrameBase) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Procedures returns the registered procedure keys in registration order.
func (b *FrameBase) Procedures() []ProcedureKey {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.procOrder)
}

// Procedure returns the procedure registered for key.
func (b *FrameBase) Procedure(key ProcedureKey) (Procedure, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.procedures[key]
	return p, ok
}

// Ancestors returns the parent chain of name, nearest first.
func (b *FrameBase) Ancestors(name string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.frames[name]
	if !ok {
		return nil, errNotFound("", name, "", "frame does not exist")
	}
	out := []string{}
	seen := map[string]bool{f.name: true}
	for p := b.parentOf(f); p != nil && !seen[p.name]; p = b.parentOf(p) {
		seen[p.name] = true
		out = append(out, p.name)
	}
	return out, nil
}

func (b *FrameBase) parentOf(f *Frame) *Frame {
	if f.parent == "" {
		return nil
	}
	return b.frames[f.parent]
}

// resolve finds the slot named name on f or its nearest ancestor, and the
// frame that owns it. The walk carries a visited set, so a corrupt parent
// cycle ends the search instead of looping.
func (b *FrameBase) resolve(f *Frame, name string) (*Slot, *Frame) {
	visited := make(map[string]bool)
	for cur := f; cur != nil; cur = b.parentOf(cur) {
		if visited[cur.name] {
			b.logger.Warn("parent cycle during slot lookup",
				"frame", f.name,
				"slot", name,
				"at", cur.name)
			return nil, nil
		}
		visited[cur.name] = true
		if s := cur.LocalSlot(name); s != nil {
			return s, cur
		}
	}
	return nil, nil
}

// isAncestor reports whether anc appears in the parent chain of f.
func (b *FrameBase) isAncestor(anc string, f *Frame) bool {
	visited := make(map[string]bool)
	for cur := b.parentOf(f); cur != nil && !visited[cur.name]; cur = b.parentOf(cur) {
		if cur.name == anc {
			return true
		}
		visited[cur.name] = true
	}
	return false
}

func (b *FrameBase) register(key ProcedureKey, p Procedure) {
	if _, ok := b.procedures[key]; !ok {
		b.procOrder = append(b.procOrder, key)
	}
	b.procedures[key] = p
}

func (b *FrameBase) unregister(key ProcedureKey) {
	if _, ok := b.procedures[key]; !ok {
		return
	}
	delete(b.procedures, key)
	b.procOrder = slices.DeleteFunc(b.procOrder, func(k ProcedureKey) bool { return k == key })
}

// fire runs a demon with re-entry and depth protection and records the
// firing. It implements firer.
func (b *FrameBase) fire(d *Demon, origin, owner *Frame, s *Slot) (Outcome, error) {
	key := firingKey{owner: owner.name, slot: s.name, demon: d.kind}
	seq := b.clock.Next()

	rec := ir.Firing{
		Token:     b.token,
		Frame:     origin.name,
		Owner:     owner.name,
		Slot:      s.name,
		Demon:     d.kind,
		Procedure: d.proc.Kind(),
		Seq:       seq,
	}

	if b.guard.running(key) {
		b.logger.Warn("re-entrant demon suppressed",
			"token", b.token,
			"frame", origin.name,
			"owner", owner.name,
			"slot", s.name,
			"demon", d.kind)
		rec.Suppressed = true
		b.recordFiring(rec)
		return NotFound, nil
	}

	if err := b.depth.enter(owner.name, s.name); err != nil {
		b.logger.Error("demon depth exceeded",
			"token", b.token,
			"owner", owner.name,
			"slot", s.name,
			"max_depth", b.maxDepth)
		return Outcome{}, err
	}
	b.guard.enter(key)
	defer func() {
		b.guard.leave(key)
		b.depth.leave()
	}()

	out, err := d.proc.execute(&env{base: b, origin: origin.name, owner: owner.name, slot: s.name})
	if err != nil {
		return Outcome{}, err
	}

	rec.Result = out.Text()
	rec.Found = out.Found
	b.recordFiring(rec)

	b.logger.Debug("demon fired",
		"token", b.token,
		"frame", origin.name,
		"owner", owner.name,
		"slot", s.name,
		"demon", d.kind,
		"found", out.Found,
		"result", rec.Result)

	return out, nil
}

func (b *FrameBase) recordFiring(rec ir.Firing) {
	if b.recorder == nil {
		return
	}
	id, err := ir.FiringID(rec.Token, rec.Frame, rec.Slot, rec.Demon, rec.Seq)
	if err != nil {
		b.logger.Error("firing id failed", "error", err)
		return
	}
	rec.ID = id
	if err := b.recorder.RecordFiring(context.Background(), rec); err != nil {
		b.logger.Error("recording firing failed",
			"token", rec.Token,
			"owner", rec.Owner,
			"slot", rec.Slot,
			"error", err)
	}
}
