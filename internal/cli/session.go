package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/framekb/internal/compiler"
	"github.com/roach88/framekb/internal/engine"
	"github.com/roach88/framekb/internal/store"
)

// SessionOptions holds the flags shared by commands that operate on a
// loaded frame base: query, get, run and shell.
type SessionOptions struct {
	*RootOptions
	Database string
	MaxDepth int

	// Tokens overrides the operation token generator (for testing).
	// If nil, the engine's UUIDv7Generator is used.
	Tokens engine.TokenGenerator
}

func (o *SessionOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "record the trace to this SQLite database")
	cmd.Flags().IntVar(&o.MaxDepth, "max-depth", engine.DefaultMaxDepth, "maximum demon nesting depth")
}

// Session is a frame base, optionally recording into a trace store.
type Session struct {
	Base   *engine.FrameBase
	Frames int // frames loaded from the knowledge base

	store *store.Store
}

// Close releases the trace store, if any.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// openSession builds a frame base and loads kbDir into it. An empty kbDir
// yields an empty base. With --db the trace is appended to the database and
// seq numbering continues after its last record.
func openSession(ctx context.Context, opts *SessionOptions, kbDir string, logw io.Writer) (*Session, error) {
	if opts.MaxDepth < 1 {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("--max-depth must be at least 1, got %d", opts.MaxDepth)}
	}

	logger := opts.Logger(logw)
	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxDepth(opts.MaxDepth),
	}
	if opts.Tokens != nil {
		engineOpts = append(engineOpts, engine.WithTokenGenerator(opts.Tokens))
	}

	s := &Session{}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeTraceFailed, Message: fmt.Sprintf("failed to open database: %v", err)}
		}
		last, err := st.LastSeq(ctx)
		if err != nil {
			_ = st.Close()
			return nil, &LoadError{Code: ErrCodeTraceFailed, Message: fmt.Sprintf("failed to read database: %v", err)}
		}
		logger.Debug("trace database opened", "path", opts.Database, "last_seq", last)
		s.store = st
		engineOpts = append(engineOpts,
			engine.WithRecorder(st),
			engine.WithClock(engine.NewClockAt(last)),
		)
	}
	s.Base = engine.New(engineOpts...)

	if kbDir == "" {
		return s, nil
	}

	result, err := LoadKnowledge(kbDir)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	defs, err := compiler.OrderParentsFirst(result.Frames)
	if err != nil {
		_ = s.Close()
		return nil, &LoadError{Code: compiler.ErrParentCycle, Message: err.Error()}
	}
	if err := s.Base.Load(defs); err != nil {
		_ = s.Close()
		return nil, &LoadError{Code: EngineErrorCode(err), Message: err.Error()}
	}
	s.Frames = len(defs)
	return s, nil
}

// reportOpenError prints a session setup failure and returns the command error.
func reportOpenError(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code = loadErr.Code
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to load knowledge base", err)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
