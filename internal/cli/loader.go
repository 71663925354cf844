package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/framekb/internal/compiler"
	"github.com/roach88/framekb/internal/ir"
)

// LoadResult contains the frames compiled from a knowledge directory.
type LoadResult struct {
	Frames    []ir.FrameDef // in declaration order
	CUEValue  cue.Value     // the raw CUE value for additional processing
	FileCount int           // number of CUE files found
}

// LoadError represents an error that occurred while loading a knowledge base.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadKnowledge loads the CUE package in dir and compiles its frames.
// Frames are returned in declaration order; use compiler.OrderParentsFirst
// before handing them to a FrameBase.
func LoadKnowledge(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("knowledge directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing knowledge directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	value, err := compiler.Load(dir)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeLoadFailed)
	}

	frames, err := compiler.CompileFrames(value)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeGeneric)
	}
	if len(frames) == 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "no frames found in knowledge base"}
	}

	return &LoadResult{
		Frames:    frames,
		CUEValue:  value,
		FileCount: len(cueFiles),
	}, nil
}

// FindCUEFiles returns the .cue files directly inside dir. Subdirectories
// are separate CUE packages and are not part of the knowledge base.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Engine failures reported by query, get, run and shell.
	ErrCodeFrameNotFound      = "E008" // frame, slot or procedure does not exist
	ErrCodeInvariantViolation = "E009" // operation rejected
	ErrCodeDepthExceeded      = "E010" // demons nested too deeply
	ErrCodeTraceFailed        = "E011" // trace database could not be opened or read
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Slot type and inheritance problems share the validator's codes.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case strings.HasSuffix(field, ".type"), strings.HasSuffix(field, ".inheritance"):
		return compiler.ErrInvalidSlotType
	case strings.Contains(field, ".if_needed"),
		strings.Contains(field, ".if_added"),
		strings.Contains(field, ".procedure"):
		return compiler.ErrInvalidProcedure
	default:
		return ErrCodeGeneric
	}
}
