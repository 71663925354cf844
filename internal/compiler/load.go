package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/framekb/internal/ir"
)

// Load builds one CUE instance from args, resolved against dir.
//
// args are passed to load.Instances unchanged, so they may be "." for the
// package in dir or a list of .cue files belonging to one package. With no
// args the package in dir is loaded.
func Load(dir string, args ...string) (cue.Value, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEError(inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// LoadFrames loads a knowledge definition and compiles its frames in
// parents-first order.
func LoadFrames(dir string, args ...string) ([]ir.FrameDef, error) {
	v, err := Load(dir, args...)
	if err != nil {
		return nil, err
	}
	defs, err := CompileFrames(v)
	if err != nil {
		return nil, err
	}
	return OrderParentsFirst(defs)
}
