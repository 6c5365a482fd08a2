// Package target defines what a backend provides to the compiler and the
// settings every backend reads from the platform's target block.
package target

import (
	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/controlflow"
	"github.com/specialistvlad/eqasmc/internal/emit"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/mask"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// Target lowers scheduled kernels into the instruction text of one backend.
// A Target instance holds the state of one program compilation (mask
// registers, open control-flow constructs) and must not be reused.
//
// Lower and Finalize may be called concurrently for different kernels.
// EmitKernel and Program are called from one goroutine, in program order.
type Target interface {
	Name() string
	// Lower rewrites a kernel before scheduling.
	Lower(k *ir.Kernel) error
	// Finalize adjusts the bundles of a scheduled kernel before merging.
	Finalize(k *ir.Kernel, bundles []bundle.Bundle) ([]bundle.Bundle, error)
	// EmitKernel appends a kernel's label, fragments and merged bundles.
	EmitKernel(k *ir.Kernel, bundles []bundle.Bundle) error
	// Program returns the text of every emitted kernel, framed for the backend.
	Program(name string) (string, error)
}

// CZ modes.
const (
	CZManual = "manual"
	CZAuto   = "auto"
)

// Settings are the resolved values of a target block.
type Settings struct {
	Emit            emit.Options
	Masks           mask.Options
	Scratch         []int
	ClassicalCycles int
	CZAuto          bool
	Presets         []*config.PresetMask
}

// Resolve reads the target block called name from m, filling defaults.
func Resolve(m *platform.Model, name string) (Settings, error) {
	t := m.Target(name)
	s := Settings{
		Emit:            emit.Options{InlineWaitLimit: emit.DefaultInlineWaitLimit},
		Masks:           mask.Options{SingleCapacity: mask.DefaultSingleCapacity, PairCapacity: mask.DefaultPairCapacity, Directed: t.DirectedPairs},
		Scratch:         controlflow.DefaultScratch,
		ClassicalCycles: 1,
		Presets:         t.PresetMasks,
	}

	if v := t.InlineWaitLimit; v != nil {
		if *v < 1 {
			return s, qerr.New(qerr.ErrConfiguration, "target %s: inline_wait_limit must be at least 1", name)
		}
		s.Emit.InlineWaitLimit = *v
	}
	if v := t.SingleMaskCapacity; v != nil {
		if *v < 1 {
			return s, qerr.New(qerr.ErrConfiguration, "target %s: single_mask_capacity must be at least 1", name)
		}
		s.Masks.SingleCapacity = *v
	}
	if v := t.PairMaskCapacity; v != nil {
		if *v < 1 {
			return s, qerr.New(qerr.ErrConfiguration, "target %s: pair_mask_capacity must be at least 1", name)
		}
		s.Masks.PairCapacity = *v
	}
	if v := t.ClassicalDuration; v != nil {
		if *v < 0 {
			return s, qerr.New(qerr.ErrConfiguration, "target %s: classical_duration must not be negative", name)
		}
		s.ClassicalCycles = max(m.Cycles(*v), 1)
	}
	if len(t.LoopScratchRegisters) > 0 {
		if len(t.LoopScratchRegisters)%3 != 0 {
			return s, qerr.New(qerr.ErrConfiguration, "target %s: loop_scratch_registers takes triples", name)
		}
		s.Scratch = t.LoopScratchRegisters
	}
	for _, r := range s.Scratch {
		if r < 0 || r >= m.CregCount {
			return s, qerr.New(qerr.ErrConfiguration, "target %s: scratch register r%d outside the platform", name, r)
		}
	}
	switch t.CZMode {
	case "", CZManual:
	case CZAuto:
		s.CZAuto = true
	default:
		return s, qerr.New(qerr.ErrConfiguration, "target %s: unknown cz_mode '%s'", name, t.CZMode)
	}
	return s, nil
}
