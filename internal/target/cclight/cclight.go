// Package cclight emits eQASM for the CC-Light control architecture: SIMD
// instructions addressed through s/t mask registers, cycle gaps written as
// a line prefix or an explicit qwait.
package cclight

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/controlflow"
	"github.com/specialistvlad/eqasmc/internal/emit"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/mask"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/target"
)

// Name is the name the backend is registered and configured under.
const Name = "cc_light"

// Target is the CC-Light backend for one program compilation.
type Target struct {
	model    *platform.Model
	settings target.Settings
	masks    *mask.Allocator
	lowerer  *controlflow.Lowerer
	body     strings.Builder
}

// New prepares a compilation for m, allocating the configured preset masks.
func New(m *platform.Model) (*Target, error) {
	s, err := target.Resolve(m, Name)
	if err != nil {
		return nil, err
	}
	t := &Target{
		model:    m,
		settings: s,
		masks:    mask.New(s.Masks),
	}
	t.lowerer = controlflow.New(dialect{}, s.Scratch)

	for _, p := range s.Presets {
		if err := t.preset(p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Target) preset(p *config.PresetMask) error {
	var qubits []int
	switch p.Kind {
	case "s":
		qubits = p.Qubits
	case "t":
		for _, pr := range p.Pairs {
			qubits = append(qubits, pr[0], pr[1])
		}
	default:
		return qerr.New(qerr.ErrConfiguration, "preset mask kind '%s', expected s or t", p.Kind)
	}
	for _, q := range qubits {
		if q < 0 || q >= t.model.QubitCount {
			return qerr.New(qerr.ErrConfiguration, "preset mask names qubit %d outside the platform", q)
		}
	}

	if p.Kind == "s" {
		_, err := t.masks.QubitSet(p.Qubits)
		return err
	}
	pairs := make([]mask.Pair, len(p.Pairs))
	for i, pr := range p.Pairs {
		pairs[i] = mask.Pair{A: pr[0], B: pr[1]}
	}
	_, err := t.masks.PairSet(pairs)
	return err
}

func (t *Target) Name() string { return Name }

// EmitKernel appends the kernel label, its control-flow fragments and its
// timed bundles.
func (t *Target) EmitKernel(k *ir.Kernel, bundles []bundle.Bundle) error {
	fmt.Fprintf(&t.body, "\n%s:\n", k.Name)

	pro, err := t.lowerer.Prologue(k)
	if err != nil {
		return err
	}
	emit.Lines(&t.body, pro)

	if err := emit.Kernel(&t.body, bundles, t, emit.Options{
		InlineWaitLimit: t.settings.Emit.InlineWaitLimit,
		FetchPad:        true,
	}); err != nil {
		return qerr.InKernel(err, k.Name)
	}

	epi, err := t.lowerer.Epilogue(k)
	if err != nil {
		return err
	}
	emit.Lines(&t.body, epi)
	return nil
}

// Program returns the mask declarations, the kernels and the closing jump
// back to start.
func (t *Target) Program(name string) (string, error) {
	if err := t.lowerer.Finish(); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(t.masks.Render())
	sb.WriteString("\nstart:\n")
	sb.WriteString(t.body.String())
	sb.WriteString("\n    br always, start\n    nop\n    nop\n")
	return sb.String(), nil
}
