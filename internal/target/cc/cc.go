// Package cc emits assembly for the Central Controller: every instruction
// listed with its own operands, Q1-style classical instructions and
// explicit sequencer waits.
package cc

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/controlflow"
	"github.com/specialistvlad/eqasmc/internal/emit"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/target"
)

const (
	Name = "cc"

	backendVersion = "0.3.1"
)

// Target is the CC backend for one program compilation.
type Target struct {
	model    *platform.Model
	settings target.Settings
	lowerer  *controlflow.Lowerer
	body     strings.Builder
}

func New(m *platform.Model) (*Target, error) {
	s, err := target.Resolve(m, Name)
	if err != nil {
		return nil, err
	}
	return &Target{
		model:    m,
		settings: s,
		lowerer:  controlflow.New(dialect{}, s.Scratch),
	}, nil
}

func (t *Target) Name() string { return Name }

// Lower is a no-op; the CC reads measurement results without a fetch.
func (t *Target) Lower(*ir.Kernel) error { return nil }

func (t *Target) Finalize(_ *ir.Kernel, bundles []bundle.Bundle) ([]bundle.Bundle, error) {
	return bundles, nil
}

func (t *Target) EmitKernel(k *ir.Kernel, bundles []bundle.Bundle) error {
	fmt.Fprintf(&t.body, "\n### Kernel: '%s'\n%s:\n", k.Name, k.Name)

	pro, err := t.lowerer.Prologue(k)
	if err != nil {
		return err
	}
	emit.Lines(&t.body, pro)

	if err := emit.Kernel(&t.body, bundles, t, emit.Options{InlineWaitLimit: t.settings.Emit.InlineWaitLimit}); err != nil {
		return qerr.InKernel(err, k.Name)
	}

	epi, err := t.lowerer.Epilogue(k)
	if err != nil {
		return err
	}
	emit.Lines(&t.body, epi)
	return nil
}

func (t *Target) Program(name string) (string, error) {
	if err := t.lowerer.Finish(); err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Program: '%s'\n", name)
	fmt.Fprintf(&sb, "# Note: generated by eqasmc cc backend %s\n", backendVersion)
	fmt.Fprintf(&sb, "# Platform: '%s', cycle time %d ns\n", t.model.Name, t.model.CycleTime)
	sb.WriteString(".CODE\n")
	sb.WriteString("start:\n")
	sb.WriteString(t.body.String())
	sb.WriteString("\n    jmp @start\n    nop\n    nop\n")
	return sb.String(), nil
}
