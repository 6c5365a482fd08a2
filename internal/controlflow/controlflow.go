// Package controlflow renders the structured control-flow tags of kernels
// into compare/branch fragments around their bundles.
package controlflow

import (
	"slices"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// DefaultScratch holds the loop bound, increment and counter registers of
// the outermost for loop.
var DefaultScratch = []int{29, 30, 31}

// Dialect spells the instructions a fragment is made of.
type Dialect interface {
	Compare(lhs, rhs int) string
	// Sync is the no-op that lets the compare flags settle.
	Sync() string
	Branch(op ir.RelOp, label string) string
	LoadImmediate(reg, value int) string
	Add(dst, a, b int) string
}

type frame struct {
	kind  ir.ControlKind
	label string
	// seen records the kernel names emitted since the construct opened.
	seen []string
	// scratch is the register triple of a for loop.
	scratch []int
}

// Lowerer keeps the stack of open constructs of one program.
type Lowerer struct {
	dialect Dialect
	scratch []int
	open    []*frame
}

// New returns a Lowerer. scratch lists registers for loop bookkeeping, three
// per nesting level; nil means DefaultScratch.
func New(d Dialect, scratch []int) *Lowerer {
	if len(scratch) == 0 {
		scratch = DefaultScratch
	}
	return &Lowerer{dialect: d, scratch: slices.Clone(scratch)}
}

// Label derives the loop/branch label of a kernel name: the first word,
// with underscores read as word separators.
func Label(name string) string {
	fields := strings.Fields(strings.ReplaceAll(name, "_", " "))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func matches(start, end ir.ControlKind) bool {
	switch end {
	case ir.IfEnd:
		return start == ir.IfStart
	case ir.ElseEnd:
		return start == ir.ElseStart
	case ir.ForEnd:
		return start == ir.ForStart
	case ir.DoWhileEnd:
		return start == ir.DoWhileStart
	}
	return false
}

func mismatch(k *ir.Kernel, format string, args ...any) error {
	e := qerr.New(qerr.ErrMismatchedLabel, format, args...)
	e.Kernel = k.Name
	return e
}

// Prologue returns the instructions emitted after the kernel's label and
// before its bundles.
func (l *Lowerer) Prologue(k *ir.Kernel) ([]string, error) {
	for _, f := range l.open {
		f.seen = append(f.seen, k.Name)
	}

	cf := k.Control
	label := Label(k.Name)
	switch cf.Kind {
	case ir.Plain, ir.IfEnd, ir.ElseEnd, ir.ForEnd, ir.DoWhileEnd:
		return nil, nil

	case ir.IfStart, ir.ElseStart:
		if label == "" {
			return nil, mismatch(k, "kernel name yields no label")
		}
		l.push(&frame{kind: cf.Kind, label: label, seen: []string{k.Name}})
		op := cf.Cond.Op
		if cf.Kind == ir.IfStart {
			op = op.Inverse()
		}
		return []string{
			l.dialect.Compare(cf.Cond.LHS, cf.Cond.RHS),
			l.dialect.Sync(),
			l.dialect.Branch(op, label+"_end"),
		}, nil

	case ir.ForStart:
		if label == "" {
			return nil, mismatch(k, "kernel name yields no label")
		}
		depth := l.loops()
		if 3*(depth+1) > len(l.scratch) {
			e := qerr.New(qerr.ErrRegisterExhaustion, "no scratch registers for loop nesting depth %d", depth+1)
			e.Kernel = k.Name
			return nil, e
		}
		regs := l.scratch[3*depth : 3*depth+3]
		// The header re-initializes the counter, so it cannot be the branch target.
		l.push(&frame{kind: cf.Kind, label: label, scratch: regs})
		return []string{
			l.dialect.LoadImmediate(regs[0], cf.Iterations),
			l.dialect.LoadImmediate(regs[1], 1),
			l.dialect.LoadImmediate(regs[2], 0),
		}, nil

	case ir.DoWhileStart:
		if label == "" {
			return nil, mismatch(k, "kernel name yields no label")
		}
		l.push(&frame{kind: cf.Kind, label: label, seen: []string{k.Name}})
		return nil, nil
	}
	return nil, mismatch(k, "unknown control-flow kind %s", cf.Kind)
}

// Epilogue returns the instructions emitted after the kernel's bundles and
// closes the construct an End kernel belongs to.
func (l *Lowerer) Epilogue(k *ir.Kernel) ([]string, error) {
	cf := k.Control
	switch cf.Kind {
	case ir.Plain, ir.IfStart, ir.ElseStart, ir.ForStart, ir.DoWhileStart:
		return nil, nil
	}

	f, err := l.pop(k)
	if err != nil {
		return nil, err
	}

	switch cf.Kind {
	case ir.IfEnd, ir.ElseEnd:
		if k.Name != f.label+"_end" {
			return nil, mismatch(k, "branch target '%s_end' does not name this kernel", f.label)
		}
		return nil, nil

	case ir.ForEnd:
		if err := f.requireTarget(k); err != nil {
			return nil, err
		}
		r := f.scratch
		return []string{
			l.dialect.Add(r[2], r[2], r[1]),
			l.dialect.Compare(r[2], r[0]),
			l.dialect.Sync(),
			l.dialect.Branch(ir.RelLT, f.label),
		}, nil

	case ir.DoWhileEnd:
		if err := f.requireTarget(k); err != nil {
			return nil, err
		}
		return []string{
			l.dialect.Compare(cf.Cond.LHS, cf.Cond.RHS),
			l.dialect.Sync(),
			l.dialect.Branch(cf.Cond.Op, f.label),
		}, nil
	}
	return nil, mismatch(k, "unknown control-flow kind %s", cf.Kind)
}

// Finish reports constructs that were opened and never closed.
func (l *Lowerer) Finish() error {
	if len(l.open) == 0 {
		return nil
	}
	f := l.open[len(l.open)-1]
	return qerr.New(qerr.ErrMismatchedLabel, "%s '%s' is never closed", f.kind, f.label)
}

func (l *Lowerer) push(f *frame) { l.open = append(l.open, f) }

func (l *Lowerer) pop(k *ir.Kernel) (*frame, error) {
	if len(l.open) == 0 {
		return nil, mismatch(k, "%s without an open construct", k.Control.Kind)
	}
	f := l.open[len(l.open)-1]
	if !matches(f.kind, k.Control.Kind) {
		return nil, mismatch(k, "%s closes %s '%s'", k.Control.Kind, f.kind, f.label)
	}
	if label := Label(k.Name); label != f.label {
		return nil, mismatch(k, "label '%s' does not match '%s' opened by %s", label, f.label, f.kind)
	}
	l.open = l.open[:len(l.open)-1]
	return f, nil
}

func (l *Lowerer) loops() int {
	n := 0
	for _, f := range l.open {
		if f.kind == ir.ForStart {
			n++
		}
	}
	return n
}

// requireTarget checks that a kernel named after the loop label was emitted
// inside the loop, so the backward branch resolves.
func (f *frame) requireTarget(k *ir.Kernel) error {
	if slices.Contains(f.seen, f.label) {
		return nil
	}
	return mismatch(k, "no kernel named '%s' inside the loop to branch back to", f.label)
}
