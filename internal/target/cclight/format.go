package cclight

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/emit"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/mask"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// Quantum renders every section as one SIMD instruction on a mask register.
func (t *Target) Quantum(b bundle.Bundle) (string, error) {
	parts := make([]string, 0, len(b.Sections))
	for _, s := range b.Sections {
		text, err := t.section(s)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " | "), nil
}

func (t *Target) section(s bundle.Section) (string, error) {
	opcode, arity, err := bundle.Identity(t.model, s.First())
	if err != nil {
		return "", err
	}

	switch arity {
	case 0:
		return opcode, nil
	case 1:
		qubits := make([]int, 0, len(s.Items))
		for _, it := range s.Items {
			qs, err := operands(it.Instr, 1)
			if err != nil {
				return "", err
			}
			qubits = append(qubits, qs[0])
		}
		reg, err := t.masks.QubitSet(qubits)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s s%d", opcode, reg), nil
	case 2:
		pairs := make([]mask.Pair, 0, len(s.Items))
		for _, it := range s.Items {
			qs, err := operands(it.Instr, 2)
			if err != nil {
				return "", err
			}
			pairs = append(pairs, mask.Pair{A: qs[0], B: qs[1]})
		}
		reg, err := t.masks.PairSet(pairs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s t%d", opcode, reg), nil
	}
	return "", qerr.New(qerr.ErrMalformedCircuit, "masks address one or two qubits, '%s' takes %d", opcode, arity).At(s.First().String())
}

func operands(ins ir.Instruction, arity int) ([]int, error) {
	qs := ir.QubitsOf(ins)
	if len(qs) != arity {
		return nil, qerr.New(qerr.ErrMalformedCircuit, "expected %d qubit operands, got %d", arity, len(qs)).At(ins.String())
	}
	return qs, nil
}

// Classical renders a classical instruction. Comparison and move forms must
// have been decomposed by Lower.
func (t *Target) Classical(c ir.Classical) (string, error) {
	switch {
	case c.Op == ir.OpNop:
		return "nop", nil
	case c.Op == ir.OpLoadImmediate:
		return fmt.Sprintf("ldi r%d, %d", c.Cregs[0], c.Imm), nil
	case c.Op == ir.OpFetchResult:
		return fmt.Sprintf("fmr r%d, q%d", c.Cregs[0], c.Qubit), nil
	case c.Op.IsBranch():
		rel, _ := c.Op.Relation()
		return fmt.Sprintf("fbr %s, r%d", strings.ToUpper(string(rel)), c.Cregs[0]), nil
	}
	switch c.Op {
	case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpNot, ir.OpCmp:
		regs := make([]string, len(c.Cregs))
		for i, r := range c.Cregs {
			regs[i] = fmt.Sprintf("r%d", r)
		}
		return fmt.Sprintf("%s %s", c.Op, strings.Join(regs, ", ")), nil
	}
	return "", qerr.New(qerr.ErrUnknownInstruction, "'%s' has no cc_light encoding", c.Op)
}

func (t *Target) Wait(cycles int) string { return fmt.Sprintf("qwait %d", cycles) }

func (t *Target) Timed(delta int, body string) string {
	return fmt.Sprintf("%s%d    %s", emit.Indent, delta, body)
}

// dialect spells control-flow fragments.
type dialect struct{}

func (dialect) Compare(lhs, rhs int) string { return fmt.Sprintf("cmp r%d, r%d", lhs, rhs) }
func (dialect) Sync() string                { return "nop" }

func (dialect) Branch(op ir.RelOp, label string) string {
	return fmt.Sprintf("br %s, %s", op, label)
}

func (dialect) LoadImmediate(reg, value int) string { return fmt.Sprintf("ldi r%d, %d", reg, value) }
func (dialect) Add(dst, a, b int) string            { return fmt.Sprintf("add r%d, r%d, r%d", dst, a, b) }
