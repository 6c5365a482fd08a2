package cc

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/emit"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// Quantum lists every instruction of the bundle with its own operands.
func (t *Target) Quantum(b bundle.Bundle) (string, error) {
	var parts []string
	for _, s := range b.Sections {
		for _, it := range s.Items {
			opcode, _, err := bundle.Identity(t.model, it.Instr)
			if err != nil {
				return "", err
			}
			if _, ok := it.Instr.(ir.Nop); ok {
				parts = append(parts, "nop")
				continue
			}
			qs := ir.QubitsOf(it.Instr)
			if len(qs) == 0 {
				parts = append(parts, opcode)
				continue
			}
			ops := make([]string, len(qs))
			for i, q := range qs {
				ops[i] = fmt.Sprintf("q%d", q)
			}
			parts = append(parts, opcode+" "+strings.Join(ops, ","))
		}
	}
	return strings.Join(parts, " | "), nil
}

// Classical renders the Q1 subset the CC executes.
func (t *Target) Classical(c ir.Classical) (string, error) {
	switch c.Op {
	case ir.OpNop:
		return "nop", nil
	case ir.OpLoadImmediate:
		return fmt.Sprintf("move %d,R%d", c.Imm, c.Cregs[0]), nil
	case ir.OpCmp:
		return fmt.Sprintf("cmp R%d,R%d", c.Cregs[0], c.Cregs[1]), nil
	case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpNot:
		// Q1 writes the destination last.
		regs := make([]string, 0, len(c.Cregs))
		for _, r := range c.Cregs[1:] {
			regs = append(regs, fmt.Sprintf("R%d", r))
		}
		regs = append(regs, fmt.Sprintf("R%d", c.Cregs[0]))
		return fmt.Sprintf("%s %s", c.Op, strings.Join(regs, ",")), nil
	}
	return "", qerr.New(qerr.ErrUnknownInstruction, "'%s' has no cc encoding", c.Op)
}

func (t *Target) Wait(cycles int) string { return fmt.Sprintf("seq_wait %d", cycles) }

func (t *Target) Timed(delta int, body string) string {
	return fmt.Sprintf("%s[%d] %s", emit.Indent, delta, body)
}

func (t *Target) BundleComment(i int, b bundle.Bundle) string {
	return fmt.Sprintf("## Bundle %d (start_cycle=%d, duration_in_cycles=%d):", i, b.StartCycle, b.Duration)
}

type dialect struct{}

func (dialect) Compare(lhs, rhs int) string { return fmt.Sprintf("cmp R%d,R%d", lhs, rhs) }
func (dialect) Sync() string                { return "nop" }

func (dialect) Branch(op ir.RelOp, label string) string {
	return fmt.Sprintf("j%s @%s", op, label)
}

func (dialect) LoadImmediate(reg, value int) string { return fmt.Sprintf("move %d,R%d", value, reg) }
func (dialect) Add(dst, a, b int) string            { return fmt.Sprintf("add R%d,R%d,R%d", a, b, dst) }
