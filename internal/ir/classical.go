package ir

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// NoQubit marks a classical instruction that reads no qubit.
const NoQubit = -1

// ClassicalOp names a classical operation.
type ClassicalOp string

const (
	OpAdd           ClassicalOp = "add"
	OpSub           ClassicalOp = "sub"
	OpAnd           ClassicalOp = "and"
	OpOr            ClassicalOp = "or"
	OpXor           ClassicalOp = "xor"
	OpNot           ClassicalOp = "not"
	OpCmp           ClassicalOp = "cmp"
	OpLoadImmediate ClassicalOp = "ldi"
	OpFetchResult   ClassicalOp = "fmr"
	OpNop           ClassicalOp = "nop"

	OpBranchEQ ClassicalOp = "fbr_eq"
	OpBranchNE ClassicalOp = "fbr_ne"
	OpBranchLT ClassicalOp = "fbr_lt"
	OpBranchGT ClassicalOp = "fbr_gt"
	OpBranchLE ClassicalOp = "fbr_le"
	OpBranchGE ClassicalOp = "fbr_ge"

	// Comparison and move forms are decomposed by a target before scheduling.
	OpEQ   ClassicalOp = "eq"
	OpNE   ClassicalOp = "ne"
	OpLT   ClassicalOp = "lt"
	OpGT   ClassicalOp = "gt"
	OpLE   ClassicalOp = "le"
	OpGE   ClassicalOp = "ge"
	OpMove ClassicalOp = "mov"
)

type classicalShape struct {
	cregs int
	imm   bool
	qubit bool
}

var classicalShapes = map[ClassicalOp]classicalShape{
	OpAdd:           {cregs: 3},
	OpSub:           {cregs: 3},
	OpAnd:           {cregs: 3},
	OpOr:            {cregs: 3},
	OpXor:           {cregs: 3},
	OpNot:           {cregs: 2},
	OpCmp:           {cregs: 2},
	OpLoadImmediate: {cregs: 1, imm: true},
	OpFetchResult:   {cregs: 1, qubit: true},
	OpNop:           {},
	OpBranchEQ:      {cregs: 1},
	OpBranchNE:      {cregs: 1},
	OpBranchLT:      {cregs: 1},
	OpBranchGT:      {cregs: 1},
	OpBranchLE:      {cregs: 1},
	OpBranchGE:      {cregs: 1},
	OpEQ:            {cregs: 3},
	OpNE:            {cregs: 3},
	OpLT:            {cregs: 3},
	OpGT:            {cregs: 3},
	OpLE:            {cregs: 3},
	OpGE:            {cregs: 3},
	OpMove:          {cregs: 2},
}

// ParseClassicalOp validates a textual op name.
func ParseClassicalOp(s string) (ClassicalOp, error) {
	op := ClassicalOp(strings.ToLower(s))
	if _, ok := classicalShapes[op]; !ok {
		return "", qerr.New(qerr.ErrUnknownInstruction, "unknown classical operation '%s'", s)
	}
	return op, nil
}

// Arity is the number of classical register operands op takes.
func (op ClassicalOp) Arity() int { return classicalShapes[op].cregs }

// Relation returns the relational operator of a comparison or branch op.
func (op ClassicalOp) Relation() (RelOp, bool) {
	switch op {
	case OpEQ, OpBranchEQ:
		return RelEQ, true
	case OpNE, OpBranchNE:
		return RelNE, true
	case OpLT, OpBranchLT:
		return RelLT, true
	case OpGT, OpBranchGT:
		return RelGT, true
	case OpLE, OpBranchLE:
		return RelLE, true
	case OpGE, OpBranchGE:
		return RelGE, true
	}
	return "", false
}

// IsBranch reports whether op is one of the fbr_* flag reads.
func (op ClassicalOp) IsBranch() bool {
	return strings.HasPrefix(string(op), "fbr_")
}

// BranchOp is the fbr_* op reading the flag set by cmp for rel.
func BranchOp(rel RelOp) ClassicalOp {
	return ClassicalOp("fbr_" + string(rel))
}

// Classical is an operation on classical registers.
type Classical struct {
	Op       ClassicalOp
	Cregs    []int
	Qubit    int
	Imm      int
	Duration int
}

// NewClassical builds a classical instruction, checking its operand count.
// The immediate is only meaningful for ldi.
func NewClassical(op ClassicalOp, cregs []int, imm, duration int) (Classical, error) {
	shape, ok := classicalShapes[op]
	if !ok {
		return Classical{}, qerr.New(qerr.ErrUnknownInstruction, "unknown classical operation '%s'", op)
	}
	if shape.qubit {
		return Classical{}, qerr.New(qerr.ErrMalformedCircuit, "'%s' needs a qubit operand", op)
	}
	return newClassical(op, shape, cregs, NoQubit, imm, duration)
}

// NewFetchResult builds fmr, which moves the last measurement of qubit into creg.
func NewFetchResult(creg, qubit, duration int) (Classical, error) {
	if qubit < 0 {
		return Classical{}, qerr.New(qerr.ErrMalformedCircuit, "'%s' needs a qubit operand", OpFetchResult)
	}
	return newClassical(OpFetchResult, classicalShapes[OpFetchResult], []int{creg}, qubit, 0, duration)
}

func newClassical(op ClassicalOp, shape classicalShape, cregs []int, qubit, imm, duration int) (Classical, error) {
	if len(cregs) != shape.cregs {
		return Classical{}, qerr.New(qerr.ErrMalformedCircuit,
			"'%s' takes %d register operands, got %d", op, shape.cregs, len(cregs))
	}
	for _, r := range cregs {
		if r < 0 {
			return Classical{}, qerr.New(qerr.ErrMalformedCircuit, "'%s' has negative register r%d", op, r)
		}
	}
	if duration < 0 {
		return Classical{}, qerr.New(qerr.ErrMalformedCircuit, "'%s' has negative duration %d", op, duration)
	}
	if !shape.imm {
		imm = 0
	}
	return Classical{Op: op, Cregs: append([]int(nil), cregs...), Qubit: qubit, Imm: imm, Duration: duration}, nil
}

func (Classical) Kind() Kind   { return KindClassical }
func (Classical) instruction() {}

// Cycles is at least one: a classical instruction always takes an issue slot.
func (c Classical) Cycles() int {
	if c.Duration < 1 {
		return 1
	}
	return c.Duration
}

func (c Classical) String() string {
	ops := joinOperands("r", c.Cregs)
	switch {
	case c.Op == OpLoadImmediate:
		ops += fmt.Sprintf(",%d", c.Imm)
	case c.Qubit != NoQubit:
		ops += fmt.Sprintf(",q%d", c.Qubit)
	}
	return strings.TrimSpace(string(c.Op) + " " + ops)
}
