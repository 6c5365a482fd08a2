package ir

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// RelOp is a relational operator used by control-flow conditions.
type RelOp string

const (
	RelEQ RelOp = "eq"
	RelNE RelOp = "ne"
	RelLT RelOp = "lt"
	RelGT RelOp = "gt"
	RelLE RelOp = "le"
	RelGE RelOp = "ge"
)

func ParseRelOp(s string) (RelOp, error) {
	switch op := RelOp(strings.ToLower(s)); op {
	case RelEQ, RelNE, RelLT, RelGT, RelLE, RelGE:
		return op, nil
	}
	return "", qerr.New(qerr.ErrConfiguration, "unknown relational operator '%s'", s)
}

// Inverse returns the operator that holds exactly when op does not.
func (op RelOp) Inverse() RelOp {
	switch op {
	case RelEQ:
		return RelNE
	case RelNE:
		return RelEQ
	case RelLT:
		return RelGE
	case RelGE:
		return RelLT
	case RelGT:
		return RelLE
	case RelLE:
		return RelGT
	}
	panic(fmt.Sprintf("ir: unknown relational operator %q", string(op)))
}

// ControlKind tags a kernel with the structured construct it opens or closes.
type ControlKind int

const (
	Plain ControlKind = iota
	IfStart
	ElseStart
	ForStart
	DoWhileStart
	IfEnd
	ElseEnd
	ForEnd
	DoWhileEnd
)

var controlKindNames = []string{
	Plain:        "plain",
	IfStart:      "if_start",
	ElseStart:    "else_start",
	ForStart:     "for_start",
	DoWhileStart: "do_while_start",
	IfEnd:        "if_end",
	ElseEnd:      "else_end",
	ForEnd:       "for_end",
	DoWhileEnd:   "do_while_end",
}

func (k ControlKind) String() string {
	if int(k) < len(controlKindNames) {
		return controlKindNames[k]
	}
	return fmt.Sprintf("control(%d)", int(k))
}

// ParseControlKind maps the configuration spelling onto a ControlKind.
// An empty string is Plain.
func ParseControlKind(s string) (ControlKind, error) {
	if s == "" {
		return Plain, nil
	}
	for i, name := range controlKindNames {
		if name == s {
			return ControlKind(i), nil
		}
	}
	return Plain, qerr.New(qerr.ErrConfiguration, "unknown control-flow kind '%s'", s)
}

// Condition compares two classical registers.
type Condition struct {
	LHS int
	Op  RelOp
	RHS int
}

// ControlFlow is attached to a kernel when it is built and read once by the
// control-flow lowerer.
type ControlFlow struct {
	Kind       ControlKind
	Cond       Condition
	Iterations int
}

// Kernel is a named circuit with an optional control-flow tag.
type Kernel struct {
	Name    string
	Circuit *Circuit
	Control ControlFlow
}

func NewKernel(name string, control ControlFlow) *Kernel {
	return &Kernel{Name: name, Circuit: NewCircuit(), Control: control}
}

// Program is an ordered list of kernels compiled as one unit.
type Program struct {
	Name    string
	Kernels []*Kernel
}
