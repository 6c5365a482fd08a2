// Package ir holds the instruction model: the closed Instruction variant,
// the arena-backed Circuit and kernels with their control-flow tags.
package ir

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// NoCreg marks a quantum instruction that writes no classical result.
const NoCreg = -1

// Kind enumerates the Instruction variants.
type Kind int

const (
	KindQuantum Kind = iota
	KindClassical
	KindWait
	KindNop
)

func (k Kind) String() string {
	switch k {
	case KindQuantum:
		return "quantum"
	case KindClassical:
		return "classical"
	case KindWait:
		return "wait"
	case KindNop:
		return "nop"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Instruction is implemented only by Quantum, Classical, Wait and Nop.
type Instruction interface {
	Kind() Kind
	// Cycles is the number of cycles the instruction occupies.
	Cycles() int
	String() string
	instruction()
}

// Quantum is a gate acting on one or more qubits.
type Quantum struct {
	Name     string
	Qubits   []int
	Duration int
	Creg     int
}

// NewQuantum builds a gate without a classical result.
func NewQuantum(name string, qubits []int, duration int) (Quantum, error) {
	return NewMeasurement(name, qubits, duration, NoCreg)
}

// NewMeasurement builds a gate that writes its outcome into creg.
func NewMeasurement(name string, qubits []int, duration, creg int) (Quantum, error) {
	if name == "" {
		return Quantum{}, qerr.New(qerr.ErrMalformedCircuit, "gate without a name")
	}
	if duration < 0 {
		return Quantum{}, qerr.New(qerr.ErrMalformedCircuit, "gate '%s' has negative duration %d", name, duration)
	}
	if creg < NoCreg {
		return Quantum{}, qerr.New(qerr.ErrMalformedCircuit, "gate '%s' has invalid result register %d", name, creg)
	}
	return Quantum{Name: name, Qubits: append([]int(nil), qubits...), Duration: duration, Creg: creg}, nil
}

func (Quantum) Kind() Kind      { return KindQuantum }
func (q Quantum) Cycles() int   { return q.Duration }
func (Quantum) instruction()    {}
func (q Quantum) HasCreg() bool { return q.Creg != NoCreg }

func (q Quantum) String() string {
	s := q.Name + " " + joinOperands("q", q.Qubits)
	if q.HasCreg() {
		s += fmt.Sprintf(" -> r%d", q.Creg)
	}
	return strings.TrimSpace(s)
}

// Wait is an explicit timing barrier on its qubits, or on all qubits when
// Qubits is empty.
type Wait struct {
	Qubits   []int
	Duration int
}

func NewWait(qubits []int, duration int) (Wait, error) {
	if duration < 0 {
		return Wait{}, qerr.New(qerr.ErrMalformedCircuit, "wait has negative duration %d", duration)
	}
	return Wait{Qubits: append([]int(nil), qubits...), Duration: duration}, nil
}

func (Wait) Kind() Kind    { return KindWait }
func (w Wait) Cycles() int { return w.Duration }
func (Wait) instruction()  {}

func (w Wait) String() string {
	return strings.TrimSpace(fmt.Sprintf("wait %d %s", w.Duration, joinOperands("q", w.Qubits)))
}

// Nop occupies one cycle.
type Nop struct{}

func (Nop) Kind() Kind     { return KindNop }
func (Nop) Cycles() int    { return 1 }
func (Nop) instruction()   {}
func (Nop) String() string { return "nop" }

// QubitsOf lists the qubits ins names explicitly. A wait without operands
// and Nop return none.
func QubitsOf(ins Instruction) []int {
	switch v := ins.(type) {
	case Quantum:
		return v.Qubits
	case Wait:
		return v.Qubits
	case Classical:
		if v.Qubit != NoQubit {
			return []int{v.Qubit}
		}
	}
	return nil
}

func joinOperands(prefix string, ops []int) string {
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = fmt.Sprintf("%s%d", prefix, o)
	}
	return strings.Join(parts, ",")
}
