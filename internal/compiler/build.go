package compiler

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// BuildKernels translates a configured program into kernels of resolved
// instructions. Gate durations come from the platform unless the program
// overrides them; classical instructions take classicalCycles each.
func BuildKernels(prog *config.Program, m *platform.Model, classicalCycles int) (*ir.Program, error) {
	out := &ir.Program{Name: prog.Name}
	seen := make(map[string]bool, len(prog.Kernels))

	for _, kc := range prog.Kernels {
		if seen[kc.Name] {
			return nil, qerr.New(qerr.ErrConfiguration, "kernel '%s' is defined twice", kc.Name)
		}
		seen[kc.Name] = true

		k, err := buildKernel(kc, m, classicalCycles)
		if err != nil {
			return nil, qerr.InKernel(err, kc.Name)
		}
		out.Kernels = append(out.Kernels, k)
	}
	return out, nil
}

func buildKernel(kc *config.Kernel, m *platform.Model, classicalCycles int) (*ir.Kernel, error) {
	kind, err := ir.ParseControlKind(kc.Control)
	if err != nil {
		return nil, err
	}
	cf := ir.ControlFlow{Kind: kind, Iterations: kc.Iterations}

	switch kind {
	case ir.IfStart, ir.ElseStart, ir.DoWhileEnd:
		if kc.Condition == nil {
			return nil, qerr.New(qerr.ErrConfiguration, "%s needs a condition", kind)
		}
		op, err := ir.ParseRelOp(kc.Condition.Op)
		if err != nil {
			return nil, err
		}
		for _, r := range []int{kc.Condition.LHS, kc.Condition.RHS} {
			if r < 0 || r >= m.CregCount {
				return nil, qerr.New(qerr.ErrMalformedCircuit, "condition register r%d outside 0..%d", r, m.CregCount-1)
			}
		}
		cf.Cond = ir.Condition{LHS: kc.Condition.LHS, Op: op, RHS: kc.Condition.RHS}
	case ir.ForStart:
		if kc.Iterations < 0 {
			return nil, qerr.New(qerr.ErrConfiguration, "negative iteration count %d", kc.Iterations)
		}
	}

	k := ir.NewKernel(kc.Name, cf)
	for _, op := range kc.Ops {
		ins, err := buildOp(op, m, classicalCycles)
		if err != nil {
			return nil, err
		}
		k.Circuit.Append(ins)
	}
	return k, nil
}

func buildOp(op *config.Op, m *platform.Model, classicalCycles int) (ir.Instruction, error) {
	ins, err := resolveOp(op, m, classicalCycles)
	var qe *qerr.Error
	if errors.As(err, &qe) && qe.Instruction == "" && op.Line > 0 {
		return nil, qe.At(fmt.Sprintf("%s (line %d)", op.Name, op.Line))
	}
	return ins, err
}

func resolveOp(op *config.Op, m *platform.Model, classicalCycles int) (ir.Instruction, error) {
	switch op.Kind {
	case config.OpGate:
		in, err := m.Instruction(op.Name)
		if err != nil {
			return nil, err
		}
		if in.Arity > 0 && len(op.Qubits) != in.Arity {
			return nil, qerr.New(qerr.ErrMalformedCircuit, "'%s' takes %d qubits, got %d", op.Name, in.Arity, len(op.Qubits))
		}
		duration := in.Duration
		if op.Duration != nil {
			if *op.Duration < 0 {
				return nil, qerr.New(qerr.ErrMalformedCircuit, "'%s' has negative duration %d", op.Name, *op.Duration)
			}
			duration = m.Cycles(*op.Duration)
		}
		creg := ir.NoCreg
		if op.Creg != nil {
			creg = *op.Creg
		}
		return ir.NewMeasurement(op.Name, op.Qubits, duration, creg)

	case config.OpClassical:
		cop, err := ir.ParseClassicalOp(op.Name)
		if err != nil {
			return nil, err
		}
		if cop == ir.OpFetchResult {
			if op.Qubit == nil || len(op.Cregs) != 1 {
				return nil, qerr.New(qerr.ErrMalformedCircuit, "fmr takes one register and a qubit")
			}
			return ir.NewFetchResult(op.Cregs[0], *op.Qubit, classicalCycles)
		}
		return ir.NewClassical(cop, op.Cregs, op.Imm, classicalCycles)

	case config.OpWait:
		return ir.NewWait(op.Qubits, op.Cycles)

	case config.OpNop:
		return ir.Nop{}, nil
	}
	return nil, qerr.New(qerr.ErrConfiguration, "unknown instruction block kind %d", op.Kind)
}
