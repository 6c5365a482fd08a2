package cclight

import (
	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// moveScratch holds the zero that mov adds to its source.
const moveScratch = 28

// detuneGate is the single-qubit flux pulse parking a spectator qubit.
const detuneGate = "sqf"

// Lower rewrites what CC-Light cannot issue directly:
//   - eq/ne/lt/gt/le/ge dst, a, b become cmp a, b; nop; fbr_<op> dst
//   - mov dst, src becomes ldi r28, 0; add dst, src, r28
//   - a gate writing a register is followed by fmr creg, qubit
func (t *Target) Lower(k *ir.Kernel) error {
	out := ir.NewCircuit()
	cycles := t.settings.ClassicalCycles

	for _, ins := range k.Circuit.Instructions() {
		switch v := ins.(type) {
		case ir.Classical:
			if rel, ok := v.Op.Relation(); ok && !v.Op.IsBranch() {
				seq, err := t.classicalSeq(
					op(ir.OpCmp, v.Cregs[1], v.Cregs[2]),
					op(ir.OpNop),
					op(ir.BranchOp(rel), v.Cregs[0]),
				)
				if err != nil {
					return qerr.InKernel(err, k.Name)
				}
				appendAll(out, seq)
				continue
			}
			if v.Op == ir.OpMove {
				if moveScratch >= t.model.CregCount {
					e := qerr.New(qerr.ErrRegisterExhaustion, "mov needs scratch register r%d", moveScratch).At(v.String())
					return qerr.InKernel(e, k.Name)
				}
				ldi, err := ir.NewClassical(ir.OpLoadImmediate, []int{moveScratch}, 0, cycles)
				if err != nil {
					return qerr.InKernel(err, k.Name)
				}
				add, err := ir.NewClassical(ir.OpAdd, []int{v.Cregs[0], v.Cregs[1], moveScratch}, 0, cycles)
				if err != nil {
					return qerr.InKernel(err, k.Name)
				}
				out.Append(ldi)
				out.Append(add)
				continue
			}
			out.Append(v)

		case ir.Quantum:
			out.Append(v)
			if !v.HasCreg() {
				continue
			}
			if len(v.Qubits) != 1 {
				e := qerr.New(qerr.ErrMalformedCircuit, "a result register needs exactly one measured qubit").At(v.String())
				return qerr.InKernel(e, k.Name)
			}
			fmr, err := ir.NewFetchResult(v.Creg, v.Qubits[0], cycles)
			if err != nil {
				return qerr.InKernel(err, k.Name)
			}
			out.Append(fmr)

		default:
			out.Append(ins)
		}
	}
	k.Circuit = out
	return nil
}

type classicalOp struct {
	op    ir.ClassicalOp
	cregs []int
}

func op(o ir.ClassicalOp, cregs ...int) classicalOp { return classicalOp{o, cregs} }

func (t *Target) classicalSeq(ops ...classicalOp) ([]ir.Instruction, error) {
	out := make([]ir.Instruction, 0, len(ops))
	for _, o := range ops {
		c, err := ir.NewClassical(o.op, o.cregs, 0, t.settings.ClassicalCycles)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func appendAll(c *ir.Circuit, instrs []ir.Instruction) {
	for _, ins := range instrs {
		c.Append(ins)
	}
}

// Finalize adds, with cz_mode auto, an sqf section for every qubit that
// must be detuned while a two-qubit flux gate of the bundle runs.
func (t *Target) Finalize(k *ir.Kernel, bundles []bundle.Bundle) ([]bundle.Bundle, error) {
	if !t.settings.CZAuto {
		return bundles, nil
	}

	out := make([]bundle.Bundle, len(bundles))
	for i, b := range bundles {
		detuned := make(map[int]bool)
		var added []int
		for _, ins := range b.Instructions() {
			q, ok := ins.(ir.Quantum)
			if !ok || len(q.Qubits) != 2 {
				continue
			}
			in, err := t.model.Instruction(q.Name)
			if err != nil {
				return nil, qerr.InKernel(err, k.Name)
			}
			if in.Type != "flux" {
				continue
			}
			edge, ok := t.model.Edge(q.Qubits[0], q.Qubits[1])
			if !ok {
				e := qerr.New(qerr.ErrMalformedCircuit, "qubits %d and %d share no topology edge", q.Qubits[0], q.Qubits[1]).At(q.String())
				return nil, qerr.InKernel(e, k.Name)
			}
			for _, d := range t.model.DetunedQubits(edge) {
				if !detuned[d] {
					detuned[d] = true
					added = append(added, d)
				}
			}
		}

		out[i] = b
		if len(added) == 0 {
			continue
		}
		sqf, err := t.model.Instruction(detuneGate)
		if err != nil {
			return nil, qerr.InKernel(err, k.Name)
		}
		sections := append([]bundle.Section(nil), b.Sections...)
		for _, d := range added {
			g, err := ir.NewQuantum(detuneGate, []int{d}, sqf.Duration)
			if err != nil {
				return nil, err
			}
			sections = append(sections, bundle.Section{Items: []bundle.Item{{Instr: g, Order: -1}}})
			out[i].Duration = max(out[i].Duration, sqf.Duration)
		}
		out[i].Sections = sections
	}
	return out, nil
}
