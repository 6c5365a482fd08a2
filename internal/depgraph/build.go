package depgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// ResourceModel is the part of the platform the builder needs.
type ResourceModel interface {
	Qubits() int
	Cregs() int
	TypeOf(ins ir.Instruction) (string, error)
	Buffer(from, to string) int
	Instruments(opType string, qubits []int) []int
	ControlCommutes(name string) bool
	TargetCommutes(name string) bool
}

type access int

const (
	accessWrite access = iota
	// accessControl reads the first operand of a commuting control-unitary.
	accessControl
	// accessTarget reads the second operand of a target-commuting gate.
	accessTarget
)

type operand struct {
	res int
	acc access
}

type group struct {
	kind    access
	members []int
}

// resourceState tracks the current access group on one qubit or register and
// the group before it. Members of a commuting group depend on prev only.
type resourceState struct {
	cur  group
	prev group
}

type builder struct {
	g      *Graph
	rm     ResourceModel
	qubits int
	cregs  int
	states []resourceState
	// earlier nodes per instrument and operation type, for buffer edges.
	seen []map[string][]int
}

// Build constructs the dependency graph of c.
func Build(c *ir.Circuit, rm ResourceModel) (*Graph, error) {
	b := &builder{
		g:      newGraph(c.Len()),
		rm:     rm,
		qubits: rm.Qubits(),
		cregs:  rm.Cregs(),
	}
	b.states = make([]resourceState, b.qubits+b.cregs)
	source := b.g.addNode(&Node{})
	for i := range b.states {
		b.states[i].cur = group{kind: accessWrite, members: []int{source.ID}}
	}

	handles := c.Handles()
	for _, h := range handles {
		ins, _ := c.Get(h)
		typ, err := rm.TypeOf(ins)
		if err != nil {
			return nil, withInstr(err, ins)
		}
		b.g.addNode(&Node{Handle: h, Instr: ins, Type: typ, Duration: ins.Cycles()})
	}
	sink := b.g.addNode(&Node{})

	for _, n := range b.g.Instructions() {
		ops, err := b.operands(n.Instr)
		if err != nil {
			return nil, withInstr(err, n.Instr)
		}
		if err := b.addHazards(n, ops); err != nil {
			return nil, err
		}
		if err := b.addBuffers(n); err != nil {
			return nil, err
		}
		if err := b.g.AddEdge(source.ID, n.ID, EdgeOrder, 0, "source"); err != nil {
			return nil, err
		}
		if err := b.g.AddEdge(n.ID, sink.ID, EdgeOrder, n.Duration, "sink"); err != nil {
			return nil, err
		}
	}
	if len(handles) == 0 {
		if err := b.g.AddEdge(source.ID, sink.ID, EdgeOrder, 0, "sink"); err != nil {
			return nil, err
		}
	}

	if err := b.g.DetectCycles(); err != nil {
		return nil, qerr.New(qerr.ErrUnschedulable, "%s", err)
	}
	return b.g, nil
}

func withInstr(err error, ins ir.Instruction) error {
	var qe *qerr.Error
	if errors.As(err, &qe) {
		return qe.At(ins.String())
	}
	return err
}

// operands lists the resources ins touches and how.
func (b *builder) operands(ins ir.Instruction) ([]operand, error) {
	switch v := ins.(type) {
	case ir.Quantum:
		if err := b.checkQubits(v.Qubits); err != nil {
			return nil, err
		}
		ops := make([]operand, 0, len(v.Qubits)+1)
		for i, q := range v.Qubits {
			acc := accessWrite
			if len(v.Qubits) == 2 {
				switch {
				case i == 0 && b.rm.ControlCommutes(v.Name):
					acc = accessControl
				case i == 1 && b.rm.TargetCommutes(v.Name):
					acc = accessTarget
				}
			}
			ops = append(ops, operand{res: q, acc: acc})
		}
		if v.HasCreg() {
			if err := b.checkCreg(v.Creg); err != nil {
				return nil, err
			}
			ops = append(ops, operand{res: b.qubits + v.Creg, acc: accessWrite})
		}
		return ops, nil

	case ir.Classical:
		for _, r := range v.Cregs {
			if err := b.checkCreg(r); err != nil {
				return nil, err
			}
		}
		if v.Qubit != ir.NoQubit {
			if err := b.checkQubits([]int{v.Qubit}); err != nil {
				return nil, err
			}
		}
		return b.barrier(b.qubits + b.cregs), nil

	case ir.Wait:
		if len(v.Qubits) == 0 {
			return b.barrier(b.qubits), nil
		}
		if err := b.checkQubits(v.Qubits); err != nil {
			return nil, err
		}
		ops := make([]operand, len(v.Qubits))
		for i, q := range v.Qubits {
			ops[i] = operand{res: q, acc: accessWrite}
		}
		return ops, nil

	case ir.Nop:
		return b.barrier(b.qubits + b.cregs), nil

	default:
		panic(fmt.Sprintf("depgraph: unhandled instruction %T", ins))
	}
}

// barrier writes the first n resources: every qubit, then the registers.
func (b *builder) barrier(n int) []operand {
	ops := make([]operand, n)
	for i := range ops {
		ops[i] = operand{res: i, acc: accessWrite}
	}
	return ops
}

func (b *builder) checkQubits(qs []int) error {
	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		if q < 0 || q >= b.qubits {
			return qerr.New(qerr.ErrMalformedCircuit, "qubit %d outside platform of %d qubits", q, b.qubits)
		}
		if seen[q] {
			return qerr.New(qerr.ErrMalformedCircuit, "qubit %d used twice", q)
		}
		seen[q] = true
	}
	return nil
}

func (b *builder) checkCreg(r int) error {
	if r < 0 || r >= b.cregs {
		return qerr.New(qerr.ErrMalformedCircuit, "register %d outside platform of %d registers", r, b.cregs)
	}
	return nil
}

func (b *builder) resourceName(res int) string {
	if res < b.qubits {
		return fmt.Sprintf("q%d", res)
	}
	return fmt.Sprintf("r%d", res-b.qubits)
}

func (b *builder) addHazards(n *Node, ops []operand) error {
	for _, op := range ops {
		st := &b.states[op.res]
		var deps group
		var kind EdgeKind
		switch {
		case op.acc == accessWrite:
			deps = st.cur
			kind = EdgeWAR
			if st.cur.kind == accessWrite {
				kind = EdgeWAW
			}
			st.prev, st.cur = st.cur, group{kind: accessWrite, members: []int{n.ID}}
		case st.cur.kind == op.acc:
			// Joins a run of commuting accesses: depend on what came before the run.
			deps = st.prev
			kind = hazardAfter(st.prev.kind)
			st.cur.members = append(st.cur.members, n.ID)
		default:
			deps = st.cur
			kind = hazardAfter(st.cur.kind)
			st.prev, st.cur = st.cur, group{kind: op.acc, members: []int{n.ID}}
		}

		for _, from := range deps.members {
			if from == b.g.Source() {
				continue
			}
			if err := b.link(from, n, kind, b.resourceName(op.res)); err != nil {
				return err
			}
		}
	}
	return nil
}

// hazardAfter is the edge kind of a commuting read following prev.
func hazardAfter(prev access) EdgeKind {
	if prev == accessWrite {
		return EdgeRAW
	}
	return EdgeOrder
}

// addBuffers links n to every earlier instruction on each instrument n
// uses whose operation type needs a gap before n's type.
func (b *builder) addBuffers(n *Node) error {
	instruments := b.rm.Instruments(n.Type, ir.QubitsOf(n.Instr))
	for _, i := range instruments {
		for len(b.seen) <= i {
			b.seen = append(b.seen, nil)
		}
		if b.seen[i] == nil {
			b.seen[i] = make(map[string][]int)
		}
		types := make([]string, 0, len(b.seen[i]))
		for t := range b.seen[i] {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			if b.rm.Buffer(t, n.Type) == 0 {
				continue
			}
			for _, from := range b.seen[i][t] {
				if err := b.link(from, n, EdgeBuffer, fmt.Sprintf("instrument %d", i)); err != nil {
					return err
				}
			}
		}
		b.seen[i][n.Type] = append(b.seen[i][n.Type], n.ID)
	}
	return nil
}

// link adds from -> to weighted by the producer's duration or the buffer
// between the two operation types, whichever is larger. A classical
// instruction never starts in the same cycle as its neighbours.
func (b *builder) link(from int, to *Node, kind EdgeKind, cause string) error {
	prod := b.g.Node(from)
	w := max(prod.Duration, b.rm.Buffer(prod.Type, to.Type))
	if isClassical(prod.Instr) || isClassical(to.Instr) {
		w = max(w, 1)
	}
	return b.g.AddEdge(from, to.ID, kind, w, cause)
}

func isClassical(ins ir.Instruction) bool {
	_, ok := ins.(ir.Classical)
	return ok
}
