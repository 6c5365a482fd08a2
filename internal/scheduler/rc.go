package scheduler

import (
	"github.com/specialistvlad/eqasmc/internal/depgraph"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

type reservation struct {
	start int
	end   int
	typ   string
	name  string
}

// occupancy tracks what each instrument has been committed to.
type occupancy struct {
	rm    ResourceModel
	slots map[int][]reservation
}

func gateName(ins ir.Instruction) string {
	if q, ok := ins.(ir.Quantum); ok {
		return q.Name
	}
	return ""
}

// busy is the number of cycles an instruction keeps its instruments.
func busy(n *depgraph.Node) int { return max(n.Duration, 1) }

// free reports whether n can start at t on instrument i.
func (o *occupancy) free(i int, n *depgraph.Node, t int) bool {
	shared := o.rm.Instrument(i).Shared
	name := gateName(n.Instr)
	for _, r := range o.slots[i] {
		if shared && name != "" && r.name == name && r.start == t {
			continue
		}
		candEnd, resEnd := t+busy(n), r.end
		if t < r.start {
			candEnd += o.rm.Buffer(n.Type, r.typ)
		} else {
			resEnd += o.rm.Buffer(r.typ, n.Type)
		}
		if t < resEnd && r.start < candEnd {
			return false
		}
	}
	return true
}

// horizon is a cycle from which no reservation on instruments can conflict.
func (o *occupancy) horizon(instruments []int) int {
	h := 0
	for _, i := range instruments {
		for _, r := range o.slots[i] {
			h = max(h, r.end)
		}
	}
	return h + o.rm.MaxBuffer() + 1
}

func (o *occupancy) reserve(instruments []int, n *depgraph.Node, t int) {
	for _, i := range instruments {
		o.slots[i] = append(o.slots[i], reservation{
			start: t,
			end:   t + busy(n),
			typ:   n.Type,
			name:  gateName(n.Instr),
		})
	}
}

// ResourceConstrained schedules like ASAP, but delays an instruction until
// every instrument it uses is free for its whole busy window.
func ResourceConstrained(g *depgraph.Graph, rm ResourceModel) (*ir.ScheduledCircuit, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}

	occ := &occupancy{rm: rm, slots: make(map[int][]reservation)}
	start := make([]int, g.Len())
	for _, id := range order {
		t := earliest(g, start, id)
		n := g.Node(id)
		if n.Instr == nil {
			start[id] = t
			continue
		}

		instruments := rm.Instruments(n.Type, ir.QubitsOf(n.Instr))
		limit := max(t, occ.horizon(instruments))
		for !occ.fits(instruments, n, t) {
			t++
			if t > limit {
				return nil, qerr.New(qerr.ErrUnschedulable, "no free instrument slot").At(n.Instr.String())
			}
		}
		occ.reserve(instruments, n, t)
		start[id] = t
	}
	return snapshot(g, start), nil
}

func (o *occupancy) fits(instruments []int, n *depgraph.Node, t int) bool {
	for _, i := range instruments {
		if !o.free(i, n, t) {
			return false
		}
	}
	return true
}
