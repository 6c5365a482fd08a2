package scheduler

import (
	"github.com/specialistvlad/eqasmc/internal/depgraph"
	"github.com/specialistvlad/eqasmc/internal/ir"
)

// ASAP starts every instruction at the smallest cycle its dependencies allow.
func ASAP(g *depgraph.Graph) (*ir.ScheduledCircuit, error) {
	start, err := asapStarts(g)
	if err != nil {
		return nil, err
	}
	return snapshot(g, start), nil
}

func asapStarts(g *depgraph.Graph) ([]int, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}
	start := make([]int, g.Len())
	for _, id := range order {
		start[id] = earliest(g, start, id)
	}
	return start, nil
}

// ALAP starts every instruction at the largest cycle that still lets the
// kernel finish within its ASAP length, then shifts the schedule so the
// earliest instruction starts at cycle 0.
func ALAP(g *depgraph.Graph) (*ir.ScheduledCircuit, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}
	asap, err := asapStarts(g)
	if err != nil {
		return nil, err
	}

	sink := g.Sink()
	start := make([]int, g.Len())
	start[sink] = asap[sink]
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if id == sink {
			continue
		}
		latest := start[sink]
		out, _ := g.Dependents(id)
		for _, e := range out {
			latest = min(latest, start[e.To]-e.Weight)
		}
		start[id] = latest
	}

	nodes := g.Instructions()
	if len(nodes) > 0 {
		shift := start[nodes[0].ID]
		for _, n := range nodes {
			shift = min(shift, start[n.ID])
		}
		for id := range start {
			start[id] -= shift
		}
	}
	start[g.Source()] = 0
	return snapshot(g, start), nil
}

func snapshot(g *depgraph.Graph, start []int) *ir.ScheduledCircuit {
	nodes := g.Instructions()
	sc := &ir.ScheduledCircuit{
		Entries: make([]ir.ScheduledInstruction, len(nodes)),
		Length:  start[g.Sink()],
	}
	for i, n := range nodes {
		sc.Entries[i] = ir.ScheduledInstruction{
			Handle: n.Handle,
			Instr:  n.Instr,
			Order:  n.Order(),
			Start:  start[n.ID],
		}
	}
	return sc
}
