// Package scheduler assigns a start cycle to every instruction of a
// dependency graph.
//
// # Policies
//
// Three policies are available:
//   - **asap:** every instruction starts as soon as its incoming edges allow.
//   - **alap:** every instruction starts as late as the ASAP length allows,
//     then the schedule is shifted so the earliest instruction starts at 0.
//   - **rc:** ASAP plus instrument occupancy. Before a cycle is committed the
//     scheduler checks that no instruction already placed on the same
//     instrument overlaps its busy window (duration plus buffer time); on a
//     conflict it tries the next cycle. Placements are never revised.
//
// # Determinism
//
// Nodes are visited in topological order, and among ready nodes the lowest
// program-order index goes first. Identical graphs always produce identical
// schedules.
//
// # Failure
//
// A graph with a cycle, a negative edge weight or an occupancy conflict that
// cannot be resolved yields qerr.ErrUnschedulable. None of these happen with a
// consistent resource model; callers treat the error as fatal.
package scheduler

import (
	"fmt"

	"github.com/specialistvlad/eqasmc/internal/depgraph"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// Scheduler turns a dependency graph into a scheduled circuit.
type Scheduler interface {
	Schedule(g *depgraph.Graph) (*ir.ScheduledCircuit, error)
}

// ResourceModel is the instrument view the resource-constrained policy needs.
type ResourceModel interface {
	Instruments(opType string, qubits []int) []int
	Instrument(i int) platform.Instrument
	Buffer(from, to string) int
	MaxBuffer() int
}

// Policy names a scheduling policy.
type Policy string

const (
	PolicyASAP Policy = "asap"
	PolicyALAP Policy = "alap"
	PolicyRC   Policy = "rc"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyASAP, PolicyALAP, PolicyRC:
		return p, nil
	}
	return "", qerr.New(qerr.ErrConfiguration, "unknown scheduler '%s', expected asap, alap or rc", s)
}

// New returns the scheduler for p. rm is only used by PolicyRC.
func New(p Policy, rm ResourceModel) (Scheduler, error) {
	switch p {
	case PolicyASAP:
		return Func(ASAP), nil
	case PolicyALAP:
		return Func(ALAP), nil
	case PolicyRC:
		if rm == nil {
			return nil, fmt.Errorf("scheduler %s needs a resource model", p)
		}
		return Func(func(g *depgraph.Graph) (*ir.ScheduledCircuit, error) {
			return ResourceConstrained(g, rm)
		}), nil
	}
	return nil, qerr.New(qerr.ErrConfiguration, "unknown scheduler '%s'", p)
}

// Func adapts a plain function to the Scheduler interface.
type Func func(g *depgraph.Graph) (*ir.ScheduledCircuit, error)

func (f Func) Schedule(g *depgraph.Graph) (*ir.ScheduledCircuit, error) { return f(g) }
