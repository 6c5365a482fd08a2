// Package bundle groups scheduled instructions that start in the same cycle
// into bundles of parallel sections, and merges sections that map onto the
// same target instruction.
package bundle

import (
	"sort"

	"github.com/specialistvlad/eqasmc/internal/ir"
)

// Item references one scheduled instruction. The instruction itself lives in
// the kernel's circuit; Handle stays valid as long as that instruction does.
type Item struct {
	Handle ir.Handle
	Instr  ir.Instruction
	Order  int
}

// Section is a non-empty run of instructions issued as one target instruction.
type Section struct {
	Items []Item
}

// First returns the instruction that identifies the section.
func (s Section) First() ir.Instruction { return s.Items[0].Instr }

// IsClassical reports whether the section holds a classical instruction.
func (s Section) IsClassical() bool {
	for _, it := range s.Items {
		if it.Instr.Kind() == ir.KindClassical {
			return true
		}
	}
	return false
}

// Bundle is the set of instructions starting in StartCycle.
type Bundle struct {
	StartCycle int
	Duration   int
	Sections   []Section
}

// IsClassical reports whether the bundle holds a classical instruction.
func (b Bundle) IsClassical() bool {
	for _, s := range b.Sections {
		if s.IsClassical() {
			return true
		}
	}
	return false
}

// Instructions returns every instruction of the bundle, section by section.
func (b Bundle) Instructions() []ir.Instruction {
	var out []ir.Instruction
	for _, s := range b.Sections {
		for _, it := range s.Items {
			out = append(out, it.Instr)
		}
	}
	return out
}

// Build groups the entries of sc by start cycle. Every instruction gets a
// section of its own, in program order. Waits only shape the schedule and
// are left out.
func Build(sc *ir.ScheduledCircuit) []Bundle {
	entries := make([]ir.ScheduledInstruction, 0, len(sc.Entries))
	for _, e := range sc.Entries {
		if e.Instr.Kind() == ir.KindWait {
			continue
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Start != entries[j].Start {
			return entries[i].Start < entries[j].Start
		}
		return entries[i].Order < entries[j].Order
	})

	var bundles []Bundle
	for _, e := range entries {
		if len(bundles) == 0 || bundles[len(bundles)-1].StartCycle != e.Start {
			bundles = append(bundles, Bundle{StartCycle: e.Start})
		}
		b := &bundles[len(bundles)-1]
		b.Sections = append(b.Sections, Section{Items: []Item{{Handle: e.Handle, Instr: e.Instr, Order: e.Order}}})
		b.Duration = max(b.Duration, e.Instr.Cycles())
	}
	return bundles
}
