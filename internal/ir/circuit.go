package ir

import (
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// Handle refers to an instruction stored in a Circuit. A handle goes stale
// when its instruction is removed; Get then reports false.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h was never issued by a Circuit.
func (h Handle) IsZero() bool { return h.gen == 0 }

type slot struct {
	ins   Instruction
	gen   uint32
	live  bool
	start int
}

// Circuit is an append-only instruction arena plus the program order over
// the live entries. Slots are never reused, so handles held by bundles stay
// unambiguous after later passes insert or remove instructions.
type Circuit struct {
	slots       []slot
	order       []uint32
	cyclesValid bool
}

func NewCircuit() *Circuit {
	return &Circuit{}
}

// Append adds ins at the end of the program order.
func (c *Circuit) Append(ins Instruction) Handle {
	h := c.store(ins)
	c.order = append(c.order, h.index)
	return h
}

// InsertAfter adds ins directly after the instruction referenced by after.
func (c *Circuit) InsertAfter(after Handle, ins Instruction) (Handle, error) {
	pos, err := c.position(after)
	if err != nil {
		return Handle{}, err
	}
	h := c.store(ins)
	c.order = append(c.order, 0)
	copy(c.order[pos+2:], c.order[pos+1:])
	c.order[pos+1] = h.index
	return h, nil
}

// Remove drops the instruction from the program order and invalidates h.
func (c *Circuit) Remove(h Handle) error {
	pos, err := c.position(h)
	if err != nil {
		return err
	}
	s := &c.slots[h.index]
	s.live = false
	s.ins = nil
	s.gen++
	c.order = append(c.order[:pos], c.order[pos+1:]...)
	c.cyclesValid = false
	return nil
}

// Get returns the instruction behind h.
func (c *Circuit) Get(h Handle) (Instruction, bool) {
	if !c.valid(h) {
		return nil, false
	}
	return c.slots[h.index].ins, true
}

// Handles lists the live instructions in program order.
func (c *Circuit) Handles() []Handle {
	out := make([]Handle, len(c.order))
	for i, idx := range c.order {
		out[i] = Handle{index: idx, gen: c.slots[idx].gen}
	}
	return out
}

// Instructions lists the live instructions in program order.
func (c *Circuit) Instructions() []Instruction {
	out := make([]Instruction, len(c.order))
	for i, idx := range c.order {
		out[i] = c.slots[idx].ins
	}
	return out
}

func (c *Circuit) Len() int { return len(c.order) }

// Annotate records the start cycles of a schedule computed for this circuit
// and marks its cycles valid. Every live instruction must be covered.
func (c *Circuit) Annotate(sc *ScheduledCircuit) error {
	if len(sc.Entries) != len(c.order) {
		return qerr.New(qerr.ErrUnschedulable, "schedule covers %d of %d instructions", len(sc.Entries), len(c.order))
	}
	for _, e := range sc.Entries {
		if !c.valid(e.Handle) {
			return qerr.New(qerr.ErrUnschedulable, "schedule refers to a removed instruction").At(e.Instr.String())
		}
	}
	for _, e := range sc.Entries {
		c.slots[e.Handle.index].start = e.Start
	}
	c.cyclesValid = true
	return nil
}

// CyclesValid reports whether start cycles are current for every instruction.
func (c *Circuit) CyclesValid() bool { return c.cyclesValid }

// Start returns the annotated start cycle of h.
func (c *Circuit) Start(h Handle) (int, bool) {
	if !c.cyclesValid || !c.valid(h) {
		return 0, false
	}
	return c.slots[h.index].start, true
}

func (c *Circuit) store(ins Instruction) Handle {
	c.cyclesValid = false
	c.slots = append(c.slots, slot{ins: ins, gen: 1, live: true})
	return Handle{index: uint32(len(c.slots) - 1), gen: 1}
}

func (c *Circuit) valid(h Handle) bool {
	if h.IsZero() || int(h.index) >= len(c.slots) {
		return false
	}
	s := c.slots[h.index]
	return s.live && s.gen == h.gen
}

func (c *Circuit) position(h Handle) (int, error) {
	if !c.valid(h) {
		return 0, qerr.New(qerr.ErrMalformedCircuit, "stale instruction handle")
	}
	for i, idx := range c.order {
		if idx == h.index {
			return i, nil
		}
	}
	return 0, qerr.New(qerr.ErrMalformedCircuit, "instruction handle not in program order")
}
