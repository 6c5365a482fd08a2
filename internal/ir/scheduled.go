package ir

// ScheduledInstruction is an instruction with its assigned start cycle.
type ScheduledInstruction struct {
	Handle Handle
	Instr  Instruction
	// Order is the program-order index of the instruction.
	Order int
	Start int
}

// End is the first cycle after the instruction completes.
func (s ScheduledInstruction) End() int { return s.Start + s.Instr.Cycles() }

// ScheduledCircuit is a read-only snapshot of one kernel's schedule.
// Entries are in program order.
type ScheduledCircuit struct {
	Entries []ScheduledInstruction
	// Length is the total number of cycles the kernel occupies.
	Length int
}
