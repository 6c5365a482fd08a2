package config

// Platform describes the hardware the program is compiled for.
type Platform struct {
	Name        string
	QubitNumber int
	CregNumber  int
	// CycleTime is the duration of one cycle in nanoseconds.
	CycleTime    int
	Instructions []*InstructionDef
	Buffers      []*BufferDef
	Instruments  []*InstrumentDef
	Topology     *Topology
	Commute      *Commute
	Targets      []*Target
	Source       string
}

// InstructionDef maps a symbolic gate name onto its target opcode.
type InstructionDef struct {
	Name   string
	Opcode string
	// Type is the operation type used by buffers and instruments (mw, flux, readout).
	Type string
	// Duration in nanoseconds.
	Duration int
	Arity    int
}

// BufferDef is the minimum gap in nanoseconds between an operation of type
// From and a following one of type To on the same instrument.
type BufferDef struct {
	From string
	To   string
	Time int
}

// InstrumentDef is a control instrument driving a set of qubits.
type InstrumentDef struct {
	Name   string
	Types  []string
	Qubits []int
	// Mode is "exclusive" or "shared".
	Mode string
}

type Topology struct {
	Edges  []*EdgeDef
	Detune []*DetuneDef
}

type EdgeDef struct {
	ID  int
	Src int
	Dst int
}

// DetuneDef lists the qubits that must be detuned while Edge is in use.
type DetuneDef struct {
	Edge   int
	Qubits []int
}

// Commute asserts which instruction families commute on shared operands.
type Commute struct {
	Enabled          bool
	ControlUnitaries []string
	TargetCommuting  []string
}

// Target carries backend-specific settings. Zero values mean "use the
// backend default".
type Target struct {
	Name                 string
	InlineWaitLimit      *int
	SingleMaskCapacity   *int
	PairMaskCapacity     *int
	DirectedPairs        bool
	LoopScratchRegisters []int
	ClassicalDuration    *int
	CZMode               string
	PresetMasks          []*PresetMask
}

// PresetMask is a mask register allocated before any kernel is compiled.
// Kind is "s" for qubit sets and "t" for qubit-pair sets.
type PresetMask struct {
	Kind   string
	Qubits []int
	Pairs  [][2]int
}

// Program is an ordered list of kernels.
type Program struct {
	Name    string
	Kernels []*Kernel
	Source  string
}

type Kernel struct {
	Name       string
	Control    string
	Iterations int
	Condition  *Condition
	Ops        []*Op
}

type Condition struct {
	LHS int
	Op  string
	RHS int
}

// OpKind enumerates the instruction blocks of a kernel.
type OpKind int

const (
	OpGate OpKind = iota
	OpClassical
	OpWait
	OpNop
)

// Op is one instruction of a kernel, in source order.
type Op struct {
	Kind   OpKind
	Name   string
	Qubits []int
	Cregs  []int
	// Creg is the result register of a gate, nil when none.
	Creg *int
	// Duration overrides the platform duration (ns) of a gate.
	Duration *int
	// Imm is the immediate operand of ldi.
	Imm int
	// Qubit is the qubit read by fmr, nil when none.
	Qubit *int
	// Cycles is the length of a wait.
	Cycles int
	Line   int
}
