package testutil

import (
	"testing"

	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/stretchr/testify/require"
)

// PlatformConfig returns the seven-qubit platform shared by the tests. It
// mirrors PlatformHCL.
func PlatformConfig() *config.Platform {
	return &config.Platform{
		Name:        "s7",
		QubitNumber: 7,
		CregNumber:  32,
		CycleTime:   20,
		Instructions: []*config.InstructionDef{
			{Name: "prepz", Opcode: "prepz", Type: "none", Duration: 40, Arity: 1},
			{Name: "x", Opcode: "x", Type: "mw", Duration: 20, Arity: 1},
			{Name: "y", Opcode: "y", Type: "mw", Duration: 20, Arity: 1},
			{Name: "x90", Opcode: "x90", Type: "mw", Duration: 20, Arity: 1},
			{Name: "h", Opcode: "h", Type: "mw", Duration: 40, Arity: 1},
			{Name: "cz", Opcode: "cz", Type: "flux", Duration: 40, Arity: 2},
			{Name: "cnot", Opcode: "cnot", Type: "flux", Duration: 80, Arity: 2},
			{Name: "sqf", Opcode: "sqf", Type: "flux", Duration: 40, Arity: 1},
			{Name: "measure", Opcode: "measz", Type: "readout", Duration: 80, Arity: 1},
		},
		Buffers: []*config.BufferDef{
			{From: "mw", To: "flux", Time: 40},
		},
		Instruments: []*config.InstrumentDef{
			{Name: "awg_0", Types: []string{"mw"}, Qubits: []int{0, 1, 5, 6}, Mode: "shared"},
			{Name: "awg_1", Types: []string{"mw"}, Qubits: []int{2, 3, 4}, Mode: "shared"},
			{Name: "flux", Types: []string{"flux"}, Qubits: []int{0, 1, 2, 3, 4, 5, 6}, Mode: "shared"},
			{Name: "ro", Types: []string{"readout"}, Qubits: []int{0, 1, 2, 3, 4, 5, 6}, Mode: "shared"},
		},
		Topology: &config.Topology{
			Edges: []*config.EdgeDef{
				{ID: 0, Src: 0, Dst: 2}, {ID: 1, Src: 0, Dst: 3},
				{ID: 2, Src: 1, Dst: 3}, {ID: 3, Src: 1, Dst: 4},
				{ID: 4, Src: 2, Dst: 5}, {ID: 5, Src: 3, Dst: 5},
				{ID: 6, Src: 3, Dst: 6}, {ID: 7, Src: 4, Dst: 6},
			},
			Detune: []*config.DetuneDef{
				{Edge: 0, Qubits: []int{3}},
				{Edge: 4, Qubits: []int{0, 3}},
			},
		},
		Commute: &config.Commute{
			Enabled:          true,
			ControlUnitaries: []string{"cz", "cnot"},
			TargetCommuting:  []string{"cnot"},
		},
		Targets: []*config.Target{
			{Name: "cc_light", CZMode: "manual"},
			{Name: "cc"},
		},
	}
}

// Platform builds the shared platform model.
func Platform(t testing.TB) *platform.Model {
	t.Helper()
	return PlatformFrom(t, PlatformConfig())
}

// PlatformFrom builds a model from a (possibly modified) configuration.
func PlatformFrom(t testing.TB, cfg *config.Platform) *platform.Model {
	t.Helper()
	m, err := platform.New(cfg)
	require.NoError(t, err)
	return m
}

// Gate builds a gate with the platform duration of name.
func Gate(t testing.TB, m *platform.Model, name string, qubits ...int) ir.Quantum {
	t.Helper()
	in, err := m.Instruction(name)
	require.NoError(t, err)
	g, err := ir.NewQuantum(name, qubits, in.Duration)
	require.NoError(t, err)
	return g
}

// Measure builds a measurement of qubit into creg.
func Measure(t testing.TB, m *platform.Model, qubit, creg int) ir.Quantum {
	t.Helper()
	in, err := m.Instruction("measure")
	require.NoError(t, err)
	g, err := ir.NewMeasurement("measure", []int{qubit}, in.Duration, creg)
	require.NoError(t, err)
	return g
}

// Classical builds a one-cycle classical instruction.
func Classical(t testing.TB, op ir.ClassicalOp, cregs ...int) ir.Classical {
	t.Helper()
	c, err := ir.NewClassical(op, cregs, 0, 1)
	require.NoError(t, err)
	return c
}

// Circuit appends instrs to a fresh circuit.
func Circuit(instrs ...ir.Instruction) *ir.Circuit {
	c := ir.NewCircuit()
	for _, ins := range instrs {
		c.Append(ins)
	}
	return c
}

// Kernel builds a kernel holding instrs.
func Kernel(name string, control ir.ControlFlow, instrs ...ir.Instruction) *ir.Kernel {
	k := ir.NewKernel(name, control)
	k.Circuit = Circuit(instrs...)
	return k
}
