package hcl

import "github.com/hashicorp/hcl/v2"

type platformBlock struct {
	Name         string              `hcl:"name,label"`
	QubitNumber  int                 `hcl:"qubit_number"`
	CregNumber   int                 `hcl:"creg_number,optional"`
	CycleTime    int                 `hcl:"cycle_time"`
	Instructions []*instructionBlock `hcl:"instruction,block"`
	Buffers      []*bufferBlock      `hcl:"buffer,block"`
	Instruments  []*instrumentBlock  `hcl:"instrument,block"`
	Topology     *topologyBlock      `hcl:"topology,block"`
	Commute      *commuteBlock       `hcl:"commute,block"`
	Targets      []*targetBlock      `hcl:"target,block"`
}

type instructionBlock struct {
	Name     string  `hcl:"name,label"`
	Opcode   *string `hcl:"opcode,optional"`
	Type     string  `hcl:"type"`
	Duration int     `hcl:"duration"`
	Arity    *int    `hcl:"arity,optional"`
}

type bufferBlock struct {
	From string `hcl:"from,label"`
	To   string `hcl:"to,label"`
	Time int    `hcl:"time"`
}

type instrumentBlock struct {
	Name   string   `hcl:"name,label"`
	Types  []string `hcl:"types"`
	Qubits []int    `hcl:"qubits"`
	Mode   string   `hcl:"mode,optional"`
}

type topologyBlock struct {
	Edges  []*edgeBlock   `hcl:"edge,block"`
	Detune []*detuneBlock `hcl:"detune,block"`
}

type edgeBlock struct {
	ID  int `hcl:"id"`
	Src int `hcl:"src"`
	Dst int `hcl:"dst"`
}

type detuneBlock struct {
	Edge   int   `hcl:"edge"`
	Qubits []int `hcl:"qubits"`
}

type commuteBlock struct {
	Enabled          bool     `hcl:"enabled,optional"`
	ControlUnitaries []string `hcl:"control_unitaries,optional"`
	TargetCommuting  []string `hcl:"target_commuting,optional"`
}

type targetBlock struct {
	Name                 string         `hcl:"name,label"`
	InlineWaitLimit      *int           `hcl:"inline_wait_limit,optional"`
	SingleMaskCapacity   *int           `hcl:"single_mask_capacity,optional"`
	PairMaskCapacity     *int           `hcl:"pair_mask_capacity,optional"`
	DirectedPairs        bool           `hcl:"directed_pairs,optional"`
	LoopScratchRegisters []int          `hcl:"loop_scratch_registers,optional"`
	ClassicalDuration    *int           `hcl:"classical_duration,optional"`
	CZMode               string         `hcl:"cz_mode,optional"`
	PresetMasks          []*presetBlock `hcl:"preset_mask,block"`
}

type presetBlock struct {
	Kind   string `hcl:"kind,label"`
	Qubits []int  `hcl:"qubits,optional"`
	// Pairs is a list of two-element lists, decoded by hand.
	Pairs hcl.Expression `hcl:"pairs,optional"`
}

// Program files.

var programFileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "program", LabelNames: []string{"name"}}},
}

var programSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "kernel", LabelNames: []string{"name"}}},
}

var kernelSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "control"},
		{Name: "iterations"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "condition"},
		{Type: "gate", LabelNames: []string{"name"}},
		{Type: "classical", LabelNames: []string{"op"}},
		{Type: "wait"},
		{Type: "nop"},
	},
}

var platformFileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "platform", LabelNames: []string{"name"}}},
}

type conditionBlock struct {
	LHS int    `hcl:"lhs"`
	Op  string `hcl:"op"`
	RHS int    `hcl:"rhs"`
}

type gateBlock struct {
	Qubits   []int `hcl:"qubits"`
	Creg     *int  `hcl:"creg,optional"`
	Duration *int  `hcl:"duration,optional"`
}

type classicalBlock struct {
	Cregs []int `hcl:"cregs,optional"`
	Imm   int   `hcl:"imm,optional"`
	Qubit *int  `hcl:"qubit,optional"`
}

type waitBlock struct {
	Qubits []int `hcl:"qubits,optional"`
	Cycles int   `hcl:"cycles"`
}

type nopBlock struct{}
