// Package platform turns a configured platform description into the resource
// model the scheduler and the backends query: instruction table, buffer
// matrix, instruments, topology and commutation rules.
package platform

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// Operation types of instructions that have no table entry.
const (
	TypeClassical = "classical"
	TypeWait      = "wait"
	TypeNop       = "nop"
)

// Instruction is a resolved instruction table entry. Duration is in cycles.
type Instruction struct {
	Name     string
	Opcode   string
	Type     string
	Duration int
	Arity    int
}

// Instrument drives a set of qubits for some operation types. A shared
// instrument can issue the same opcode on several of its qubits at once.
type Instrument struct {
	Name   string
	Shared bool
	types  map[string]bool
	qubits map[int]bool
}

type bufferKey struct{ from, to string }

type edgeKey struct{ src, dst int }

// Model is the resource model of one platform. It is read-only once built.
type Model struct {
	Name       string
	QubitCount int
	CregCount  int
	CycleTime  int

	instructions map[string]Instruction
	buffers      map[bufferKey]int
	maxBuffer    int
	instruments  []Instrument
	edges        map[edgeKey]int
	detune       map[int][]int
	commute      bool
	control      map[string]bool
	target       map[string]bool
	targets      map[string]*config.Target
}

// New validates cfg and builds its resource model.
func New(cfg *config.Platform) (*Model, error) {
	if cfg == nil {
		return nil, qerr.New(qerr.ErrConfiguration, "no platform configured")
	}
	if cfg.QubitNumber <= 0 {
		return nil, configErr(cfg, "qubit_number must be positive, got %d", cfg.QubitNumber)
	}
	if cfg.CregNumber < 0 {
		return nil, configErr(cfg, "creg_number must not be negative, got %d", cfg.CregNumber)
	}
	if cfg.CycleTime <= 0 {
		return nil, configErr(cfg, "cycle_time must be positive, got %d", cfg.CycleTime)
	}

	m := &Model{
		Name:         cfg.Name,
		QubitCount:   cfg.QubitNumber,
		CregCount:    cfg.CregNumber,
		CycleTime:    cfg.CycleTime,
		instructions: make(map[string]Instruction, len(cfg.Instructions)),
		buffers:      make(map[bufferKey]int),
		edges:        make(map[edgeKey]int),
		detune:       make(map[int][]int),
		control:      make(map[string]bool),
		target:       make(map[string]bool),
		targets:      make(map[string]*config.Target),
	}

	for _, def := range cfg.Instructions {
		if err := m.addInstruction(def); err != nil {
			return nil, configErr(cfg, "%s", err)
		}
	}
	if err := m.addBuffers(cfg.Buffers); err != nil {
		return nil, configErr(cfg, "%s", err)
	}
	for _, def := range cfg.Instruments {
		if err := m.addInstrument(def); err != nil {
			return nil, configErr(cfg, "%s", err)
		}
	}
	if cfg.Topology != nil {
		if err := m.addTopology(cfg.Topology); err != nil {
			return nil, configErr(cfg, "%s", err)
		}
	}
	if c := cfg.Commute; c != nil {
		m.commute = c.Enabled
		for _, n := range c.ControlUnitaries {
			m.control[n] = true
		}
		for _, n := range c.TargetCommuting {
			m.target[n] = true
		}
	}
	for _, t := range cfg.Targets {
		if _, dup := m.targets[t.Name]; dup {
			return nil, configErr(cfg, "target '%s' declared twice", t.Name)
		}
		m.targets[t.Name] = t
	}
	return m, nil
}

func configErr(cfg *config.Platform, format string, args ...any) error {
	e := qerr.New(qerr.ErrConfiguration, format, args...)
	if cfg.Source != "" {
		e.Msg = fmt.Sprintf("%s: %s", cfg.Source, e.Msg)
	}
	return e
}

func (m *Model) addInstruction(def *config.InstructionDef) error {
	switch {
	case def.Name == "":
		return fmt.Errorf("instruction without a name")
	case def.Opcode == "":
		return fmt.Errorf("instruction '%s' is missing opcode", def.Name)
	case def.Type == "":
		return fmt.Errorf("instruction '%s' is missing type", def.Name)
	case def.Duration < 0:
		return fmt.Errorf("instruction '%s' has negative duration", def.Name)
	case def.Arity < 0:
		return fmt.Errorf("instruction '%s' has negative arity", def.Name)
	}
	if _, dup := m.instructions[def.Name]; dup {
		return fmt.Errorf("instruction '%s' declared twice", def.Name)
	}
	m.instructions[def.Name] = Instruction{
		Name:     def.Name,
		Opcode:   def.Opcode,
		Type:     def.Type,
		Duration: m.Cycles(def.Duration),
		Arity:    def.Arity,
	}
	return nil
}

// addBuffers fills the buffer matrix. An entry given for one direction only
// applies to both.
func (m *Model) addBuffers(defs []*config.BufferDef) error {
	explicit := make(map[bufferKey]bool)
	for _, def := range defs {
		if def.Time < 0 {
			return fmt.Errorf("buffer %s -> %s has negative time", def.From, def.To)
		}
		k := bufferKey{def.From, def.To}
		if explicit[k] {
			return fmt.Errorf("buffer %s -> %s declared twice", def.From, def.To)
		}
		explicit[k] = true
		m.buffers[k] = m.Cycles(def.Time)
	}
	for _, def := range defs {
		rev := bufferKey{def.To, def.From}
		if !explicit[rev] {
			m.buffers[rev] = m.Cycles(def.Time)
		}
	}
	for _, v := range m.buffers {
		m.maxBuffer = max(m.maxBuffer, v)
	}
	return nil
}

func (m *Model) addInstrument(def *config.InstrumentDef) error {
	in := Instrument{Name: def.Name, types: make(map[string]bool), qubits: make(map[int]bool)}
	switch def.Mode {
	case "", "exclusive":
	case "shared":
		in.Shared = true
	default:
		return fmt.Errorf("instrument '%s' has unknown mode '%s'", def.Name, def.Mode)
	}
	for _, t := range def.Types {
		in.types[t] = true
	}
	for _, q := range def.Qubits {
		if q < 0 || q >= m.QubitCount {
			return fmt.Errorf("instrument '%s' drives qubit %d outside the platform", def.Name, q)
		}
		in.qubits[q] = true
	}
	m.instruments = append(m.instruments, in)
	return nil
}

func (m *Model) addTopology(t *config.Topology) error {
	ids := make(map[int]bool)
	for _, e := range t.Edges {
		if !m.validQubit(e.Src) || !m.validQubit(e.Dst) {
			return fmt.Errorf("edge %d connects qubits outside the platform", e.ID)
		}
		if ids[e.ID] {
			return fmt.Errorf("edge %d declared twice", e.ID)
		}
		ids[e.ID] = true
		m.edges[edgeKey{e.Src, e.Dst}] = e.ID
	}
	for _, d := range t.Detune {
		if !ids[d.Edge] {
			return fmt.Errorf("detune refers to unknown edge %d", d.Edge)
		}
		for _, q := range d.Qubits {
			if !m.validQubit(q) {
				return fmt.Errorf("edge %d detunes qubit %d outside the platform", d.Edge, q)
			}
		}
		m.detune[d.Edge] = append(m.detune[d.Edge], d.Qubits...)
	}
	return nil
}

func (m *Model) Qubits() int { return m.QubitCount }

func (m *Model) Cregs() int { return m.CregCount }

func (m *Model) validQubit(q int) bool { return q >= 0 && q < m.QubitCount }

// Cycles converts nanoseconds into whole cycles, rounding up.
func (m *Model) Cycles(ns int) int {
	if ns <= 0 {
		return 0
	}
	return (ns + m.CycleTime - 1) / m.CycleTime
}

// Instruction looks up a table entry by symbolic name.
func (m *Model) Instruction(name string) (Instruction, error) {
	in, ok := m.instructions[name]
	if !ok {
		return Instruction{}, qerr.New(qerr.ErrUnknownInstruction, "no opcode mapping for '%s'", name)
	}
	return in, nil
}

// Resolve maps a symbolic gate name onto its target opcode and arity.
func (m *Model) Resolve(name string) (string, int, error) {
	in, err := m.Instruction(name)
	if err != nil {
		return "", 0, err
	}
	return in.Opcode, in.Arity, nil
}

// TypeOf returns the operation type of ins. Gates missing from the table
// report an error.
func (m *Model) TypeOf(ins ir.Instruction) (string, error) {
	switch v := ins.(type) {
	case ir.Quantum:
		in, err := m.Instruction(v.Name)
		if err != nil {
			return "", err
		}
		return in.Type, nil
	case ir.Classical:
		return TypeClassical, nil
	case ir.Wait:
		return TypeWait, nil
	case ir.Nop:
		return TypeNop, nil
	default:
		panic(fmt.Sprintf("platform: unhandled instruction %T", ins))
	}
}

// Buffer is the minimum gap in cycles between an operation of type from and
// a following one of type to.
func (m *Model) Buffer(from, to string) int {
	return m.buffers[bufferKey{from, to}]
}

// MaxBuffer is the largest entry of the buffer matrix.
func (m *Model) MaxBuffer() int { return m.maxBuffer }

// Instruments returns the indexes of the instruments that serve opType and
// drive at least one of qubits, in declaration order.
func (m *Model) Instruments(opType string, qubits []int) []int {
	var out []int
	for i, in := range m.instruments {
		if !in.types[opType] {
			continue
		}
		for _, q := range qubits {
			if in.qubits[q] {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// Instrument returns the instrument with index i.
func (m *Model) Instrument(i int) Instrument { return m.instruments[i] }

// Edge returns the topology edge connecting a and b in either direction.
func (m *Model) Edge(a, b int) (int, bool) {
	if id, ok := m.edges[edgeKey{a, b}]; ok {
		return id, true
	}
	id, ok := m.edges[edgeKey{b, a}]
	return id, ok
}

// DetunedQubits lists, sorted, the qubits detuned while edge is in use.
func (m *Model) DetunedQubits(edge int) []int {
	qs := append([]int(nil), m.detune[edge]...)
	sort.Ints(qs)
	return qs
}

// CommuteEnabled reports whether commutation analysis is switched on.
func (m *Model) CommuteEnabled() bool { return m.commute }

// ControlCommutes reports whether gates named name commute on their first operand.
func (m *Model) ControlCommutes(name string) bool { return m.commute && m.control[name] }

// TargetCommutes reports whether gates named name commute on their second operand.
func (m *Model) TargetCommutes(name string) bool { return m.commute && m.target[name] }

// Target returns the settings block for the named backend, or an empty one.
func (m *Model) Target(name string) *config.Target {
	if t, ok := m.targets[name]; ok {
		return t
	}
	return &config.Target{Name: name}
}
