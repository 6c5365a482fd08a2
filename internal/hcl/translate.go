package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// translatePlatform converts the decoded platform block into the agnostic
// model, filling the defaults the schema leaves open.
func translatePlatform(pb *platformBlock) (*config.Platform, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	p := &config.Platform{
		Name:        pb.Name,
		QubitNumber: pb.QubitNumber,
		CregNumber:  pb.CregNumber,
		CycleTime:   pb.CycleTime,
	}

	for _, ib := range pb.Instructions {
		def := &config.InstructionDef{
			Name:     ib.Name,
			Opcode:   ib.Name,
			Type:     ib.Type,
			Duration: ib.Duration,
			Arity:    1,
		}
		if ib.Opcode != nil {
			def.Opcode = *ib.Opcode
		}
		if ib.Arity != nil {
			def.Arity = *ib.Arity
		}
		p.Instructions = append(p.Instructions, def)
	}
	for _, bb := range pb.Buffers {
		p.Buffers = append(p.Buffers, &config.BufferDef{From: bb.From, To: bb.To, Time: bb.Time})
	}
	for _, ib := range pb.Instruments {
		p.Instruments = append(p.Instruments, &config.InstrumentDef{
			Name:   ib.Name,
			Types:  ib.Types,
			Qubits: ib.Qubits,
			Mode:   ib.Mode,
		})
	}
	if tb := pb.Topology; tb != nil {
		p.Topology = &config.Topology{}
		for _, e := range tb.Edges {
			p.Topology.Edges = append(p.Topology.Edges, &config.EdgeDef{ID: e.ID, Src: e.Src, Dst: e.Dst})
		}
		for _, d := range tb.Detune {
			p.Topology.Detune = append(p.Topology.Detune, &config.DetuneDef{Edge: d.Edge, Qubits: d.Qubits})
		}
	}
	if cb := pb.Commute; cb != nil {
		p.Commute = &config.Commute{
			Enabled:          cb.Enabled,
			ControlUnitaries: cb.ControlUnitaries,
			TargetCommuting:  cb.TargetCommuting,
		}
	}
	for _, tb := range pb.Targets {
		t := &config.Target{
			Name:                 tb.Name,
			InlineWaitLimit:      tb.InlineWaitLimit,
			SingleMaskCapacity:   tb.SingleMaskCapacity,
			PairMaskCapacity:     tb.PairMaskCapacity,
			DirectedPairs:        tb.DirectedPairs,
			LoopScratchRegisters: tb.LoopScratchRegisters,
			ClassicalDuration:    tb.ClassicalDuration,
			CZMode:               tb.CZMode,
		}
		for _, pm := range tb.PresetMasks {
			pairs, pdiags := decodePairs(pm.Pairs)
			diags = append(diags, pdiags...)
			t.PresetMasks = append(t.PresetMasks, &config.PresetMask{Kind: pm.Kind, Qubits: pm.Qubits, Pairs: pairs})
		}
		p.Targets = append(p.Targets, t)
	}
	return p, diags
}

var pairListType = cty.List(cty.List(cty.Number))

// decodePairs reads an optional list of [a, b] qubit pairs.
func decodePairs(expr hcl.Expression) ([][2]int, hcl.Diagnostics) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return nil, diags
	}

	converted, err := convert.Convert(val, pairListType)
	if err != nil {
		return nil, hcl.Diagnostics{pairsDiag(expr, fmt.Sprintf("pairs must be a list of [a, b] lists: %s", err))}
	}
	var raw [][]int
	if err := gocty.FromCtyValue(converted, &raw); err != nil {
		return nil, hcl.Diagnostics{pairsDiag(expr, err.Error())}
	}

	pairs := make([][2]int, len(raw))
	for i, r := range raw {
		if len(r) != 2 {
			return nil, hcl.Diagnostics{pairsDiag(expr, fmt.Sprintf("element %d has %d qubits, a pair has 2", i, len(r)))}
		}
		pairs[i] = [2]int{r[0], r[1]}
	}
	return pairs, nil
}

func pairsDiag(expr hcl.Expression, detail string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid qubit pairs",
		Detail:   detail,
		Subject:  expr.Range().Ptr(),
	}
}

// decodeProgram reads the kernels of a program block. Kernel bodies are
// decoded block by block to keep their source order.
func decodeProgram(block *hcl.Block) (*config.Program, hcl.Diagnostics) {
	p := &config.Program{Name: block.Labels[0]}
	content, diags := block.Body.Content(programSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	for _, kb := range content.Blocks {
		k, kdiags := decodeKernel(kb)
		diags = append(diags, kdiags...)
		if kdiags.HasErrors() {
			continue
		}
		p.Kernels = append(p.Kernels, k)
	}
	return p, diags
}

func decodeKernel(block *hcl.Block) (*config.Kernel, hcl.Diagnostics) {
	k := &config.Kernel{Name: block.Labels[0]}
	content, diags := block.Body.Content(kernelSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	if attr, ok := content.Attributes["control"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &k.Control)...)
	}
	if attr, ok := content.Attributes["iterations"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &k.Iterations)...)
	}

	for _, b := range content.Blocks {
		if b.Type == "condition" {
			if k.Condition != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  `Duplicate "condition" block`,
					Detail:   "A kernel has at most one condition.",
					Subject:  &b.DefRange,
				})
				continue
			}
			var cb conditionBlock
			diags = append(diags, gohcl.DecodeBody(b.Body, nil, &cb)...)
			k.Condition = &config.Condition{LHS: cb.LHS, Op: cb.Op, RHS: cb.RHS}
			continue
		}

		op, odiags := decodeOp(b)
		diags = append(diags, odiags...)
		if op != nil {
			k.Ops = append(k.Ops, op)
		}
	}
	return k, diags
}

func decodeOp(b *hcl.Block) (*config.Op, hcl.Diagnostics) {
	op := &config.Op{Line: b.DefRange.Start.Line}
	var diags hcl.Diagnostics

	switch b.Type {
	case "gate":
		var gb gateBlock
		diags = gohcl.DecodeBody(b.Body, nil, &gb)
		op.Kind = config.OpGate
		op.Name = b.Labels[0]
		op.Qubits = gb.Qubits
		op.Creg = gb.Creg
		op.Duration = gb.Duration
	case "classical":
		var cb classicalBlock
		diags = gohcl.DecodeBody(b.Body, nil, &cb)
		op.Kind = config.OpClassical
		op.Name = b.Labels[0]
		op.Cregs = cb.Cregs
		op.Imm = cb.Imm
		op.Qubit = cb.Qubit
	case "wait":
		var wb waitBlock
		diags = gohcl.DecodeBody(b.Body, nil, &wb)
		op.Kind = config.OpWait
		op.Name = "wait"
		op.Qubits = wb.Qubits
		op.Cycles = wb.Cycles
	case "nop":
		var nb nopBlock
		diags = gohcl.DecodeBody(b.Body, nil, &nb)
		op.Kind = config.OpNop
		op.Name = "nop"
	default:
		return nil, nil
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return op, diags
}
