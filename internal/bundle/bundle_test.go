package bundle

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/depgraph"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/scheduler"
	"github.com/specialistvlad/eqasmc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduled(entries ...ir.ScheduledInstruction) *ir.ScheduledCircuit {
	sc := &ir.ScheduledCircuit{}
	for i, e := range entries {
		e.Order = i
		sc.Entries = append(sc.Entries, e)
		sc.Length = max(sc.Length, e.End())
	}
	return sc
}

func at(ins ir.Instruction, start int) ir.ScheduledInstruction {
	return ir.ScheduledInstruction{Instr: ins, Start: start}
}

func opcodes(b Bundle) [][]string {
	var out [][]string
	for _, s := range b.Sections {
		var names []string
		for _, it := range s.Items {
			names = append(names, it.Instr.String())
		}
		out = append(out, names)
	}
	return out
}

func TestBuild_GroupsByStartCycle(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	sc := scheduled(
		at(testutil.Gate(t, m, "h", 1), 3),
		at(testutil.Gate(t, m, "x", 0), 0),
		at(testutil.Gate(t, m, "x", 1), 0),
		at(testutil.Gate(t, m, "cz", 0, 2), 3),
	)

	// --- Act ---
	bundles := Build(sc)

	// --- Assert ---
	require.Len(t, bundles, 2)
	assert.Equal(t, 0, bundles[0].StartCycle)
	assert.Equal(t, 1, bundles[0].Duration)
	assert.Equal(t, [][]string{{"x q0"}, {"x q1"}}, opcodes(bundles[0]))

	assert.Equal(t, 3, bundles[1].StartCycle)
	assert.Equal(t, 2, bundles[1].Duration)
	assert.Equal(t, [][]string{{"h q1"}, {"cz q0,q2"}}, opcodes(bundles[1]), "sections follow program order")
}

func TestBuild_SkipsWaits(t *testing.T) {
	m := testutil.Platform(t)
	w, err := ir.NewWait([]int{0}, 4)
	require.NoError(t, err)
	sc := scheduled(at(testutil.Gate(t, m, "x", 0), 0), at(w, 1), at(testutil.Gate(t, m, "x", 0), 5))

	bundles := Build(sc)

	require.Len(t, bundles, 2)
	assert.Equal(t, 5, bundles[1].StartCycle)
}

func TestBuild_MonotonicAndRoundTrip(t *testing.T) {
	m := testutil.Platform(t)
	c := testutil.Circuit(
		testutil.Gate(t, m, "x", 0),
		testutil.Gate(t, m, "h", 0),
		testutil.Gate(t, m, "cz", 0, 2),
		testutil.Gate(t, m, "x", 2),
		testutil.Measure(t, m, 2, 0),
	)
	g, err := depgraph.Build(c, m)
	require.NoError(t, err)
	sc, err := scheduler.ASAP(g)
	require.NoError(t, err)

	bundles := Build(sc)

	cursor, total := 0, 0
	for i, b := range bundles {
		if i > 0 {
			require.GreaterOrEqual(t, b.StartCycle, bundles[i-1].StartCycle)
		}
		total += b.StartCycle - cursor
		cursor = b.StartCycle
	}
	total += bundles[len(bundles)-1].Duration
	assert.Equal(t, sc.Length, total)
}

func TestMerge_SameOpcodeBecomesOneSection(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	bundles := Build(scheduled(
		at(testutil.Gate(t, m, "x", 0), 0),
		at(testutil.Gate(t, m, "y", 2), 0),
		at(testutil.Gate(t, m, "x", 1), 0),
		at(testutil.Gate(t, m, "cz", 3, 5), 0),
	))

	// --- Act ---
	merged, err := Merge(bundles, m)
	require.NoError(t, err)

	// --- Assert ---
	require.Len(t, merged, 1)
	assert.Equal(t, [][]string{{"y q2"}, {"x q0", "x q1"}, {"cz q3,q5"}}, opcodes(merged[0]))
	assert.Len(t, bundles[0].Sections, 4, "input bundles are left untouched")
}

func TestMerge_DistinctNamesSharingAnOpcode(t *testing.T) {
	cfg := testutil.PlatformConfig()
	cfg.Instructions = append(cfg.Instructions, &config.InstructionDef{Name: "x_alt", Opcode: "x", Type: "mw", Duration: 20, Arity: 1})
	m := testutil.PlatformFrom(t, cfg)
	bundles := Build(scheduled(
		at(testutil.Gate(t, m, "x", 0), 0),
		at(testutil.Gate(t, m, "x_alt", 1), 0),
	))

	merged, err := Merge(bundles, m)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"x q0", "x_alt q1"}}, opcodes(merged[0]))
}

func TestMerge_ClassicalIsolation(t *testing.T) {
	m := testutil.Platform(t)
	x := testutil.Gate(t, m, "x", 0)
	add := testutil.Classical(t, ir.OpAdd, 0, 1, 2)

	testCases := []struct {
		name   string
		bundle Bundle
	}{
		{
			name: "classical next to a quantum section",
			bundle: Bundle{Sections: []Section{
				{Items: []Item{{Instr: add}}},
				{Items: []Item{{Instr: x}}},
			}},
		},
		{
			name: "classical inside a quantum section",
			bundle: Bundle{Sections: []Section{
				{Items: []Item{{Instr: x}, {Instr: add}}},
			}},
		},
		{
			name: "two classical instructions in one section",
			bundle: Bundle{Sections: []Section{
				{Items: []Item{{Instr: add}, {Instr: add}}},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Merge([]Bundle{tc.bundle}, m)
			require.ErrorIs(t, err, qerr.ErrInconsistentBundle)
		})
	}

	merged, err := Merge([]Bundle{{Sections: []Section{{Items: []Item{{Instr: add}}}}}}, m)
	require.NoError(t, err, "a lone classical instruction is fine")
	assert.True(t, merged[0].IsClassical())
}

func TestMerge_UnknownInstruction(t *testing.T) {
	m := testutil.Platform(t)
	b := Bundle{Sections: []Section{{Items: []Item{{Instr: ir.Quantum{Name: "swap", Qubits: []int{0, 1}, Creg: ir.NoCreg}}}}}}

	_, err := Merge([]Bundle{b}, m)
	require.ErrorIs(t, err, qerr.ErrUnknownInstruction)
}

func TestMerge_Deterministic(t *testing.T) {
	m := testutil.Platform(t)
	build := func() []Bundle {
		return Build(scheduled(
			at(testutil.Gate(t, m, "x90", 4), 0),
			at(testutil.Gate(t, m, "x", 0), 0),
			at(ir.Nop{}, 0),
			at(testutil.Gate(t, m, "y", 1), 0),
			at(testutil.Gate(t, m, "x", 6), 0),
		))
	}

	first, err := Merge(build(), m)
	require.NoError(t, err)
	second, err := Merge(build(), m)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, cmp.AllowUnexported(ir.Handle{})); diff != "" {
		t.Errorf("merge is not deterministic (-first +second):\n%s", diff)
	}
	assert.Equal(t, [][]string{{"y q1"}, {"x90 q4"}, {"x q0", "x q6"}, {"nop"}}, opcodes(first[0]))
}
