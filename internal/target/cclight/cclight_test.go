package cclight

import (
	"testing"

	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/depgraph"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/scheduler"
	"github.com/specialistvlad/eqasmc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compile runs the kernels through the pipeline and returns the program text.
func compile(t *testing.T, m *platform.Model, tg *Target, kernels ...*ir.Kernel) (string, error) {
	t.Helper()
	s, err := scheduler.New(scheduler.PolicyASAP, m)
	require.NoError(t, err)

	for _, k := range kernels {
		if err := tg.Lower(k); err != nil {
			return "", err
		}
		g, err := depgraph.Build(k.Circuit, m)
		require.NoError(t, err)
		sc, err := s.Schedule(g)
		require.NoError(t, err)
		require.NoError(t, k.Circuit.Annotate(sc))

		bundles, err := tg.Finalize(k, bundle.Build(sc))
		if err != nil {
			return "", err
		}
		bundles, err = bundle.Merge(bundles, m)
		require.NoError(t, err)
		if err := tg.EmitKernel(k, bundles); err != nil {
			return "", err
		}
	}
	return tg.Program("p")
}

func withTarget(mutate func(*config.Target)) *config.Platform {
	cfg := testutil.PlatformConfig()
	for _, tc := range cfg.Targets {
		if tc.Name == Name {
			mutate(tc)
		}
	}
	return cfg
}

func strs(c *ir.Circuit) []string {
	var out []string
	for _, ins := range c.Instructions() {
		out = append(out, ins.String())
	}
	return out
}

func TestLower(t *testing.T) {
	m := testutil.Platform(t)

	testCases := []struct {
		name  string
		instr ir.Instruction
		want  []string
	}{
		{
			name:  "comparison becomes cmp nop fbr",
			instr: testutil.Classical(t, ir.OpEQ, 1, 2, 3),
			want:  []string{"cmp r2,r3", "nop", "fbr_eq r1"},
		},
		{
			name:  "greater-equal keeps its relation",
			instr: testutil.Classical(t, ir.OpGE, 4, 5, 6),
			want:  []string{"cmp r5,r6", "nop", "fbr_ge r4"},
		},
		{
			name:  "mov adds a loaded zero",
			instr: testutil.Classical(t, ir.OpMove, 1, 2),
			want:  []string{"ldi r28,0", "add r1,r2,r28"},
		},
		{
			name:  "measurement is followed by a result fetch",
			instr: testutil.Measure(t, m, 0, 7),
			want:  []string{"measure q0 -> r7", "fmr r7,q0"},
		},
		{
			name:  "native classical passes through",
			instr: testutil.Classical(t, ir.OpAdd, 1, 2, 3),
			want:  []string{"add r1,r2,r3"},
		},
		{
			name:  "gate without register passes through",
			instr: testutil.Gate(t, m, "x", 3),
			want:  []string{"x q3"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			tg, err := New(m)
			require.NoError(t, err)
			k := testutil.Kernel("k", ir.ControlFlow{}, tc.instr)

			// --- Act ---
			err = tg.Lower(k)

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.want, strs(k.Circuit))
		})
	}
}

func TestLower_Errors(t *testing.T) {
	t.Run("mov without scratch register", func(t *testing.T) {
		cfg := testutil.PlatformConfig()
		cfg.CregNumber = 16
		m := testutil.PlatformFrom(t, withTargetScratch(cfg))
		tg, err := New(m)
		require.NoError(t, err)
		k := testutil.Kernel("k", ir.ControlFlow{}, testutil.Classical(t, ir.OpMove, 1, 2))

		err = tg.Lower(k)

		require.ErrorIs(t, err, qerr.ErrRegisterExhaustion)
	})

	t.Run("result register on a two-qubit gate", func(t *testing.T) {
		m := testutil.Platform(t)
		tg, err := New(m)
		require.NoError(t, err)
		g, err := ir.NewMeasurement("cz", []int{0, 2}, 2, 1)
		require.NoError(t, err)

		err = tg.Lower(testutil.Kernel("k", ir.ControlFlow{}, g))

		require.ErrorIs(t, err, qerr.ErrMalformedCircuit)
	})
}

// withTargetScratch moves the loop registers below a 16-register file.
func withTargetScratch(cfg *config.Platform) *config.Platform {
	for _, tc := range cfg.Targets {
		tc.LoopScratchRegisters = []int{13, 14, 15}
	}
	return cfg
}

func TestProgram_MeasureAndFetch(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	tg, err := New(m)
	require.NoError(t, err)
	k := testutil.Kernel("k", ir.ControlFlow{},
		testutil.Gate(t, m, "x", 0),
		testutil.Gate(t, m, "x", 2),
		testutil.Measure(t, m, 0, 0),
	)

	// --- Act ---
	out, err := compile(t, m, tg, k)

	// --- Assert ---
	require.NoError(t, err)
	want := "smis s0, {0, 2}\n" +
		"smis s1, {0}\n" +
		"\nstart:\n" +
		"\nk:\n" +
		"    0    x s0\n" +
		"    1    measz s1\n" +
		"    qwait 1\n" +
		"    qwait 1\n" +
		"    fmr r0, q0\n" +
		"\n    br always, start\n    nop\n    nop\n"
	assert.Equal(t, want, out)
}

func TestProgram_LongGapUsesQwait(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	tg, err := New(m)
	require.NoError(t, err)
	wait, err := ir.NewWait([]int{0}, 10)
	require.NoError(t, err)
	k := testutil.Kernel("k", ir.ControlFlow{},
		testutil.Gate(t, m, "x", 0),
		wait,
		testutil.Gate(t, m, "y", 0),
	)

	// --- Act ---
	out, err := compile(t, m, tg, k)

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out, "    0    x s0\n    qwait 10\n    1    y s0\n")
}

func TestProgram_ForLoop(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	tg, err := New(m)
	require.NoError(t, err)
	kernels := []*ir.Kernel{
		testutil.Kernel("loop_start", ir.ControlFlow{Kind: ir.ForStart, Iterations: 3}),
		testutil.Kernel("loop", ir.ControlFlow{}, testutil.Gate(t, m, "x", 0)),
		testutil.Kernel("loop_end", ir.ControlFlow{Kind: ir.ForEnd}),
	}

	// --- Act ---
	out, err := compile(t, m, tg, kernels...)

	// --- Assert ---
	require.NoError(t, err)
	want := "smis s0, {0}\n" +
		"\nstart:\n" +
		"\nloop_start:\n" +
		"    ldi r29, 3\n    ldi r30, 1\n    ldi r31, 0\n" +
		"\nloop:\n" +
		"    0    x s0\n" +
		"\nloop_end:\n" +
		"    add r31, r31, r30\n    cmp r31, r29\n    nop\n    br lt, loop\n" +
		"\n    br always, start\n    nop\n    nop\n"
	assert.Equal(t, want, out)
}

func TestProgram_UnclosedLoop(t *testing.T) {
	m := testutil.Platform(t)
	tg, err := New(m)
	require.NoError(t, err)

	_, err = compile(t, m, tg, testutil.Kernel("loop_start", ir.ControlFlow{Kind: ir.ForStart, Iterations: 2}))

	require.ErrorIs(t, err, qerr.ErrMismatchedLabel)
}

func TestProgram_PresetMasks(t *testing.T) {
	// --- Arrange ---
	m := testutil.PlatformFrom(t, withTarget(func(tc *config.Target) {
		tc.PresetMasks = []*config.PresetMask{
			{Kind: "s", Qubits: []int{2, 0}},
			{Kind: "t", Pairs: [][2]int{{0, 2}}},
		}
	}))
	tg, err := New(m)
	require.NoError(t, err)
	k := testutil.Kernel("k", ir.ControlFlow{},
		testutil.Gate(t, m, "x", 0),
		testutil.Gate(t, m, "x", 2),
	)

	// --- Act ---
	out, err := compile(t, m, tg, k)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "smis s0, {0, 2}\nsmit t0, {(0, 2)}\n\nstart:\n\nk:\n    0    x s0\n\n    br always, start\n    nop\n    nop\n", out)
}

func TestNew_InvalidPreset(t *testing.T) {
	testCases := []struct {
		name   string
		preset *config.PresetMask
	}{
		{name: "unknown kind", preset: &config.PresetMask{Kind: "u", Qubits: []int{0}}},
		{name: "qubit outside platform", preset: &config.PresetMask{Kind: "s", Qubits: []int{9}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := testutil.PlatformFrom(t, withTarget(func(c *config.Target) {
				c.PresetMasks = []*config.PresetMask{tc.preset}
			}))

			_, err := New(m)

			require.ErrorIs(t, err, qerr.ErrConfiguration)
		})
	}
}

func TestProgram_MaskExhaustion(t *testing.T) {
	// --- Arrange ---
	one := 1
	m := testutil.PlatformFrom(t, withTarget(func(tc *config.Target) { tc.SingleMaskCapacity = &one }))
	tg, err := New(m)
	require.NoError(t, err)
	k := testutil.Kernel("k", ir.ControlFlow{},
		testutil.Gate(t, m, "x", 0),
		testutil.Gate(t, m, "y", 1),
	)

	// --- Act ---
	_, err = compile(t, m, tg, k)

	// --- Assert ---
	require.ErrorIs(t, err, qerr.ErrRegisterExhaustion)
}

func TestFinalize_DetunesSpectators(t *testing.T) {
	// --- Arrange ---
	m := testutil.PlatformFrom(t, withTarget(func(tc *config.Target) { tc.CZMode = "auto" }))
	tg, err := New(m)
	require.NoError(t, err)
	k := testutil.Kernel("k", ir.ControlFlow{}, testutil.Gate(t, m, "cz", 0, 2))

	// --- Act ---
	out, err := compile(t, m, tg, k)

	// --- Assert ---
	require.NoError(t, err)
	want := "smis s0, {3}\n" +
		"smit t0, {(0, 2)}\n" +
		"\nstart:\n" +
		"\nk:\n" +
		"    0    sqf s0 | cz t0\n" +
		"    qwait 2\n" +
		"\n    br always, start\n    nop\n    nop\n"
	assert.Equal(t, want, out)
}

func TestFinalize_SharedSpectatorOnce(t *testing.T) {
	// --- Arrange ---
	m := testutil.PlatformFrom(t, withTarget(func(tc *config.Target) { tc.CZMode = "auto" }))
	tg, err := New(m)
	require.NoError(t, err)
	cz02 := testutil.Gate(t, m, "cz", 0, 2)
	cz25 := testutil.Gate(t, m, "cz", 2, 5)
	bundles := []bundle.Bundle{{
		StartCycle: 0,
		Duration:   2,
		Sections: []bundle.Section{
			{Items: []bundle.Item{{Instr: cz02}}},
			{Items: []bundle.Item{{Instr: cz25}}},
		},
	}}

	// --- Act ---
	got, err := tg.Finalize(ir.NewKernel("k", ir.ControlFlow{}), bundles)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, got, 1)
	var added []string
	for _, ins := range got[0].Instructions()[2:] {
		added = append(added, ins.String())
	}
	assert.Equal(t, []string{"sqf q3", "sqf q0"}, added)
	assert.Len(t, bundles[0].Sections, 2, "input bundles are not modified")
}

func TestFinalize_Errors(t *testing.T) {
	t.Run("manual mode leaves bundles alone", func(t *testing.T) {
		m := testutil.Platform(t)
		tg, err := New(m)
		require.NoError(t, err)
		in := []bundle.Bundle{{Sections: []bundle.Section{{Items: []bundle.Item{{Instr: testutil.Gate(t, m, "cz", 0, 1)}}}}}}

		got, err := tg.Finalize(ir.NewKernel("k", ir.ControlFlow{}), in)

		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("flux gate on unconnected qubits", func(t *testing.T) {
		m := testutil.PlatformFrom(t, withTarget(func(tc *config.Target) { tc.CZMode = "auto" }))
		tg, err := New(m)
		require.NoError(t, err)
		in := []bundle.Bundle{{Sections: []bundle.Section{{Items: []bundle.Item{{Instr: testutil.Gate(t, m, "cz", 0, 1)}}}}}}

		_, err = tg.Finalize(ir.NewKernel("k", ir.ControlFlow{}), in)

		require.ErrorIs(t, err, qerr.ErrMalformedCircuit)
	})
}

func TestClassical(t *testing.T) {
	m := testutil.Platform(t)
	tg, err := New(m)
	require.NoError(t, err)
	ldi, err := ir.NewClassical(ir.OpLoadImmediate, []int{1}, 5, 1)
	require.NoError(t, err)
	fmr, err := ir.NewFetchResult(0, 2, 1)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		instr   ir.Classical
		want    string
		wantErr error
	}{
		{name: "ldi", instr: ldi, want: "ldi r1, 5"},
		{name: "fmr", instr: fmr, want: "fmr r0, q2"},
		{name: "branch flag", instr: testutil.Classical(t, ir.OpBranchLT, 3), want: "fbr LT, r3"},
		{name: "three registers", instr: testutil.Classical(t, ir.OpXor, 1, 2, 3), want: "xor r1, r2, r3"},
		{name: "nop", instr: testutil.Classical(t, ir.OpNop), want: "nop"},
		{name: "undecomposed comparison", instr: testutil.Classical(t, ir.OpLT, 1, 2, 3), wantErr: qerr.ErrUnknownInstruction},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tg.Classical(tc.instr)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
