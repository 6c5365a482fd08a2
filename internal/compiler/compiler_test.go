package compiler

import (
	"context"
	"fmt"
	"testing"

	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/scheduler"
	"github.com/specialistvlad/eqasmc/internal/target"
	"github.com/specialistvlad/eqasmc/internal/target/cc"
	"github.com/specialistvlad/eqasmc/internal/target/cclight"
	"github.com/specialistvlad/eqasmc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func gate(name string, qubits ...int) *config.Op {
	return &config.Op{Kind: config.OpGate, Name: name, Qubits: qubits}
}

func program(kernels ...*config.Kernel) *config.Program {
	return &config.Program{Name: "p", Kernels: kernels}
}

func kernel(name string, ops ...*config.Op) *config.Kernel {
	return &config.Kernel{Name: name, Ops: ops}
}

func compileWith(t *testing.T, m *platform.Model, tgt target.Target, prog *config.Program, policy scheduler.Policy) (*Result, error) {
	t.Helper()
	p, err := BuildKernels(prog, m, 1)
	if err != nil {
		return nil, err
	}
	return Compile(context.Background(), p, m, tgt, Options{Policy: policy, Workers: 2})
}

func compileCCLight(t *testing.T, m *platform.Model, prog *config.Program) (*Result, error) {
	t.Helper()
	tgt, err := cclight.New(m)
	require.NoError(t, err)
	return compileWith(t, m, tgt, prog, scheduler.PolicyASAP)
}

func TestCompile_ParallelGatesShareMask(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	x0, x1 := gate("x", 0), gate("x", 1)
	x0.Duration, x1.Duration = intp(40), intp(40)

	// --- Act ---
	res, err := compileCCLight(t, m, program(kernel("k", x0, x1)))

	// --- Assert ---
	require.NoError(t, err)
	want := "smis s0, {0, 1}\n" +
		"\nstart:\n" +
		"\nk:\n" +
		"    0    x s0\n" +
		"    qwait 2\n" +
		"\n    br always, start\n    nop\n    nop\n"
	assert.Equal(t, want, res.Text)
	require.Len(t, res.Kernels, 1)
	assert.Equal(t, 2, res.Kernels[0].Cycles())
	require.Len(t, res.Kernels[0].Bundles, 1)
	require.Len(t, res.Kernels[0].Bundles[0].Sections, 1)
	assert.Len(t, res.Kernels[0].Bundles[0].Sections[0].Items, 2)
}

func TestCompile_ZeroDurationGateBeforeClassical(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	x := gate("x", 0)
	x.Duration = intp(0)
	ldi := &config.Op{Kind: config.OpClassical, Name: "ldi", Cregs: []int{1}, Imm: 3}

	for _, p := range []scheduler.Policy{scheduler.PolicyASAP, scheduler.PolicyALAP, scheduler.PolicyRC} {
		t.Run(string(p), func(t *testing.T) {
			tgt, err := cclight.New(m)
			require.NoError(t, err)

			// --- Act ---
			res, err := compileWith(t, m, tgt, program(kernel("k", x, ldi)), p)

			// --- Assert ---
			require.NoError(t, err)
			bundles := res.Kernels[0].Bundles
			require.Len(t, bundles, 2)
			assert.Equal(t, 0, bundles[0].StartCycle)
			assert.Equal(t, 1, bundles[1].StartCycle)
			assert.True(t, bundles[1].IsClassical())
		})
	}
}

func TestCompile_MeasurementFetchPad(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	measure := gate("measure", 0)
	measure.Creg = intp(0)

	// --- Act ---
	res, err := compileCCLight(t, m, program(kernel("k", measure)))

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, res.Text, "\nk:\n    0    measz s0\n    qwait 1\n    qwait 1\n    fmr r0, q0\n")
}

func TestCompile_EmptyForLoop(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	prog := program(
		&config.Kernel{Name: "body_start", Control: "for_start", Iterations: 5},
		kernel("body"),
		&config.Kernel{Name: "body_end", Control: "for_end"},
	)

	// --- Act ---
	res, err := compileCCLight(t, m, prog)

	// --- Assert ---
	require.NoError(t, err)
	want := "\nstart:\n" +
		"\nbody_start:\n" +
		"    ldi r29, 5\n    ldi r30, 1\n    ldi r31, 0\n" +
		"\nbody:\n" +
		"\nbody_end:\n" +
		"    add r31, r31, r30\n    cmp r31, r29\n    nop\n    br lt, body\n" +
		"\n    br always, start\n    nop\n    nop\n"
	assert.Equal(t, want, res.Text)
}

func TestCompile_Deterministic(t *testing.T) {
	m := testutil.Platform(t)
	measure := gate("measure", 3)
	measure.Creg = intp(2)
	prog := program(
		kernel("a", gate("x", 0), gate("y", 1), gate("cz", 0, 2), gate("x90", 4), measure),
		kernel("b", gate("h", 6), gate("cnot", 3, 5), &config.Op{Kind: config.OpNop}, gate("x", 6)),
	)

	for _, policy := range []scheduler.Policy{scheduler.PolicyASAP, scheduler.PolicyALAP, scheduler.PolicyRC} {
		t.Run(string(policy), func(t *testing.T) {
			first, err := compileWith(t, m, mustCCLight(t, m), prog, policy)
			require.NoError(t, err)
			second, err := compileWith(t, m, mustCCLight(t, m), prog, policy)
			require.NoError(t, err)

			assert.Equal(t, first.Text, second.Text)
		})
	}
}

func mustCCLight(t *testing.T, m *platform.Model) target.Target {
	t.Helper()
	tgt, err := cclight.New(m)
	require.NoError(t, err)
	return tgt
}

func TestCompile_BundleRoundTrip(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	prog := program(kernel("k", gate("x", 0), gate("h", 0), gate("cz", 0, 2), gate("measure", 2)))

	// --- Act ---
	res, err := compileWith(t, m, mustCC(t, m), prog, scheduler.PolicyASAP)

	// --- Assert ---
	require.NoError(t, err)
	kr := res.Kernels[0]
	bundles := kr.Bundles
	require.NotEmpty(t, bundles)
	total := 0
	for i := 1; i < len(bundles); i++ {
		assert.LessOrEqual(t, bundles[i-1].StartCycle, bundles[i].StartCycle)
		total += bundles[i].StartCycle - bundles[i-1].StartCycle
	}
	total += bundles[len(bundles)-1].Duration
	assert.Equal(t, kr.Cycles(), bundles[0].StartCycle+total)
}

func mustCC(t *testing.T, m *platform.Model) target.Target {
	t.Helper()
	tgt, err := cc.New(m)
	require.NoError(t, err)
	return tgt
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		prog       *config.Program
		wantErr    error
		wantKernel string
	}{
		{
			name:       "qubit outside the platform",
			prog:       program(kernel("ok", gate("x", 0)), kernel("bad", gate("x", 9))),
			wantErr:    qerr.ErrMalformedCircuit,
			wantKernel: "bad",
		},
		{
			name:       "unknown gate",
			prog:       program(kernel("k", gate("toffoli", 0, 1, 2))),
			wantErr:    qerr.ErrUnknownInstruction,
			wantKernel: "k",
		},
		{
			name: "if without its end kernel",
			prog: program(&config.Kernel{
				Name:      "branch_start",
				Control:   "if_start",
				Condition: &config.Condition{LHS: 0, Op: "eq", RHS: 1},
			}),
			wantErr: qerr.ErrMismatchedLabel,
		},
		{
			name: "end kernel with another label",
			prog: program(
				&config.Kernel{Name: "loop_start", Control: "for_start", Iterations: 2},
				kernel("loop"),
				&config.Kernel{Name: "other_end", Control: "for_end"},
			),
			wantErr:    qerr.ErrMismatchedLabel,
			wantKernel: "other_end",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			m := testutil.Platform(t)

			// --- Act ---
			res, err := compileCCLight(t, m, tc.prog)

			// --- Assert ---
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, res)
			if tc.wantKernel != "" {
				var qe *qerr.Error
				require.ErrorAs(t, err, &qe)
				assert.Equal(t, tc.wantKernel, qe.Kernel)
			}
		})
	}
}

func TestCompile_Cancelled(t *testing.T) {
	m := testutil.Platform(t)
	p, err := BuildKernels(program(kernel("k", gate("x", 0))), m, 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Compile(ctx, p, m, mustCCLight(t, m), Options{Policy: scheduler.PolicyASAP})

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestCompile_Workers(t *testing.T) {
	m := testutil.Platform(t)
	var kernels []*config.Kernel
	for i := range 12 {
		kernels = append(kernels, kernel(fmt.Sprintf("k%d", i), gate("x", i%3), gate("cz", 0, 2), gate("measure", 1)))
	}
	prog := program(kernels...)

	compileWithWorkers := func(workers int) (*Result, error) {
		p, err := BuildKernels(prog, m, 1)
		require.NoError(t, err)
		return Compile(context.Background(), p, m, mustCCLight(t, m), Options{Policy: scheduler.PolicyALAP, Workers: workers})
	}

	want, err := compileWithWorkers(1)
	require.NoError(t, err)
	for _, workers := range []int{0, 3, 32} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got, err := compileWithWorkers(workers)

			require.NoError(t, err)
			assert.Equal(t, want.Text, got.Text)
			require.Len(t, got.Kernels, len(kernels))
			for i, kr := range got.Kernels {
				assert.Equal(t, fmt.Sprintf("k%d", i), kr.Name)
			}
		})
	}
}

func TestCompile_FirstErrorInProgramOrder(t *testing.T) {
	testCases := []struct {
		name       string
		prog       *config.Program
		wantErr    error
		wantKernel string
	}{
		{
			name: "earliest failing kernel",
			prog: program(
				kernel("a", gate("x", 0)),
				kernel("b", gate("x", 9)),
				kernel("c", gate("x", 8)),
				kernel("d", gate("x", 7)),
			),
			wantErr:    qerr.ErrMalformedCircuit,
			wantKernel: "b",
		},
		{
			name: "emission error before a scheduling error",
			prog: program(
				&config.Kernel{Name: "stray_end", Control: "for_end"},
				kernel("b", gate("x", 9)),
			),
			wantErr:    qerr.ErrMismatchedLabel,
			wantKernel: "stray_end",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			m := testutil.Platform(t)
			p, err := BuildKernels(tc.prog, m, 1)
			require.NoError(t, err)

			// --- Act ---
			res, err := Compile(context.Background(), p, m, mustCCLight(t, m), Options{Policy: scheduler.PolicyASAP, Workers: 4})

			// --- Assert ---
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, res)
			var qe *qerr.Error
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tc.wantKernel, qe.Kernel)
		})
	}
}

func TestBuildKernels(t *testing.T) {
	// --- Arrange ---
	m := testutil.Platform(t)
	measure := gate("measure", 1)
	measure.Creg = intp(4)
	slow := gate("x", 2)
	slow.Duration = intp(50)
	prog := program(&config.Kernel{
		Name:      "k_start",
		Control:   "do_while_start",
		Condition: nil,
		Ops: []*config.Op{
			measure,
			slow,
			{Kind: config.OpClassical, Name: "ldi", Cregs: []int{1}, Imm: 5},
			{Kind: config.OpClassical, Name: "fmr", Cregs: []int{2}, Qubit: intp(1)},
			{Kind: config.OpWait, Qubits: []int{0}, Cycles: 3},
			{Kind: config.OpNop},
		},
	})

	// --- Act ---
	p, err := BuildKernels(prog, m, 2)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, p.Kernels, 1)
	var got []string
	var cycles []int
	for _, ins := range p.Kernels[0].Circuit.Instructions() {
		got = append(got, ins.String())
		cycles = append(cycles, ins.Cycles())
	}
	assert.Equal(t, []string{"measure q1 -> r4", "x q2", "ldi r1,5", "fmr r2,q1", "wait 3 q0", "nop"}, got)
	assert.Equal(t, []int{4, 3, 2, 2, 3, 1}, cycles)
}

func TestBuildKernels_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		kernels []*config.Kernel
		wantErr error
	}{
		{
			name:    "duplicate kernel",
			kernels: []*config.Kernel{kernel("k"), kernel("k")},
			wantErr: qerr.ErrConfiguration,
		},
		{
			name:    "unknown control kind",
			kernels: []*config.Kernel{{Name: "k", Control: "switch"}},
			wantErr: qerr.ErrConfiguration,
		},
		{
			name:    "if without condition",
			kernels: []*config.Kernel{{Name: "k_start", Control: "if_start"}},
			wantErr: qerr.ErrConfiguration,
		},
		{
			name:    "condition register out of range",
			kernels: []*config.Kernel{{Name: "k_start", Control: "if_start", Condition: &config.Condition{LHS: 40, Op: "eq"}}},
			wantErr: qerr.ErrMalformedCircuit,
		},
		{
			name:    "wrong gate arity",
			kernels: []*config.Kernel{kernel("k", gate("cz", 0))},
			wantErr: qerr.ErrMalformedCircuit,
		},
		{
			name:    "classical arity",
			kernels: []*config.Kernel{kernel("k", &config.Op{Kind: config.OpClassical, Name: "add", Cregs: []int{1}})},
			wantErr: qerr.ErrMalformedCircuit,
		},
		{
			name:    "fmr without qubit",
			kernels: []*config.Kernel{kernel("k", &config.Op{Kind: config.OpClassical, Name: "fmr", Cregs: []int{1}})},
			wantErr: qerr.ErrMalformedCircuit,
		},
		{
			name:    "unknown classical op",
			kernels: []*config.Kernel{kernel("k", &config.Op{Kind: config.OpClassical, Name: "mul", Cregs: []int{1, 2, 3}})},
			wantErr: qerr.ErrUnknownInstruction,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := testutil.Platform(t)

			_, err := BuildKernels(program(tc.kernels...), m, 1)

			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestBuildKernels_LineContext(t *testing.T) {
	m := testutil.Platform(t)
	op := gate("swap", 0, 1)
	op.Line = 12

	_, err := BuildKernels(program(kernel("k", op)), m, 1)

	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "swap (line 12)", qe.Instruction)
	assert.Equal(t, "k", qe.Kernel)
}
