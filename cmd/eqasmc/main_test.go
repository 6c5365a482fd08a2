package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Compiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"s7.hcl":   testutil.PlatformHCL,
		"demo.hcl": testutil.ProgramHCL,
	})
	args := []string{"--platform", filepath.Join(dir, "s7.hcl"), filepath.Join(dir, "demo.hcl")}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(out, errOut, args)

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\nstart:\n")
	assert.Contains(t, out.String(), "    br always, start\n    nop\n    nop\n")
	assert.Empty(t, errOut.String(), "nothing above warn is logged by default")
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{
		"s7.hcl":   testutil.PlatformHCL,
		"demo.hcl": testutil.ProgramHCL,
	})
	args := []string{"-p", filepath.Join(dir, "s7.hcl"), "--scheduler", "alap", filepath.Join(dir, "demo.hcl")}

	first, second := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, run(first, &bytes.Buffer{}, args))
	require.NoError(t, run(second, &bytes.Buffer{}, args))

	assert.Equal(t, first.String(), second.String())
}

func TestRun_CompileError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"s7.hcl":  testutil.PlatformHCL,
		"bad.hcl": "program \"bad\" {\n  kernel \"k\" {\n    gate \"toffoli\" {\n      qubits = [0, 1, 2]\n    }\n  }\n}\n",
	})
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, []string{"-p", filepath.Join(dir, "s7.hcl"), filepath.Join(dir, "bad.hcl")})

	// --- Assert ---
	require.ErrorIs(t, err, qerr.ErrUnknownInstruction)
	assert.Contains(t, err.Error(), "kernel 'k'")
	assert.Empty(t, out.String())
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
