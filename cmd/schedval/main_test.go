package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func testdata(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func TestCheck(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		out, err := run(t, "check", testdata("001_straight.sv"), testdata("002_predicated.sv"), testdata("003_memory.sv"))
		require.NoError(t, err)
		require.Equal(t, "ok\tadd3\nok\tmax\nok\tinc\n", out)
	})

	t.Run("Rejected", func(t *testing.T) {
		out, err := run(t, "check", testdata("001_straight.sv"), testdata("004_reject.sv"))
		require.EqualError(t, err, "1 function(s) rejected")
		require.True(t, strings.HasPrefix(out, "ok\tadd3\nFAIL\tchain\t"), out)
		require.Contains(t, out, "block 1")
		require.Contains(t, out, "could not prove equivalence of r1")
	})

	t.Run("TruthTable", func(t *testing.T) {
		out, err := run(t, "check", "--solver", "truthtable", testdata("002_predicated.sv"))
		require.NoError(t, err)
		require.Equal(t, "ok\tmax\n", out)
	})

	t.Run("Retry", func(t *testing.T) {
		out, err := run(t, "check", "--bound", "1", "--retry", "100,100000", testdata("002_predicated.sv"))
		require.NoError(t, err)
		require.Equal(t, "ok\tmax\n", out)
	})

	t.Run("SmallBound", func(t *testing.T) {
		out, err := run(t, "check", "--bound", "1", testdata("002_predicated.sv"))
		require.Error(t, err)
		require.True(t, strings.HasPrefix(out, "FAIL\tmax\t"), out)
	})

	t.Run("UnknownSolver", func(t *testing.T) {
		_, err := run(t, "check", "--solver", "magic", testdata("001_straight.sv"))
		require.EqualError(t, err, `unknown solver: "magic"`)
	})

	t.Run("InvalidBound", func(t *testing.T) {
		_, err := run(t, "check", "--bound", "0", testdata("001_straight.sv"))
		require.EqualError(t, err, "bound must be positive: 0")
	})

	t.Run("NoArgs", func(t *testing.T) {
		_, err := run(t, "check")
		require.Error(t, err)
	})

	t.Run("ParseError", func(t *testing.T) {
		_, err := run(t, "check", testdata("missing.sv"))
		require.Error(t, err)
	})
}

func TestForest(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		out, err := run(t, "forest", testdata("002_predicated.sv"))
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(out, "function max\nblock 1\nseq:\n"), out)
		require.Contains(t, out, "atoms:\n  p2 = (setpred lt [(base r1) (base r2)] (base mem))\n")
		require.Contains(t, out, "verdict: ok\n")
	})

	t.Run("Empty", func(t *testing.T) {
		out, err := run(t, "forest", testdata("001_straight.sv"))
		require.NoError(t, err)
		require.Contains(t, out, "block 2\nseq:\n  (empty)\npar:\n  (empty)\nverdict: ok\n")
	})

	t.Run("Rejected", func(t *testing.T) {
		out, err := run(t, "forest", testdata("004_reject.sv"))
		require.NoError(t, err)
		require.Contains(t, out, "verdict: schedval: could not prove equivalence of r1\n")
	})
}
