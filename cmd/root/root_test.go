package root

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (int, string, error) {
	t.Helper()
	code := 0
	cmd := NewRootCmd(&code)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return code, out.String(), err
}

func TestRunSat(t *testing.T) {
	path := writeFile(t, "sat.cnf", "p cnf 3 3\n1 2 0\n-1 3 0\n-2 -3 0\n")
	code, out, err := execute(t, "-q", path)
	require.NoError(t, err)
	assert.Equal(t, exitSat, code)
	assert.True(t, strings.HasPrefix(out, "s SATISFIABLE\n"), "got output %q", out)
	assert.Contains(t, out, "\nv ")
}

func TestRunUnsatWithProof(t *testing.T) {
	path := writeFile(t, "unsat.cnf", "p cnf 2 4\n1 2 0\n1 -2 0\n-1 2 0\n-1 -2 0\n")
	dir := t.TempDir()
	code, out, err := execute(t, "-q", "-c", "-o", dir, path)
	require.NoError(t, err)
	assert.Equal(t, exitUnsat, code)
	assert.Equal(t, "s UNSATISFIABLE\n", out)
	proof, err := os.ReadFile(filepath.Join(dir, "proof.drat"))
	require.NoError(t, err)
	require.NotEmpty(t, proof)
	assert.True(t, strings.HasSuffix(string(proof), "0\n"), "the trace must end with the empty clause")
}

func TestRunVerify(t *testing.T) {
	cnf := writeFile(t, "f.cnf", "p cnf 2 2\n1 2 0\n-1 2 0\n")
	res := writeFile(t, "f.res", "s SATISFIABLE\nv 1 2 0\n")
	code, _, err := execute(t, "-q", "-r", res, cnf)
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
}

func TestRunVerifyBadModel(t *testing.T) {
	cnf := writeFile(t, "f.cnf", "p cnf 2 2\n1 2 0\n-1 2 0\n")
	res := writeFile(t, "f.res", "s SATISFIABLE\nv -1 -2 0\n")
	code, _, err := execute(t, "-q", "-r", res, cnf)
	require.Error(t, err)
	assert.Equal(t, exitError, code)
}

func TestRunVerifyUnsatResult(t *testing.T) {
	cnf := writeFile(t, "f.cnf", "p cnf 2 2\n1 2 0\n-1 2 0\n")
	res := writeFile(t, "f.res", "s UNSATISFIABLE\n")
	code, _, err := execute(t, "-q", "-r", res, cnf)
	require.NoError(t, err)
	assert.Equal(t, exitOK, code, "a non-SAT result has nothing to check")
}

func TestRunMissingFile(t *testing.T) {
	code, _, err := execute(t, "-q", filepath.Join(t.TempDir(), "nope.cnf"))
	require.Error(t, err)
	assert.Equal(t, exitError, code)
}

func TestRunBadFormula(t *testing.T) {
	path := writeFile(t, "bad.cnf", "p cnf 2 1\n1 3 0\n")
	code, _, err := execute(t, "-q", path)
	require.Error(t, err)
	assert.Equal(t, exitError, code)
}

func TestRunLogFile(t *testing.T) {
	path := writeFile(t, "sat.cnf", "p cnf 1 1\n1 0\n")
	logPath := filepath.Join(t.TempDir(), "run.log")
	code, _, err := execute(t, "-C", "-l", logPath, path)
	require.NoError(t, err)
	assert.Equal(t, exitSat, code)
	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "parsed formula")
}
