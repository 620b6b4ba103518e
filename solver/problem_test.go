package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemCNF(t *testing.T) {
	pb, err := ParseSlice([][]int{{1, -2}, {3}})
	require.NoError(t, err)
	assert.Equal(t, "p cnf 3 2\n3 0\n1 -2 0\n", pb.CNF())
}

func TestProblemValidate(t *testing.T) {
	pb, err := ParseSlice([][]int{{1, 2}, {-1, 3}})
	require.NoError(t, err)
	assert.NoError(t, pb.Validate([]bool{true, false, true}))
	assert.Error(t, pb.Validate([]bool{true, false, false}))
	assert.Error(t, pb.Validate([]bool{true}), "a truncated model must be rejected")
}

func TestProblemValidateUnits(t *testing.T) {
	pb, err := ParseSlice([][]int{{1}, {1, 2}})
	require.NoError(t, err)
	assert.NoError(t, pb.Validate([]bool{true, false}))
	assert.Error(t, pb.Validate([]bool{false, true}), "a falsified unit must be rejected")
}
