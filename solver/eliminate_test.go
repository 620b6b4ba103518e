package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkClause(lits ...int) *Clause {
	res := make([]Lit, len(lits))
	for i, l := range lits {
		res[i] = IntToLit(l)
	}
	return NewClause(res)
}

func TestSubsumes(t *testing.T) {
	ok, strength := subsumes(mkClause(1, 2), mkClause(1, 2, 3))
	assert.True(t, ok)
	assert.Equal(t, litUndef, strength, "plain subsumption carries no strengthening literal")

	ok, strength = subsumes(mkClause(1, -2), mkClause(1, 2, 3))
	assert.True(t, ok)
	assert.Equal(t, IntToLit(-2), strength, "self-subsuming resolution on 2")

	ok, _ = subsumes(mkClause(1, 4), mkClause(1, 2, 3))
	assert.False(t, ok)

	ok, _ = subsumes(mkClause(1, -2), mkClause(-1, 2, 3))
	assert.False(t, ok, "at most one literal may appear negated")
}

func TestResolve(t *testing.T) {
	res, tauto := resolve(mkClause(1, 2), mkClause(-1, 3), IntToVar(1))
	require.False(t, tauto)
	require.Len(t, res, 2)
	assert.Equal(t, 2, res[0].Int())
	assert.Equal(t, 3, res[1].Int())

	_, tauto = resolve(mkClause(1, 2), mkClause(-1, -2), IntToVar(1))
	assert.True(t, tauto)
}

func TestExtendModel(t *testing.T) {
	// Variable 2 eliminated from the clause 1|2, with -2 as the default.
	s := &Solver{
		nbVars: 2,
		extension: []extEntry{
			{lits: []Lit{IntToLit(1), IntToLit(2)}, witness: IntToLit(2)},
			{lits: []Lit{IntToLit(-2)}, witness: IntToLit(-2)},
		},
	}
	model := []bool{true, false}
	s.extendModel(model)
	assert.Equal(t, []bool{true, false}, model, "a satisfied entry must not flip its witness")

	model = []bool{false, false}
	s.extendModel(model)
	assert.Equal(t, []bool{false, true}, model, "an unsatisfied entry must flip its witness")
}

func TestEliminationEndToEnd(t *testing.T) {
	cnf := [][]int{{1, 3}, {-3, 2}, {-1, 2}, {1, -2}}
	pb, err := ParseSlice(cnf)
	require.NoError(t, err)
	s := NewDefault(pb)
	require.Equal(t, Sat, s.Solve())
	assert.Positive(t, s.Stats.NbEliminated, "expected at least one eliminated variable")
	model := s.Model()
	require.Len(t, model, 3)
	assert.True(t, satisfies(cnf, model), "the extended model must satisfy the original formula")
}

func TestSubsumptionRemovesClauses(t *testing.T) {
	// 1|2 subsumes 1|2|3, which is removed.
	cnf := [][]int{{1, 2}, {1, 2, 3}, {4, 5}}
	pb, err := ParseSlice(cnf)
	require.NoError(t, err)
	s := NewDefault(pb)
	require.NotEqual(t, Unsat, s.inprocess())
	assert.Positive(t, s.Stats.NbSubsumed)
	model := make([]bool, 5)
	require.Equal(t, Sat, s.Solve())
	copy(model, s.Model())
	assert.True(t, satisfies(cnf, model))
}

func TestReintroduce(t *testing.T) {
	pb, err := ParseSlice([][]int{{1, 2}})
	require.NoError(t, err)
	s := NewDefault(pb)
	require.Equal(t, Sat, s.Solve())
	// Both variables are typically eliminated by preprocessing; adding a
	// unit over one of them must bring its clauses back.
	require.NoError(t, s.AddClause([]Lit{IntToLit(-1)}))
	s.Reset()
	require.Equal(t, Sat, s.Solve())
	model := s.Model()
	assert.False(t, model[0])
	assert.True(t, model[1])
}
