package solver

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// A sliceTest associates a CNF, given as a slice of clauses, with the
// expected solver status.
type sliceTest struct {
	name     string
	cnf      [][]int
	expected Status
}

var sliceTests = []sliceTest{
	{"twoSolutions", [][]int{{1, 2}, {-1, 3}, {1, -3}, {-1, 2}}, Sat},
	{"chains", [][]int{{1}, {-2, 3}, {-2, 4}, {-5, 3}, {-5, 6}, {-7, 3}, {-7, 8}, {-9, 10}, {-9, 4}, {-1, 10}, {-1, 6}, {3, 10}, {-3, -10}, {4, 6, 8}}, Sat},
	{"allNegated", [][]int{{1, 2, 3}, {-1}, {-2}, {-3}}, Unsat},
	{"contradiction", [][]int{{1}, {-1}}, Unsat},
	{"fullSquare", [][]int{{1, 2}, {1, -2}, {-1, 2}, {-1, -2}}, Unsat},
	{"php4into4", php(4, 4), Sat},
	{"php5into4", php(5, 4), Unsat},
	{"php6into5", php(6, 5), Unsat},
}

// php returns the pigeonhole formula putting the given number of pigeons
// into the given number of holes. It is satisfiable iff pigeons <= holes.
func php(pigeons, holes int) [][]int {
	v := func(pigeon, hole int) int { return (pigeon-1)*holes + hole }
	var cnf [][]int
	for p := 1; p <= pigeons; p++ {
		clause := make([]int, holes)
		for h := 1; h <= holes; h++ {
			clause[h-1] = v(p, h)
		}
		cnf = append(cnf, clause)
	}
	for h := 1; h <= holes; h++ {
		for p1 := 1; p1 <= pigeons; p1++ {
			for p2 := p1 + 1; p2 <= pigeons; p2++ {
				cnf = append(cnf, []int{-v(p1, h), -v(p2, h)})
			}
		}
	}
	return cnf
}

// satisfies checks a model against the original clause slices, so tests do
// not depend on clauses the solver may have rewritten in place.
func satisfies(cnf [][]int, model []bool) bool {
	for _, clause := range cnf {
		sat := false
		for _, val := range clause {
			v := val
			if v < 0 {
				v = -v
			}
			if model[v-1] == (val > 0) {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

// countModels enumerates all assignments by brute force.
func countModels(cnf [][]int, nbVars int) int {
	nb := 0
	model := make([]bool, nbVars)
	for mask := 0; mask < 1<<nbVars; mask++ {
		for v := 0; v < nbVars; v++ {
			model[v] = mask&(1<<v) != 0
		}
		if satisfies(cnf, model) {
			nb++
		}
	}
	return nb
}

func solveSlice(t *testing.T, cnf [][]int, cfg Config) (*Solver, Status) {
	t.Helper()
	pb, err := ParseSlice(cnf)
	if err != nil {
		t.Fatalf("could not parse %v: %v", cnf, err)
	}
	s, err := New(pb, cfg)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}
	return s, s.Solve()
}

func TestSolver(t *testing.T) {
	for _, test := range sliceTests {
		t.Run(test.name, func(t *testing.T) {
			s, status := solveSlice(t, test.cnf, DefaultConfig())
			if status != test.expected {
				t.Fatalf("expected %v, got %v", test.expected, status)
			}
			if status == Sat && !satisfies(test.cnf, s.Model()) {
				t.Errorf("the model %v does not satisfy %v", s.Model(), test.cnf)
			}
		})
	}
}

// Chronological backtracking must not change the answer, whether it is
// allowed on every conflict or never.
func TestSolverChronoThresholds(t *testing.T) {
	for _, threshold := range []int{1, 1 << 20} {
		cfg := DefaultConfig()
		cfg.ChronoBTThreshold = threshold
		for _, test := range sliceTests {
			s, status := solveSlice(t, test.cnf, cfg)
			if status != test.expected {
				t.Errorf("cbt=%d: expected %v for %q, got %v", threshold, test.expected, test.name, status)
			}
			if status == Sat && !satisfies(test.cnf, s.Model()) {
				t.Errorf("cbt=%d: invalid model for %q", threshold, test.name)
			}
		}
	}
}

// A tight inprocessing interval exercises subsumption, elimination and the
// model extension during search rather than only at preprocessing.
func TestSolverTightInprocessing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InprocessInterval = 50
	for _, test := range sliceTests {
		s, status := solveSlice(t, test.cnf, cfg)
		if status != test.expected {
			t.Errorf("expected %v for %q, got %v", test.expected, test.name, status)
		}
		if status == Sat && !satisfies(test.cnf, s.Model()) {
			t.Errorf("invalid model for %q", test.name)
		}
	}
}

func TestSolveEmptyFormula(t *testing.T) {
	pb, err := ParseCNF(strings.NewReader(""))
	if err != nil {
		t.Fatalf("could not parse the empty formula: %v", err)
	}
	if status := NewDefault(pb).Solve(); status != Sat {
		t.Fatalf("expected the empty formula to be sat, got %v", status)
	}
}

func TestSolverStats(t *testing.T) {
	s, status := solveSlice(t, php(6, 5), DefaultConfig())
	if status != Unsat {
		t.Fatalf("expected unsat, got %v", status)
	}
	if s.Stats.NbConflicts == 0 {
		t.Error("expected at least one conflict")
	}
	if s.Stats.NbDecisions == 0 {
		t.Error("expected at least one decision")
	}
}

func TestCertifyUnsat(t *testing.T) {
	pb, err := ParseSlice(php(5, 4))
	if err != nil {
		t.Fatal(err)
	}
	s := NewDefault(pb)
	var buf bytes.Buffer
	s.Certify(&buf)
	if status := s.Solve(); status != Unsat {
		t.Fatalf("expected unsat, got %v", status)
	}
	if err := s.CloseProof(); err != nil {
		t.Fatalf("could not close the proof: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		t.Fatal("the proof trace is empty")
	}
	if last := lines[len(lines)-1]; last != "0" {
		t.Errorf("expected the trace to end with the empty clause, got %q", last)
	}
	for _, line := range lines {
		for _, field := range strings.Fields(strings.TrimPrefix(line, "d ")) {
			if field == "" {
				t.Errorf("malformed proof line %q", line)
			}
		}
	}
}

// A formula refuted while parsing must still produce a proof trace.
func TestCertifyTriviallyUnsat(t *testing.T) {
	pb, err := ParseSlice([][]int{{1}, {-1}})
	if err != nil {
		t.Fatal(err)
	}
	s := NewDefault(pb)
	var buf bytes.Buffer
	s.Certify(&buf)
	if status := s.Solve(); status != Unsat {
		t.Fatalf("expected unsat, got %v", status)
	}
	if got := buf.String(); got != "0\n" {
		t.Errorf("expected the empty clause alone, got %q", got)
	}
}

func TestEnumerate(t *testing.T) {
	cnfs := [][][]int{
		{{1, 2}},
		{{1, 2}, {-1, 3}, {1, -3}, {-1, 2}},
		{{1, -2}, {2, -3}},
		{{1}},
		{{1, 2, 3}},
	}
	for _, cnf := range cnfs {
		pb, err := ParseSlice(cnf)
		if err != nil {
			t.Fatal(err)
		}
		expected := countModels(cnf, pb.NbVars)
		got := NewDefault(pb).Enumerate(nil)
		if got != expected {
			t.Errorf("expected %d models for %v, got %d", expected, cnf, got)
		}
	}
}

func TestEnumerateChannel(t *testing.T) {
	cnf := [][]int{{1, 2}, {-1, 3}, {1, -3}, {-1, 2}}
	pb, err := ParseSlice(cnf)
	if err != nil {
		t.Fatal(err)
	}
	models := make(chan []bool)
	s := NewDefault(pb)
	go s.Enumerate(models)
	nb := 0
	for model := range models {
		nb++
		if !satisfies(cnf, model) {
			t.Errorf("enumerated model %v does not satisfy %v", model, cnf)
		}
	}
	if expected := countModels(cnf, pb.NbVars); nb != expected {
		t.Errorf("expected %d models, got %d", expected, nb)
	}
}

func TestModelIterator(t *testing.T) {
	cnf := [][]int{{1, 2}}
	pb, err := ParseSlice(cnf)
	if err != nil {
		t.Fatal(err)
	}
	it := NewDefault(pb).Models()
	seen := map[[2]bool]bool{}
	for {
		model, ok := it.Next()
		if !ok {
			break
		}
		key := [2]bool{model[0], model[1]}
		if seen[key] {
			t.Fatalf("model %v was returned twice", model)
		}
		seen[key] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct models, got %d", len(seen))
	}
}

func TestAddEmptyClause(t *testing.T) {
	pb, err := ParseSlice([][]int{{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	s := NewDefault(pb)
	err = s.AddClause(nil)
	if !errors.Is(err, ErrEmptyClause) {
		t.Errorf("expected an empty clause error, got %v", err)
	}
	if !errors.Is(err, ErrInconsistent) {
		t.Errorf("the empty clause error should also report inconsistency, got %v", err)
	}
	if status := s.Solve(); status != Unsat {
		t.Errorf("expected unsat after adding the empty clause, got %v", status)
	}
}

func TestIncremental(t *testing.T) {
	pb, err := ParseSlice([][]int{{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	s := NewDefault(pb)
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected sat, got %v", status)
	}
	if err := s.AddClause([]Lit{IntToLit(-1)}); err != nil {
		t.Fatalf("could not add unit -1: %v", err)
	}
	s.Reset()
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected sat after adding -1, got %v", status)
	}
	if model := s.Model(); model[0] || !model[1] {
		t.Fatalf("expected model -1, 2, got %v", model)
	}
	if err := s.AddClause([]Lit{IntToLit(-2)}); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("expected an inconsistency adding -2, got %v", err)
	}
	s.Reset()
	if status := s.Solve(); status != Unsat {
		t.Errorf("expected unsat after adding -1 and -2, got %v", status)
	}
}

func TestAddClauseNewVars(t *testing.T) {
	pb, err := ParseSlice([][]int{{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	s := NewDefault(pb)
	if err := s.AddClause([]Lit{IntToLit(3), IntToLit(4)}); err != nil {
		t.Fatalf("could not add a clause over new variables: %v", err)
	}
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected sat, got %v", status)
	}
	if model := s.Model(); len(model) != 4 {
		t.Fatalf("expected a model over 4 vars, got %v", model)
	}
}

func TestAssume(t *testing.T) {
	cnf := [][]int{{1, 2}}
	pb, err := ParseSlice(cnf)
	if err != nil {
		t.Fatal(err)
	}
	s := NewDefault(pb)
	if status := s.Assume([]Lit{IntToLit(-1)}); status == Unsat {
		t.Fatal("assuming -1 should not refute 1|2")
	}
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected sat under assumption, got %v", status)
	}
	if model := s.Model(); model[0] || !model[1] {
		t.Fatalf("expected model -1, 2, got %v", model)
	}
}

func TestAssumeContradiction(t *testing.T) {
	pb, err := ParseSlice([][]int{{1, 2}, {-1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	s := NewDefault(pb)
	if status := s.Assume([]Lit{IntToLit(-2)}); status != Unsat {
		t.Fatalf("expected the assumption -2 to be refuted, got %v", status)
	}
}

func TestConflictBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConflictBudget = 100
	s, status := solveSlice(t, php(10, 9), cfg)
	if status != Indet {
		t.Fatalf("expected an indeterminate status, got %v", status)
	}
	if !errors.Is(s.Err(), ErrTimeout) {
		t.Fatalf("expected a budget error, got %v", s.Err())
	}
	if s.Stats.NbConflicts < 100 {
		t.Errorf("the solver stopped after %d conflicts, before its budget", s.Stats.NbConflicts)
	}
}

func TestReset(t *testing.T) {
	pb, err := ParseSlice([][]int{{1, 2}, {-1, 3}, {1, -3}, {-1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	s := NewDefault(pb)
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected sat, got %v", status)
	}
	s.Reset()
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected sat again after a reset, got %v", status)
	}
}

func TestCleanLits(t *testing.T) {
	lits := []Lit{IntToLit(3), IntToLit(1), IntToLit(3), IntToLit(2)}
	cleaned, tauto := cleanLits(lits)
	if tauto {
		t.Error("unexpected tautology")
	}
	if len(cleaned) != 3 {
		t.Errorf("expected 3 literals after cleaning, got %v", cleaned)
	}
	_, tauto = cleanLits([]Lit{IntToLit(1), IntToLit(-1)})
	if !tauto {
		t.Error("expected 1, -1 to be reported as a tautology")
	}
}

func BenchmarkSolvePhp(b *testing.B) {
	cnf := php(7, 6)
	for i := 0; i < b.N; i++ {
		pb, err := ParseSlice(cnf)
		if err != nil {
			b.Fatal(err)
		}
		NewDefault(pb).Solve()
	}
}
