package solver

import "fmt"

// A Problem is a list of clauses & a nb of vars.
type Problem struct {
	NbVars  int        // Total nb of vars
	Clauses []*Clause  // List of non-empty, non-unit clauses
	Status  Status     // Trivially Unsat (empty clause met or inferred by UP), trivially Sat (no clause left), or Indet.
	Units   []Lit      // List of unit literals found in the problem.
	Model   []decLevel // For each var, its inferred binding: 0 unbound, 1 true, -1 false.
}

// CNF returns a DIMACS CNF representation of the problem.
func (pb *Problem) CNF() string {
	res := fmt.Sprintf("p cnf %d %d\n", pb.NbVars, len(pb.Clauses)+len(pb.Units))
	for _, unit := range pb.Units {
		res += fmt.Sprintf("%d 0\n", unit.Int())
	}
	for _, clause := range pb.Clauses {
		res += fmt.Sprintf("%s\n", clause.CNF())
	}
	return res
}

// appendLits records one clause of the problem. Duplicate literals are
// removed; tautologies are dropped entirely.
func (pb *Problem) appendLits(lits []Lit) {
	lits, tautology := cleanLits(lits)
	if tautology {
		return
	}
	switch len(lits) {
	case 0:
		pb.Status = Unsat
	case 1:
		pb.Units = append(pb.Units, lits[0])
	default:
		pb.Clauses = append(pb.Clauses, NewClause(lits))
	}
}

// bindUnits builds the root model from the unit clauses. Two units over the
// same variable with opposite signs make the problem Unsat on the spot.
func (pb *Problem) bindUnits() {
	if pb.Model == nil {
		pb.Model = make([]decLevel, pb.NbVars)
	}
	for _, unit := range pb.Units {
		v := unit.Var()
		if pb.Model[v] == 0 {
			if unit.IsPositive() {
				pb.Model[v] = 1
			} else {
				pb.Model[v] = -1
			}
		} else if pb.Model[v] > 0 != unit.IsPositive() {
			pb.Status = Unsat
			return
		}
	}
}

// simplify runs unit propagation over the problem until a fixpoint: clauses
// satisfied by the root model are removed, falsified literals are dropped,
// and clauses reduced to a single literal become new units.
func (pb *Problem) simplify() {
	nbClauses := len(pb.Clauses)
	i := 0
	for i < nbClauses {
		c := pb.Clauses[i]
		nbLits := c.Len()
		clauseSat := false
		j := 0
		for j < nbLits {
			lit := c.Get(j)
			if pb.Model[lit.Var()] == 0 {
				j++
			} else if (pb.Model[lit.Var()] == 1) == lit.IsPositive() {
				clauseSat = true
				break
			} else {
				nbLits--
				c.Set(j, c.Get(nbLits))
			}
		}
		if clauseSat {
			nbClauses--
			pb.Clauses[i] = pb.Clauses[nbClauses]
		} else if nbLits == 0 {
			pb.Status = Unsat
			return
		} else if nbLits == 1 { // UP
			pb.addUnit(c.Get(0))
			if pb.Status == Unsat {
				return
			}
			nbClauses--
			pb.Clauses[i] = pb.Clauses[nbClauses]
			i = 0 // Must restart: this lit might have made another clause unit or sat.
		} else {
			if c.Len() != nbLits {
				c.Shrink(nbLits)
			}
			i++
		}
	}
	pb.Clauses = pb.Clauses[:nbClauses]
	if pb.Status == Indet && nbClauses == 0 {
		pb.Status = Sat
	}
}

func (pb *Problem) addUnit(lit Lit) {
	v := lit.Var()
	if pb.Model[v] != 0 {
		if pb.Model[v] > 0 != lit.IsPositive() {
			pb.Status = Unsat
		}
		return
	}
	if lit.IsPositive() {
		pb.Model[v] = 1
	} else {
		pb.Model[v] = -1
	}
	pb.Units = append(pb.Units, lit)
}

// Validate checks that the given model satisfies every clause of the
// problem, units included. It returns nil iff the model is valid.
func (pb *Problem) Validate(model []bool) error {
	if len(model) < pb.NbVars {
		return fmt.Errorf("model binds %d vars, problem has %d", len(model), pb.NbVars)
	}
	for _, unit := range pb.Units {
		if model[unit.Var()] != unit.IsPositive() {
			return fmt.Errorf("unit clause %d is falsified", unit.Int())
		}
	}
	for _, c := range pb.Clauses {
		sat := false
		for i := 0; i < c.Len(); i++ {
			if l := c.Get(i); model[l.Var()] == l.IsPositive() {
				sat = true
				break
			}
		}
		if !sat {
			return fmt.Errorf("clause %q is falsified", c.CNF())
		}
	}
	return nil
}
