package solver

import "github.com/sirupsen/logrus"

// The inprocessor: subsumption, self-subsuming strengthening and bounded
// variable elimination. It only runs on a trail rewound to the root level;
// eliminated variables are restored into the model by replaying the
// extension stack.

// An extEntry is a clause saved before its variable was eliminated. When a
// model is extended, an unsatisfied entry flips its witness literal to true.
type extEntry struct {
	lits    []Lit
	witness Lit
}

// extendModel completes a model over the eliminated variables, walking the
// extension stack from the most recent elimination to the oldest.
func (s *Solver) extendModel(model []bool) {
	for i := len(s.extension) - 1; i >= 0; i-- {
		e := s.extension[i]
		sat := false
		for _, l := range e.lits {
			if model[l.Var()] == l.IsPositive() {
				sat = true
				break
			}
		}
		if !sat {
			model[e.witness.Var()] = e.witness.IsPositive()
		}
	}
}

// inprocess simplifies the clause database at the root level: subsumption
// first, then bounded variable elimination. When called on a trail that is
// not at the root level, the invocation is skipped.
func (s *Solver) inprocess() Status {
	if s.decisionLevel() != 1 {
		return Indet
	}
	s.lastInprocess = s.Stats.NbConflicts
	occ := s.buildOccurrences()
	if s.subsume(occ) == Unsat {
		return s.setUnsat()
	}
	if !s.noElim && s.eliminateVars(occ) == Unsat {
		return s.setUnsat()
	}
	s.compactClauses()
	s.compactLearned()
	s.rebuildOrderHeap()
	s.logger.WithFields(logrus.Fields{
		"subsumed":     s.Stats.NbSubsumed,
		"strengthened": s.Stats.NbStrengthened,
		"eliminated":   s.Stats.NbEliminated,
		"clauses":      len(s.wl.clauses),
	}).Debug("inprocessing done")
	return Indet
}

// buildOccurrences indexes the problem clauses by variable.
func (s *Solver) buildOccurrences() [][]*Clause {
	occ := make([][]*Clause, s.nbVars)
	for _, c := range s.wl.clauses {
		if c.isDead() {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			v := c.Get(i).Var()
			occ[v] = append(occ[v], c)
		}
	}
	return occ
}

// subsume removes subsumed problem clauses and strengthens clauses by
// self-subsuming resolution.
func (s *Solver) subsume(occ [][]*Clause) Status {
	for _, c := range s.wl.clauses {
		if c.isDead() {
			continue
		}
		if s.backwardSubsume(c, occ) == Unsat {
			return Unsat
		}
	}
	return Indet
}

// backwardSubsume checks c against every clause sharing its least frequent
// variable.
func (s *Solver) backwardSubsume(c *Clause, occ [][]*Clause) Status {
	best := c.Get(0).Var()
	for i := 1; i < c.Len(); i++ {
		if v := c.Get(i).Var(); len(occ[v]) < len(occ[best]) {
			best = v
		}
	}
	for _, c2 := range occ[best] {
		if c2 == c || c2.isDead() || c.isDead() || c2.Len() < c.Len() {
			continue
		}
		ok, strength := subsumes(c, c2)
		if !ok {
			continue
		}
		if strength == litUndef {
			s.removeClause(c2)
			s.Stats.NbSubsumed++
		} else if st := s.strengthen(c2, strength.Negation(), occ); st == Unsat {
			return Unsat
		}
	}
	return Indet
}

// subsumes checks whether every literal of c appears in c2, except at most
// one appearing negated. It returns that literal for self-subsuming
// resolution, or litUndef for plain subsumption.
func subsumes(c, c2 *Clause) (ok bool, strength Lit) {
	strength = litUndef
outer:
	for i := 0; i < c.Len(); i++ {
		l := c.Get(i)
		for j := 0; j < c2.Len(); j++ {
			if c2.Get(j) == l {
				continue outer
			}
			if c2.Get(j) == l.Negation() && strength == litUndef {
				strength = l
				continue outer
			}
		}
		return false, litUndef
	}
	return true, strength
}

// strengthen removes l from c, reattaching the shorter clause. The proof
// addition precedes the deletion, as the DRAT format requires.
func (s *Solver) strengthen(c *Clause, l Lit, occ [][]*Clause) Status {
	s.Stats.NbStrengthened++
	if s.proof != nil {
		shorter := make([]Lit, 0, c.Len()-1)
		for i := 0; i < c.Len(); i++ {
			if c.Get(i) != l {
				shorter = append(shorter, c.Get(i))
			}
		}
		s.proof.addClause(shorter)
		s.proof.deleteClause(c.lits)
	}
	s.unwatchClause(c)
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.Get(i) != l {
			c.Set(n, c.Get(i))
			n++
		}
	}
	c.Shrink(n)
	if n == 1 {
		c.setDead()
		return s.assertEliminationUnit(c.Get(0))
	}
	s.watchClause(c)
	return Indet
}

// assertEliminationUnit binds a unit derived by the inprocessor at the root
// level and propagates it.
func (s *Solver) assertEliminationUnit(l Lit) Status {
	switch s.litStatus(l) {
	case Unsat:
		return Unsat
	case Indet:
		s.bind(l, nil)
	}
	if s.propagate() != nil {
		return Unsat
	}
	return Indet
}

// eliminateVars runs bounded variable elimination over every unfrozen,
// unassigned variable.
func (s *Solver) eliminateVars(occ [][]*Clause) Status {
	var elimVars []Var
	for v := Var(0); int(v) < s.nbVars; v++ {
		if s.frozen[v] || s.eliminated[v] || s.model[v] != 0 {
			continue
		}
		if done, st := s.eliminateVar(v, occ); st == Unsat {
			return Unsat
		} else if done {
			elimVars = append(elimVars, v)
		}
	}
	if len(elimVars) > 0 {
		s.purgeLearnedOn(elimVars)
	}
	return Indet
}

// eliminateVar tries to replace every clause over v by the non-tautological
// resolvents on v. It reports whether v was eliminated.
func (s *Solver) eliminateVar(v Var, occ [][]*Clause) (bool, Status) {
	var pos, neg []*Clause
	for _, c := range occ[v] {
		if c.isDead() || !clauseHasVar(c, v) {
			continue
		}
		if clauseHasLit(c, v.Lit()) {
			pos = append(pos, c)
		} else {
			neg = append(neg, c)
		}
	}
	if len(pos)+len(neg) > s.cfg.ElimVarOcc {
		return false, Indet
	}
	limit := len(pos) + len(neg) + s.cfg.ElimGrowLim
	var resolvents [][]Lit
	for _, p := range pos {
		for _, n := range neg {
			r, tauto := resolve(p, n, v)
			if tauto {
				continue
			}
			if len(r) > s.cfg.ElimClauseLim {
				return false, Indet
			}
			resolvents = append(resolvents, r)
			if len(resolvents) > limit {
				return false, Indet
			}
		}
	}
	s.Stats.NbEliminated++
	s.eliminated[v] = true
	// Keep a copy of every clause over v, so the variable can be
	// reintroduced if an incremental call mentions it again.
	saved := make([][]Lit, 0, len(pos)+len(neg))
	for _, c := range pos {
		saved = append(saved, append([]Lit{}, c.lits...))
	}
	for _, c := range neg {
		saved = append(saved, append([]Lit{}, c.lits...))
	}
	s.elimed[v] = saved
	// Save the smaller side plus a unit of the opposite literal, so the
	// model extension defaults the variable correctly.
	side, unit := pos, v.Lit().Negation()
	if len(neg) < len(pos) {
		side, unit = neg, v.Lit()
	}
	for _, c := range side {
		lits := append([]Lit{}, c.lits...)
		var witness Lit
		for _, l := range lits {
			if l.Var() == v {
				witness = l
				break
			}
		}
		s.extension = append(s.extension, extEntry{lits: lits, witness: witness})
	}
	s.extension = append(s.extension, extEntry{lits: []Lit{unit}, witness: unit})
	// Additions before deletions.
	var units []Lit
	for _, r := range resolvents {
		if s.proof != nil {
			s.proof.addClause(r)
		}
		if len(r) == 1 {
			units = append(units, r[0])
			continue
		}
		c := NewClause(r)
		s.appendClause(c)
		for _, l := range r {
			occ[l.Var()] = append(occ[l.Var()], c)
		}
	}
	for _, c := range pos {
		s.removeClause(c)
	}
	for _, c := range neg {
		s.removeClause(c)
	}
	for _, u := range units {
		if s.assertEliminationUnit(u) == Unsat {
			return true, Unsat
		}
	}
	return true, Indet
}

// reintroduce undoes the elimination of v: its extension entries are
// dropped and the clauses removed by the elimination are added back. The
// resolvents stay; they are consequences of the restored clauses.
func (s *Solver) reintroduce(v Var) error {
	s.eliminated[v] = false
	n := 0
	for _, e := range s.extension {
		if e.witness.Var() != v {
			s.extension[n] = e
			n++
		}
	}
	s.extension = s.extension[:n]
	clauses := s.elimed[v]
	delete(s.elimed, v)
	for _, lits := range clauses {
		if err := s.AddClause(lits); err != nil {
			return err
		}
	}
	if s.model[v] == 0 && !s.varQueue.contains(int(v)) {
		s.varQueue.insert(int(v))
	}
	return nil
}

// purgeLearnedOn drops every learnt clause mentioning an eliminated var.
func (s *Solver) purgeLearnedOn(vars []Var) {
	gone := make(map[Var]bool, len(vars))
	for _, v := range vars {
		gone[v] = true
	}
	for _, c := range s.wl.learned {
		if c.isDead() || c.isLocked() {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			if gone[c.Get(i).Var()] {
				s.removeClause(c)
				break
			}
		}
	}
	s.compactLearned()
}

// resolve returns the resolvent of p and n on v, reporting tautologies.
func resolve(p, n *Clause, v Var) (res []Lit, tautology bool) {
	res = make([]Lit, 0, p.Len()+n.Len()-2)
	for i := 0; i < p.Len(); i++ {
		if l := p.Get(i); l.Var() != v {
			res = append(res, l)
		}
	}
	for i := 0; i < n.Len(); i++ {
		if l := n.Get(i); l.Var() != v {
			res = append(res, l)
		}
	}
	return cleanLits(res)
}

func clauseHasVar(c *Clause, v Var) bool {
	for i := 0; i < c.Len(); i++ {
		if c.Get(i).Var() == v {
			return true
		}
	}
	return false
}

func clauseHasLit(c *Clause, l Lit) bool {
	for i := 0; i < c.Len(); i++ {
		if c.Get(i) == l {
			return true
		}
	}
	return false
}
