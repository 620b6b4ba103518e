package solver

import "sort"

// computeLbd computes and sets c's LBD (Literal Block Distance).
func (c *Clause) computeLbd(model Model) {
	c.setLbd(1)
	curLvl := abs(model[c.Get(0).Var()])
	for i := 0; i < c.Len(); i++ {
		lit := c.Get(i)
		if lvl := abs(model[lit.Var()]); lvl != curLvl {
			curLvl = lvl
			c.incLbd()
		}
	}
}

// conflictLevel returns the highest level among c's literals. With
// chronological backtracking it can be below the current decision level.
func (s *Solver) conflictLevel(c *Clause) decLevel {
	lvl := decLevel(0)
	for i := 0; i < c.Len(); i++ {
		if l := abs(s.model[c.Get(i).Var()]); l > lvl {
			lvl = l
		}
	}
	return lvl
}

// addConflLits is a helper function for learnClause.
// It deals with lits from the conflict clause.
func (s *Solver) addConflLits(confl *Clause, lvl decLevel, met, metLvl []bool, lits *[]Lit) int {
	nbLvl := 0
	for i := 0; i < confl.Len(); i++ {
		l := confl.Get(i)
		v := l.Var()
		if met[v] {
			continue
		}
		met[v] = true
		s.rewardAtAnalysis(v)
		if abs(s.model[v]) == lvl {
			metLvl[v] = true
			nbLvl++
		} else if abs(s.model[v]) != 1 {
			*lits = append(*lits, l)
		}
	}
	return nbLvl
}

// learnClause resolves the conflict down to the first UIP and returns either:
// the learnt clause itself, if its len is at least 2, with the asserting
// literal first and the remaining literals sorted by decreasing level;
// a nil clause and a unit literal, if its len is exactly 1;
// a nil clause and litUndef on a conflict at the root level.
func (s *Solver) learnClause(confl *Clause) (learnt *Clause, unit Lit) {
	lvl := s.conflictLevel(confl)
	if lvl <= 1 {
		return nil, litUndef
	}
	lits := s.learntLits[:1] // Not 0: make room for the asserting literal
	buf := make([]bool, s.nbVars*2)
	met := buf[:s.nbVars]    // All vars already met during resolution
	metLvl := buf[s.nbVars:] // Met vars from the conflict level, still to resolve
	confl.setUsed()
	s.bumpClauseRank(confl)
	nbLvl := s.addConflLits(confl, lvl, met, metLvl, &lits)
	ptr := len(s.trail) - 1
	for nbLvl > 1 { // Stop once a single lit from the conflict level remains.
		for !metLvl[s.trail[ptr].Var()] {
			ptr--
		}
		v := s.trail[ptr].Var()
		ptr--
		nbLvl--
		metLvl[v] = false
		if other := s.binReason[v]; other != litUndef {
			// Binary reason: a single literal, no clause body access.
			if v2 := other.Var(); !met[v2] {
				met[v2] = true
				s.rewardAtAnalysis(v2)
				if abs(s.model[v2]) == lvl {
					metLvl[v2] = true
					nbLvl++
				} else if abs(s.model[v2]) != 1 {
					lits = append(lits, other)
				}
			}
		} else if reason := s.reason[v]; reason != nil {
			reason.setUsed()
			s.bumpClauseRank(reason)
			for i := 0; i < reason.Len(); i++ {
				lit := reason.Get(i)
				if v2 := lit.Var(); v2 != v && !met[v2] {
					met[v2] = true
					s.rewardAtAnalysis(v2)
					if abs(s.model[v2]) == lvl {
						metLvl[v2] = true
						nbLvl++
					} else if abs(s.model[v2]) != 1 {
						lits = append(lits, lit)
					}
				}
			}
		}
	}
	for !metLvl[s.trail[ptr].Var()] { // The UIP is the remaining lit from the conflict level.
		ptr--
	}
	lits[0] = s.trail[ptr].Negation()
	sz := s.minimizeLearned(met, lits)
	lits = lits[:sz]
	s.rewardReasonSide(lits)
	s.decayRewards()
	s.learntLits = lits
	if sz == 1 {
		return nil, lits[0]
	}
	sortLiterals(lits[1:], s.model)
	learnt = NewLearntClause(append([]Lit{}, lits...))
	learnt.computeLbd(s.model)
	return learnt, litUndef
}

// minimizeLearned reduces (if possible) the length of the learnt clause and
// returns the size of the new list of lits. A literal is dropped when
// following reasons recursively from it only ever reaches met literals or
// root bindings.
func (s *Solver) minimizeLearned(met []bool, learned []Lit) int {
	var abstractLevels uint32
	for i := 1; i < len(learned); i++ {
		abstractLevels |= 1 << (uint32(abs(s.model[learned[i].Var()])) & 31)
	}
	sz := 1
	for i := 1; i < len(learned); i++ {
		if s.reason[learned[i].Var()] == nil || !s.litRedundant(learned[i], met, abstractLevels) {
			learned[sz] = learned[i]
			sz++
		}
	}
	return sz
}

// litRedundant is true iff l is implied by met literals and root bindings
// alone. met flags of literals proven redundant on the way are kept, so
// later checks are cheaper.
func (s *Solver) litRedundant(l Lit, met []bool, abstractLevels uint32) bool {
	stack := s.minStack[:0]
	stack = append(stack, l)
	var touched []Var
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reason := s.reason[p.Var()]
		for i := 0; i < reason.Len(); i++ {
			lit := reason.Get(i)
			v := lit.Var()
			if v == p.Var() || met[v] || abs(s.model[v]) == 1 {
				continue
			}
			if s.reason[v] == nil || (1<<(uint32(abs(s.model[v]))&31))&abstractLevels == 0 {
				for _, v2 := range touched {
					met[v2] = false
				}
				s.minStack = stack[:0]
				return false
			}
			met[v] = true
			touched = append(touched, v)
			stack = append(stack, lit)
		}
	}
	s.minStack = stack[:0]
	return true
}

// rewardReasonSide rewards the variables appearing in the reasons of the
// learnt clause's literals.
func (s *Solver) rewardReasonSide(lits []Lit) {
	for _, l := range lits {
		v := l.Var()
		if other := s.binReason[v]; other != litUndef {
			if s.model[other.Var()] != 0 {
				s.rewardAtAnalysis(other.Var())
			}
			continue
		}
		reason := s.reason[v]
		if reason == nil {
			continue
		}
		for i := 0; i < reason.Len(); i++ {
			if v2 := reason.Get(i).Var(); v2 != v && s.model[v2] != 0 {
				s.rewardAtAnalysis(v2)
			}
		}
	}
}

// sortLiterals orders lits by decreasing assignment level.
func sortLiterals(lits []Lit, model Model) {
	sort.Slice(lits, func(i, j int) bool {
		return abs(model[lits[i].Var()]) > abs(model[lits[j].Var()])
	})
}
