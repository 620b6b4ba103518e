package solver

import "sort"

// Clause vivification: assume the negation of a clause's literals one by one
// under unit propagation; if a contradiction (or an implied literal) appears
// before the whole clause was assumed, the clause can be shrunk to the
// prefix actually used. Runs at cycle boundaries, on a trail rewound to the
// root level.

// How many candidate clauses a single vivification pass may inspect.
const vivifyMax = 500

// vivify strengthens the most promising learnt clauses. It returns Unsat if
// a clause shrinks to nothing, which means the formula has no model.
func (s *Solver) vivify() Status {
	candidates := make([]*Clause, 0, vivifyMax)
	for _, c := range s.wl.learned {
		if c.isDead() || c.isLocked() || c.Len() < 3 {
			continue
		}
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lbd() < candidates[j].lbd()
	})
	if len(candidates) > vivifyMax {
		candidates = candidates[:vivifyMax]
	}
	for _, c := range candidates {
		if c.isDead() || c.isLocked() {
			continue
		}
		if s.vivifyClause(c) == Unsat {
			return Unsat
		}
	}
	s.compactLearned()
	return Indet
}

// vivifyClause tries to shrink a single clause. The clause is detached
// during the probe so it cannot propagate against itself.
func (s *Solver) vivifyClause(c *Clause) Status {
	s.unwatchClause(c)
	lits := append([]Lit{}, c.lits...)
	kept := make([]Lit, 0, len(lits))
	shrunk := false
probe:
	for _, l := range lits {
		switch s.litStatus(l) {
		case Sat:
			// The assumed prefix implies l: the suffix is redundant.
			kept = append(kept, l)
			shrunk = len(kept) < len(lits)
			break probe
		case Unsat:
			// l is falsified by the prefix alone and can be dropped.
			shrunk = true
		default:
			kept = append(kept, l)
			s.trailLim = append(s.trailLim, len(s.trail))
			s.bind(l.Negation(), nil)
			if s.propagate() != nil {
				shrunk = len(kept) < len(lits)
				break probe
			}
		}
	}
	s.backtrack(1, false)
	if !shrunk {
		s.watchClause(c)
		return Indet
	}
	s.Stats.NbVivified++
	if s.proof != nil && len(kept) > 0 {
		s.proof.addClause(kept)
	}
	c.setDead()
	if s.proof != nil {
		s.proof.deleteClause(lits)
	}
	switch len(kept) {
	case 0:
		return Unsat
	case 1:
		switch s.litStatus(kept[0]) {
		case Unsat:
			return Unsat
		case Indet:
			s.bind(kept[0], nil)
		}
		if s.propagate() != nil {
			return Unsat
		}
		s.rebuildOrderHeap()
	default:
		nc := NewLearntClause(kept)
		lbd := c.lbd()
		if len(kept) < lbd {
			lbd = len(kept)
		}
		nc.setLbd(lbd)
		nc.rank = c.rank
		nc.stamp = c.stamp
		s.wl.learned = append(s.wl.learned, nc)
		s.watchClause(nc)
	}
	return Indet
}
