package solver

import "sort"

// Learnt clause reduction. Two ranking modes alternate over segments: an
// exploration mode that keeps low-LBD clauses and an exploitation mode that
// keeps recently used ones.

type reduceMode byte

const (
	exploreReduction = reduceMode(iota)
	exploitReduction
)

func (m reduceMode) other() reduceMode {
	if m == exploreReduction {
		return exploitReduction
	}
	return exploreReduction
}

// reduceLearned removes half (exploration) or a third (exploitation) of the
// unprotected learnt clauses once the database outgrows its budget.
// Clauses with LBD <= 2, clauses used since the last
// reduction, and clauses currently locked as reasons are never removed.
func (s *Solver) reduceLearned() {
	if int64(len(s.wl.learned)) <= s.maxLearnt {
		return
	}
	s.Stats.NbReduces++
	s.maxLearnt += incrNbMaxClauses
	sorted := make([]*Clause, 0, len(s.wl.learned))
	kept := 0
	for _, c := range s.wl.learned {
		if c.isDead() {
			continue
		}
		if c.lbd() <= 2 || c.isLocked() || c.isUsed() {
			c.clearUsed()
			kept++
			continue
		}
		sorted = append(sorted, c)
	}
	if s.reduceMode == exploreReduction {
		// Exploration: aggressive, the clause's LBD decides its fate.
		sort.Slice(sorted, func(i, j int) bool {
			ci, cj := sorted[i], sorted[j]
			if ci.lbd() != cj.lbd() {
				return ci.lbd() < cj.lbd()
			}
			return ci.rank > cj.rank
		})
	} else {
		// Exploitation: conservative, recency decides.
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].stamp > sorted[j].stamp
		})
	}
	limit := len(sorted) / 2
	if s.reduceMode == exploitReduction {
		limit = len(sorted) * 2 / 3
	}
	for i, c := range sorted {
		if i < limit {
			continue
		}
		s.removeClause(c)
		s.Stats.NbDeleted++
	}
	s.compactLearned()
	s.decayClauseRanks()
}

// decayClauseRanks ages every learnt clause's rank so old bumps fade.
func (s *Solver) decayClauseRanks() {
	f := float32(s.cfg.ClauseDecayRate)
	for _, c := range s.wl.learned {
		c.rank *= f
	}
}
