package solver

// Variable rewarding, phase saving and branching.

// rewardMode selects how variable activities are maintained.
type rewardMode byte

const (
	// lrbRewarding derives rewards from the learning rate: the share of
	// conflicts a variable participated in while it was assigned.
	lrbRewarding = rewardMode(iota)
	// additiveRewarding is the classic additive bump with geometric
	// increment growth.
	additiveRewarding
)

const varDecayMax = 0.99

// rewardAtAssign opens the learning interval of v.
func (s *Solver) rewardAtAssign(v Var) {
	if s.rewardMode != lrbRewarding {
		return
	}
	s.assignedAt[v] = s.tick
	s.participated[v] = 0
}

// rewardAtAnalysis records that v took part in the current conflict.
func (s *Solver) rewardAtAnalysis(v Var) {
	if s.rewardMode == lrbRewarding {
		s.participated[v]++
	} else {
		s.varBumpActivity(v)
	}
}

// rewardAtUnassign closes the learning interval of v and folds its learning
// rate into the activity.
func (s *Solver) rewardAtUnassign(v Var) {
	if s.rewardMode != lrbRewarding {
		return
	}
	duration := s.tick - s.assignedAt[v]
	if duration <= 0 {
		return
	}
	rate := float64(s.participated[v]) / float64(duration)
	s.activity[v] = s.activity[v]*s.varDecay + (1-s.varDecay)*rate
	if s.varQueue.contains(int(v)) {
		s.varQueue.update(int(v))
	}
}

// decayRewards advances the conflict clock and, in additive mode, grows the
// increment.
func (s *Solver) decayRewards() {
	s.tick++
	if s.rewardMode == additiveRewarding {
		s.varInc *= 1 / s.varDecay
	}
}

// annealRewards moves the decay rate a step closer to its ceiling. Called at
// the end of each stage; the rate is reset to its configured floor at
// segment boundaries so the schedule cycles.
func (s *Solver) annealRewards() {
	if s.varDecay < varDecayMax {
		s.varDecay += 0.01
		if s.varDecay > varDecayMax {
			s.varDecay = varDecayMax
		}
	}
}

func (s *Solver) resetRewardAnnealing() {
	s.varDecay = s.cfg.VarDecayRate
}

func (s *Solver) varBumpActivity(v Var) {
	s.activity[v] += s.varInc
	if s.activity[v] > 1e100 {
		s.rescaleActivities()
	}
	if s.varQueue.contains(int(v)) {
		s.varQueue.decrease(int(v))
	}
}

// rescaleActivities divides all activities and the increment by 1e100.
func (s *Solver) rescaleActivities() {
	for i := range s.activity {
		s.activity[i] *= 1e-100
	}
	s.varInc *= 1e-100
}

// bumpClauseRank refreshes a learnt clause's recency stamp and rank.
func (s *Solver) bumpClauseRank(c *Clause) {
	if !c.Learnt() {
		return
	}
	c.stamp = uint32(s.Stats.NbConflicts)
	c.rank += s.clauseInc
	if c.rank > 1e30 {
		for _, c2 := range s.wl.learned {
			c2.rank *= 1e-30
		}
		s.clauseInc *= 1e-30
	}
}

// chooseLit pops the most active unbound variable and returns its saved
// phase, or litUndef if all variables are bound.
func (s *Solver) chooseLit() Lit {
	v := Var(-1)
	for v == -1 && !s.varQueue.empty() {
		// Ignore already bound and eliminated vars.
		if v2 := Var(s.varQueue.removeMin()); s.model[v2] == 0 && !s.eliminated[v2] {
			v = v2
		}
	}
	if v == -1 {
		return litUndef
	}
	return v.SignedLit(!s.polarity[v])
}

func (s *Solver) rebuildOrderHeap() {
	ints := make([]int, 0, s.nbVars)
	for v := 0; v < s.nbVars; v++ {
		if s.model[v] == 0 && !s.eliminated[v] {
			ints = append(ints, v)
		}
	}
	s.varQueue.build(ints)
}

// savePhasesIfBest snapshots the current phases when the trail reaches a new
// all-time maximum length.
func (s *Solver) savePhasesIfBest() {
	if len(s.trail) <= s.bestTrail {
		return
	}
	s.bestTrail = len(s.trail)
	for v := 0; v < s.nbVars; v++ {
		if lvl := s.model[v]; lvl != 0 {
			s.bestPhase[v] = lvl > 0
		} else {
			s.bestPhase[v] = s.polarity[v]
		}
	}
}

// rephase resets every saved phase to the best known phase. The best-trail
// mark is decayed so a later, slightly shorter trail can become the new
// reference.
func (s *Solver) rephase() {
	copy(s.polarity, s.bestPhase)
	s.bestTrail = s.bestTrail * 9 / 10
}
