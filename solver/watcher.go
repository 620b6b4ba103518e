package solver

// The clause database: watch lists for long clauses, adjacency lists for
// binary clauses, and the storage of problem and learnt clauses.

// A watcher is an entry in a long clause's watch list. blocker is some
// literal of the clause; when it is already true the clause can be neither
// unit nor conflicting and its body is not loaded at all.
type watcher struct {
	clause  *Clause
	blocker Lit
}

// A binWatcher links a binary clause from one of its literals to the other.
type binWatcher struct {
	clause *Clause
	other  Lit
}

// watcherList holds the watch lists and the clauses.
type watcherList struct {
	wlistBin [][]binWatcher // For each literal, the binary clauses it appears in.
	wlist    [][]watcher    // For each literal, the long clauses that watch it.
	clauses  []*Clause      // Problem clauses.
	learned  []*Clause      // Learnt clauses.
}

// initWatcherList makes a new watcherList for the solver.
func (s *Solver) initWatcherList(clauses []*Clause) {
	nbLits := s.nbVars * 2
	s.wl = watcherList{
		wlistBin: make([][]binWatcher, nbLits),
		wlist:    make([][]watcher, nbLits),
		clauses:  make([]*Clause, 0, len(clauses)),
	}
	for _, c := range clauses {
		s.appendClause(c)
	}
}

// growWatcherLists extends the watch lists to hold nbVars variables.
func (s *Solver) growWatcherLists() {
	for len(s.wl.wlistBin) < s.nbVars*2 {
		s.wl.wlistBin = append(s.wl.wlistBin, nil)
		s.wl.wlist = append(s.wl.wlist, nil)
	}
}

// watchClause adds c to the watch lists. Long clauses watch their first two
// literals; binary clauses are linked from both sides.
func (s *Solver) watchClause(c *Clause) {
	first, second := c.First(), c.Second()
	if c.Len() == 2 {
		s.wl.wlistBin[first] = append(s.wl.wlistBin[first], binWatcher{clause: c, other: second})
		s.wl.wlistBin[second] = append(s.wl.wlistBin[second], binWatcher{clause: c, other: first})
	} else {
		s.wl.wlist[first] = append(s.wl.wlist[first], watcher{clause: c, blocker: second})
		s.wl.wlist[second] = append(s.wl.wlist[second], watcher{clause: c, blocker: first})
	}
}

// unwatchClause removes c from the watch lists it appears in.
func (s *Solver) unwatchClause(c *Clause) {
	if c.Len() == 2 {
		for i := 0; i < 2; i++ {
			l := c.Get(i)
			list := s.wl.wlistBin[l]
			for j, w := range list {
				if w.clause == c {
					list[j] = list[len(list)-1]
					s.wl.wlistBin[l] = list[:len(list)-1]
					break
				}
			}
		}
	} else {
		for i := 0; i < 2; i++ {
			l := c.Get(i)
			list := s.wl.wlist[l]
			for j, w := range list {
				if w.clause == c {
					list[j] = list[len(list)-1]
					s.wl.wlist[l] = list[:len(list)-1]
					break
				}
			}
		}
	}
}

// appendClause adds a problem clause of length >= 2 to the database and
// watches it.
func (s *Solver) appendClause(c *Clause) {
	s.wl.clauses = append(s.wl.clauses, c)
	s.watchClause(c)
}

// addLearned adds a learnt clause of length >= 2 to the database, watching
// its first two literals, and emits the matching proof line.
func (s *Solver) addLearned(c *Clause) {
	s.wl.learned = append(s.wl.learned, c)
	c.stamp = uint32(s.Stats.NbConflicts)
	s.watchClause(c)
	s.Stats.NbLearned++
	if c.Len() == 2 {
		s.Stats.NbBinaryLearned++
	}
	if s.proof != nil {
		s.proof.addClause(c.lits)
	}
}

// removeClause marks c dead, unwatches it and emits the matching proof
// deletion. Watch list entries met during propagation are dropped lazily.
func (s *Solver) removeClause(c *Clause) {
	c.setDead()
	s.unwatchClause(c)
	if s.proof != nil {
		s.proof.deleteClause(c.lits)
	}
}

// compactLearned drops dead clauses from the learnt clause list.
func (s *Solver) compactLearned() {
	n := 0
	for _, c := range s.wl.learned {
		if !c.isDead() {
			s.wl.learned[n] = c
			n++
		}
	}
	s.wl.learned = s.wl.learned[:n]
}

// compactClauses drops dead clauses from the problem clause list.
func (s *Solver) compactClauses() {
	n := 0
	for _, c := range s.wl.clauses {
		if !c.isDead() {
			s.wl.clauses[n] = c
			n++
		}
	}
	s.wl.clauses = s.wl.clauses[:n]
}
