package solver

// propagate advances qHead through the trail, binding all implied literals.
// It returns the conflicting clause, or nil if no conflict arose.
// Saved trail entries are replayed before any watch list is consulted.
func (s *Solver) propagate() *Clause {
	if confl := s.reuseSavedTrail(); confl != nil {
		return confl
	}
	for s.qHead < len(s.trail) {
		lit := s.trail[s.qHead]
		s.qHead++
		s.Stats.NbPropagations++
		neg := lit.Negation()
		// Binary links first: the implied literal is known without loading
		// the clause body.
		for _, w := range s.wl.wlistBin[neg] {
			switch s.litStatus(w.other) {
			case Sat:
			case Unsat:
				s.qHead--
				return w.clause
			default:
				s.bind(w.other, w.clause)
			}
		}
		ws := s.wl.wlist[neg]
		n := 0
		for i := 0; i < len(ws); i++ {
			w := ws[i]
			if s.litStatus(w.blocker) == Sat {
				ws[n] = w
				n++
				continue
			}
			c := w.clause
			if c.isDead() {
				continue
			}
			// Make sure the false literal is at position 1.
			if c.First() == neg {
				c.swap(0, 1)
			}
			first := c.First()
			if first != w.blocker && s.litStatus(first) == Sat {
				ws[n] = watcher{clause: c, blocker: first}
				n++
				continue
			}
			moved := false
			for j := 2; j < c.Len(); j++ {
				if l := c.Get(j); s.litStatus(l) != Unsat {
					c.swap(1, j)
					s.wl.wlist[l] = append(s.wl.wlist[l], watcher{clause: c, blocker: first})
					moved = true
					break
				}
			}
			if moved {
				continue
			}
			// No replacement: the clause is unit or conflicting.
			ws[n] = watcher{clause: c, blocker: first}
			n++
			if s.litStatus(first) == Unsat {
				for i++; i < len(ws); i++ {
					ws[n] = ws[i]
					n++
				}
				s.wl.wlist[neg] = ws[:n]
				s.qHead--
				return c
			}
			s.bind(first, c)
		}
		s.wl.wlist[neg] = ws[:n]
	}
	return nil
}
