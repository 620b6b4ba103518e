package solver

// Restart control: calibrated EMAs over LBD and trail length, forcing and
// blocking rules, and the Luby stage/cycle/segment scheduler that gates
// reduction, vivification and elimination.

// An ema is an exponential moving average with an analytic calibration
// factor, so early values are not biased toward the zero initialisation.
type ema struct {
	val float64
	cal float64
	sca float64
}

func newEma(window int) ema {
	return ema{sca: 1.0 / float64(window)}
}

func (e *ema) update(x float64) {
	e.val = e.sca*x + (1.0-e.sca)*e.val
	if e.cal < 1.0 {
		e.cal = e.sca + (1.0-e.sca)*e.cal
	}
}

func (e *ema) get() float64 {
	if e.cal == 0 {
		return 0
	}
	return e.val / e.cal
}

// resetCalibration restarts the burn-in period without dropping the value.
func (e *ema) resetCalibration() {
	e.cal = e.sca
}

// An ema2 is a fast/slow EMA pair; trend is their ratio.
type ema2 struct {
	fast ema
	slow ema
}

func newEma2(fastWindow, slowWindow int) ema2 {
	return ema2{fast: newEma(fastWindow), slow: newEma(slowWindow)}
}

func (e *ema2) update(x float64) {
	e.fast.update(x)
	e.slow.update(x)
}

func (e *ema2) trend() float64 {
	slow := e.slow.get()
	if slow == 0 {
		return 0
	}
	return e.fast.get() / slow
}

// restartManager decides when search should restart.
type restartManager struct {
	lbd ema2 // LBD of learnt clauses
	asg ema2 // trail length at each conflict
	dpc ema  // decisions per conflict
	ppc ema  // propagations per conflict
	cpr ema  // conflicts per restart

	forceRate float64
	blockRate float64
	step      int64

	nextRestart   int64 // conflict count before which no restart may trigger
	lastDecisions int64
	lastProps     int64
	lastRestart   int64
}

func newRestartManager(cfg Config) restartManager {
	return restartManager{
		lbd:       newEma2(cfg.EmaLbdFast, cfg.EmaLbdSlow),
		asg:       newEma2(cfg.EmaAsgFast, cfg.EmaAsgSlow),
		dpc:       newEma(100),
		ppc:       newEma(100),
		cpr:       newEma(100),
		forceRate: cfg.RestartLbdRate,
		blockRate: cfg.RestartAsgRate,
		step:      int64(cfg.RestartStep),
	}
}

// afterConflict folds one conflict into the averages.
func (rm *restartManager) afterConflict(s *Solver, lbd int) {
	rm.lbd.update(float64(lbd))
	rm.asg.update(float64(len(s.trail)))
	rm.dpc.update(float64(s.Stats.NbDecisions - rm.lastDecisions))
	rm.ppc.update(float64(s.Stats.NbPropagations - rm.lastProps))
	rm.lastDecisions = s.Stats.NbDecisions
	rm.lastProps = s.Stats.NbPropagations
}

// shouldRestart is true when the fast/slow LBD trend shows the search is
// producing unusually bad clauses, unless the trail has grown long enough to
// block the restart.
func (rm *restartManager) shouldRestart(s *Solver, lubyScale uint) bool {
	if s.Stats.NbConflicts < rm.nextRestart {
		return false
	}
	if rm.lbd.trend() <= rm.forceRate {
		return false
	}
	slow := rm.asg.slow.get()
	if slow > 0 && float64(len(s.trail))/slow > rm.blockRate {
		s.Stats.NbBlocked++
		rm.postpone(s, lubyScale)
		return false
	}
	return true
}

// postpone pushes the next possible restart away by step conflicts, scaled
// by the current Luby factor.
func (rm *restartManager) postpone(s *Solver, lubyScale uint) {
	rm.nextRestart = s.Stats.NbConflicts + rm.step*int64(lubyScale)
}

// afterRestart records the restart in the conflicts-per-restart average.
func (rm *restartManager) afterRestart(s *Solver, lubyScale uint) {
	rm.cpr.update(float64(s.Stats.NbConflicts - rm.lastRestart))
	rm.lastRestart = s.Stats.NbConflicts
	rm.postpone(s, lubyScale)
}

// resetCalibration restarts the burn-in of the LBD and assignment averages;
// the dpc, ppc and cpr averages are left as they are. Called at segment
// boundaries, after elimination may have changed the formula shape.
func (rm *restartManager) resetCalibration() {
	rm.lbd.fast.resetCalibration()
	rm.lbd.slow.resetCalibration()
	rm.asg.fast.resetCalibration()
	rm.asg.slow.resetCalibration()
}

// stageManager schedules the nested stage/cycle/segment periods from the
// Luby sequence. A stage lasts luby(n) * unit conflicts; a cycle ends when
// the sequence falls back to 1; a segment ends when a new maximum Luby value
// is reached.
type stageManager struct {
	stage    uint
	cycle    uint
	segment  uint
	lubyIdx  uint
	scale    uint
	maxScale uint
	unit     int64
	endOfStage int64
}

func newStageManager(unit int64) stageManager {
	return stageManager{
		lubyIdx:    1,
		scale:      1,
		maxScale:   1,
		unit:       unit,
		endOfStage: unit,
	}
}

// currentScale is the Luby factor of the running stage.
func (sm *stageManager) currentScale() uint {
	return sm.scale
}

// stageEnded is true once the running stage's conflict budget is consumed.
func (sm *stageManager) stageEnded(conflicts int64) bool {
	return conflicts >= sm.endOfStage
}

// next closes the current stage and opens the following one. It reports
// whether the new stage also opens a new cycle or a new segment.
func (sm *stageManager) next(conflicts int64) (newCycle, newSegment bool) {
	sm.stage++
	sm.lubyIdx++
	sm.scale = luby(sm.lubyIdx)
	if sm.scale == 1 {
		sm.cycle++
		newCycle = true
	}
	if sm.scale > sm.maxScale {
		sm.maxScale = sm.scale
		sm.segment++
		newSegment = true
	}
	sm.endOfStage = conflicts + int64(sm.scale)*sm.unit
	return newCycle, newSegment
}
