package solver

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	initNbMaxClauses = 2000 // Maximum # of learned clauses, at first.
	incrNbMaxClauses = 300  // By how much # of learned clauses is incremented at each reduction.
	stageUnit        = 1000 // Conflicts per Luby unit; stage n lasts luby(n)*stageUnit conflicts.
)

// Stats are statistics about the resolution of the problem.
// They are provided for information purpose only.
type Stats struct {
	NbRestarts       int64
	NbBlocked        int64 // How many forcing restarts were blocked by trail growth
	NbConflicts      int64
	NbDecisions      int64
	NbPropagations   int64
	NbRepropagations int64 // How many literals were rebound from the saved trail
	NbChrono         int64 // How many backtracks were chronological
	NbUnitLearned    int64 // How many unit clauses were learned
	NbBinaryLearned  int64 // How many binary clauses were learned
	NbLearned        int64 // How many clauses were learned
	NbDeleted        int64 // How many learnt clauses were deleted by reduction
	NbReduces        int64 // How many reductions were performed
	NbVivified       int64 // How many clauses were shrunk by vivification
	NbSubsumed       int64 // How many clauses were removed by subsumption
	NbStrengthened   int64 // How many clauses were strengthened by self-subsumption
	NbEliminated     int64 // How many variables were eliminated
}

// A Solver solves a given problem. It is the main data structure.
type Solver struct {
	Stats Stats // Statistics about the solving process.

	cfg    Config
	logger logrus.FieldLogger

	nbVars    int
	status    Status
	wl        watcherList
	trail     []Lit // Current assignment stack
	trailLim  []int // Trail indices at which each decision level begins
	qHead     int   // Next trail position to propagate
	model     Model // 0 means unbound, other value is a binding
	lastModel Model // Placeholder for last model found, useful when looking for several models

	// For each var, the clause that implied it; nil for decisions and
	// unbound vars. For binary reasons, the other literal is kept inline.
	reason    []*Clause
	binReason []Lit

	activity     []float64 // Current reward of each var
	polarity     []bool    // Preferred sign for each var
	bestPhase    []bool    // Phases snapshot at the longest conflict-free trail
	bestTrail    int       // Length of the longest trail seen so far
	varQueue     queue
	varInc       float64 // On each var bump, how big the increment should be
	varDecay     float64 // Current reward decay rate
	rewardMode   rewardMode
	assignedAt   []int64 // Conflict clock value when each var was bound
	participated []int64 // Conflicts each var took part in while bound
	tick         int64   // Conflict clock for learning-rate rewarding

	clauseInc float32 // On each clause bump, how big the increment should be

	saver trailSaver

	rst        restartManager
	stm        stageManager
	maxLearnt  int64
	reduceMode reduceMode

	frozen        []bool // Vars that elimination must not touch (assumptions)
	eliminated    []bool
	elimed        map[Var][][]Lit // Clauses removed when a var was eliminated, for reintroduction
	extension     []extEntry      // Clauses replayed to extend a model over eliminated vars
	noElim        bool       // Set while enumerating models: elimination would skew counts
	lastInprocess int64
	preprocessed  bool

	proof *proofWriter
	err   error

	learntLits []Lit // Buffer for conflict analysis
	minStack   []Lit // Buffer for clause minimisation
}

// New makes a solver from a problem and a configuration.
// It returns an error if the configuration is out of range.
func New(pb *Problem, cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	nbVars := pb.NbVars
	s := &Solver{
		cfg:          cfg,
		logger:       discardLogger(),
		nbVars:       nbVars,
		status:       pb.Status,
		trail:        make([]Lit, 0, nbVars),
		model:        pb.Model,
		activity:     make([]float64, nbVars),
		polarity:     make([]bool, nbVars),
		bestPhase:    make([]bool, nbVars),
		reason:       make([]*Clause, nbVars),
		binReason:    make([]Lit, nbVars),
		assignedAt:   make([]int64, nbVars),
		participated: make([]int64, nbVars),
		varInc:       1.0,
		varDecay:     cfg.VarDecayRate,
		clauseInc:    1.0,
		frozen:       make([]bool, nbVars),
		eliminated:   make([]bool, nbVars),
		elimed:       make(map[Var][][]Lit),
		maxLearnt:    initNbMaxClauses,
		rst:          newRestartManager(cfg),
		stm:          newStageManager(stageUnit),
		learntLits:   make([]Lit, 1, 64),
	}
	if s.model == nil {
		s.model = make(Model, nbVars)
	}
	for i := range s.binReason {
		s.binReason[i] = litUndef
	}
	s.initWatcherList(pb.Clauses)
	s.varQueue = newQueue(s.activity)
	for _, lit := range pb.Units {
		s.model[lit.Var()] = lvlToSignedLvl(lit, 1)
		s.trail = append(s.trail, lit)
	}
	return s, nil
}

// NewDefault makes a solver with the default configuration.
func NewDefault(pb *Problem) *Solver {
	s, err := New(pb, DefaultConfig())
	if err != nil {
		panic(err) // Cannot happen: the default configuration is valid.
	}
	return s
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetLogger routes the solver's progress reports through the given logger.
func (s *Solver) SetLogger(l logrus.FieldLogger) {
	s.logger = l
}

// Certify makes the solver write a DRAT refutation trace to w while solving.
// Must be called before Solve.
func (s *Solver) Certify(w io.Writer) {
	s.proof = newProofWriter(w, s.cfg.BinaryProof)
}

// CloseProof flushes the proof trace. It returns the first write error met
// while emitting the proof, if any, wrapped as ErrIO.
func (s *Solver) CloseProof() error {
	if s.proof == nil {
		return nil
	}
	return s.proof.Close()
}

// Err returns ErrTimeout if the last Solve call exhausted its budget, or nil.
func (s *Solver) Err() error {
	return s.err
}

// Sets the status to unsat and emits the closing empty clause of the proof.
func (s *Solver) setUnsat() Status {
	s.status = Unsat
	if s.proof != nil {
		s.proof.addEmptyClause()
	}
	return Unsat
}

// Solve solves the problem associated with the solver and returns the
// appropriate status: Sat, Unsat, or Indet when the time or conflict budget
// was exhausted first (Err then returns ErrTimeout).
func (s *Solver) Solve() Status {
	if s.status == Unsat {
		// Already refuted while the formula was built: the proof is the
		// empty clause alone.
		if s.proof != nil {
			s.proof.addEmptyClause()
			s.proof.Close()
		}
		return s.status
	}
	s.status = Indet
	s.err = nil
	var deadline time.Time
	if s.cfg.Timeout > 0 {
		deadline = time.Now().Add(s.cfg.Timeout)
	}
	confBudget := int64(0)
	if s.cfg.ConflictBudget > 0 {
		confBudget = s.Stats.NbConflicts + s.cfg.ConflictBudget
	}
	if st := s.preprocess(); st == Unsat {
		return st
	}
	for s.status == Indet {
		confl := s.propagate()
		if confl == nil {
			s.savePhasesIfBest()
			lit := s.chooseLit()
			if lit == litUndef {
				s.status = Sat
				s.lastModel = make(Model, len(s.model))
				copy(s.lastModel, s.model)
				break
			}
			s.pushDecision(lit)
			continue
		}
		s.Stats.NbConflicts++
		if s.handleConflict(confl) == Unsat {
			break
		}
		if s.stm.stageEnded(s.Stats.NbConflicts) {
			s.closeStage()
			if s.status == Unsat {
				break
			}
		}
		if s.Stats.NbConflicts-s.lastInprocess >= int64(s.cfg.InprocessInterval) {
			s.backtrack(1, false)
			if s.inprocess() == Unsat {
				break
			}
		}
		if s.Stats.NbConflicts&0xff == 0 && s.budgetExhausted(deadline, confBudget) {
			return Indet
		}
		if s.rst.shouldRestart(s, s.stm.currentScale()) {
			if s.budgetExhausted(deadline, confBudget) {
				return Indet
			}
			s.restart()
		}
	}
	if s.proof != nil {
		s.proof.Close()
	}
	return s.status
}

func (s *Solver) budgetExhausted(deadline time.Time, confBudget int64) bool {
	if confBudget > 0 && s.Stats.NbConflicts >= confBudget {
		s.err = errors.Wrapf(ErrTimeout, "conflict budget of %d exhausted", s.cfg.ConflictBudget)
	} else if !deadline.IsZero() && time.Now().After(deadline) {
		s.err = errors.Wrapf(ErrTimeout, "time budget of %v exhausted", s.cfg.Timeout)
	} else {
		return false
	}
	s.backtrack(1, false)
	return true
}

// preprocess propagates root units and runs the inprocessor once before
// search starts.
func (s *Solver) preprocess() Status {
	if s.preprocessed {
		return s.status
	}
	s.preprocessed = true
	if confl := s.propagate(); confl != nil {
		return s.setUnsat()
	}
	return s.inprocess()
}

// handleConflict analyzes the conflict, backjumps and records the learnt
// clause. It returns Unsat on a root-level conflict, Indet otherwise.
func (s *Solver) handleConflict(confl *Clause) Status {
	// With chronological backtracking the conflict can sit strictly below
	// the current decision level; analysis starts from the conflict level.
	clvl := s.conflictLevel(confl)
	if clvl <= 1 {
		return s.setUnsat()
	}
	if clvl < s.decisionLevel() {
		s.backtrack(clvl, false)
	}
	learnt, unit := s.learnClause(confl)
	if learnt == nil {
		if unit == litUndef {
			return s.setUnsat()
		}
		return s.learnUnit(unit)
	}
	s.rst.afterConflict(s, learnt.lbd())
	lvl := s.decisionLevel()
	target := abs(s.model[learnt.Get(1).Var()])
	if int(lvl) >= s.cfg.ChronoBTThreshold && target < lvl-1 {
		// The asserting level is far below: backtrack a single level
		// instead and keep the rest of the trail.
		target = lvl - 1
		s.Stats.NbChrono++
	}
	s.backtrack(target, true)
	s.addLearned(learnt)
	s.bind(learnt.First(), learnt)
	return Indet
}

// learnUnit asserts a learnt unit literal at the root level and propagates
// it. A contradiction here means the formula is unsatisfiable.
func (s *Solver) learnUnit(unit Lit) Status {
	s.Stats.NbUnitLearned++
	s.rst.afterConflict(s, 1)
	s.backtrack(1, false)
	if s.proof != nil {
		s.proof.addClause([]Lit{unit})
	}
	switch s.litStatus(unit) {
	case Unsat:
		return s.setUnsat()
	case Indet:
		s.bind(unit, nil)
	}
	if s.propagate() != nil {
		return s.setUnsat()
	}
	s.rebuildOrderHeap()
	return Indet
}

// restart abandons the current search path, keeping root-level assertions.
func (s *Solver) restart() {
	s.backtrack(1, false)
	s.Stats.NbRestarts++
	s.rst.afterRestart(s, s.stm.currentScale())
	s.rebuildOrderHeap()
}

// closeStage runs the housekeeping attached to stage, cycle and segment
// boundaries: reduction every stage, vivification and rephasing every cycle,
// elimination and recalibration every segment.
func (s *Solver) closeStage() {
	newCycle, newSegment := s.stm.next(s.Stats.NbConflicts)
	s.reduceLearned()
	s.annealRewards()
	s.saver.enabled = s.stm.currentScale() > 1
	if newSegment {
		s.reduceMode = s.reduceMode.other()
	}
	if newCycle {
		s.backtrack(1, false)
		if s.vivify() == Unsat {
			s.setUnsat()
			return
		}
		s.rephase()
	}
	if newSegment {
		if s.inprocess() == Unsat {
			s.setUnsat()
			return
		}
		for _, a := range s.activity {
			if a > 1e100 {
				s.rescaleActivities()
				break
			}
		}
		s.rst.resetCalibration()
		s.resetRewardAnnealing()
	}
	s.logger.WithFields(logrus.Fields{
		"stage":     s.stm.stage,
		"scale":     s.stm.currentScale(),
		"conflicts": s.Stats.NbConflicts,
		"restarts":  s.Stats.NbRestarts,
		"learnt":    len(s.wl.learned),
		"deleted":   s.Stats.NbDeleted,
		"units":     s.Stats.NbUnitLearned,
		"lbdTrend":  s.rst.lbd.trend(),
	}).Debug("stage closed")
}

// Model returns a slice that associates, to each variable, its binding.
// Variables removed by elimination are restored by replaying the extension
// stack. If no model was found yet, the method will panic.
func (s *Solver) Model() []bool {
	if s.lastModel == nil {
		panic("cannot call Model() from a non-Sat solver")
	}
	res := make([]bool, s.nbVars)
	for i, lvl := range s.lastModel {
		res[i] = lvl > 0
	}
	s.extendModel(res)
	return res
}

// AddClause adds a problem clause to the solver at the root level, for
// incremental use. It returns ErrEmptyClause (which is also an
// ErrInconsistent) when lits is empty, and ErrInconsistent when the new
// clause contradicts the root-level assignment.
func (s *Solver) AddClause(lits []Lit) error {
	if s.status == Unsat {
		return errors.Wrap(ErrInconsistent, "cannot add a clause to an unsatisfiable formula")
	}
	if len(lits) == 0 {
		s.status = Unsat
		return errors.Wrap(ErrEmptyClause, "adding the empty clause")
	}
	s.backtrack(1, false)
	s.status = Indet
	for _, l := range lits {
		if int(l.Var()) >= s.nbVars {
			s.growVars(int(l.Var()) + 1)
		}
	}
	for _, l := range lits {
		if s.eliminated[l.Var()] {
			if err := s.reintroduce(l.Var()); err != nil {
				return err
			}
		}
	}
	lits, tauto := cleanLits(lits)
	if tauto {
		return nil
	}
	// Drop literals already false at root; stop early on a true one.
	n := 0
	for _, l := range lits {
		switch s.litStatus(l) {
		case Sat:
			if abs(s.model[l.Var()]) == 1 {
				return nil // Clause already satisfied forever.
			}
			lits[n] = l
			n++
		case Unsat:
			if abs(s.model[l.Var()]) != 1 {
				lits[n] = l
				n++
			}
		default:
			lits[n] = l
			n++
		}
	}
	lits = lits[:n]
	switch len(lits) {
	case 0:
		s.status = Unsat
		return errors.Wrap(ErrInconsistent, "new clause is falsified at the root level")
	case 1:
		return s.assertAtRoot(lits[0])
	}
	c := NewClause(lits)
	s.appendClause(c)
	// If a single literal is unbound the clause propagates immediately.
	unbound, falsified := litUndef, 0
	for _, l := range lits {
		if s.litStatus(l) == Unsat {
			falsified++
		} else if s.litStatus(l) == Indet && unbound == litUndef {
			unbound = l
		}
	}
	if falsified == len(lits)-1 && unbound != litUndef {
		return s.assertAtRoot(unbound)
	}
	return nil
}

func (s *Solver) assertAtRoot(l Lit) error {
	switch s.litStatus(l) {
	case Unsat:
		s.status = Unsat
		return errors.Wrap(ErrInconsistent, "unit clause is falsified at the root level")
	case Indet:
		s.bind(l, nil)
	}
	if s.propagate() != nil {
		s.status = Unsat
		return errors.Wrap(ErrInconsistent, "unit propagation found a root-level conflict")
	}
	return nil
}

// growVars extends all per-variable structures to hold at least n variables.
func (s *Solver) growVars(n int) {
	for v := s.nbVars; v < n; v++ {
		s.model = append(s.model, 0)
		s.reason = append(s.reason, nil)
		s.binReason = append(s.binReason, litUndef)
		s.activity = append(s.activity, 0)
		s.polarity = append(s.polarity, false)
		s.bestPhase = append(s.bestPhase, false)
		s.assignedAt = append(s.assignedAt, 0)
		s.participated = append(s.participated, 0)
		s.frozen = append(s.frozen, false)
		s.eliminated = append(s.eliminated, false)
	}
	s.nbVars = n
	s.growWatcherLists()
	// The queue borrows the activity slice, which may have been reallocated.
	s.varQueue.reward = s.activity
	s.rebuildOrderHeap()
}

// Assume binds the given literals at the root level before search, freezing
// their variables so inprocessing cannot remove them. It returns Unsat if
// the assumptions contradict the formula under unit propagation.
func (s *Solver) Assume(lits []Lit) Status {
	s.backtrack(1, false)
	s.status = Indet
	for _, l := range lits {
		if s.eliminated[l.Var()] {
			if s.reintroduce(l.Var()) != nil {
				s.status = Unsat
				return Unsat
			}
		}
		s.frozen[l.Var()] = true
		switch s.litStatus(l) {
		case Unsat:
			s.status = Unsat
			return Unsat
		case Indet:
			s.bind(l, nil)
		}
	}
	if s.propagate() != nil {
		s.status = Unsat
	}
	return s.status
}

// Reset brings the solver back to its root state: the trail is rewound, the
// last model and any budget error are forgotten. Problem and learnt clauses
// are kept, and a formula already proven unsatisfiable stays so.
func (s *Solver) Reset() {
	s.backtrack(1, false)
	if s.status != Unsat {
		s.status = Indet
	}
	s.lastModel = nil
	s.err = nil
	s.rebuildOrderHeap()
}

// A ModelIterator yields every model of the formula, one Next call at a
// time, by blocking each model before searching for the next one.
type ModelIterator struct {
	s    *Solver
	done bool
}

// Models returns an iterator over all models of the formula. Variable
// elimination is turned off for the rest of the solver's life, and already
// eliminated variables are reintroduced: models over eliminated variables
// could otherwise be merged or duplicated.
func (s *Solver) Models() *ModelIterator {
	s.noElim = true
	for v := Var(0); int(v) < s.nbVars; v++ {
		if s.eliminated[v] {
			if s.reintroduce(v) != nil {
				break
			}
		}
	}
	return &ModelIterator{s: s}
}

// Next returns the next model, or false when no model remains.
func (it *ModelIterator) Next() ([]bool, bool) {
	if it.done {
		return nil, false
	}
	if it.s.Solve() != Sat {
		it.done = true
		return nil, false
	}
	model := it.s.Model()
	if err := it.s.blockLastModel(); err != nil {
		it.done = true
	}
	return model, true
}

// blockLastModel adds the negation of the last model found, so the next
// Solve call cannot return it again.
func (s *Solver) blockLastModel() error {
	lits := make([]Lit, 0, s.nbVars)
	for v := 0; v < s.nbVars; v++ {
		if s.eliminated[v] || s.lastModel[v] == 0 {
			continue
		}
		if abs(s.lastModel[v]) == 1 {
			continue // Root assertions hold in every model.
		}
		lits = append(lits, Var(v).SignedLit(s.lastModel[v] > 0))
	}
	if len(lits) == 0 {
		s.status = Unsat
		return errors.Wrap(ErrInconsistent, "the last model was forced at the root level")
	}
	s.lastModel = nil
	return s.AddClause(lits)
}

// Enumerate counts the models of the formula. If models is non-nil, every
// model is sent on it; the channel is closed before returning.
func (s *Solver) Enumerate(models chan []bool) int {
	if models != nil {
		defer close(models)
	}
	nb := 0
	it := s.Models()
	for {
		model, ok := it.Next()
		if !ok {
			return nb
		}
		nb++
		if models != nil {
			models <- model
		}
	}
}

// cleanLits sorts lits, removes duplicates, and reports whether the clause
// is a tautology (contains a variable with both polarities).
func cleanLits(lits []Lit) (cleaned []Lit, tautology bool) {
	sortLits(lits)
	n := 0
	for i, l := range lits {
		if i > 0 && l == lits[i-1] {
			continue
		}
		if i > 0 && l.Var() == lits[i-1].Var() {
			return lits, true
		}
		lits[n] = l
		n++
	}
	return lits[:n], false
}

func sortLits(lits []Lit) {
	// Insertion sort: clauses are short and often nearly sorted.
	for i := 1; i < len(lits); i++ {
		l := lits[i]
		j := i - 1
		for j >= 0 && lits[j] > l {
			lits[j+1] = lits[j]
			j--
		}
		lits[j+1] = l
	}
}
