package solver

import (
	"time"

	"github.com/pkg/errors"
)

// A Config holds all tunable parameters of the solver.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// Timeout is the CPU budget for a single Solve call. Zero means no limit.
	Timeout time.Duration
	// ConflictBudget limits the number of conflicts of a single Solve call.
	// Zero means no limit.
	ConflictBudget int64

	// ChronoBTThreshold is the conflict level at or above which chronological
	// backtracking may replace a non-chronological backjump.
	ChronoBTThreshold int
	// ClauseDecayRate governs how fast learnt-clause ranks age.
	ClauseDecayRate float64
	// InprocessInterval is the number of conflicts between two runs of the
	// inprocessor.
	InprocessInterval int

	// ElimClauseLim is the maximum length of a resolvent produced by
	// variable elimination.
	ElimClauseLim int
	// ElimGrowLim is how many extra clauses elimination may introduce.
	ElimGrowLim int
	// ElimVarOcc caps the number of occurrences of a variable considered
	// for elimination.
	ElimVarOcc int

	// EmaAsgFast and EmaAsgSlow are the window lengths of the fast and slow
	// assignment-count EMAs.
	EmaAsgFast int
	EmaAsgSlow int
	// EmaLbdFast and EmaLbdSlow are the window lengths of the fast and slow
	// LBD EMAs.
	EmaLbdFast int
	EmaLbdSlow int
	// RestartAsgRate blocks a forcing restart when the trail is longer than
	// this share of the slow assignment EMA.
	RestartAsgRate float64
	// RestartLbdRate forces a restart when the fast/slow LBD EMA ratio
	// exceeds it.
	RestartLbdRate float64
	// RestartStep is the minimum number of conflicts between two restarts,
	// scaled by the current Luby factor.
	RestartStep int

	// VarDecayRate is the starting decay rate of variable rewards.
	VarDecayRate float64

	// Certify enables DRAT proof emission.
	Certify bool
	// BinaryProof selects the binary DRAT encoding instead of ASCII.
	BinaryProof bool
}

// DefaultConfig returns the configuration used by the CLI when no flag
// overrides it.
func DefaultConfig() Config {
	return Config{
		Timeout:           5000 * time.Second,
		ChronoBTThreshold: 100,
		ClauseDecayRate:   0.95,
		InprocessInterval: 10000,
		ElimClauseLim:     18,
		ElimGrowLim:       0,
		ElimVarOcc:        20000,
		EmaAsgFast:        24,
		EmaAsgSlow:        8192,
		EmaLbdFast:        8,
		EmaLbdSlow:        8192,
		RestartAsgRate:    0.60,
		RestartLbdRate:    1.60,
		RestartStep:       2,
		VarDecayRate:      0.94,
	}
}

// Validate checks that every option is inside its documented range.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return errors.Wrap(ErrOutOfRange, "timeout must be >= 0")
	}
	if c.ConflictBudget < 0 {
		return errors.Wrap(ErrOutOfRange, "conflict budget must be >= 0")
	}
	if c.ChronoBTThreshold < 0 {
		return errors.Wrap(ErrOutOfRange, "cbt threshold must be >= 0")
	}
	if c.ClauseDecayRate <= 0 || c.ClauseDecayRate >= 1 {
		return errors.Wrap(ErrOutOfRange, "clause decay rate must be in (0, 1)")
	}
	if c.InprocessInterval < 1 {
		return errors.Wrap(ErrOutOfRange, "inprocess interval must be >= 1")
	}
	if c.ElimClauseLim < 2 {
		return errors.Wrap(ErrOutOfRange, "elimination clause limit must be >= 2")
	}
	if c.ElimGrowLim < 0 {
		return errors.Wrap(ErrOutOfRange, "elimination grow limit must be >= 0")
	}
	if c.ElimVarOcc < 1 {
		return errors.Wrap(ErrOutOfRange, "elimination occurrence cap must be >= 1")
	}
	if c.EmaAsgFast < 1 || c.EmaAsgSlow < c.EmaAsgFast {
		return errors.Wrap(ErrOutOfRange, "assignment EMA windows must satisfy 1 <= fast <= slow")
	}
	if c.EmaLbdFast < 1 || c.EmaLbdSlow < c.EmaLbdFast {
		return errors.Wrap(ErrOutOfRange, "LBD EMA windows must satisfy 1 <= fast <= slow")
	}
	if c.RestartAsgRate <= 0 {
		return errors.Wrap(ErrOutOfRange, "restart blocking rate must be > 0")
	}
	if c.RestartLbdRate <= 1 {
		return errors.Wrap(ErrOutOfRange, "restart forcing rate must be > 1")
	}
	if c.RestartStep < 1 {
		return errors.Wrap(ErrOutOfRange, "restart step must be >= 1")
	}
	if c.VarDecayRate <= 0 || c.VarDecayRate >= 1 {
		return errors.Wrap(ErrOutOfRange, "var decay rate must be in (0, 1)")
	}
	return nil
}
