package solver

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Match with errors.Is; contextual
// information is added with pkg/errors wrapping at the failure site.
var (
	// ErrInvalidInput reports a malformed CNF or a variable index out of range.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInconsistent reports that adding a clause made the formula
	// unsatisfiable at the root level.
	ErrInconsistent = errors.New("inconsistent formula")
	// ErrEmptyClause reports that a zero-length clause was added. It is
	// also an ErrInconsistent: the empty clause has no model.
	ErrEmptyClause = fmt.Errorf("empty clause: %w", ErrInconsistent)
	// ErrOutOfRange reports a configuration option outside its documented range.
	ErrOutOfRange = errors.New("option out of range")
	// ErrTimeout reports that the CPU or conflict budget was exhausted.
	ErrTimeout = errors.New("budget exhausted")
	// ErrIO reports a failure writing the DRAT proof or the result file.
	ErrIO = errors.New("i/o error")
	// ErrSolverBug reports an internal invariant violation. Non-recoverable.
	ErrSolverBug = errors.New("solver bug")
)
