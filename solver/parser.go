package solver

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseSlice parses a slice of slices of ints and returns the equivalent
// problem. Tautologies are dropped and duplicate literals removed.
func ParseSlice(cnf [][]int) (*Problem, error) {
	var pb Problem
	for _, line := range cnf {
		lits := make([]Lit, 0, len(line))
		for _, val := range line {
			if val == 0 {
				return nil, errors.Wrap(ErrInvalidInput, "literal 0 in clause")
			}
			lit := IntToLit(val)
			if v := int(lit.Var()); v >= pb.NbVars {
				pb.NbVars = v + 1
			}
			lits = append(lits, lit)
		}
		pb.appendLits(lits)
		if pb.Status == Unsat {
			return &pb, nil
		}
	}
	pb.bindUnits()
	if pb.Status != Unsat {
		pb.simplify()
	}
	return &pb, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// readInt reads an int from r.
// 'b' is the last read byte. It can be a space, a '-' or a digit.
// All spaces before the int value are ignored. Can return EOF.
func readInt(b *byte, r *bufio.Reader) (res int, err error) {
	for err == nil && isSpace(*b) {
		*b, err = r.ReadByte()
	}
	if err == io.EOF {
		return res, io.EOF
	}
	if err != nil {
		return res, errors.Wrapf(ErrInvalidInput, "could not read digit: %v", err)
	}
	neg := 1
	if *b == '-' {
		neg = -1
		*b, err = r.ReadByte()
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidInput, "cannot read int: %v", err)
		}
	}
	for err == nil {
		if *b < '0' || *b > '9' {
			return 0, errors.Wrapf(ErrInvalidInput, "%q is not a digit", *b)
		}
		res = 10*res + int(*b-'0')
		*b, err = r.ReadByte()
		if isSpace(*b) {
			break
		}
	}
	res *= neg
	return res, err
}

func parseHeader(r *bufio.Reader) (nbVars, nbClauses int, err error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, 0, errors.Wrapf(ErrInvalidInput, "cannot read header: %v", err)
	}
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "cnf" {
		return 0, 0, errors.Wrapf(ErrInvalidInput, "invalid syntax %q in header", line)
	}
	nbVars, err = strconv.Atoi(fields[1])
	if err != nil || nbVars < 0 {
		return 0, 0, errors.Wrapf(ErrInvalidInput, "nbvars is not a valid int: %q", fields[1])
	}
	nbClauses, err = strconv.Atoi(fields[2])
	if err != nil || nbClauses < 0 {
		return 0, 0, errors.Wrapf(ErrInvalidInput, "nbclauses is not a valid int: %q", fields[2])
	}
	return nbVars, nbClauses, nil
}

// ParseCNF parses a DIMACS CNF stream and returns the corresponding Problem.
func ParseCNF(f io.Reader) (*Problem, error) {
	r := bufio.NewReader(f)
	var pb Problem
	sawHeader := false
	b, err := r.ReadByte()
	for err == nil {
		if b == 'c' { // Ignore comment
			for err == nil && b != '\n' {
				b, err = r.ReadByte()
			}
		} else if b == 'p' { // Parse header
			var nbClauses int
			pb.NbVars, nbClauses, err = parseHeader(r)
			if err != nil {
				return nil, err
			}
			pb.Clauses = make([]*Clause, 0, nbClauses)
			sawHeader = true
		} else if isSpace(b) {
			// Skip blank space between clauses.
		} else {
			if !sawHeader {
				return nil, errors.Wrap(ErrInvalidInput, "clause found before the cnf header")
			}
			lits := make([]Lit, 0, 3)
			for {
				val, err := readInt(&b, r)
				if err == io.EOF {
					if len(lits) != 0 {
						return nil, errors.Wrap(ErrInvalidInput, "unfinished clause at end of file")
					}
					break
				}
				if err != nil {
					return nil, errors.Wrapf(ErrInvalidInput, "cannot parse clause: %v", err)
				}
				if val == 0 {
					pb.appendLits(lits)
					break
				}
				if val > pb.NbVars || -val > pb.NbVars {
					return nil, errors.Wrapf(ErrInvalidInput, "literal %d out of range for %d vars", val, pb.NbVars)
				}
				lits = append(lits, IntToLit(val))
			}
			if pb.Status == Unsat {
				return &pb, nil
			}
		}
		b, err = r.ReadByte()
	}
	if err != io.EOF {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	if !sawHeader {
		pb.Status = Sat // The empty formula.
		pb.Model = make([]decLevel, 0)
		return &pb, nil
	}
	pb.bindUnits()
	if pb.Status != Unsat {
		pb.simplify()
	}
	return &pb, nil
}
