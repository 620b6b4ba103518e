package solver

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Result writing and parsing, in the SAT competition 2011 output format:
// comment lines prefixed "c", one "s" status line, and for satisfiable
// problems "v" lines listing every variable with its sign, 0-terminated.

// How many literals a single "v" line may carry.
const valuesPerLine = 10

// WriteResult writes the status and, when status is Sat, the model, to w.
func WriteResult(w io.Writer, status Status, model []bool) error {
	bw := bufio.NewWriter(w)
	switch status {
	case Sat:
		if _, err := fmt.Fprintln(bw, "s SATISFIABLE"); err != nil {
			return errors.Wrap(ErrIO, err.Error())
		}
		for i := 0; i < len(model); i += valuesPerLine {
			end := i + valuesPerLine
			if end > len(model) {
				end = len(model)
			}
			line := make([]string, 0, valuesPerLine+2)
			line = append(line, "v")
			for j := i; j < end; j++ {
				val := j + 1
				if !model[j] {
					val = -val
				}
				line = append(line, strconv.Itoa(val))
			}
			if end == len(model) {
				line = append(line, "0")
			}
			if _, err := fmt.Fprintln(bw, strings.Join(line, " ")); err != nil {
				return errors.Wrap(ErrIO, err.Error())
			}
		}
		if len(model) == 0 {
			if _, err := fmt.Fprintln(bw, "v 0"); err != nil {
				return errors.Wrap(ErrIO, err.Error())
			}
		}
	case Unsat:
		if _, err := fmt.Fprintln(bw, "s UNSATISFIABLE"); err != nil {
			return errors.Wrap(ErrIO, err.Error())
		}
	default:
		if _, err := fmt.Fprintln(bw, "s UNKNOWN"); err != nil {
			return errors.Wrap(ErrIO, err.Error())
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// ParseResult reads a result stream back. For a Sat result, the returned
// model binds every variable listed on the "v" lines.
func ParseResult(r io.Reader) (Status, []bool, error) {
	status := Indet
	var values []int
	terminated := false
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "c"):
		case strings.HasPrefix(line, "s "):
			switch strings.TrimSpace(line[2:]) {
			case "SATISFIABLE":
				status = Sat
			case "UNSATISFIABLE":
				status = Unsat
			case "UNKNOWN":
				status = Indet
			default:
				return Indet, nil, errors.Wrapf(ErrInvalidInput, "unknown status line %q", line)
			}
		case strings.HasPrefix(line, "v"):
			for _, field := range strings.Fields(line[1:]) {
				val, err := strconv.Atoi(field)
				if err != nil {
					return Indet, nil, errors.Wrapf(ErrInvalidInput, "invalid value %q on v line", field)
				}
				if val == 0 {
					terminated = true
					break
				}
				values = append(values, val)
			}
		default:
			return Indet, nil, errors.Wrapf(ErrInvalidInput, "unexpected line %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		return Indet, nil, errors.Wrap(ErrIO, err.Error())
	}
	if status != Sat {
		return status, nil, nil
	}
	if !terminated {
		return Indet, nil, errors.Wrap(ErrInvalidInput, "v lines are not 0-terminated")
	}
	nbVars := 0
	for _, val := range values {
		if v := int(IntToLit(val).Var()) + 1; v > nbVars {
			nbVars = v
		}
	}
	model := make([]bool, nbVars)
	for _, val := range values {
		model[IntToLit(val).Var()] = val > 0
	}
	return status, model, nil
}
