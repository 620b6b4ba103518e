package solver

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// A proofWriter emits a DRAT refutation trace, in ASCII or in the compact
// binary encoding. Writes are buffered; Close flushes. The first write
// failure is latched and every later call is a no-op, so the solver can
// check the error once at the end of the run.
type proofWriter struct {
	w      *bufio.Writer
	binary bool
	err    error
	buf    []byte
}

func newProofWriter(w io.Writer, binary bool) *proofWriter {
	return &proofWriter{w: bufio.NewWriter(w), binary: binary}
}

// addClause emits an addition line for lits.
func (p *proofWriter) addClause(lits []Lit) {
	if p.binary {
		p.writeBinary('a', lits)
	} else {
		p.writeASCII("", lits)
	}
}

// deleteClause emits a deletion line for lits.
func (p *proofWriter) deleteClause(lits []Lit) {
	if p.binary {
		p.writeBinary('d', lits)
	} else {
		p.writeASCII("d ", lits)
	}
}

// addEmptyClause emits the terminating empty clause of an UNSAT proof.
func (p *proofWriter) addEmptyClause() {
	p.addClause(nil)
}

func (p *proofWriter) writeASCII(prefix string, lits []Lit) {
	if p.err != nil {
		return
	}
	buf := p.buf[:0]
	buf = append(buf, prefix...)
	for _, l := range lits {
		buf = strconv.AppendInt(buf, int64(l.Int()), 10)
		buf = append(buf, ' ')
	}
	buf = append(buf, '0', '\n')
	p.buf = buf
	if _, err := p.w.Write(buf); err != nil {
		p.err = errors.Wrap(ErrIO, err.Error())
	}
}

func (p *proofWriter) writeBinary(tag byte, lits []Lit) {
	if p.err != nil {
		return
	}
	buf := p.buf[:0]
	buf = append(buf, tag)
	for _, l := range lits {
		// DRAT maps literal i to 2*|i| + (1 if i < 0), then 7-bit varint.
		u := uint32(l) + 2
		for u >= 0x80 {
			buf = append(buf, byte(u)|0x80)
			u >>= 7
		}
		buf = append(buf, byte(u))
	}
	buf = append(buf, 0)
	p.buf = buf
	if _, err := p.w.Write(buf); err != nil {
		p.err = errors.Wrap(ErrIO, err.Error())
	}
}

// Err returns the first write error, wrapped as ErrIO, or nil.
func (p *proofWriter) Err() error {
	return p.err
}

// Close flushes the buffered trace.
func (p *proofWriter) Close() error {
	if p.err != nil {
		return p.err
	}
	if err := p.w.Flush(); err != nil {
		p.err = errors.Wrap(ErrIO, err.Error())
	}
	return p.err
}
