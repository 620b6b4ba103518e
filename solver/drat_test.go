package solver

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofWriterASCII(t *testing.T) {
	var buf bytes.Buffer
	p := newProofWriter(&buf, false)
	p.addClause([]Lit{IntToLit(1), IntToLit(-2)})
	p.deleteClause([]Lit{IntToLit(3)})
	p.addEmptyClause()
	require.NoError(t, p.Close())
	assert.Equal(t, "1 -2 0\nd 3 0\n0\n", buf.String())
}

func TestProofWriterBinary(t *testing.T) {
	var buf bytes.Buffer
	p := newProofWriter(&buf, true)
	p.addClause([]Lit{IntToLit(1), IntToLit(-1)})
	require.NoError(t, p.Close())
	// 1 maps to 2, -1 to 3, then the 0 terminator.
	assert.Equal(t, []byte{'a', 2, 3, 0}, buf.Bytes())
}

func TestProofWriterBinaryVarint(t *testing.T) {
	var buf bytes.Buffer
	p := newProofWriter(&buf, true)
	p.deleteClause([]Lit{IntToLit(64)})
	require.NoError(t, p.Close())
	// The literal 64 maps to 128, which needs two varint bytes.
	assert.Equal(t, []byte{'d', 0x80, 0x01, 0}, buf.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestProofWriterLatchesError(t *testing.T) {
	p := newProofWriter(failingWriter{}, false)
	p.addClause([]Lit{IntToLit(1)})
	err := p.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	// Later writes are no-ops and the error stays.
	p.addClause([]Lit{IntToLit(2)})
	assert.ErrorIs(t, p.Err(), ErrIO)
}
