package solver

import "fmt"

// A Clause is a list of Lit, associated with possible data (for learnt clauses).
type Clause struct {
	lits []Lit
	// header's bits are as follow:
	// leftmost bit: learnt flag.
	// second bit: locked flag (the clause is the reason of an assignment).
	// third bit: dead flag (the clause was detached and awaits collection).
	// fourth bit: used flag (the clause served in a recent conflict analysis).
	// last 28 bits: LBD value (if learnt).
	header uint32
	// rank is the clause's reward under the current reduction mode.
	rank float32
	// stamp is the conflict count at which the clause was created or last
	// touched; recency ranking in exploitation mode orders by it.
	stamp uint32
}

const (
	learntMask uint32 = 1 << 31
	lockedMask uint32 = 1 << 30
	deadMask   uint32 = 1 << 29
	usedMask   uint32 = 1 << 28
	flagMasks  uint32 = learntMask | lockedMask | deadMask | usedMask
)

// NewClause returns a clause whose lits are given as an argument.
func NewClause(lits []Lit) *Clause {
	return &Clause{lits: lits}
}

// NewLearntClause returns a new clause marked as learnt.
func NewLearntClause(lits []Lit) *Clause {
	return &Clause{lits: lits, header: learntMask}
}

// Learnt returns true iff c was a learnt clause.
func (c *Clause) Learnt() bool {
	return c.header&learntMask == learntMask
}

func (c *Clause) lock() {
	c.header |= lockedMask
}

func (c *Clause) unlock() {
	c.header &= ^lockedMask
}

func (c *Clause) isLocked() bool {
	return c.header&(learntMask|lockedMask) == learntMask|lockedMask
}

func (c *Clause) setDead() {
	c.header |= deadMask
}

func (c *Clause) isDead() bool {
	return c.header&deadMask == deadMask
}

func (c *Clause) setUsed() {
	c.header |= usedMask
}

func (c *Clause) clearUsed() {
	c.header &= ^usedMask
}

func (c *Clause) isUsed() bool {
	return c.header&usedMask == usedMask
}

func (c *Clause) lbd() int {
	return int(c.header & ^flagMasks)
}

func (c *Clause) setLbd(lbd int) {
	c.header = (c.header & flagMasks) | uint32(lbd)
}

func (c *Clause) incLbd() {
	c.header++
}

// Len returns the nb of lits in the clause.
func (c *Clause) Len() int {
	return len(c.lits)
}

// First returns the first lit from the clause.
func (c *Clause) First() Lit {
	return c.lits[0]
}

// Second returns the second lit from the clause.
func (c *Clause) Second() Lit {
	return c.lits[1]
}

// Get returns the ith literal from the clause.
func (c *Clause) Get(i int) Lit {
	return c.lits[i]
}

// Set sets the ith literal of the clause.
func (c *Clause) Set(i int, l Lit) {
	c.lits[i] = l
}

// swap swaps the ith and jth lits from the clause.
func (c *Clause) swap(i, j int) {
	c.lits[i], c.lits[j] = c.lits[j], c.lits[i]
}

// Shrink reduces the length of the clause, by removing all lits
// starting from position newLen.
func (c *Clause) Shrink(newLen int) {
	c.lits = c.lits[:newLen]
}

// CNF returns a DIMACS CNF representation of the clause.
func (c *Clause) CNF() string {
	res := ""
	for _, lit := range c.lits {
		res += fmt.Sprintf("%d ", lit.Int())
	}
	return fmt.Sprintf("%s0", res)
}
