// Package cell implements the Unlambda interpreter's heap: the sole
// allocated object (Cell), its tag families, and the generational
// collector that manages them.
package cell

// Tag distinguishes what a Cell represents. Three disjoint families share
// this space: expression/value tags the evaluator computes over,
// continuation-frame tags used as nodes in the saved continuation chain,
// and the single GC forwarding tag Copied.
type Tag uint8

const (
	// Atomic combinators. Nullary, allocated once in the old generation,
	// shared by every reference to them in a program.
	I Tag = iota
	K
	S
	V
	D
	C
	E
	AT
	PIPE

	// Character primitives.
	DOT  // prints Ch
	QUES // tests current input byte against Ch

	// Partial applications and closures.
	K1
	S1
	B1
	T1
	S2
	B2
	C2
	V2
	D1 // a promise wrapping an unevaluated expression

	CONT // a reified continuation; L heads the saved chain

	AP // an unreduced application `xy; L=operator, R=operand

	// Continuation-frame tags.
	EvalRight
	EvalRightS
	Apply
	ApplyT
	Exit

	// Copied is the GC forwarding marker. A cell whose Tag is Copied has
	// been relocated; L points at its new location. Never reachable once
	// a collection completes.
	Copied
)

// Cell is the sole heap object. Children L and R are either nil or
// references into the same heap; no tag inspects more than L, R, Ch.
type Cell struct {
	Tag    Tag
	Ch     byte
	Age    uint8
	Marked bool
	L, R   *Cell
}

// childSet reports how many child fields (0, 1, or 2) t's cells carry,
// per the field-set table that drives both the copying scan and the mark
// phase.
func (t Tag) childSet() int {
	switch t {
	case K1, S1, B1, D1, T1, CONT:
		return 1
	case AP, S2, B2, C2, V2, EvalRight, EvalRightS, Apply, ApplyT:
		return 2
	default:
		return 0
	}
}
