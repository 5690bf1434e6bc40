// Package eval implements the Unlambda reduction machine: a three
// register (val, task, task_val) abstract machine that drives an
// expression tree to normal form against a cell.Heap, performing
// character I/O as a side effect of the DOT, AT, QUES, and PIPE
// operators.
package eval

import (
	"bufio"
	"io"

	"unlambda_go/pkg/cell"
)

// eof is the sentinel stored in Machine.currentCh before any byte has
// been read via '@', and whenever '@' itself reads past end of input.
// QUES never tests for it directly (spec.md's Open Questions): it
// compares currentCh against op.Ch, a byte, so an eof currentCh never
// matches, and the '@'/'|' EOF path is guarded separately.
const eof = -1

// Machine holds the registers of the reduction loop and the I/O ports
// the AT/DOT/QUES/PIPE operators touch. It is single-use: construct one
// per program run.
type Machine struct {
	heap *cell.Heap
	in   io.ByteReader
	out  io.Writer

	currentCh int // last byte read via '@', or eof
}

// New creates a Machine bound to heap h, reading from in and writing to
// out. in is wrapped in a bufio.Reader if it does not already implement
// io.ByteReader (matching the reference interpreter's use of stdio's
// buffered getchar).
func New(h *cell.Heap, in io.Reader, out io.Writer) *Machine {
	br, ok := in.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Machine{heap: h, in: br, out: out, currentCh: eof}
}

// frame task tags, reusing cell.Tag's EvalRight/EvalRightS/Apply/ApplyT/
// Exit values: a continuation frame is a Cell whose Tag is one of these,
// whose L is the next frame (or nil for the bottom of the chain), and
// whose R is the saved task_val payload.

// Run reduces val (the parsed program) to normal form, performing I/O
// as side effects, and returns once the EXIT task is reached (via the
// `e` combinator or exhaustion of the continuation chain).
func (m *Machine) Run(val *cell.Cell) error {
	task := cell.Exit
	var taskVal *cell.Cell
	var nextCont *cell.Cell
	var op *cell.Cell

	goto eval

dispatch:
	switch task {
	case cell.EvalRight:
		// Evaluating `<val><taskVal>.
		if val.Tag == cell.D {
			op = val
			val = taskVal
			task, taskVal, nextCont = nextCont.Tag, nextCont.R, nextCont.L
			goto apply
		}
		rand := taskVal
		task, taskVal, val = cell.Apply, val, rand
		goto eval

	case cell.EvalRightS:
		// Evaluating `<val><taskVal>, where taskVal is itself `<v1><v2>
		// with v1 and v2 already reduced.
		if val.Tag == cell.D {
			op = val
			val = taskVal
			task, taskVal, nextCont = nextCont.Tag, nextCont.R, nextCont.L
		} else {
			rand := taskVal
			task, taskVal = cell.Apply, val
			op, val = rand.L, rand.R
		}
		goto apply

	case cell.Apply:
		// Applying `<taskVal><val>.
		op = taskVal
		task, taskVal, nextCont = nextCont.Tag, nextCont.R, nextCont.L
		goto apply

	case cell.ApplyT:
		// Applying `<val><taskVal>.
		op = val
		val = taskVal
		task, taskVal, nextCont = nextCont.Tag, nextCont.R, nextCont.L
		goto apply

	case cell.Exit:
		return nil

	default:
		return cell.Bugf("run: invalid task type %d", task)
	}

eval:
	for val.Tag == cell.AP {
		if m.heap.NeedsGC(0) {
			roots := []*cell.Cell{val, taskVal, nextCont}
			m.heap.Collect(roots)
			val, taskVal, nextCont = roots[0], roots[1], roots[2]
		}
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.EvalRight, val.R
		val = val.L
	}
	goto dispatch

apply:
	if m.heap.NeedsGC(1) {
		roots := []*cell.Cell{val, taskVal, nextCont, op}
		m.heap.Collect(roots)
		val, taskVal, nextCont, op = roots[0], roots[1], roots[2], roots[3]
	}

	switch op.Tag {
	case cell.I:
		// val unchanged.

	case cell.DOT:
		if _, err := m.out.Write([]byte{op.Ch}); err != nil {
			return errIO(err)
		}

	case cell.K1:
		val = op.L

	case cell.K:
		val = m.heap.NewCell1(cell.K1, val)

	case cell.S2:
		e2 := m.heap.NewCell(cell.AP, op.R, val)
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.EvalRightS, e2
		op = op.L
		goto apply

	case cell.B2:
		if op.L.Tag == cell.D {
			e2 := m.heap.NewCell(cell.AP, op.R, val)
			val = m.heap.NewCell1(cell.D1, e2)
		} else {
			nextCont = m.heap.NewCell(task, nextCont, taskVal)
			task, taskVal = cell.Apply, op.L
			op = op.R
			goto apply
		}

	case cell.C2:
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.ApplyT, op.R
		op = op.L
		goto apply

	case cell.V2:
		v := op.L
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.ApplyT, op.R
		op, val = val, v
		goto apply

	case cell.S1:
		if val.Tag == cell.K1 {
			switch {
			case op.L.Tag == cell.I:
				val = m.heap.NewCell1(cell.T1, val.L)
			case op.L.Tag == cell.T1:
				val = m.heap.NewCell(cell.V2, op.L.L, val.L)
			default:
				val = m.heap.NewCell(cell.C2, op.L, val.L)
			}
		} else {
			val = m.heap.NewCell(cell.S2, op.L, val)
		}

	case cell.B1:
		val = m.heap.NewCell(cell.B2, op.L, val)

	case cell.T1:
		v := op.L
		op, val = val, v
		goto apply

	case cell.S:
		if val.Tag == cell.K1 {
			val = m.heap.NewCell1(cell.B1, val.L)
		} else {
			val = m.heap.NewCell1(cell.S1, val)
		}

	case cell.V:
		val = op

	case cell.D1:
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.ApplyT, val
		val = op.L
		goto eval

	case cell.D:
		val = m.heap.NewCell1(cell.D1, val)

	case cell.CONT:
		nextCont = op.L
		task, taskVal, nextCont = nextCont.Tag, nextCont.R, nextCont.L

	case cell.C:
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.Apply, val
		val = m.heap.NewCell1(cell.CONT, nextCont)

	case cell.E:
		task = cell.Exit

	case cell.AT:
		ch, err := m.in.ReadByte()
		if err != nil {
			m.currentCh = eof
		} else {
			m.currentCh = int(ch)
		}
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.Apply, val
		if m.currentCh == eof {
			val = m.heap.NewCell0(cell.V)
		} else {
			val = m.heap.NewCell0(cell.I)
		}

	case cell.QUES:
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.Apply, val
		if m.currentCh == int(op.Ch) {
			val = m.heap.NewCell0(cell.I)
		} else {
			val = m.heap.NewCell0(cell.V)
		}

	case cell.PIPE:
		nextCont = m.heap.NewCell(task, nextCont, taskVal)
		task, taskVal = cell.Apply, val
		if m.currentCh == eof {
			val = m.heap.NewCell0(cell.V)
		} else {
			val = m.heap.NewCell0(cell.DOT)
			val.Ch = byte(m.currentCh)
		}

	default:
		return cell.Bugf("apply: invalid operator tag %d", op.Tag)
	}
	goto dispatch
}

func errIO(err error) error {
	return cell.Fatalf("write error: %v", err)
}
