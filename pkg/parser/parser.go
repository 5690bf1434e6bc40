// Package parser reads an Unlambda source stream and materializes it as
// a single cell.Cell expression tree, rooted in the old generation so the
// root stays stable across any collection the evaluator later triggers.
package parser

import (
	"io"

	"github.com/pkg/errors"

	"unlambda_go/pkg/cell"
)

// Parse reads r until a single top-level expression is complete, leaving
// any bytes after it unread, and returns the root of the parsed
// expression tree; EOF before the expression is complete is an error. Every cell it allocates comes from h's old
// generation via cell.Heap.AllocOld: the parser keeps no root set of its
// own, so none of its allocations may move.
func Parse(r io.ByteReader, h *cell.Heap) (*cell.Cell, error) {
	var stack *cell.Cell

	for {
		ch, err := nextToken(r)
		if err != nil {
			return nil, errors.Wrap(err, "unexpected EOF")
		}

		var e *cell.Cell
		switch ch {
		case '`':
			stack = h.AllocOld(cell.AP, nil, stack)
			continue
		case 'i', 'I':
			e = h.Atoms.I
		case 'k', 'K':
			e = h.Atoms.K
		case 's', 'S':
			e = h.Atoms.S
		case 'v', 'V':
			e = h.Atoms.V
		case 'd', 'D':
			e = h.Atoms.D
		case 'c', 'C':
			e = h.Atoms.C
		case 'e', 'E':
			e = h.Atoms.E
		case 'r', 'R':
			e = h.AllocOld(cell.DOT, nil, nil)
			e.Ch = '\n'
		case '@':
			e = h.Atoms.At
		case '|':
			e = h.Atoms.Pipe
		case '.', '?':
			ch2, err := r.ReadByte()
			if err != nil {
				return nil, errors.Wrap(io.ErrUnexpectedEOF, "unexpected EOF after '.'/'?'")
			}
			tag := cell.DOT
			if ch == '?' {
				tag = cell.QUES
			}
			e = h.AllocOld(tag, nil, nil)
			e.Ch = ch2
		default:
			return nil, errors.Errorf("unexpected character %q", ch)
		}

		// Fold e into the pending-application stack: fill the first
		// still-empty left slot, walking up through any fully-filled
		// frames above it.
		for stack != nil {
			if stack.L == nil {
				stack.L = e
				break
			}
			next := stack.R
			stack.R = e
			e = stack
			stack = next
		}
		if stack == nil {
			return e, nil
		}
	}
}

// nextToken returns the next significant byte: whitespace is skipped,
// and '#' begins a comment that runs to end of line (or EOF).
func nextToken(r io.ByteReader) (byte, error) {
	for {
		ch, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if ch == '#' {
			for {
				ch, err = r.ReadByte()
				if err != nil || ch == '\n' {
					break
				}
			}
			if err != nil {
				return 0, err
			}
			continue
		}
		if isSpace(ch) {
			continue
		}
		return ch, nil
	}
}

// isSpace reports whitespace the way the reference interpreter's
// C-locale isspace() does: ASCII whitespace only. unicode.IsSpace would
// additionally treat bytes like 0x85/0xA0 as whitespace, which spec.md
// §6 rules out ("ASCII bytes... no multi-byte character semantics").
func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}
