package parser_test

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"unlambda_go/pkg/cell"
	"unlambda_go/pkg/parser"
)

func parse(t *testing.T, src string) (*cell.Cell, *cell.Heap) {
	t.Helper()
	h := cell.New()
	root, err := parser.Parse(bufio.NewReader(strings.NewReader(src)), h)
	require.NoError(t, err)
	require.NotNil(t, root)
	return root, h
}

func TestParseSingleAtomIsCaseInsensitive(t *testing.T) {
	root, h := parse(t, "K")
	require.Same(t, h.Atoms.K, root)
}

func TestParseApplicationSpine(t *testing.T) {
	// `` `ik `` is the application of i to k: AP{L: I, R: K}.
	root, h := parse(t, "`ik")
	require.Equal(t, cell.AP, root.Tag)
	require.Same(t, h.Atoms.I, root.L)
	require.Same(t, h.Atoms.K, root.R)
}

func TestParseNestedBackticks(t *testing.T) {
	// ```ikv == `(`ik)v
	root, h := parse(t, "``ikv")
	require.Equal(t, cell.AP, root.Tag)
	require.Same(t, h.Atoms.V, root.R)
	inner := root.L
	require.Equal(t, cell.AP, inner.Tag)
	require.Same(t, h.Atoms.I, inner.L)
	require.Same(t, h.Atoms.K, inner.R)
}

func TestParseDotAndQuesTakeVerbatimByte(t *testing.T) {
	root, _ := parse(t, ".X")
	require.Equal(t, cell.DOT, root.Tag)
	require.Equal(t, byte('X'), root.Ch)

	root2, _ := parse(t, "?#")
	require.Equal(t, cell.QUES, root2.Tag)
	require.Equal(t, byte('#'), root2.Ch)
}

func TestParseRIsDotNewlineSugar(t *testing.T) {
	root, _ := parse(t, "r")
	require.Equal(t, cell.DOT, root.Tag)
	require.Equal(t, byte('\n'), root.Ch)
}

func TestParseSkipsCommentsAndWhitespace(t *testing.T) {
	root, h := parse(t, "# a comment\n  `  i # trailing\n k")
	require.Equal(t, cell.AP, root.Tag)
	require.Same(t, h.Atoms.I, root.L)
	require.Same(t, h.Atoms.K, root.R)
}

func TestParseAllocatesInOldGeneration(t *testing.T) {
	root, _ := parse(t, "`ik")
	require.Greater(t, root.Age, uint8(cell.AgeMax))
}

func TestParseUnexpectedEOFMidExpression(t *testing.T) {
	h := cell.New()
	_, err := parser.Parse(bufio.NewReader(strings.NewReader("`i")), h)
	require.Error(t, err)
}

func TestParseUnknownByte(t *testing.T) {
	h := cell.New()
	_, err := parser.Parse(bufio.NewReader(strings.NewReader("z")), h)
	require.Error(t, err)
}

func TestParseHelloWorldShape(t *testing.T) {
	// From spec.md's Hello World scenario: the program is `r X, where X is
	// the left-nested application chain `(((.H .e) .l) ... .d) i`, so the
	// outermost node's left child is r (a DOT of '\n') and its right child
	// is X, whose own right child is the trailing `i`.
	const program = "`r```````````.H.e.l.l.o. .w.o.r.l.di"
	root, h := parse(t, program)
	require.Equal(t, cell.AP, root.Tag)
	require.Equal(t, cell.DOT, root.L.Tag)
	require.Equal(t, byte('\n'), root.L.Ch)
	require.Equal(t, cell.AP, root.R.Tag)
	require.Same(t, h.Atoms.I, root.R.R)
}
