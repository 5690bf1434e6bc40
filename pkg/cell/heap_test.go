package cell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"unlambda_go/pkg/cell"
)

func TestNewAllocatesSharedAtoms(t *testing.T) {
	h := cell.New()

	require.NotNil(t, h.Atoms.I)
	require.Equal(t, cell.I, h.Atoms.I.Tag)
	require.Equal(t, uint8(cell.AgeMax+1), h.Atoms.I.Age)

	// A further AllocOld call must not hand out a shared atom, but still
	// lands in the old generation immortally.
	other := h.AllocOld(cell.DOT, nil, nil)
	require.NotSame(t, h.Atoms.I, other)
	require.Greater(t, other.Age, uint8(cell.AgeMax))
}

func TestNewCellAllocatesYoung(t *testing.T) {
	h := cell.New()
	c := h.NewCell(cell.AP, h.Atoms.I, h.Atoms.K)
	require.Equal(t, cell.AP, c.Tag)
	require.Equal(t, uint8(0), c.Age)
	require.Same(t, h.Atoms.I, c.L)
	require.Same(t, h.Atoms.K, c.R)
}

func TestNeedsGC(t *testing.T) {
	h := cell.New()
	require.False(t, h.NeedsGC(0))
	for i := 0; i < cell.YoungSize; i++ {
		h.NewCell0(cell.I)
	}
	require.True(t, h.NeedsGC(0))
}
