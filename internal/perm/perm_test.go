package perm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckFOKAlwaysTrue(t *testing.T) {
	require.True(t, Check(1, 1, 0o000, 2, 2, FOK))
}

func TestCheckRootBypassesReadWrite(t *testing.T) {
	for m := uint32(0); m <= 0o777; m++ {
		require.True(t, Check(1, 1, m, 0, 0, ROK|WOK), "mode %o", m)
	}
}

func TestCheckRootExecuteRequiresSomeExecBit(t *testing.T) {
	for m := uint32(0); m <= 0o777; m++ {
		want := m&0o111 != 0
		got := Check(1, 1, m, 0, 0, XOK)
		require.Equal(t, want, got, "mode %o", m)
	}
}

func TestCheckOwnerTriplet(t *testing.T) {
	require.True(t, Check(10, 20, 0o700, 10, 99, ROK|WOK|XOK))
	require.False(t, Check(10, 20, 0o000, 10, 99, ROK))
}

func TestCheckGroupTripletUsedWhenNotOwner(t *testing.T) {
	require.True(t, Check(10, 20, 0o070, 11, 20, ROK|WOK|XOK))
	require.False(t, Check(10, 20, 0o700, 11, 20, ROK))
}

func TestCheckOtherTripletWhenNeitherOwnerNorGroup(t *testing.T) {
	require.True(t, Check(10, 20, 0o007, 11, 21, ROK|WOK|XOK))
	require.False(t, Check(10, 20, 0o770, 11, 21, ROK))
}

func TestCheckExactlyOneTripletSelectedNoFallThrough(t *testing.T) {
	// Owner has no bits but group does: must not fall through to group.
	require.False(t, Check(10, 20, 0o070, 10, 20, ROK))
}

func TestCheckPartialMaskFails(t *testing.T) {
	require.False(t, Check(10, 20, 0o400, 10, 20, ROK|WOK))
}

func TestStickyNotSetAllowsAnyone(t *testing.T) {
	require.False(t, Sticky(0o777, 1, 2, 3))
}

func TestStickyBlocksNonOwnerNonRoot(t *testing.T) {
	require.True(t, Sticky(0o1777, 1, 2, 3))
}

func TestStickyAllowsRoot(t *testing.T) {
	require.False(t, Sticky(0o1777, 1, 2, 0))
}

func TestStickyAllowsParentOwner(t *testing.T) {
	require.False(t, Sticky(0o1777, 1, 2, 1))
}

func TestStickyAllowsVictimOwner(t *testing.T) {
	require.False(t, Sticky(0o1777, 1, 2, 2))
}
