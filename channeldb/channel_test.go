package channeldb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelTypeHasAnchors(t *testing.T) {
	t.Parallel()

	require.False(t, SingleFunder.HasAnchors())
	require.False(t, SingleFunderTweakless.HasAnchors())
	require.True(t, AnchorOutputs.HasAnchors())
}

func TestChannelTypeIsTweakless(t *testing.T) {
	t.Parallel()

	require.False(t, SingleFunder.IsTweakless())
	require.True(t, SingleFunderTweakless.IsTweakless())
	require.True(t, AnchorOutputs.IsTweakless())
}

func TestChannelStatusString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Default", StatusDefault.String())
	require.Equal(t, "Borked", StatusBorked.String())
	require.Equal(t, "CommitmentBroadcast", StatusCommitmentBroadcast.String())
	require.Equal(t, "LocalDataLoss", StatusLocalDataLoss.String())
}

func TestApplyChanStatusIsCumulative(t *testing.T) {
	t.Parallel()

	c := &OpenChannel{}
	require.Equal(t, StatusDefault, c.ChanStatus())

	c.ApplyChanStatus(StatusBorked)
	require.True(t, c.HasChanStatus(StatusBorked))
	require.False(t, c.HasChanStatus(StatusCommitmentBroadcast))

	c.ApplyChanStatus(StatusCommitmentBroadcast)
	require.True(t, c.HasChanStatus(StatusBorked))
	require.True(t, c.HasChanStatus(StatusCommitmentBroadcast))

	// Bits once set are never cleared by a further ApplyChanStatus call.
	c.ApplyChanStatus(StatusBorked)
	require.True(t, c.HasChanStatus(StatusBorked|StatusCommitmentBroadcast))
}

func TestHasChanStatusRequiresEveryBit(t *testing.T) {
	t.Parallel()

	c := &OpenChannel{}
	c.ApplyChanStatus(StatusBorked)

	require.False(t, c.HasChanStatus(StatusBorked|StatusLocalDataLoss))
}
