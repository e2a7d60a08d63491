package lnwallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lnchancore/chancore/lnwire"
)

func TestNewChannelStateMachineInitialState(t *testing.T) {
	t.Parallel()

	initiator := NewChannelStateMachine(nil, true)
	require.Equal(t, StateOpeningLocal, initiator.State())

	responder := NewChannelStateMachine(nil, false)
	require.Equal(t, StateOpeningRemote, responder.State())
}

func TestFundingLifecycleBothSidesReadyBeforeConfirmation(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	require.NoError(t, f.FundingSigned())
	require.Equal(t, StateAwaitingFundingConfirmed, f.State())

	// The peer's channel_ready can arrive before our own confirmation
	// check runs.
	require.NoError(t, f.ReceiveChannelReady())
	require.Equal(t, StateFundingLockedRemote, f.State())

	sendReady, err := f.FundingConfirmed(3, 6)
	require.NoError(t, err)
	require.False(t, sendReady)
	require.Equal(t, StateFundingLockedRemote, f.State())

	sendReady, err = f.FundingConfirmed(6, 6)
	require.NoError(t, err)
	require.True(t, sendReady)
	require.Equal(t, StateNormal, f.State())
}

func TestFundingLifecycleOurReadySentFirst(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, false)
	require.NoError(t, f.FundingSigned())

	sendReady, err := f.FundingConfirmed(6, 6)
	require.NoError(t, err)
	require.True(t, sendReady)
	require.Equal(t, StateFundingLockedLocal, f.State())

	require.NoError(t, f.ReceiveChannelReady())
	require.Equal(t, StateNormal, f.State())
}

func TestFundingSignedIllegalAfterNormal(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	require.NoError(t, f.FundingSigned())
	_, err := f.FundingConfirmed(6, 6)
	require.NoError(t, err)
	require.NoError(t, f.ReceiveChannelReady())
	require.Equal(t, StateNormal, f.State())

	err = f.FundingSigned()
	require.Error(t, err)
}

func TestReceiveChannelReadyIllegalBeforeFundingSigned(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	err := f.ReceiveChannelReady()
	require.Error(t, err)
}

func TestSendShutdownIllegalOutsideNormal(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	err := f.SendShutdown([]byte{0x00})
	require.Error(t, err)
}

func TestForceCloseIllegalWhenAlreadyTerminal(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateClosed

	_, err := f.ForceClose()
	require.Error(t, err)
}

func TestCommitmentSpendDetectedIsNoopOnceTerminal(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateIrrevocablyClosed

	require.NoError(t, f.CommitmentSpendDetected())
	require.Equal(t, StateIrrevocablyClosed, f.State())
}

func TestCommitmentSpendDetectedMovesToForceClosing(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateNormal

	require.NoError(t, f.CommitmentSpendDetected())
	require.Equal(t, StateForceClosing, f.State())
}

func TestOutputsIrrevocablyResolvedRequiresTerminalClose(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateNormal

	err := f.OutputsIrrevocablyResolved()
	require.Error(t, err)

	f.state = StateForceClosing
	require.NoError(t, f.OutputsIrrevocablyResolved())
	require.Equal(t, StateIrrevocablyClosed, f.State())

	// Idempotent once already irrevocably closed.
	require.NoError(t, f.OutputsIrrevocablyResolved())
}

func TestFailIsNoopOnceTerminal(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateClosed

	f.Fail("should not apply")
	require.Equal(t, StateClosed, f.State())
	require.Empty(t, f.FailReason())
}

func TestFailRecordsReason(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateNormal

	f.Fail("peer sent an invalid signature")
	require.Equal(t, StateError, f.State())
	require.Equal(t, "peer sent an invalid signature", f.FailReason())
}

func TestReceiveReestablishIllegalAfterClose(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateClosed

	_, err := f.ReceiveReestablish(&lnwire.ChannelReestablish{})
	require.Error(t, err)
}

func TestShutdownNegotiationWaitsForBothSides(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateNormal

	require.NoError(t, f.SendShutdown([]byte{0x01}))
	require.Equal(t, StateShuttingDown, f.State())

	// Only our side has sent shutdown so far; negotiation can't begin,
	// and since channel is nil this must not dereference it.
	require.Equal(t, StateShuttingDown, f.State())
}

func TestProposeClosingFeeIllegalOutsideNegotiation(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateNormal

	_, err := f.ProposeClosingFee(500)
	require.Error(t, err)
}

func TestReceiveClosingSignedIllegalOutsideNegotiation(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateNormal

	_, _, err := f.ReceiveClosingSigned(&lnwire.ClosingSigned{FeeSats: 500})
	require.Error(t, err)
}

func TestReceiveClosingSignedRequiresOurProposalFirst(t *testing.T) {
	t.Parallel()

	f := NewChannelStateMachine(nil, true)
	f.state = StateNegotiatingClose
	f.close = &closeNegotiation{localScript: []byte{0x01}, remoteScript: []byte{0x02}}

	_, _, err := f.ReceiveClosingSigned(&lnwire.ClosingSigned{FeeSats: 500})
	require.Error(t, err)
}
