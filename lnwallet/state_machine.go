package lnwallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchancore/chancore/channeldb"
	"github.com/lnchancore/chancore/lnwire"
)

// ChannelFSMState is a single state in a channel's lifecycle, from the
// moment it's first proposed to the moment its outcome is irrevocably
// settled on chain.
type ChannelFSMState uint8

const (
	// StateOpeningLocal is held by the party that proposed the channel,
	// from open_channel sent until the funding transaction is signed.
	StateOpeningLocal ChannelFSMState = iota

	// StateOpeningRemote is held by the party that received open_channel,
	// from accept_channel sent until the funding transaction is signed.
	StateOpeningRemote

	// StateAwaitingFundingConfirmed is held by both parties once the
	// funding transaction is signed and broadcast, until it reaches the
	// channel's required confirmation depth.
	StateAwaitingFundingConfirmed

	// StateFundingLockedLocal is held once we've sent channel_ready but
	// haven't yet received the peer's.
	StateFundingLockedLocal

	// StateFundingLockedRemote is held once we've received the peer's
	// channel_ready but haven't yet sent our own.
	StateFundingLockedRemote

	// StateNormal is the channel's steady state: both sides have
	// exchanged channel_ready and HTLCs may be added, settled, and
	// failed.
	StateNormal

	// StateShuttingDown is held from the moment either side sends
	// shutdown until every outstanding HTLC has cleared the channel.
	StateShuttingDown

	// StateNegotiatingClose is held once both sides have exchanged
	// shutdown and no HTLCs remain, while closing_signed fee proposals
	// are exchanged.
	StateNegotiatingClose

	// StateClosingSigned is held the instant both sides' closing_signed
	// proposals agree on a fee but the final transaction hasn't yet been
	// assembled.
	StateClosingSigned

	// StateClosed is a sticky terminal state: the mutual close
	// transaction has been assembled and broadcast.
	StateClosed

	// StateForceClosing is a sticky terminal state: our latest local
	// commitment (or the remote's) has been broadcast unilaterally and
	// resolution of its outputs is in progress.
	StateForceClosing

	// StateIrrevocablyClosed is the final state of any close, local or
	// mutual: every output of the closing transaction has reached
	// irrevocable confirmation depth. The channel may be garbage
	// collected.
	StateIrrevocablyClosed

	// StateError is terminal for the peer session -- the channel is no
	// longer usable for payments -- but does not by itself move anything
	// on chain.
	StateError
)

func (s ChannelFSMState) String() string {
	switch s {
	case StateOpeningLocal:
		return "OPENING_LOCAL"
	case StateOpeningRemote:
		return "OPENING_REMOTE"
	case StateAwaitingFundingConfirmed:
		return "AWAITING_FUNDING_CONFIRMED"
	case StateFundingLockedLocal:
		return "FUNDING_LOCKED_LOCAL"
	case StateFundingLockedRemote:
		return "FUNDING_LOCKED_REMOTE"
	case StateNormal:
		return "NORMAL"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	case StateNegotiatingClose:
		return "NEGOTIATING_CLOSE"
	case StateClosingSigned:
		return "CLOSING_SIGNED"
	case StateClosed:
		return "CLOSED"
	case StateForceClosing:
		return "FORCE_CLOSING"
	case StateIrrevocablyClosed:
		return "IRREVOCABLY_CLOSED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// closeNegotiation tracks the in-flight closing_signed fee round.
type closeNegotiation struct {
	localScript, remoteScript []byte
	ourLastProposal           btcutil.Amount
	theirLastProposal         btcutil.Amount
	ourLastSig                []byte
	haveOurProposal           bool
	haveTheirProposal         bool
}

// ChannelStateMachine drives a single channel's lifecycle state, validating
// that each peer message or chain event is legal in the channel's current
// state and invoking the corresponding LightningChannel operation. It holds
// no wire-protocol transport logic of its own; callers feed it decoded
// messages and chain events, and read off the message (if any) that needs
// sending back to the peer.
type ChannelStateMachine struct {
	channel *LightningChannel

	state ChannelFSMState

	fundingLockedSent bool
	fundingLockedRecv bool

	shutdownSent bool
	shutdownRecv bool

	close *closeNegotiation

	errReason string
}

// NewChannelStateMachine creates a ChannelStateMachine for channel, starting
// in whichever opening state corresponds to isInitiator.
func NewChannelStateMachine(channel *LightningChannel, isInitiator bool) *ChannelStateMachine {
	initial := StateOpeningRemote
	if isInitiator {
		initial = StateOpeningLocal
	}

	return &ChannelStateMachine{
		channel: channel,
		state:   initial,
	}
}

// State returns the channel's current lifecycle state.
func (f *ChannelStateMachine) State() ChannelFSMState {
	return f.state
}

// illegalTransition formats a consistent error for a message or event that
// doesn't apply in the channel's current state.
func (f *ChannelStateMachine) illegalTransition(event string) error {
	return fmt.Errorf("%s is not valid in state %v", event, f.state)
}

// FundingSigned records that both parties' signatures over the funding
// transaction have been exchanged, moving the channel to wait for on-chain
// confirmation.
func (f *ChannelStateMachine) FundingSigned() error {
	switch f.state {
	case StateOpeningLocal, StateOpeningRemote:
		f.state = StateAwaitingFundingConfirmed
		return nil
	default:
		return f.illegalTransition("funding_signed")
	}
}

// FundingConfirmed reports that the funding transaction has reached depth
// confirmations. Once it meets the channel's required depth, we may send
// our own channel_ready.
func (f *ChannelStateMachine) FundingConfirmed(depth, required uint32) (sendChannelReady bool, err error) {
	if f.state != StateAwaitingFundingConfirmed && f.state != StateFundingLockedRemote {
		return false, f.illegalTransition("funding_confirmed")
	}
	if depth < required {
		return false, nil
	}

	f.fundingLockedSent = true
	if f.fundingLockedRecv {
		f.state = StateNormal
	} else {
		f.state = StateFundingLockedLocal
	}
	return true, nil
}

// ReceiveChannelReady records the peer's channel_ready. Combined with our
// own, the channel moves to NORMAL.
func (f *ChannelStateMachine) ReceiveChannelReady() error {
	switch f.state {
	case StateAwaitingFundingConfirmed:
		f.fundingLockedRecv = true
		f.state = StateFundingLockedRemote
		return nil
	case StateFundingLockedLocal:
		f.fundingLockedRecv = true
		f.state = StateNormal
		return nil
	default:
		return f.illegalTransition("channel_ready")
	}
}

// ReceiveReestablish forwards a channel_reestablish from the peer to
// LightningChannel.ProcessChanSyncMsg, which does the actual state
// comparison and data-loss detection. ChannelStateMachine's role here is
// limited to rejecting the message outright in a state where
// reestablishment is meaningless.
func (f *ChannelStateMachine) ReceiveReestablish(msg *lnwire.ChannelReestablish) ([]lnwire.Message, error) {
	switch f.state {
	case StateClosed, StateForceClosing, StateIrrevocablyClosed, StateError:
		return nil, f.illegalTransition("channel_reestablish")
	}

	return f.channel.ProcessChanSyncMsg(msg)
}

// ReceiveShutdown records the peer's shutdown message, beginning cooperative
// close negotiation. If we haven't sent our own shutdown yet, the caller
// must still do so in reply; localScript is the script we'll offer as our
// closing destination.
func (f *ChannelStateMachine) ReceiveShutdown(msg *lnwire.Shutdown, localScript []byte) error {
	if f.state != StateNormal && f.state != StateShuttingDown {
		return f.illegalTransition("shutdown")
	}

	if f.close == nil {
		f.close = &closeNegotiation{localScript: localScript}
	}
	f.close.remoteScript = msg.Address
	f.shutdownRecv = true
	f.state = StateShuttingDown

	return f.maybeBeginNegotiation()
}

// SendShutdown records that we've sent our shutdown, offering localScript
// as our closing destination. If the peer's shutdown already arrived, this
// is our reply, and negotiation begins once no HTLCs remain.
func (f *ChannelStateMachine) SendShutdown(localScript []byte) error {
	switch {
	case f.state == StateNormal:
		f.close = &closeNegotiation{localScript: localScript}
	case f.state == StateShuttingDown && f.shutdownRecv && !f.shutdownSent:
		f.close.localScript = localScript
	default:
		return f.illegalTransition("shutdown")
	}
	f.shutdownSent = true
	f.state = StateShuttingDown

	return f.maybeBeginNegotiation()
}

// maybeBeginNegotiation moves SHUTTING_DOWN to NEGOTIATING_CLOSE once both
// shutdowns have been exchanged and no HTLCs remain on either commitment.
func (f *ChannelStateMachine) maybeBeginNegotiation() error {
	if !f.shutdownSent || !f.shutdownRecv {
		return nil
	}

	if f.channel.hasPendingHTLCs() {
		return nil
	}

	f.state = StateNegotiatingClose
	return nil
}

// ProposeClosingFee builds our next closing_signed proposal at fee,
// signing the cooperative close transaction at that fee.
func (f *ChannelStateMachine) ProposeClosingFee(fee btcutil.Amount) (*lnwire.ClosingSigned, error) {
	if f.state != StateNegotiatingClose {
		return nil, f.illegalTransition("closing_signed")
	}
	if f.close == nil {
		return nil, fmt.Errorf("no close negotiation in progress")
	}

	sig, _, _, err := f.channel.CreateCloseProposal(fee, f.close.localScript, f.close.remoteScript)
	if err != nil {
		return nil, err
	}

	f.close.ourLastProposal = fee
	f.close.ourLastSig = sig
	f.close.haveOurProposal = true

	return &lnwire.ClosingSigned{
		FeeSats:   uint64(fee),
		Signature: sig,
	}, nil
}

// ReceiveClosingSigned processes the peer's closing_signed proposal. If our
// last proposal matches theirs, the negotiation has converged: the final
// transaction is assembled and returned, and the channel moves to CLOSED.
// Otherwise the average-of-both-proposals counter-offer is returned, already
// signed, for the caller to send.
func (f *ChannelStateMachine) ReceiveClosingSigned(msg *lnwire.ClosingSigned) (
	*lnwire.ClosingSigned, *wire.MsgTx, error) {

	if f.state != StateNegotiatingClose {
		return nil, nil, f.illegalTransition("closing_signed")
	}
	if f.close == nil || !f.close.haveOurProposal {
		return nil, nil, fmt.Errorf("received closing_signed before proposing our own fee")
	}

	theirFee := btcutil.Amount(msg.FeeSats)
	f.close.theirLastProposal = theirFee
	f.close.haveTheirProposal = true

	if theirFee == f.close.ourLastProposal {
		f.state = StateClosingSigned

		closeTx, err := f.channel.CompleteCooperativeClose(
			f.close.ourLastSig, msg.Signature, f.close.localScript, f.close.remoteScript, theirFee,
		)
		if err != nil {
			return nil, nil, err
		}

		f.state = StateClosed
		return nil, closeTx, nil
	}

	// BOLT-2's splitting rule: converge by proposing the mean of our last
	// offer and theirs.
	nextFee := (f.close.ourLastProposal + theirFee) / 2

	counter, err := f.ProposeClosingFee(nextFee)
	if err != nil {
		return nil, nil, err
	}

	return counter, nil, nil
}

// ForceClose transitions the channel into FORCE_CLOSING and returns the
// summary needed to broadcast our latest commitment. Legal from any state
// where the channel hasn't already reached a terminal outcome.
func (f *ChannelStateMachine) ForceClose() (*ForceCloseSummary, error) {
	switch f.state {
	case StateClosed, StateForceClosing, StateIrrevocablyClosed:
		return nil, f.illegalTransition("force_close")
	}

	summary, err := f.channel.ForceClose()
	if err != nil {
		return nil, err
	}

	f.state = StateForceClosing
	return summary, nil
}

// CommitmentSpendDetected records that a transaction spending the funding
// outpoint has been observed on chain, outside of a cooperative close we
// ourselves completed. Any classification other than a mutual close we
// already knew about moves the channel to FORCE_CLOSING: a unilateral close
// (ours or the remote's) still requires on-chain output resolution before
// the channel is done.
func (f *ChannelStateMachine) CommitmentSpendDetected() error {
	switch f.state {
	case StateClosed, StateForceClosing, StateIrrevocablyClosed, StateError:
		return nil
	default:
		f.state = StateForceClosing
		return nil
	}
}

// OutputsIrrevocablyResolved reports that every output of the channel's
// close has reached irrevocable confirmation depth, per
// contractcourt.Engine.IsChannelFullyResolved. The channel may now be
// garbage collected.
func (f *ChannelStateMachine) OutputsIrrevocablyResolved() error {
	switch f.state {
	case StateClosed, StateForceClosing:
		f.state = StateIrrevocablyClosed
		return nil
	case StateIrrevocablyClosed:
		return nil
	default:
		return f.illegalTransition("confirmed")
	}
}

// Fail moves the channel to ERROR: it's no longer usable for payments, but
// nothing is broadcast on our behalf as a result. reason is recorded for
// diagnostics and is NOT sent to the peer verbatim -- callers choose what,
// if anything, to disclose in the lnwire.Error they send.
func (f *ChannelStateMachine) Fail(reason string) {
	if f.state == StateClosed || f.state == StateForceClosing || f.state == StateIrrevocablyClosed {
		return
	}
	f.state = StateError
	f.errReason = reason
}

// FailReason returns the reason passed to Fail, if the channel is in ERROR.
func (f *ChannelStateMachine) FailReason() string {
	return f.errReason
}

// MarkDataLoss fails the channel for suspected local data loss, per
// LightningChannel.ProcessChanSyncMsg's StatusLocalDataLoss branch. A
// channel in this state must never broadcast its own commitment: doing so
// would publish a stale state the peer can penalize.
func (f *ChannelStateMachine) MarkDataLoss(chanState *channeldb.OpenChannel) {
	chanState.ApplyChanStatus(channeldb.StatusLocalDataLoss)
	f.Fail("local data loss: peer claims a newer commitment height than we have")
}
