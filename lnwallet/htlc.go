package lnwallet

import (
	"container/list"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchancore/chancore/lnwire"
)

// PaymentHash is the hash an HTLC is locked to.
type PaymentHash [32]byte

// UpdateType identifies the exact kind of entry a PaymentDescriptor records
// within a channel's shared HTLC log.
type UpdateType uint8

const (
	// Add adds a new HTLC to the log. Either side may add one.
	Add UpdateType = iota

	// Fail removes a prior HTLC, citing an opaque onion failure reason.
	Fail

	// MalformedFail removes a prior HTLC whose onion blob itself was
	// malformed, citing a short failure code rather than a full reason.
	MalformedFail

	// Settle removes a prior HTLC, crediting the receiving side's
	// balance with its value.
	Settle

	// FeeUpdate changes the commitment fee rate the initiator pays.
	FeeUpdate
)

func (u UpdateType) String() string {
	switch u {
	case Add:
		return "Add"
	case Fail:
		return "Fail"
	case MalformedFail:
		return "MalformedFail"
	case Settle:
		return "Settle"
	case FeeUpdate:
		return "FeeUpdate"
	default:
		return "<unknown update type>"
	}
}

// PaymentDescriptor records one state update -- an HTLC add, settle, fail,
// or a fee update -- pending in a channel's shared log. It's the in-memory
// "mempool" entry a turn-based commitment update is built from; once an
// update is covered by commitments both sides have signed and revoked for,
// its PaymentDescriptor can be retired.
type PaymentDescriptor struct {
	// EntryType distinguishes an Add/Fail/MalformedFail/Settle/FeeUpdate.
	EntryType UpdateType

	RHash     PaymentHash
	RPreimage PaymentHash
	Timeout   uint32
	Amount    lnwire.MilliSatoshi

	// LogIndex is this entry's position in whichever log (local or
	// remote) the offering party appended it to.
	LogIndex uint64

	// HtlcIndex is the Add-specific counter identifying this HTLC for
	// the life of the channel; Fail/Settle entries reference it via
	// ParentIndex.
	HtlcIndex uint64

	// ParentIndex is the HtlcIndex of the Add this entry settles or
	// fails. Populated only on Fail/MalformedFail/Settle entries.
	ParentIndex uint64

	// LocalOutputIndex/RemoteOutputIndex are this HTLC's output index on
	// the local/remote commitment transaction it's reflected on, or -1
	// if trimmed as dust from that party's point of view.
	LocalOutputIndex  int32
	RemoteOutputIndex int32

	// Sig is the remote party's signature over the second-level HTLC
	// transaction spending this HTLC's output on our own commitment,
	// handed over alongside commitment_signed so we can unilaterally
	// claim or time out the HTLC without further remote cooperation.
	Sig *ecdsa.Signature

	// AddCommitHeightRemote/AddCommitHeightLocal record the commitment
	// height at which this HTLC first appeared on each chain, used to
	// tell when it's fully locked in on both.
	AddCommitHeightRemote uint64
	AddCommitHeightLocal  uint64

	// RemoveCommitHeightRemote/RemoveCommitHeightLocal record the
	// commitment height at which a Fail/Settle entry's effect first
	// appeared on each chain.
	RemoveCommitHeightRemote uint64
	RemoveCommitHeightLocal  uint64

	// OnionBlob carries the onion-routed forwarding instructions for an
	// Add entry.
	OnionBlob []byte

	// ShaOnionBlob is populated on MalformedFail entries with a hash of
	// the onion blob the sender couldn't parse.
	ShaOnionBlob [sha256.Size]byte

	// FailReason is the opaque encrypted failure message for a Fail
	// entry.
	FailReason []byte

	// FailCode is the short BOLT-4 failure code for a MalformedFail
	// entry.
	FailCode uint16

	// IsForwarded marks an incoming Add that's already been forwarded
	// upstream, so it isn't forwarded twice across a restart.
	IsForwarded bool
}

// HtlcIsDust reports whether an HTLC of htlcAmt would be trimmed as dust
// from a commitment transaction, given which side's chain it's being
// evaluated against and which direction it flows. The fee charged depends
// on whether settling it later requires a second-stage success or timeout
// transaction, which differ in weight.
func HtlcIsDust(incoming, ourCommit bool, feePerKw SatPerKWeight,
	htlcAmt, dustLimit btcutil.Amount) bool {

	var htlcFee btcutil.Amount
	switch {
	case incoming && ourCommit:
		htlcFee = htlcSuccessFee(feePerKw)
	case incoming && !ourCommit:
		htlcFee = htlcTimeoutFee(feePerKw)
	case !incoming && ourCommit:
		htlcFee = htlcTimeoutFee(feePerKw)
	case !incoming && !ourCommit:
		htlcFee = htlcSuccessFee(feePerKw)
	}

	return (htlcAmt - htlcFee) < dustLimit
}

// UpdateLog is an append-only log of pending PaymentDescriptors, indexed
// both by overall log position and (for Adds) by HTLC index, so Fail/Settle
// entries can cheaply look up the Add they resolve.
type UpdateLog struct {
	logIndex    uint64
	htlcCounter uint64

	list *list.List

	updateIndex map[uint64]*list.Element
	htlcIndex   map[uint64]*list.Element
}

// NewUpdateLog creates an empty update log starting at the given log and
// HTLC counters -- non-zero when restoring a channel from a checkpoint.
func NewUpdateLog(logIndex, htlcCounter uint64) *UpdateLog {
	return &UpdateLog{
		logIndex:    logIndex,
		htlcCounter: htlcCounter,
		list:        list.New(),
		updateIndex: make(map[uint64]*list.Element),
		htlcIndex:   make(map[uint64]*list.Element),
	}
}

// AppendHtlc appends an Add entry, stamping it with the next HTLC index and
// log index.
func (u *UpdateLog) AppendHtlc(pd *PaymentDescriptor) {
	pd.HtlcIndex = u.htlcCounter
	u.htlcCounter++

	pd.LogIndex = u.logIndex
	u.logIndex++

	e := u.list.PushBack(pd)
	u.htlcIndex[pd.HtlcIndex] = e
	u.updateIndex[pd.LogIndex] = e
}

// AppendUpdate appends a non-Add entry (Fail/Settle/FeeUpdate), stamping it
// with the next log index only -- it has no HTLC index of its own.
func (u *UpdateLog) AppendUpdate(pd *PaymentDescriptor) {
	pd.LogIndex = u.logIndex
	u.logIndex++

	e := u.list.PushBack(pd)
	u.updateIndex[pd.LogIndex] = e
}

// LookupHtlc returns the Add entry with the given HTLC index, if present.
func (u *UpdateLog) LookupHtlc(htlcIndex uint64) *PaymentDescriptor {
	e, ok := u.htlcIndex[htlcIndex]
	if !ok {
		return nil
	}
	return e.Value.(*PaymentDescriptor)
}

// RemoveHtlc deletes the Add entry with the given HTLC index, once both
// chains have retired it.
func (u *UpdateLog) RemoveHtlc(htlcIndex uint64) {
	e, ok := u.htlcIndex[htlcIndex]
	if !ok {
		return
	}
	u.list.Remove(e)
	delete(u.htlcIndex, htlcIndex)
}

// Front returns the first element in log order, for iteration.
func (u *UpdateLog) Front() *list.Element { return u.list.Front() }

// LogIndex returns the next log index that will be assigned.
func (u *UpdateLog) LogIndex() uint64 { return u.logIndex }

// HtlcCounter returns the next HTLC index that will be assigned.
func (u *UpdateLog) HtlcCounter() uint64 { return u.htlcCounter }

// CommitmentChain tracks the sequence of not-yet-revoked commitments
// extended to one party: the tail is the oldest unrevoked commitment, the
// tip is the most recently proposed one. A chain may hold at most two
// entries at once under the standard one-commitment-in-flight revocation
// window BOLT-2 specifies.
type CommitmentChain struct {
	commitments *list.List
}

// NewCommitmentChain creates an empty commitment chain.
func NewCommitmentChain() *CommitmentChain {
	return &CommitmentChain{commitments: list.New()}
}

// AddCommitment extends the chain with a newly proposed commitment.
func (c *CommitmentChain) AddCommitment(cm *Commitment) {
	c.commitments.PushBack(cm)
}

// AdvanceTail drops the chain's current tail once its revocation has been
// received, promoting the next commitment (if any) to tail.
func (c *CommitmentChain) AdvanceTail() {
	c.commitments.Remove(c.commitments.Front())
}

// Tip returns the most recently proposed, as-yet-unrevoked commitment.
func (c *CommitmentChain) Tip() *Commitment {
	return c.commitments.Back().Value.(*Commitment)
}

// Tail returns the oldest commitment still awaiting revocation.
func (c *CommitmentChain) Tail() *Commitment {
	return c.commitments.Front().Value.(*Commitment)
}

// HasUnackedCommitment reports whether more than one commitment is
// outstanding -- i.e. a new commitment was proposed before the previous one
// was revoked.
func (c *CommitmentChain) HasUnackedCommitment() bool {
	return c.commitments.Front() != c.commitments.Back()
}
