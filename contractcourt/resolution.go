// Package contractcourt classifies transactions observed spending a
// channel's funding outpoint or its commitment outputs, tracks each
// resulting output through to irrevocable confirmation, and emits the
// penalty transactions a breached commitment calls for.
package contractcourt

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/lnchancore/chancore/channeldb"
	"github.com/lnchancore/chancore/lnwallet"
)

// ResolutionType classifies a transaction observed spending a channel's
// funding outpoint or one of its commitment outputs.
type ResolutionType uint8

const (
	// Unknown is any spend the engine can't attribute to a recognized
	// channel-close or HTLC-resolution pattern.
	Unknown ResolutionType = iota

	// MutualClose spends the funding outpoint cooperatively: exactly two
	// outputs, no delay or revocation branch possible.
	MutualClose

	// LocalUnilateral spends the funding outpoint with the obscured
	// commitment number of our own current commitment.
	LocalUnilateral

	// RemoteUnilateral spends the funding outpoint with the obscured
	// commitment number of the remote party's current commitment.
	RemoteUnilateral

	// RevokedRemoteUnilateral spends the funding outpoint with the
	// obscured commitment number of a remote commitment we hold a
	// revocation secret for -- a breach.
	RevokedRemoteUnilateral

	// HTLCSuccess spends a commitment HTLC output with the preimage.
	HTLCSuccess

	// HTLCTimeout spends a commitment HTLC output after its CLTV expiry,
	// with no preimage.
	HTLCTimeout

	// Penalty spends a revoked commitment's outputs via their
	// revocation branch.
	Penalty
)

func (r ResolutionType) String() string {
	switch r {
	case MutualClose:
		return "MutualClose"
	case LocalUnilateral:
		return "LocalUnilateral"
	case RemoteUnilateral:
		return "RemoteUnilateral"
	case RevokedRemoteUnilateral:
		return "RevokedRemoteUnilateral"
	case HTLCSuccess:
		return "HTLCSuccess"
	case HTLCTimeout:
		return "HTLCTimeout"
	case Penalty:
		return "Penalty"
	default:
		return "Unknown"
	}
}

// CloseClassification is the result of classifying a transaction that spends
// a channel's funding outpoint.
type CloseClassification struct {
	Type ResolutionType

	// CommitHeight is the commitment number the closing transaction was
	// built at, populated for every unilateral-close classification.
	CommitHeight uint64
}

// ClassifyFundingSpend applies rules 1-4 of the classification order to a
// transaction spending chanState's funding outpoint: mutual close, our own
// unilateral close, a breach of an old remote commitment, or the remote
// party's current unilateral close.
func ClassifyFundingSpend(chanState *channeldb.OpenChannel, tx *wire.MsgTx) (CloseClassification, error) {
	if len(tx.TxIn) != 1 || tx.TxIn[0].PreviousOutPoint != chanState.FundingOutpoint {
		return CloseClassification{}, fmt.Errorf("tx does not spend the funding outpoint")
	}

	// Rule 1: mutual close -- exactly two outputs, zero locktime, final
	// sequence, no commitment-number obscuring possible.
	if len(tx.TxOut) == 2 && tx.LockTime == 0 && tx.TxIn[0].Sequence == wire.MaxTxInSequenceNum {
		return CloseClassification{Type: MutualClose}, nil
	}

	if !lnwallet.IsObscuredCommitment(tx.LockTime, tx.TxIn[0].Sequence) {
		return CloseClassification{Type: Unknown}, nil
	}

	obscureFactor := lnwallet.ObscuringFactor(
		chanState.IsInitiator,
		chanState.LocalChanCfg.PaymentBasePoint.PubKey,
		chanState.RemoteChanCfg.PaymentBasePoint.PubKey,
	)
	height := lnwallet.RecoverCommitHeight(obscureFactor, tx.LockTime, tx.TxIn[0].Sequence)

	// Rule 2: matches our own current commitment height.
	if height == chanState.LocalCommitment.CommitHeight {
		return CloseClassification{Type: LocalUnilateral, CommitHeight: height}, nil
	}

	// Rule 3: matches a remote commitment height we hold a revocation
	// secret for -- strictly older than the remote party's current
	// commitment, and recoverable from our revocation store.
	if height < chanState.RemoteCommitment.CommitHeight {
		if _, ok := chanState.RevocationStore.LookupSecret(height); ok {
			return CloseClassification{Type: RevokedRemoteUnilateral, CommitHeight: height}, nil
		}
	}

	// Rule 4: matches the remote party's current commitment.
	if height == chanState.RemoteCommitment.CommitHeight {
		return CloseClassification{Type: RemoteUnilateral, CommitHeight: height}, nil
	}

	return CloseClassification{Type: Unknown}, nil
}

// HtlcSpendClassification is the result of classifying a transaction that
// spends a single commitment HTLC output.
type HtlcSpendClassification struct {
	Type     ResolutionType
	Preimage [32]byte
}

// ClassifyHtlcSpend applies rules 5-6 to a transaction spending a single
// commitment HTLC output, given the HTLC's payment_hash and cltv_expiry and
// the height the spending transaction confirmed (or will confirm) at.
func ClassifyHtlcSpend(tx *wire.MsgTx, inputIdx int, paymentHash [32]byte,
	cltvExpiry uint32, spendHeight uint32) HtlcSpendClassification {

	witness := tx.TxIn[inputIdx].Witness

	// Rule 5: a 32-byte witness element whose hash matches the payment
	// hash is the preimage -- HTLC-success.
	for _, elem := range witness {
		if len(elem) != 32 {
			continue
		}
		if sha256.Sum256(elem) == paymentHash {
			var preimage [32]byte
			copy(preimage[:], elem)
			return HtlcSpendClassification{Type: HTLCSuccess, Preimage: preimage}
		}
	}

	// Rule 6: past the CLTV expiry with no preimage present -- timeout.
	if spendHeight >= cltvExpiry {
		return HtlcSpendClassification{Type: HTLCTimeout}
	}

	return HtlcSpendClassification{Type: Unknown}
}

// IsPenaltyTx reports whether tx matches the shape of a justice
// transaction: every input spends an output of the single revoked
// commitment txid, each via a revocation-branch witness whose
// second-to-last element is either a compressed pubkey (an HTLC output's
// revocation branch) or the single byte 0x01 (the to_local output's
// revocation branch).
func IsPenaltyTx(tx *wire.MsgTx, revokedCommitTxid *wire.OutPoint) bool {
	if len(tx.TxIn) == 0 {
		return false
	}

	for _, txIn := range tx.TxIn {
		if txIn.PreviousOutPoint.Hash != revokedCommitTxid.Hash {
			return false
		}

		w := txIn.Witness
		if len(w) < 3 {
			return false
		}

		pubkeyCandidate := w[len(w)-2]
		isToLocalRevoke := len(pubkeyCandidate) == 1 && pubkeyCandidate[0] == 1
		if len(pubkeyCandidate) != 33 && !isToLocalRevoke {
			return false
		}
	}

	return true
}

// irrevocableConfirmationDepth is the default number of confirmations a
// classified close output must reach before the channel considers it
// permanently settled.
const irrevocableConfirmationDepth = 6

// OutputResolution tracks one classified, not-yet-irrevocably-resolved
// on-chain output through confirmation depth.
type OutputResolution struct {
	Outpoint     wire.OutPoint
	Type         ResolutionType
	SpendingTx   *wire.MsgTx
	confirmDepth uint32
}

// pendingResolution is the per-channel bookkeeping the ResolutionEngine
// keeps of outputs it's still waiting to see irrevocably resolved.
type pendingResolution struct {
	outputs map[wire.OutPoint]*OutputResolution
}

// Engine tracks resolution state for a set of channels, classifying
// transactions as they're observed on chain and forwarding extracted HTLC
// preimages to a per-channel callback.
type Engine struct {
	// ConfirmationDepth is the number of confirmations a classified
	// output must reach before it's irrevocably resolved.
	ConfirmationDepth uint32

	channels map[wire.OutPoint]*pendingResolution

	// ForwardPreimage is invoked with every preimage extracted from an
	// HTLCSuccess classification, keyed by the channel's funding
	// outpoint, so upstream HTLCs sharing the same payment_hash can be
	// settled toward the sender.
	ForwardPreimage func(chanPoint wire.OutPoint, preimage [32]byte)
}

// NewEngine creates a ResolutionEngine with the default irrevocable
// confirmation depth.
func NewEngine() *Engine {
	return &Engine{
		ConfirmationDepth: irrevocableConfirmationDepth,
		channels:          make(map[wire.OutPoint]*pendingResolution),
	}
}

// Track begins watching a newly classified output for confirmation depth.
func (e *Engine) Track(chanPoint wire.OutPoint, res *OutputResolution) {
	p, ok := e.channels[chanPoint]
	if !ok {
		p = &pendingResolution{outputs: make(map[wire.OutPoint]*OutputResolution)}
		e.channels[chanPoint] = p
	}
	p.outputs[res.Outpoint] = res
}

// UpdateConfirmations records a confirmation-depth update for a tracked
// output, idempotently -- re-delivering the same depth is a no-op so replay
// of a notification stream never double-advances state. Returns true if the
// output just crossed into IRREVOCABLY_RESOLVED.
func (e *Engine) UpdateConfirmations(chanPoint, outpoint wire.OutPoint, depth uint32) bool {
	p, ok := e.channels[chanPoint]
	if !ok {
		return false
	}
	res, ok := p.outputs[outpoint]
	if !ok {
		return false
	}

	wasResolved := res.confirmDepth >= e.ConfirmationDepth
	if depth > res.confirmDepth {
		res.confirmDepth = depth
	}
	isResolved := res.confirmDepth >= e.ConfirmationDepth

	return isResolved && !wasResolved
}

// IsChannelFullyResolved reports whether every tracked output of chanPoint
// has reached irrevocable confirmation depth, in which case the channel may
// be garbage-collected.
func (e *Engine) IsChannelFullyResolved(chanPoint wire.OutPoint) bool {
	p, ok := e.channels[chanPoint]
	if !ok || len(p.outputs) == 0 {
		return false
	}
	for _, res := range p.outputs {
		if res.confirmDepth < e.ConfirmationDepth {
			return false
		}
	}
	return true
}

// HandleHtlcSpend classifies a transaction spending a commitment HTLC
// output and, if it's an HTLCSuccess spend, forwards the extracted preimage
// via ForwardPreimage.
func (e *Engine) HandleHtlcSpend(chanPoint wire.OutPoint, tx *wire.MsgTx, inputIdx int,
	paymentHash [32]byte, cltvExpiry uint32, spendHeight uint32) HtlcSpendClassification {

	class := ClassifyHtlcSpend(tx, inputIdx, paymentHash, cltvExpiry, spendHeight)
	if class.Type == HTLCSuccess && e.ForwardPreimage != nil {
		e.ForwardPreimage(chanPoint, class.Preimage)
	}
	return class
}
