package sweep

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchancore/chancore/input"
)

// Input is a single on-chain output this package knows how to reclaim: a
// wallet's own confirmed-but-not-yet-swept commitment, HTLC, or anchor
// output. A concrete Input is built with one of this package's New*Input
// constructors, and consumed by the planner to assemble and finalize a
// sweep transaction.
type Input interface {
	// OutPoint is the output being swept.
	OutPoint() *wire.OutPoint

	// SignDesc describes the key and script needed to spend this output.
	SignDesc() *input.SignDescriptor

	// WitnessType identifies which spend path this input requires, which
	// in turn determines witness shape and size.
	WitnessType() input.WitnessType

	// BlocksToMaturity is the number of confirmations this output still
	// needs (on top of its own confirmation) before it may be spent --
	// zero for anything with no relative timelock.
	BlocksToMaturity() uint32

	// CltvExpiry is the absolute block height this input's witness
	// becomes valid at, or zero if it carries no absolute timelock.
	CltvExpiry() uint32

	// BuildWitness produces the finalized witness for this input at
	// position idx of tx, signing through signer.
	BuildWitness(signer input.Signer, tx *wire.MsgTx,
		hashCache *txscript.TxSigHashes, idx int) (wire.TxWitness, error)
}

// sweepInput is the concrete Input implementation shared by every witness type
// this package sweeps. The fields that matter vary by WitnessType; unused
// fields are left at their zero value.
type sweepInput struct {
	outpoint    wire.OutPoint
	witnessType input.WitnessType
	signDesc    *input.SignDescriptor

	// csvDelay is the relative locktime this input's witness must set as
	// its nSequence, for WitnessTypes spent via a CSV-delayed branch.
	csvDelay uint32

	// cltvExpiry is the absolute locktime a CLTV-gated witness type
	// requires the spending transaction's nLockTime to reach.
	cltvExpiry uint32

	// preimage is the payment preimage needed to satisfy
	// HtlcAcceptedRemoteSuccess's witness.
	preimage []byte
}

func (i *sweepInput) OutPoint() *wire.OutPoint        { return &i.outpoint }
func (i *sweepInput) SignDesc() *input.SignDescriptor { return i.signDesc }
func (i *sweepInput) WitnessType() input.WitnessType  { return i.witnessType }
func (i *sweepInput) BlocksToMaturity() uint32        { return i.csvDelay }
func (i *sweepInput) CltvExpiry() uint32              { return i.cltvExpiry }

// NewCommitmentNoDelayInput builds an Input for our immediately-spendable
// to_remote output on the counterparty's commitment.
func NewCommitmentNoDelayInput(op wire.OutPoint, signDesc *input.SignDescriptor) Input {
	return &sweepInput{
		outpoint:    op,
		witnessType: input.CommitmentNoDelay,
		signDesc:    signDesc,
	}
}

// NewCommitmentTimeLockInput builds an Input for our own to_local output,
// spendable once csvDelay confirmations have passed.
func NewCommitmentTimeLockInput(op wire.OutPoint, signDesc *input.SignDescriptor,
	csvDelay uint32) Input {

	return &sweepInput{
		outpoint:    op,
		witnessType: input.CommitmentTimeLock,
		signDesc:    signDesc,
		csvDelay:    csvDelay,
	}
}

// NewHtlcSecondLevelInput builds an Input for the CSV-delayed output of a
// second-stage HTLC-success or HTLC-timeout transaction we've already
// broadcast, offered (timeout) or accepted (success) per outgoing.
func NewHtlcSecondLevelInput(op wire.OutPoint, signDesc *input.SignDescriptor,
	csvDelay uint32, outgoing bool) Input {

	wt := input.HtlcAcceptedSuccessSecondLevel
	if outgoing {
		wt = input.HtlcOfferedTimeoutSecondLevel
	}

	return &sweepInput{
		outpoint:    op,
		witnessType: wt,
		signDesc:    signDesc,
		csvDelay:    csvDelay,
	}
}

// NewHtlcOfferedRemoteTimeoutInput builds an Input for an HTLC we offered on
// the remote party's commitment, timed out after its absolute CLTV expiry.
func NewHtlcOfferedRemoteTimeoutInput(op wire.OutPoint, signDesc *input.SignDescriptor,
	cltvExpiry uint32) Input {

	return &sweepInput{
		outpoint:    op,
		witnessType: input.HtlcOfferedRemoteTimeout,
		signDesc:    signDesc,
		cltvExpiry:  cltvExpiry,
	}
}

// NewHtlcAcceptedRemoteSuccessInput builds an Input for an HTLC the remote
// party offered us on their own commitment, redeemed with preimage.
func NewHtlcAcceptedRemoteSuccessInput(op wire.OutPoint, signDesc *input.SignDescriptor,
	preimage []byte) Input {

	return &sweepInput{
		outpoint:    op,
		witnessType: input.HtlcAcceptedRemoteSuccess,
		signDesc:    signDesc,
		preimage:    preimage,
	}
}

// NewAnchorInput builds an Input for one of a channel's two anchor outputs.
// local selects whether this is our own anchor (spendable immediately with
// our funding key) or the counterparty's (spendable by anyone, but only
// once it's matured past its 16-confirmation CSV window).
func NewAnchorInput(op wire.OutPoint, signDesc *input.SignDescriptor, local bool) Input {
	wt := input.AnchorAnyoneCanSpend
	csvDelay := uint32(16)
	if local {
		wt = input.AnchorLocal
		csvDelay = 0
	}

	return &sweepInput{
		outpoint:    op,
		witnessType: wt,
		signDesc:    signDesc,
		csvDelay:    csvDelay,
	}
}

// BuildWitness signs and assembles the witness stack for i, dispatching on
// WitnessType the same way the underlying output script expects its
// spending branch to be satisfied.
func (i *sweepInput) BuildWitness(signer input.Signer, tx *wire.MsgTx,
	hashCache *txscript.TxSigHashes, idx int) (wire.TxWitness, error) {

	signDesc := *i.signDesc
	signDesc.SigHashes = hashCache
	signDesc.InputIndex = idx

	switch i.witnessType {
	case input.CommitmentNoDelay:
		if signDesc.WitnessScript == nil {
			script, err := signer.ComputeInputScript(tx, &signDesc)
			if err != nil {
				return nil, err
			}
			return script.Witness, nil
		}

		sig, err := signer.SignOutputRaw(tx, &signDesc)
		if err != nil {
			return nil, err
		}
		return wire.TxWitness{sig, signDesc.WitnessScript}, nil

	case input.CommitmentTimeLock,
		input.HtlcOfferedTimeoutSecondLevel,
		input.HtlcAcceptedSuccessSecondLevel:

		tx.TxIn[idx].Sequence = input.LockTimeToSequence(i.csvDelay)

		sig, err := signer.SignOutputRaw(tx, &signDesc)
		if err != nil {
			return nil, err
		}
		return wire.TxWitness{sig, nil, signDesc.WitnessScript}, nil

	case input.HtlcOfferedRemoteTimeout:
		tx.TxIn[idx].Sequence = 0xfffffffe

		sig, err := signer.SignOutputRaw(tx, &signDesc)
		if err != nil {
			return nil, err
		}
		return wire.TxWitness{sig, nil, signDesc.WitnessScript}, nil

	case input.HtlcAcceptedRemoteSuccess:
		sig, err := signer.SignOutputRaw(tx, &signDesc)
		if err != nil {
			return nil, err
		}
		return wire.TxWitness{sig, i.preimage, signDesc.WitnessScript}, nil

	case input.AnchorLocal:
		sig, err := signer.SignOutputRaw(tx, &signDesc)
		if err != nil {
			return nil, err
		}
		return wire.TxWitness{sig, signDesc.WitnessScript}, nil

	case input.AnchorAnyoneCanSpend:
		tx.TxIn[idx].Sequence = input.LockTimeToSequence(16)
		return wire.TxWitness{[]byte{}, signDesc.WitnessScript}, nil
	}

	return nil, fmt.Errorf("unsupported witness type for sweep input: %v", i.witnessType)
}
