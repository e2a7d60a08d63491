package lnwallet

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchancore/chancore/channeldb"
	"github.com/lnchancore/chancore/input"
	"github.com/lnchancore/chancore/lnwire"
)

// htlcTimeoutFee returns the fee, in satoshis, a second-stage HTLC-timeout
// transaction must pay at the given fee rate.
func htlcTimeoutFee(feePerKw SatPerKWeight) btcutil.Amount {
	return feePerKw.FeeForWeight(input.HtlcTimeoutWeight)
}

// htlcSuccessFee returns the fee, in satoshis, a second-stage HTLC-success
// transaction must pay at the given fee rate.
func htlcSuccessFee(feePerKw SatPerKWeight) btcutil.Amount {
	return feePerKw.FeeForWeight(input.HtlcSuccessWeight)
}

// Commitment is one fully-populated version of a commitment transaction --
// balances, the HTLCs it carries, its fee, and (once signed) the
// transaction itself. Commitments are chained: each new proposal supersedes
// the prior tip of its chain once the prior tip's revocation is sent.
type Commitment struct {
	Height uint64

	OurBalance   lnwire.MilliSatoshi
	TheirBalance lnwire.MilliSatoshi

	OurMessageIndex   uint64
	OurHtlcIndex      uint64
	TheirMessageIndex uint64
	TheirHtlcIndex    uint64

	FeePerKw SatPerKWeight
	Fee      btcutil.Amount

	DustLimit btcutil.Amount

	// IsOurs is true if this commitment is the local party's own
	// broadcastable commitment (as opposed to the mirror copy used to
	// validate what the remote party can broadcast).
	IsOurs bool

	OutgoingHTLCs []PaymentDescriptor
	IncomingHTLCs []PaymentDescriptor

	Txn      *wire.MsgTx
	Sig      []byte
	HtlcSigs [][]byte
}

// ObscuringFactor computes the lower 48 bits of
// sha256(openerPaymentBasepoint || accepterPaymentBasepoint), the BOLT-3
// mask that hides a channel's commitment number inside its nLockTime and
// nSequence fields so an outside observer can't tell how many updates a
// channel has been through.
func ObscuringFactor(initiator bool, localPayBase, remotePayBase *btcec.PublicKey) uint64 {
	var openerKey, accepterKey *btcec.PublicKey
	if initiator {
		openerKey, accepterKey = localPayBase, remotePayBase
	} else {
		openerKey, accepterKey = remotePayBase, localPayBase
	}

	h := sha256.New()
	h.Write(openerKey.SerializeCompressed())
	h.Write(accepterKey.SerializeCompressed())
	sum := h.Sum(nil)

	return binary.BigEndian.Uint64(sum[24:32]) & 0xFFFFFFFFFFFF
}

// CommitmentLockTimeSequence computes the obscured nLockTime and nSequence
// a commitment transaction at the given commitment height must carry, per
// BOLT-3: nLockTime = 0x20000000 | (height & 0xFFFFFF), nSequence =
// 0x80000000 | (height >> 24), both XORed against the channel's obscuring
// factor before the masks are applied.
func CommitmentLockTimeSequence(obscureFactor uint64, commitHeight uint64) (uint32, uint32) {
	obscured := commitHeight ^ obscureFactor

	lockTime := uint32(0x20000000 | (obscured & 0xFFFFFF))
	sequence := uint32(0x80000000 | (obscured >> 24 & 0xFFFFFF))

	return lockTime, sequence
}

// IsObscuredCommitment reports whether a transaction's nLockTime/nSequence
// carry the BOLT-3 commitment-number masks at all -- i.e. whether it's
// plausibly a commitment transaction rather than some other spend of the
// funding outpoint (such as a mutual close, which uses nLockTime 0 and a
// final nSequence).
func IsObscuredCommitment(lockTime, sequence uint32) bool {
	return lockTime>>24 == 0x20 && sequence>>24 == 0x80
}

// RecoverCommitHeight undoes CommitmentLockTimeSequence's masking, given the
// channel's obscuring factor and an observed transaction's nLockTime and
// nSequence, to recover the commitment height it was built at.
func RecoverCommitHeight(obscureFactor uint64, lockTime, sequence uint32) uint64 {
	low24 := uint64(lockTime) & 0xFFFFFF
	high24 := uint64(sequence) & 0xFFFFFF

	obscured := (high24 << 24) | low24
	return obscured ^ obscureFactor
}

// htlcOutput pairs a constructed commitment-transaction output with the
// PaymentDescriptor it came from, so outputs can be sorted and then have
// their resulting index written back onto the descriptor.
type htlcOutput struct {
	pd       *PaymentDescriptor
	txOut    *wire.TxOut
	cltv     uint32
	incoming bool
}

// CreateCommitTx builds the unsigned commitment transaction for one side of
// the channel at a given height, with the obscured locktime and sequence
// applied to the funding input. Outputs are added in a fixed order:
// to_local and to_remote (each only if at or above the dust limit), then the
// local and remote anchors, then the given HTLC outputs sorted among
// themselves by sortHTLCOutputs. The to_local, to_remote and anchor outputs
// are not sorted by value or script.
func CreateCommitTx(fundingInput wire.TxIn, keyRing *CommitmentKeyRing,
	chanType channeldb.ChannelType, isOurs bool, csvTimeout uint32,
	amountToSelf, amountToThem btcutil.Amount, dustLimit btcutil.Amount,
	htlcs []htlcOutput, obscureFactor uint64, commitHeight uint64,
	fundingKeySelf *btcec.PublicKey, fundingKeyRemote *btcec.PublicKey) (*wire.MsgTx, error) {

	lockTime, sequence := CommitmentLockTimeSequence(obscureFactor, commitHeight)

	commitTx := wire.NewMsgTx(2)
	fundingInput.Sequence = sequence
	commitTx.AddTxIn(&fundingInput)
	commitTx.LockTime = lockTime

	if amountToSelf >= dustLimit {
		toLocalScript, err := input.CommitScriptToSelf(
			csvTimeout, keyRing.DelayKey, keyRing.RevocationKey,
		)
		if err != nil {
			return nil, err
		}
		toLocalPkScript, err := input.WitnessScriptHash(toLocalScript)
		if err != nil {
			return nil, err
		}
		commitTx.AddTxOut(&wire.TxOut{
			PkScript: toLocalPkScript,
			Value:    int64(amountToSelf),
		})
	}

	if amountToThem >= dustLimit {
		var (
			toRemotePkScript []byte
			err              error
		)
		if chanType.HasAnchors() {
			toRemoteScript, serr := input.CommitScriptToRemoteConfirmed(keyRing.NoDelayKey)
			if serr != nil {
				return nil, serr
			}
			toRemotePkScript, err = input.WitnessScriptHash(toRemoteScript)
		} else {
			toRemotePkScript, err = input.CommitScriptUnencumbered(keyRing.NoDelayKey)
		}
		if err != nil {
			return nil, err
		}
		commitTx.AddTxOut(&wire.TxOut{
			PkScript: toRemotePkScript,
			Value:    int64(amountToThem),
		})
	}

	if chanType.HasAnchors() && (amountToSelf > 0 || len(htlcs) > 0) {
		localAnchor, err := input.AnchorScript(fundingKeySelf)
		if err != nil {
			return nil, err
		}
		localAnchorScript, err := input.WitnessScriptHash(localAnchor)
		if err != nil {
			return nil, err
		}
		commitTx.AddTxOut(&wire.TxOut{PkScript: localAnchorScript, Value: input.AnchorSize})
	}
	if chanType.HasAnchors() && (amountToThem > 0 || len(htlcs) > 0) {
		remoteAnchor, err := input.AnchorScript(fundingKeyRemote)
		if err != nil {
			return nil, err
		}
		remoteAnchorScript, err := input.WitnessScriptHash(remoteAnchor)
		if err != nil {
			return nil, err
		}
		commitTx.AddTxOut(&wire.TxOut{PkScript: remoteAnchorScript, Value: input.AnchorSize})
	}

	sortHTLCOutputs(htlcs)
	for _, h := range htlcs {
		commitTx.AddTxOut(h.txOut)
	}

	return commitTx, nil
}

// sortHTLCOutputs orders HTLC outputs by BIP-69 (value, then pkScript) with
// CLTV expiry breaking ties among equal-value, equal-script HTLCs -- the
// deterministic tie-break BOLT-3 requires so both parties independently
// construct byte-identical commitment transactions from the same state.
func sortHTLCOutputs(htlcs []htlcOutput) {
	sort.SliceStable(htlcs, func(i, j int) bool {
		a, b := htlcs[i], htlcs[j]

		if a.txOut.Value != b.txOut.Value {
			return a.txOut.Value < b.txOut.Value
		}

		cmp := compareBytes(a.txOut.PkScript, b.txOut.PkScript)
		if cmp != 0 {
			return cmp < 0
		}

		return a.cltv < b.cltv
	})
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

// CreateCooperativeCloseTx builds the mutual-close transaction: the funding
// input spent directly to each side's closing script, in value order, with
// no commitment-style delay or revocation branch since both parties sign
// cooperatively.
func CreateCooperativeCloseTx(fundingInput wire.TxIn, ourDust, theirDust btcutil.Amount,
	ourBalance, theirBalance btcutil.Amount, ourScript, theirScript []byte) *wire.MsgTx {

	closeTx := wire.NewMsgTx(2)
	closeTx.AddTxIn(&fundingInput)

	if ourBalance >= ourDust {
		closeTx.AddTxOut(&wire.TxOut{PkScript: ourScript, Value: int64(ourBalance)})
	}
	if theirBalance >= theirDust {
		closeTx.AddTxOut(&wire.TxOut{PkScript: theirScript, Value: int64(theirBalance)})
	}

	txsort(closeTx)

	return closeTx
}

// txsort orders a closing transaction's outputs by BIP-69 (value, then
// pkScript) so both parties independently build the identical transaction
// a single pair of signatures can finalize.
func txsort(tx *wire.MsgTx) {
	sort.SliceStable(tx.TxOut, func(i, j int) bool {
		a, b := tx.TxOut[i], tx.TxOut[j]
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		return compareBytes(a.PkScript, b.PkScript) < 0
	})
}

// BuildHTLCOutput constructs the commitment-transaction output and witness
// script for a single HTLC, from the point of view of whichever commitment
// (isOurCommit) it will appear on.
func BuildHTLCOutput(pd *PaymentDescriptor, incoming, isOurCommit bool,
	keyRing *CommitmentKeyRing, chanType channeldb.ChannelType) (htlcOutput, error) {

	var (
		script []byte
		err    error
	)

	if incoming {
		script, err = input.ReceivedHTLCScript(
			keyRing.RevocationKey, keyRing.RemoteHtlcKey, keyRing.LocalHtlcKey,
			pd.RHash, pd.Timeout, chanType.HasAnchors(),
		)
	} else {
		script, err = input.OfferedHTLCScript(
			keyRing.RevocationKey, keyRing.RemoteHtlcKey, keyRing.LocalHtlcKey,
			pd.RHash, chanType.HasAnchors(),
		)
	}
	if err != nil {
		return htlcOutput{}, fmt.Errorf("unable to build htlc script: %w", err)
	}

	pkScript, err := input.WitnessScriptHash(script)
	if err != nil {
		return htlcOutput{}, err
	}

	return htlcOutput{
		pd: pd,
		txOut: &wire.TxOut{
			PkScript: pkScript,
			Value:    int64(pd.Amount.ToSatoshis()),
		},
		cltv:     pd.Timeout,
		incoming: incoming,
	}, nil
}
