package input

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchancore/chancore/keychain"
)

// SignDescriptor uniquely describes an output being spent: the script it
// carries, the key needed to satisfy it, and the sighash flags the
// resulting signature should use. The channel core builds one of these
// per output it needs signed and hands it to a Signer -- the channel
// private keys themselves never need to be in scope of the code building
// the descriptor.
type SignDescriptor struct {
	// KeyDesc identifies which key the signature must be produced under.
	KeyDesc keychain.KeyDescriptor

	// SingleTweak, if non-nil, is added to the derived private key
	// before signing -- used for the per-commitment-point-tweaked
	// payment and delayed-payment basepoints BOLT-3 specifies.
	SingleTweak []byte

	// DoubleTweak, if non-nil, is the per-commitment secret used to
	// derive the revocation private key before signing.
	DoubleTweak *btcec.PrivateKey

	// WitnessScript is the script being satisfied -- the redeem script
	// for a P2WSH output.
	WitnessScript []byte

	// Output is the transaction output being spent.
	Output *wire.TxOut

	// HashType is the sighash flag to apply.
	HashType txscript.SigHashType

	// SigHashes caches the BIP-143 sighash midstate across inputs of the
	// same transaction.
	SigHashes *txscript.TxSigHashes

	// InputIndex is the index, within the spending transaction, of the
	// input being signed.
	InputIndex int
}

// InputScript is the computed witness (and optional legacy sigScript) that
// satisfies a SignDescriptor.
type InputScript struct {
	Witness   wire.TxWitness
	SigScript []byte
}

// WitnessType identifies the specific spend path a sweepable output
// requires, which in turn determines the witness stack shape and weight a
// sweep needs to budget for.
type WitnessType uint16

const (
	// CommitmentNoDelay spends our own to_remote output on the remote
	// party's commitment transaction -- immediately spendable, no delay.
	CommitmentNoDelay WitnessType = iota

	// CommitmentTimeLock spends our own to_local output, after its CSV
	// delay has matured.
	CommitmentTimeLock

	// CommitmentRevoke spends a breached to_local output immediately,
	// via the derived revocation key.
	CommitmentRevoke

	// HtlcOfferedRevoke spends an offered HTLC output on a breached
	// commitment, via the derived revocation key.
	HtlcOfferedRevoke

	// HtlcAcceptedRevoke spends a received HTLC output on a breached
	// commitment, via the derived revocation key.
	HtlcAcceptedRevoke

	// HtlcOfferedRemoteTimeout spends an offered HTLC on the remote
	// party's commitment after its absolute CLTV expiry.
	HtlcOfferedRemoteTimeout

	// HtlcAcceptedRemoteSuccess spends a received HTLC on the remote
	// party's commitment with the payment preimage.
	HtlcAcceptedRemoteSuccess

	// HtlcOfferedTimeoutSecondLevel spends the CSV-delayed output of an
	// HTLC-timeout transaction we broadcast ourselves.
	HtlcOfferedTimeoutSecondLevel

	// HtlcAcceptedSuccessSecondLevel spends the CSV-delayed output of an
	// HTLC-success transaction we broadcast ourselves.
	HtlcAcceptedSuccessSecondLevel

	// AnchorAnyoneCanSpend spends an anchor output that's matured past
	// its 16-confirmation anyone-can-spend window.
	AnchorAnyoneCanSpend

	// AnchorLocal spends our own anchor output, immediately, with our
	// funding key.
	AnchorLocal
)

// Signer is the capability a channel needs to produce signatures over its
// own outputs without ever holding the underlying private keys itself. A
// concrete implementation resolves a SignDescriptor's KeyDesc (and any
// tweak) against whatever holds the channel's basepoint secrets.
type Signer interface {
	// SignOutputRaw signs the indicated input of tx according to the
	// populated SignDescriptor, returning a DER signature with the
	// sighash byte appended.
	SignOutputRaw(tx *wire.MsgTx, signDesc *SignDescriptor) ([]byte, error)

	// ComputeInputScript derives the full witness (or sigScript) needed
	// to finalize the indicated input; used for script types simple
	// enough not to require external cooperation, e.g. wallet-owned
	// P2WKH inputs funding a transaction.
	ComputeInputScript(tx *wire.MsgTx, signDesc *SignDescriptor) (*InputScript, error)
}
