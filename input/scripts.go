// Package input builds the BOLT-3 witness scripts and witnesses a channel's
// commitment, HTLC, and anchor outputs require, along with the key-derivation
// math the revocation scheme depends on. It has no notion of a channel's
// state machine -- it's pure script/crypto plumbing other packages call into.
package input

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// WitnessScriptHash wraps a redeem script in a P2WSH output script.
func WitnessScriptHash(redeemScript []byte) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_0)
	scriptHash := sha256.Sum256(redeemScript)
	bldr.AddData(scriptHash[:])
	return bldr.Script()
}

// GenFundingScript builds the 2-of-2 funding redeem script for a channel's
// multisig output, sorting the two keys per BIP-69 so both sides derive an
// identical script independent of negotiation order.
func GenFundingScript(aPub, bPub *btcec.PublicKey) ([]byte, error) {
	a, b := aPub.SerializeCompressed(), bPub.SerializeCompressed()
	if bytes.Compare(a, b) == -1 {
		a, b = b, a
	}

	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_2)
	bldr.AddData(a)
	bldr.AddData(b)
	bldr.AddOp(txscript.OP_2)
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	return bldr.Script()
}

// FundingOutput builds the redeem script and P2WSH TxOut for the funding
// transaction's channel output.
func FundingOutput(aPub, bPub *btcec.PublicKey, amt int64) ([]byte, *wire.TxOut, error) {
	if amt <= 0 {
		return nil, nil, fmt.Errorf("funding amount must be positive, got %d", amt)
	}

	redeemScript, err := GenFundingScript(aPub, bPub)
	if err != nil {
		return nil, nil, err
	}

	pkScript, err := WitnessScriptHash(redeemScript)
	if err != nil {
		return nil, nil, err
	}

	return redeemScript, wire.NewTxOut(amt, pkScript), nil
}

// CommitScriptToSelf builds the to_local output script: an immediate spend
// with the revocation key, or a selfKey spend after a csvTimeout relative
// delay. Spending the csv branch requires the broadcaster's own signature,
// so only the party who does NOT own the commitment can use the revocation
// branch -- and only once the per-commitment secret has been revealed.
//
//	OP_IF
//	    <revocationKey> OP_CHECKSIG
//	OP_ELSE
//	    <csvTimeout> OP_CHECKSEQUENCEVERIFY OP_DROP
//	    <selfKey> OP_CHECKSIG
//	OP_ENDIF
func CommitScriptToSelf(csvTimeout uint32, selfKey, revocationKey *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_IF)
	builder.AddData(revocationKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddInt64(int64(csvTimeout))
	builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddData(selfKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// CommitScriptUnencumbered builds the legacy (pre-anchor) to_remote output
// script: a plain P2WPKH payable immediately, with no contestation period.
func CommitScriptUnencumbered(key *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_0)
	builder.AddData(btcutil.Hash160(key.SerializeCompressed()))
	return builder.Script()
}

// CommitScriptToRemoteConfirmed builds the anchor-commitment to_remote
// output script, which requires a one-block relative delay before it can be
// spent -- closing the "immediately re-spendable" malleability gap anchor
// commitments otherwise open up.
//
//	<remoteKey> OP_CHECKSIGVERIFY 1 OP_CHECKSEQUENCEVERIFY
func CommitScriptToRemoteConfirmed(remoteKey *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddData(remoteKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIGVERIFY)
	builder.AddOp(txscript.OP_1)
	builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	return builder.Script()
}

// AnchorScript builds an anchor output script: spendable immediately by the
// funding key that owns it, or by anyone after 16 confirmations (so anchors
// too small to be worth sweeping don't permanently clutter the UTXO set).
//
//	<fundingKey> OP_CHECKSIG OP_IFDUP
//	OP_NOTIF
//	    OP_16 OP_CHECKSEQUENCEVERIFY
//	OP_ENDIF
func AnchorScript(fundingKey *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddData(fundingKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_IFDUP)
	builder.AddOp(txscript.OP_NOTIF)
	builder.AddInt64(16)
	builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	builder.AddOp(txscript.OP_ENDIF)
	return builder.Script()
}

// OfferedHTLCScript builds the output script for an HTLC the local
// commitment owner offered to its peer. It's spendable by the receiver with
// the payment preimage, by the receiver immediately with the revocation
// preimage (breach), or by the offerer after the absolute CLTV expiry.
func OfferedHTLCScript(revocationKey, remoteHtlcKey, localHtlcKey *btcec.PublicKey,
	paymentHash [32]byte, hasAnchors bool) ([]byte, error) {

	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_DUP)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(btcutil.Hash160(revocationKey.SerializeCompressed()))
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ELSE)

	builder.AddData(remoteHtlcKey.SerializeCompressed())
	builder.AddOp(txscript.OP_SWAP)
	builder.AddOp(txscript.OP_SIZE)
	builder.AddInt64(32)
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_NOTIF)

	builder.AddOp(txscript.OP_DROP)
	builder.AddInt64(2)
	builder.AddOp(txscript.OP_SWAP)
	builder.AddData(localHtlcKey.SerializeCompressed())
	builder.AddInt64(2)
	builder.AddOp(txscript.OP_CHECKMULTISIG)

	builder.AddOp(txscript.OP_ELSE)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(btcutil.Hash160(paymentHash[:]))
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ENDIF)

	if hasAnchors {
		builder.AddOp(txscript.OP_1)
		builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
		builder.AddOp(txscript.OP_DROP)
	}

	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// ReceivedHTLCScript builds the output script for an HTLC offered to the
// local commitment owner by its peer. It's spendable by the owner with the
// payment preimage after the relative htlc-minimum delay (anchors) and
// before the CLTV expiry, by the peer immediately with the revocation
// preimage (breach), or by the peer after the absolute CLTV expiry.
func ReceivedHTLCScript(revocationKey, remoteHtlcKey, localHtlcKey *btcec.PublicKey,
	paymentHash [32]byte, cltvExpiry uint32, hasAnchors bool) ([]byte, error) {

	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_DUP)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(btcutil.Hash160(revocationKey.SerializeCompressed()))
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ELSE)

	builder.AddData(remoteHtlcKey.SerializeCompressed())
	builder.AddOp(txscript.OP_SWAP)
	builder.AddOp(txscript.OP_SIZE)
	builder.AddInt64(32)
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_IF)

	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(btcutil.Hash160(paymentHash[:]))
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddInt64(2)
	builder.AddOp(txscript.OP_SWAP)
	builder.AddData(localHtlcKey.SerializeCompressed())
	builder.AddInt64(2)
	builder.AddOp(txscript.OP_CHECKMULTISIG)

	builder.AddOp(txscript.OP_ELSE)
	builder.AddOp(txscript.OP_DROP)
	builder.AddInt64(int64(cltvExpiry))
	builder.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ENDIF)

	if hasAnchors {
		builder.AddOp(txscript.OP_1)
		builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
		builder.AddOp(txscript.OP_DROP)
	}

	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// SecondLevelHTLCScript builds the output script of a second-stage HTLC
// transaction (HTLC-success or HTLC-timeout), which pays either party's
// delayed_payment key after a CSV delay, or the revocation key immediately
// in a breach.
func SecondLevelHTLCScript(revocationKey, delayedKey *btcec.PublicKey, csvDelay uint32) ([]byte, error) {
	return CommitScriptToSelf(csvDelay, delayedKey, revocationKey)
}
