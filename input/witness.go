package input

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// SpendMultiSig completes the witness for a channel's 2-of-2 funding
// output, ordering the two signatures to match the key order
// GenFundingScript used when it built the redeem script.
func SpendMultiSig(fundingScript []byte, localPub *btcec.PublicKey, localSig []byte,
	remotePub *btcec.PublicKey, remoteSig []byte) wire.TxWitness {

	lp, rp := localPub.SerializeCompressed(), remotePub.SerializeCompressed()

	sig1, sig2 := localSig, remoteSig
	if bytes.Compare(lp, rp) == -1 {
		sig1, sig2 = remoteSig, localSig
	}

	return wire.TxWitness{nil, sig1, sig2, fundingScript}
}

func rawWitnessSig(sweepTx *wire.MsgTx, idx int, amt btcutil.Amount,
	script []byte, key *btcec.PrivateKey, hashType txscript.SigHashType) ([]byte, error) {

	hashCache := txscript.NewTxSigHashes(sweepTx)
	hash, err := txscript.CalcWitnessSigHash(script, hashCache, hashType, sweepTx, idx, int64(amt))
	if err != nil {
		return nil, err
	}
	sig := ecdsa.Sign(key, hash)
	return append(sig.Serialize(), byte(hashType)), nil
}

// SpendCommitToLocalRevoke spends the to_local output via the revocation
// branch, immediately, using the derived revocation private key.
func SpendCommitToLocalRevoke(toLocalScript []byte, amt btcutil.Amount,
	revocationKey *btcec.PrivateKey, sweepTx *wire.MsgTx) (wire.TxWitness, error) {

	sig, err := rawWitnessSig(sweepTx, 0, amt, toLocalScript, revocationKey, txscript.SigHashAll)
	if err != nil {
		return nil, err
	}

	return wire.TxWitness{sig, []byte{1}, toLocalScript}, nil
}

// SpendCommitToLocalDelay spends the to_local output via the CSV-delayed
// branch, after csvDelay confirmations, using selfKey.
func SpendCommitToLocalDelay(toLocalScript []byte, amt btcutil.Amount,
	selfKey *btcec.PrivateKey, sweepTx *wire.MsgTx, csvDelay uint32) (wire.TxWitness, error) {

	sweepTx.TxIn[0].Sequence = LockTimeToSequence(csvDelay)
	sweepTx.Version = 2

	sig, err := rawWitnessSig(sweepTx, 0, amt, toLocalScript, selfKey, txscript.SigHashAll)
	if err != nil {
		return nil, err
	}

	return wire.TxWitness{sig, nil, toLocalScript}, nil
}

// SpendOfferedHTLCRevoke spends an offered-HTLC output via the revocation
// branch, with the derived revocation private key.
func SpendOfferedHTLCRevoke(htlcScript []byte, amt btcutil.Amount,
	revocationKey *btcec.PrivateKey, sweepTx *wire.MsgTx) (wire.TxWitness, error) {

	sig, err := rawWitnessSig(sweepTx, 0, amt, htlcScript, revocationKey, txscript.SigHashAll)
	if err != nil {
		return nil, err
	}

	return wire.TxWitness{sig, revocationKey.PubKey().SerializeCompressed(), htlcScript}, nil
}

// SpendOfferedHTLCTimeout spends an offered-HTLC output after its CLTV
// expiry, returning the funds to the offerer.
func SpendOfferedHTLCTimeout(htlcScript []byte, amt btcutil.Amount,
	senderKey *btcec.PrivateKey, sweepTx *wire.MsgTx, cltvExpiry uint32) (wire.TxWitness, error) {

	sweepTx.LockTime = cltvExpiry
	sweepTx.TxIn[0].Sequence = 0xfffffffe
	sweepTx.Version = 2

	sig, err := rawWitnessSig(sweepTx, 0, amt, htlcScript, senderKey, txscript.SigHashAll)
	if err != nil {
		return nil, err
	}

	return wire.TxWitness{sig, nil, htlcScript}, nil
}

// SpendReceivedHTLCSuccess spends a received-HTLC output with the payment
// preimage, producing a second-stage HTLC-success transaction.
func SpendReceivedHTLCSuccess(htlcScript []byte, amt btcutil.Amount,
	receiverKey *btcec.PrivateKey, sweepTx *wire.MsgTx, preimage []byte) (wire.TxWitness, error) {

	sig, err := rawWitnessSig(sweepTx, 0, amt, htlcScript, receiverKey, txscript.SigHashAll)
	if err != nil {
		return nil, err
	}

	return wire.TxWitness{sig, preimage, htlcScript}, nil
}

// SpendReceivedHTLCRevoke spends a received-HTLC output via the revocation
// branch, with the derived revocation private key.
func SpendReceivedHTLCRevoke(htlcScript []byte, amt btcutil.Amount,
	revocationKey *btcec.PrivateKey, sweepTx *wire.MsgTx) (wire.TxWitness, error) {

	sig, err := rawWitnessSig(sweepTx, 0, amt, htlcScript, revocationKey, txscript.SigHashAll)
	if err != nil {
		return nil, err
	}

	return wire.TxWitness{sig, revocationKey.PubKey().SerializeCompressed(), htlcScript}, nil
}

// SpendSecondLevelHTLC spends a second-stage HTLC-success/timeout output
// via its CSV-delayed branch, paying into the wallet.
func SpendSecondLevelHTLC(script []byte, amt btcutil.Amount, delayedKey *btcec.PrivateKey,
	sweepTx *wire.MsgTx, csvDelay uint32) (wire.TxWitness, error) {

	return SpendCommitToLocalDelay(script, amt, delayedKey, sweepTx, csvDelay)
}

// LockTimeToSequence converts a relative block delay into a BIP-68
// sequence number.
func LockTimeToSequence(blocks uint32) uint32 {
	const sequenceLockTimeMask = 0x0000ffff
	return sequenceLockTimeMask & blocks
}
