package contractcourt

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchancore/chancore/channeldb"
	"github.com/lnchancore/chancore/input"
	"github.com/lnchancore/chancore/lnwallet"
)

const (
	// MaxJusticeTxWeight is the standardness ceiling a single transaction
	// may occupy; a justice transaction with more punishable outputs than
	// fit under this weight must be split across several transactions.
	MaxJusticeTxWeight int64 = 400_000

	// justiceTxBaseWeight approximates a justice transaction's weight
	// before any penalized inputs are added: version, locktime, a single
	// sweep output, and segwit marker/flag overhead.
	justiceTxBaseWeight int64 = input.BaseCommitmentTxWeight

	// justiceTxWeightMargin leaves headroom under MaxJusticeTxWeight for
	// estimation error in per-input witness size.
	justiceTxWeightMargin int64 = 2_000

	// RevocationForgetDelay is how many confirmations past ANY classified
	// close of a channel -- mutual, local, or remote -- its stored
	// revocation secrets must still be retained for, in case a reorg
	// reinstates an older, still-breachable commitment. Secrets are never
	// discarded before this depth regardless of which close type was
	// observed.
	RevocationForgetDelay uint32 = 288
)

// SafeToForgetRevocations reports whether a channel's stored per-commitment
// secrets may be discarded, given the confirmation depth its closing
// transaction has reached. The justice path stays armed past a mutual close
// precisely because that close could itself be reorged out in favor of an
// old, breachable commitment.
func SafeToForgetRevocations(closeConfirmDepth uint32) bool {
	return closeConfirmDepth >= RevocationForgetDelay
}

// JusticeOutput is a single punishable output on a revoked commitment
// transaction: its outpoint, value, the witness script guarding it, and
// which revocation-branch witness shape satisfies that script.
type JusticeOutput struct {
	Outpoint      wire.OutPoint
	Amount        btcutil.Amount
	WitnessScript []byte
	WitnessType   input.WitnessType
}

// JusticeEngine recovers a revoked commitment's punishable outputs and
// assembles the penalty transaction(s) that sweep them, signing through a
// Signer so the revocation basepoint's private key never needs to be held
// directly by this package.
type JusticeEngine struct {
	Signer input.Signer
}

// NewJusticeEngine creates a JusticeEngine that signs through signer.
func NewJusticeEngine(signer input.Signer) *JusticeEngine {
	return &JusticeEngine{Signer: signer}
}

// BuildJusticeTxs recovers the revoked commitment at commitHeight and builds
// the penalty transaction(s) that sweep its to_local output (the breaching
// party's balance) and every non-dust HTLC output recorded in the
// revocation log, all via their revocation branch. The to_remote output and
// any anchor outputs are not included.
func (j *JusticeEngine) BuildJusticeTxs(chanState *channeldb.OpenChannel, commitHeight uint64,
	revokedCommitTxid chainhash.Hash, sweepPkScript []byte,
	feePerKw lnwallet.SatPerKWeight) ([]*wire.MsgTx, error) {

	secret, ok := chanState.RevocationStore.LookupSecret(commitHeight)
	if !ok {
		return nil, fmt.Errorf("no revocation secret stored for commit height %d", commitHeight)
	}
	commitSecret, commitPoint := btcec.PrivKeyFromBytes(secret[:])

	keyRing := lnwallet.DeriveCommitmentKeys(
		commitPoint, false, chanState.ChanType,
		&chanState.LocalChanCfg, &chanState.RemoteChanCfg,
	)

	entry, ok := chanState.RevocationLog[commitHeight]
	if !ok {
		return nil, fmt.Errorf("no revocation log entry for commit height %d", commitHeight)
	}

	outputs, err := buildJusticeOutputs(chanState, entry, keyRing, revokedCommitTxid)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, nil
	}

	batches := partitionJusticeOutputs(outputs)

	txs := make([]*wire.MsgTx, 0, len(batches))
	for _, batch := range batches {
		tx, err := j.buildBatchTx(chanState, keyRing, commitSecret, batch, sweepPkScript, feePerKw)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// buildJusticeOutputs reconstructs every punishable output a revoked
// commitment produced. CreateCommitTx always places to_local (when present)
// at output index 0, ahead of to_remote, any anchors, and the HTLCs -- so its
// index can be recovered without having retained the commitment transaction
// itself. Each HTLC's index was recorded in the channel's revocation log at
// the moment it was revoked.
func buildJusticeOutputs(chanState *channeldb.OpenChannel, entry channeldb.RevocationLogEntry,
	keyRing *lnwallet.CommitmentKeyRing, commitTxid chainhash.Hash) ([]JusticeOutput, error) {

	var outputs []JusticeOutput

	dustLimit := chanState.RemoteChanCfg.DustLimit
	toLocalAmt := entry.TheirBalance.ToSatoshis()
	if toLocalAmt >= dustLimit {
		toLocalScript, err := input.CommitScriptToSelf(
			uint32(chanState.RemoteChanCfg.CsvDelay), keyRing.DelayKey, keyRing.RevocationKey,
		)
		if err != nil {
			return nil, fmt.Errorf("unable to build to_local script: %w", err)
		}

		outputs = append(outputs, JusticeOutput{
			Outpoint:      wire.OutPoint{Hash: commitTxid, Index: 0},
			Amount:        toLocalAmt,
			WitnessScript: toLocalScript,
			WitnessType:   input.CommitmentRevoke,
		})
	}

	for _, htlc := range entry.Htlcs {
		if htlc.OutputIndex < 0 {
			continue
		}

		var (
			script []byte
			err    error
			wt     input.WitnessType
		)
		if htlc.Incoming {
			script, err = input.ReceivedHTLCScript(
				keyRing.RevocationKey, keyRing.RemoteHtlcKey, keyRing.LocalHtlcKey,
				htlc.RHash, htlc.RefundTimeout, chanState.ChanType.HasAnchors(),
			)
			wt = input.HtlcAcceptedRevoke
		} else {
			script, err = input.OfferedHTLCScript(
				keyRing.RevocationKey, keyRing.RemoteHtlcKey, keyRing.LocalHtlcKey,
				htlc.RHash, chanState.ChanType.HasAnchors(),
			)
			wt = input.HtlcOfferedRevoke
		}
		if err != nil {
			return nil, fmt.Errorf("unable to build htlc script: %w", err)
		}

		outputs = append(outputs, JusticeOutput{
			Outpoint:      wire.OutPoint{Hash: commitTxid, Index: uint32(htlc.OutputIndex)},
			Amount:        htlc.Amt.ToSatoshis(),
			WitnessScript: script,
			WitnessType:   wt,
		})
	}

	return outputs, nil
}

// justiceInputWeight estimates one penalized input's contribution to a
// transaction's weight: its non-witness bytes (counted 4x) plus its witness
// bytes (counted 1x), using the revocation-branch witness sizes from the
// input package.
func justiceInputWeight(wt input.WitnessType) int64 {
	var witnessSize int64
	switch wt {
	case input.CommitmentRevoke:
		witnessSize = input.ToLocalPenaltyWitnessSize
	case input.HtlcOfferedRevoke:
		witnessSize = input.OfferedHtlcPenaltyWitnessSize
	case input.HtlcAcceptedRevoke:
		witnessSize = input.AcceptedHtlcPenaltyWitnessSize
	}
	return int64(input.InputSize)*4 + witnessSize
}

// partitionJusticeOutputs greedily packs punishable outputs into batches
// that each stay under MaxJusticeTxWeight, splitting into a new transaction
// whenever the next output would push the running batch over the cap.
func partitionJusticeOutputs(outputs []JusticeOutput) [][]JusticeOutput {
	var batches [][]JusticeOutput

	var current []JusticeOutput
	currentWeight := justiceTxBaseWeight + justiceTxWeightMargin

	for _, out := range outputs {
		w := justiceInputWeight(out.WitnessType)
		if len(current) > 0 && currentWeight+w > MaxJusticeTxWeight {
			batches = append(batches, current)
			current = nil
			currentWeight = justiceTxBaseWeight + justiceTxWeightMargin
		}
		current = append(current, out)
		currentWeight += w
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

// buildBatchTx assembles and signs a single justice transaction sweeping
// every output in batch into one output paying sweepPkScript, at the given
// fee rate. nSequence is final and nLockTime is zero -- a justice
// transaction never needs to wait on anything once its witnesses are valid.
func (j *JusticeEngine) buildBatchTx(chanState *channeldb.OpenChannel, keyRing *lnwallet.CommitmentKeyRing,
	commitSecret *btcec.PrivateKey, batch []JusticeOutput, sweepPkScript []byte,
	feePerKw lnwallet.SatPerKWeight) (*wire.MsgTx, error) {

	tx := wire.NewMsgTx(2)
	tx.LockTime = 0

	var total btcutil.Amount
	for _, out := range batch {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: out.Outpoint,
			Sequence:         wire.MaxTxInSequenceNum,
		})
		total += out.Amount
	}
	tx.AddTxOut(&wire.TxOut{PkScript: sweepPkScript, Value: int64(total)})

	weight := justiceTxBaseWeight
	for _, out := range batch {
		weight += justiceInputWeight(out.WitnessType)
	}
	fee := feePerKw.FeeForWeight(weight)
	if fee >= total {
		return nil, fmt.Errorf("justice tx fee %v exceeds penalized value %v", fee, total)
	}
	tx.TxOut[0].Value = int64(total - fee)

	hashCache := txscript.NewTxSigHashes(tx)

	for i, out := range batch {
		signDesc := &input.SignDescriptor{
			KeyDesc:       chanState.LocalChanCfg.RevocationBasePoint,
			DoubleTweak:   commitSecret,
			WitnessScript: out.WitnessScript,
			Output:        &wire.TxOut{PkScript: nil, Value: int64(out.Amount)},
			HashType:      txscript.SigHashAll,
			SigHashes:     hashCache,
			InputIndex:    i,
		}

		sig, err := j.Signer.SignOutputRaw(tx, signDesc)
		if err != nil {
			return nil, fmt.Errorf("unable to sign justice input %d: %w", i, err)
		}

		switch out.WitnessType {
		case input.CommitmentRevoke:
			tx.TxIn[i].Witness = wire.TxWitness{sig, []byte{1}, out.WitnessScript}
		case input.HtlcOfferedRevoke, input.HtlcAcceptedRevoke:
			tx.TxIn[i].Witness = wire.TxWitness{
				sig, keyRing.RevocationKey.SerializeCompressed(), out.WitnessScript,
			}
		default:
			return nil, fmt.Errorf("unexpected witness type %v in justice tx", out.WitnessType)
		}
	}

	return tx, nil
}
