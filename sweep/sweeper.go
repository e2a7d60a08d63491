// Package sweep turns a set of spendable-but-not-yet-swept outputs -- a
// matured to_local balance, a confirmed second-stage HTLC transaction, an
// anchor needing CPFP -- into signed transactions that return the funds to
// the wallet.
package sweep

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"

	"github.com/lnchancore/chancore/input"
	"github.com/lnchancore/chancore/lnwallet"
)

// DefaultMaxInputsPerTx bounds how many inputs a single sweep transaction
// batches together, so a sweep with many small outputs doesn't grow into a
// transaction large enough to risk non-standardness.
var DefaultMaxInputsPerTx = 100

// AnchorEconomicMultiple is the largest ratio of the fee a CPFP anchor
// spend would need to pay to the anchor's own value at which
// IsAnchorSweepEconomical still reports the spend as worth broadcasting.
// Anchors are tiny (330 sat); above this ratio the anchor would do nothing
// but overpay for confirmation.
const AnchorEconomicMultiple = 10

// inputSet is a collection of inputs sized to become a single transaction.
type inputSet []Input

// Planner partitions a pool of spendable inputs into fee-sensible sweep
// transactions and finalizes each one's witnesses.
type Planner struct {
	Signer input.Signer
}

// NewPlanner creates a Planner that signs sweep transactions through signer.
func NewPlanner(signer input.Signer) *Planner {
	return &Planner{Signer: signer}
}

// PlanSweeps partitions sweepableInputs into one or more input sets, each
// sized to produce a transaction with positive yield after fees, in
// descending order of value. relayFeePerKW floors the output value below
// which a set is rejected as uneconomical to relay.
func PlanSweeps(sweepableInputs []Input, relayFeePerKW,
	feePerKW lnwallet.SatPerKWeight) ([]inputSet, error) {

	dustLimit := txrules.GetDustThreshold(
		input.P2WKHSize, btcutil.Amount(relayFeePerKW.FeePerKVByte()),
	)

	yields := make(map[wire.OutPoint]int64)
	for _, in := range sweepableInputs {
		size, err := witnessSizeUpperBound(in)
		if err != nil {
			return nil, fmt.Errorf("failed adding input weight: %w", err)
		}

		yields[*in.OutPoint()] = in.SignDesc().Output.Value -
			int64(feePerKW.FeeForWeight(int64(size)))
	}

	sort.Slice(sweepableInputs, func(i, j int) bool {
		return yields[*sweepableInputs[i].OutPoint()] >
			yields[*sweepableInputs[j].OutPoint()]
	})

	var sets []inputSet
	for len(sweepableInputs) > 0 {
		count, outputValue := positiveYieldInputs(
			sweepableInputs, DefaultMaxInputsPerTx, feePerKW,
		)
		if count == 0 {
			return sets, nil
		}

		if outputValue < dustLimit {
			log.Debugf("Set value %v below dust limit of %v", outputValue, dustLimit)
			return sets, nil
		}

		log.Infof("Candidate sweep set of size=%v, has yield=%v", count, outputValue)

		sets = append(sets, sweepableInputs[:count])
		sweepableInputs = sweepableInputs[count:]
	}

	return sets, nil
}

// positiveYieldInputs returns the largest prefix of sweepableInputs whose
// combined output value, net of fees, keeps increasing as each input is
// added, along with that prefix's net output value.
func positiveYieldInputs(sweepableInputs []Input, maxInputs int,
	feePerKW lnwallet.SatPerKWeight) (int, btcutil.Amount) {

	var we lnwallet.TxWeightEstimator
	we.AddP2WKHOutput()

	var total, outputValue btcutil.Amount
	for idx, in := range sweepableInputs {
		size, _ := witnessSizeUpperBound(in)
		we.AddWitnessInput(size)

		newTotal := total + btcutil.Amount(in.SignDesc().Output.Value)
		fee := feePerKW.FeeForWeight(int64(we.Weight()))
		newOutputValue := newTotal - fee

		if newOutputValue <= outputValue {
			return idx, outputValue
		}

		total = newTotal
		outputValue = newOutputValue

		if idx == maxInputs-1 {
			return maxInputs, outputValue
		}
	}

	return len(sweepableInputs), outputValue
}

// CreateSweepTx builds and finalizes a transaction spending inputs to a
// single P2WKH output controlled by outputPkScript, at feePerKw.
// currentBlockHeight is used as the transaction's nLockTime floor so any
// CLTV-gated input among inputs is satisfied; it's raised further if an
// input demands a higher absolute expiry.
func (p *Planner) CreateSweepTx(inputs []Input, outputPkScript []byte,
	currentBlockHeight uint32, feePerKw lnwallet.SatPerKWeight) (*wire.MsgTx, error) {

	inputs, txWeight := weightEstimate(inputs)
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no sweepable inputs with a known witness size")
	}

	txFee := feePerKw.FeeForWeight(txWeight)

	log.Infof("Creating sweep transaction for %v inputs using %v sat/kw",
		len(inputs), int64(feePerKw))

	var totalSum btcutil.Amount
	lockTime := currentBlockHeight
	for _, in := range inputs {
		totalSum += btcutil.Amount(in.SignDesc().Output.Value)
		if expiry := in.CltvExpiry(); expiry > lockTime {
			lockTime = expiry
		}
	}

	sweepAmt := int64(totalSum - txFee)
	if sweepAmt <= 0 {
		return nil, fmt.Errorf("sweep set value %v too small to cover fee %v",
			totalSum, txFee)
	}

	sweepTx := wire.NewMsgTx(2)
	sweepTx.AddTxOut(&wire.TxOut{PkScript: outputPkScript, Value: sweepAmt})
	sweepTx.LockTime = lockTime

	for _, in := range inputs {
		sweepTx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: *in.OutPoint(),
			Sequence:         wire.MaxTxInSequenceNum - 1,
		})
	}

	btx := btcutil.NewTx(sweepTx)
	if err := blockchain.CheckTransactionSanity(btx); err != nil {
		return nil, err
	}

	hashCache := txscript.NewTxSigHashes(sweepTx)

	for i, in := range inputs {
		witness, err := in.BuildWitness(p.Signer, sweepTx, hashCache, i)
		if err != nil {
			return nil, fmt.Errorf("unable to build witness for input %d: %w", i, err)
		}
		sweepTx.TxIn[i].Witness = witness
	}

	return sweepTx, nil
}

// witnessSizeUpperBound returns the maximum witness length an input of this
// WitnessType could produce, used to budget fees before the actual
// signature (and therefore exact size) is known.
func witnessSizeUpperBound(in Input) (int, error) {
	switch in.WitnessType() {
	case input.CommitmentNoDelay:
		return input.P2WKHWitnessSize, nil
	case input.CommitmentTimeLock,
		input.HtlcOfferedTimeoutSecondLevel,
		input.HtlcAcceptedSuccessSecondLevel:
		return input.ToLocalTimeoutWitnessSize, nil
	case input.HtlcOfferedRemoteTimeout:
		return input.AcceptedHtlcTimeoutWitnessSize, nil
	case input.HtlcAcceptedRemoteSuccess:
		return input.OfferedHtlcSuccessWitnessSize, nil
	case input.AnchorLocal, input.AnchorAnyoneCanSpend:
		return 1 + 1 + 73 + 1 + 1, nil
	}

	return 0, fmt.Errorf("unexpected witness type: %v", in.WitnessType())
}

// weightEstimate returns the subset of inputs with a known witness size,
// along with the resulting transaction's estimated total weight.
func weightEstimate(inputs []Input) ([]Input, int64) {
	var we lnwallet.TxWeightEstimator
	we.AddP2WKHOutput()

	var sweepInputs []Input
	for _, in := range inputs {
		size, err := witnessSizeUpperBound(in)
		if err != nil {
			continue
		}
		we.AddWitnessInput(size)
		sweepInputs = append(sweepInputs, in)
	}

	return sweepInputs, int64(we.Weight())
}

// IsAnchorSweepEconomical reports whether spending an anchor to CPFP a
// stuck commitment is worth it: the fee the anchor-spend transaction would
// pay must not exceed AnchorEconomicMultiple times the anchor's own value,
// or the anchor is cheaper to abandon than to spend.
func IsAnchorSweepEconomical(anchorValue btcutil.Amount, requiredFee btcutil.Amount) bool {
	return requiredFee <= btcutil.Amount(AnchorEconomicMultiple)*anchorValue
}

// CpfpTargetFeeRate computes the fee rate a CPFP anchor transaction must
// pay, given the parent commitment transaction's own weight and fee, so
// that parent+child together reach targetFeePerKw.
func CpfpTargetFeeRate(parentWeight int64, parentFee btcutil.Amount,
	childWeight int64, targetFeePerKw lnwallet.SatPerKWeight) lnwallet.SatPerKWeight {

	totalWeight := parentWeight + childWeight
	targetTotalFee := targetFeePerKw.FeeForWeight(totalWeight)

	childFee := targetTotalFee - parentFee
	if childFee <= 0 {
		return 0
	}

	return lnwallet.SatPerKWeight(int64(childFee) * 1000 / childWeight)
}
