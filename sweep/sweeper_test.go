package sweep

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"

	"github.com/lnchancore/chancore/input"
	"github.com/lnchancore/chancore/lnwallet"
)

// fakeInput is a bare Input satisfying the minimum the planner needs:
// outpoint, witness type, and the output value carried in its sign
// descriptor. BuildWitness is never exercised by the planning tests below.
type fakeInput struct {
	op     wire.OutPoint
	wt     input.WitnessType
	amount int64
}

func (f *fakeInput) OutPoint() *wire.OutPoint { return &f.op }
func (f *fakeInput) SignDesc() *input.SignDescriptor {
	return &input.SignDescriptor{Output: &wire.TxOut{Value: f.amount}}
}
func (f *fakeInput) WitnessType() input.WitnessType { return f.wt }
func (f *fakeInput) BlocksToMaturity() uint32       { return 0 }
func (f *fakeInput) CltvExpiry() uint32             { return 0 }
func (f *fakeInput) BuildWitness(input.Signer, *wire.MsgTx, *txscript.TxSigHashes, int) (wire.TxWitness, error) {
	return nil, nil
}

func TestPositiveYieldInputsStopsAtNegativeYield(t *testing.T) {
	t.Parallel()

	feeRate := lnwallet.SatPerKWeight(50_000)

	inputs := []Input{
		&fakeInput{op: wire.OutPoint{Hash: chainhash.Hash{0x01}}, wt: input.CommitmentNoDelay, amount: 1_000_000},
		&fakeInput{op: wire.OutPoint{Hash: chainhash.Hash{0x02}}, wt: input.CommitmentNoDelay, amount: 500_000},
		// A dust-sized input contributes less value than the marginal
		// fee its own witness adds, so it should not extend the set.
		&fakeInput{op: wire.OutPoint{Hash: chainhash.Hash{0x03}}, wt: input.CommitmentNoDelay, amount: 1},
	}

	count, outputValue := positiveYieldInputs(inputs, DefaultMaxInputsPerTx, feeRate)
	require.Equal(t, 2, count)
	require.Greater(t, int64(outputValue), int64(0))
}

func TestPositiveYieldInputsRespectsMaxInputs(t *testing.T) {
	t.Parallel()

	feeRate := lnwallet.SatPerKWeight(1)

	inputs := make([]Input, 5)
	for i := range inputs {
		inputs[i] = &fakeInput{
			op:     wire.OutPoint{Hash: chainhash.Hash{byte(i + 1)}},
			wt:     input.CommitmentNoDelay,
			amount: 100_000,
		}
	}

	count, _ := positiveYieldInputs(inputs, 3, feeRate)
	require.Equal(t, 3, count)
}

func TestPlanSweepsEmptyInput(t *testing.T) {
	t.Parallel()

	sets, err := PlanSweeps(nil, lnwallet.SatPerKWeight(1), lnwallet.SatPerKWeight(1))
	require.NoError(t, err)
	require.Empty(t, sets)
}

func TestIsAnchorSweepEconomical(t *testing.T) {
	t.Parallel()

	anchorValue := btcutil.Amount(330)

	require.True(t, IsAnchorSweepEconomical(anchorValue, anchorValue*AnchorEconomicMultiple))
	require.False(t, IsAnchorSweepEconomical(anchorValue, anchorValue*AnchorEconomicMultiple+1))
}

func TestCpfpTargetFeeRate(t *testing.T) {
	t.Parallel()

	parentWeight := int64(700)
	parentFee := btcutil.Amount(100)
	childWeight := int64(300)
	target := lnwallet.SatPerKWeight(1000)

	childRate := CpfpTargetFeeRate(parentWeight, parentFee, childWeight, target)
	require.Greater(t, int64(childRate), int64(0))

	// A parent that already overpays the target needs no further bump.
	overpayingFee := target.FeeForWeight(parentWeight + childWeight)
	zeroRate := CpfpTargetFeeRate(parentWeight, overpayingFee, childWeight, target)
	require.Equal(t, lnwallet.SatPerKWeight(0), zeroRate)
}
