package contractcourt

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchancore/chancore/input"
)

func TestSafeToForgetRevocations(t *testing.T) {
	t.Parallel()

	require.False(t, SafeToForgetRevocations(RevocationForgetDelay-1))
	require.True(t, SafeToForgetRevocations(RevocationForgetDelay))
	require.True(t, SafeToForgetRevocations(RevocationForgetDelay+1))
}

func TestPartitionJusticeOutputsSingleBatch(t *testing.T) {
	t.Parallel()

	txid := chainhash.Hash{0x01}
	outputs := []JusticeOutput{
		{Outpoint: wire.OutPoint{Hash: txid, Index: 0}, WitnessType: input.CommitmentRevoke},
		{Outpoint: wire.OutPoint{Hash: txid, Index: 1}, WitnessType: input.HtlcOfferedRevoke},
		{Outpoint: wire.OutPoint{Hash: txid, Index: 2}, WitnessType: input.HtlcAcceptedRevoke},
	}

	batches := partitionJusticeOutputs(outputs)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 3)
}

func TestPartitionJusticeOutputsSplitsOversizedSet(t *testing.T) {
	t.Parallel()

	// Each HTLC-revoke input's weight, times enough of them, must exceed
	// MaxJusticeTxWeight and force a second batch.
	perInput := justiceInputWeight(input.HtlcOfferedRevoke)
	count := int((MaxJusticeTxWeight-justiceTxBaseWeight-justiceTxWeightMargin)/perInput) + 5

	txid := chainhash.Hash{0x02}
	outputs := make([]JusticeOutput, count)
	for i := range outputs {
		outputs[i] = JusticeOutput{
			Outpoint:    wire.OutPoint{Hash: txid, Index: uint32(i)},
			WitnessType: input.HtlcOfferedRevoke,
		}
	}

	batches := partitionJusticeOutputs(outputs)
	require.Greater(t, len(batches), 1)

	// Every batch must stay under the weight cap, and every output must
	// appear exactly once across all batches.
	seen := make(map[wire.OutPoint]bool)
	for _, batch := range batches {
		weight := justiceTxBaseWeight
		for _, out := range batch {
			weight += justiceInputWeight(out.WitnessType)
			require.False(t, seen[out.Outpoint])
			seen[out.Outpoint] = true
		}
		require.LessOrEqual(t, weight, MaxJusticeTxWeight)
	}
	require.Len(t, seen, count)
}

func TestJusticeInputWeightOrdering(t *testing.T) {
	t.Parallel()

	// An HTLC revocation witness (sig, revocation pubkey, script) is
	// always at least as large as the to_local revocation witness
	// (sig, {1}, script), since both share the signature and script and
	// an HTLC's script also covers the payment hash.
	toLocal := justiceInputWeight(input.CommitmentRevoke)
	htlcOffered := justiceInputWeight(input.HtlcOfferedRevoke)
	htlcAccepted := justiceInputWeight(input.HtlcAcceptedRevoke)

	// A to_local revocation witness has the smallest script (no payment
	// hash or CLTV branch to cover); an accepted HTLC's witness script
	// is marginally larger than an offered HTLC's.
	require.Less(t, toLocal, htlcOffered)
	require.Less(t, htlcOffered, htlcAccepted)
}
