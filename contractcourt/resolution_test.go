package contractcourt

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchancore/chancore/channeldb"
)

func TestClassifyFundingSpendMutualClose(t *testing.T) {
	t.Parallel()

	fundingOut := wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}
	chanState := &channeldb.OpenChannel{FundingOutpoint: fundingOut}

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: fundingOut,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{Value: 100, PkScript: []byte{0x00}})
	tx.AddTxOut(&wire.TxOut{Value: 200, PkScript: []byte{0x01}})

	class, err := ClassifyFundingSpend(chanState, tx)
	require.NoError(t, err)
	require.Equal(t, MutualClose, class.Type)
}

func TestClassifyFundingSpendRejectsOtherOutpoint(t *testing.T) {
	t.Parallel()

	chanState := &channeldb.OpenChannel{
		FundingOutpoint: wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0},
	}

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{0x02}, Index: 0},
	})

	_, err := ClassifyFundingSpend(chanState, tx)
	require.Error(t, err)
}

func TestClassifyFundingSpendUnknownWhenNotObscured(t *testing.T) {
	t.Parallel()

	fundingOut := wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}
	chanState := &channeldb.OpenChannel{FundingOutpoint: fundingOut}

	// Three outputs disqualifies the mutual-close shape, and a zero
	// locktime/final sequence never encodes an obscured commitment
	// height.
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: fundingOut,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{Value: 100, PkScript: []byte{0x00}})
	tx.AddTxOut(&wire.TxOut{Value: 200, PkScript: []byte{0x01}})
	tx.AddTxOut(&wire.TxOut{Value: 300, PkScript: []byte{0x02}})

	class, err := ClassifyFundingSpend(chanState, tx)
	require.NoError(t, err)
	require.Equal(t, Unknown, class.Type)
}

func TestClassifyHtlcSpendSuccess(t *testing.T) {
	t.Parallel()

	preimage := [32]byte{0xaa, 0xbb}
	paymentHash := sha256.Sum256(preimage[:])

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		Witness: wire.TxWitness{[]byte{0x01}, preimage[:], []byte{0x02}},
	})

	class := ClassifyHtlcSpend(tx, 0, paymentHash, 500, 100)
	require.Equal(t, HTLCSuccess, class.Type)
	require.Equal(t, preimage, class.Preimage)
}

func TestClassifyHtlcSpendTimeout(t *testing.T) {
	t.Parallel()

	paymentHash := sha256.Sum256([]byte("unrelated"))

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		Witness: wire.TxWitness{[]byte{0x01}, []byte{0x02}},
	})

	class := ClassifyHtlcSpend(tx, 0, paymentHash, 500, 600)
	require.Equal(t, HTLCTimeout, class.Type)
}

func TestClassifyHtlcSpendUnknownBeforeExpiry(t *testing.T) {
	t.Parallel()

	paymentHash := sha256.Sum256([]byte("unrelated"))

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		Witness: wire.TxWitness{[]byte{0x01}, []byte{0x02}},
	})

	class := ClassifyHtlcSpend(tx, 0, paymentHash, 500, 100)
	require.Equal(t, Unknown, class.Type)
}

func TestIsPenaltyTx(t *testing.T) {
	t.Parallel()

	revoked := &wire.OutPoint{Hash: chainhash.Hash{0x03}, Index: 0}
	compressedPubkey := make([]byte, 33)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: revoked.Hash, Index: 0},
		Witness:          wire.TxWitness{[]byte{0x01}, compressedPubkey, []byte{0x02}},
	})
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: revoked.Hash, Index: 1},
		Witness:          wire.TxWitness{[]byte{0x01}, compressedPubkey, []byte{0x02}},
	})

	require.True(t, IsPenaltyTx(tx, revoked))
}

func TestIsPenaltyTxRejectsMixedOutpoints(t *testing.T) {
	t.Parallel()

	revoked := &wire.OutPoint{Hash: chainhash.Hash{0x03}, Index: 0}
	compressedPubkey := make([]byte, 33)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: revoked.Hash, Index: 0},
		Witness:          wire.TxWitness{[]byte{0x01}, compressedPubkey, []byte{0x02}},
	})
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{0x09}, Index: 0},
		Witness:          wire.TxWitness{[]byte{0x01}, compressedPubkey, []byte{0x02}},
	})

	require.False(t, IsPenaltyTx(tx, revoked))
}

func TestEngineConfirmationTracking(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	chanPoint := wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}
	outpoint := wire.OutPoint{Hash: chainhash.Hash{0x02}, Index: 0}

	e.Track(chanPoint, &OutputResolution{Outpoint: outpoint, Type: LocalUnilateral})
	require.False(t, e.IsChannelFullyResolved(chanPoint))

	// Replaying an equal or lower depth must not cross the threshold
	// twice, and must not report resolution before the depth is met.
	crossed := e.UpdateConfirmations(chanPoint, outpoint, 1)
	require.False(t, crossed)

	crossed = e.UpdateConfirmations(chanPoint, outpoint, e.ConfirmationDepth)
	require.True(t, crossed)
	require.True(t, e.IsChannelFullyResolved(chanPoint))

	// Once resolved, re-delivering the same or a lower depth must not
	// report crossing again.
	crossed = e.UpdateConfirmations(chanPoint, outpoint, e.ConfirmationDepth)
	require.False(t, crossed)
}

func TestEngineHandleHtlcSpendForwardsPreimage(t *testing.T) {
	t.Parallel()

	var forwarded [32]byte
	var forwardedChan wire.OutPoint

	e := NewEngine()
	e.ForwardPreimage = func(chanPoint wire.OutPoint, preimage [32]byte) {
		forwardedChan = chanPoint
		forwarded = preimage
	}

	chanPoint := wire.OutPoint{Hash: chainhash.Hash{0x04}, Index: 0}
	preimage := [32]byte{0xde, 0xad}
	paymentHash := sha256.Sum256(preimage[:])

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		Witness: wire.TxWitness{[]byte{0x01}, preimage[:]},
	})

	class := e.HandleHtlcSpend(chanPoint, tx, 0, paymentHash, 500, 100)
	require.Equal(t, HTLCSuccess, class.Type)
	require.Equal(t, chanPoint, forwardedChan)
	require.Equal(t, preimage, forwarded)
}
