package input

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateCommitTxWeightScalesWithHtlcCount(t *testing.T) {
	t.Parallel()

	base := EstimateCommitTxWeight(0, false)
	withOne := EstimateCommitTxWeight(1, false)

	require.Equal(t, int64(HTLCWeight), withOne-base)
}

func TestEstimateCommitTxWeightAnchorsAddTwoAnchorOutputs(t *testing.T) {
	t.Parallel()

	noAnchors := EstimateCommitTxWeight(0, false)
	withAnchors := EstimateCommitTxWeight(0, true)

	require.Equal(t, int64(2*AnchorWeight), withAnchors-noAnchors)
}
