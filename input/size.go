package input

import "github.com/btcsuite/btcd/blockchain"

// This file enumerates the witness and transaction weight constants needed
// to fee a commitment transaction and its second-stage HTLC transactions
// correctly. Weight = 4*base_size + witness_size, per BIP-141.
const (
	// P2WSHSize is the length of a P2WSH output script: OP_0 <32-byte hash>.
	P2WSHSize = 1 + 1 + 32

	// P2WKHSize is the length of a P2WKH output script: OP_0 <20-byte hash>.
	P2WKHSize = 1 + 1 + 20

	// P2WKHOutputSize is the length of a full P2WKH tx output (value +
	// varint + pkscript).
	P2WKHOutputSize = 8 + 1 + 22

	// P2WSHOutputSize is the length of a full P2WSH tx output.
	P2WSHOutputSize = 8 + 1 + 34

	// P2WKHWitnessSize is the length of a standard single-sig P2WKH
	// witness: <sig> <pubkey>.
	P2WKHWitnessSize = 1 + 73 + 1 + 33

	// MultiSigWitnessScriptSize is the length of the 2-of-2 funding
	// redeem script.
	MultiSigWitnessScriptSize = 1 + 1 + 33 + 1 + 33 + 1 + 1

	// MultiSigWitnessSize is the length of the witness spending the
	// funding output cooperatively (both sigs present).
	MultiSigWitnessSize = 1 + 1 + 1 + 73 + 1 + 73 + 1 + MultiSigWitnessScriptSize

	// InputSize is the length of a transaction input excluding its
	// witness (prevout 36 bytes + empty scriptSig varint + sequence).
	InputSize = 32 + 4 + 1 + 4

	// CommitmentDelayOutput is the length of the to_local P2WSH output.
	CommitmentDelayOutput = P2WSHOutputSize

	// CommitmentKeyHashOutput is the length of the to_remote P2WKH output.
	CommitmentKeyHashOutput = P2WKHOutputSize

	// HTLCOutputSize is the length of a single HTLC P2WSH output.
	HTLCOutputSize = P2WSHOutputSize

	// AnchorOutputSize is the length of a single anchor P2WSH output.
	AnchorOutputSize = P2WSHOutputSize

	// WitnessHeaderSize accounts for the segwit marker and flag.
	WitnessHeaderSize = 1 + 1

	// BaseCommitmentTxSize is the size, in bytes, of a commitment transaction's
	// non-witness data with no HTLCs: version, input count, one funding
	// input, output count, to_local and to_remote outputs, locktime.
	BaseCommitmentTxSize = 4 + 1 + InputSize + 1 +
		CommitmentDelayOutput + CommitmentKeyHashOutput + 4

	// BaseCommitmentTxWeight scales the base size into weight units.
	BaseCommitmentTxWeight = blockchain.WitnessScaleFactor * BaseCommitmentTxSize

	// WitnessCommitmentTxWeight is the weight of the funding input's
	// 2-of-2 witness plus the segwit marker/flag.
	WitnessCommitmentTxWeight = WitnessHeaderSize + MultiSigWitnessSize

	// HTLCWeight is the marginal weight a single HTLC output adds to a
	// commitment transaction.
	HTLCWeight = blockchain.WitnessScaleFactor * HTLCOutputSize

	// AnchorWeight is the marginal weight a single anchor output adds
	// when a channel has opted into anchor commitments;
	// EstimateCommitTxWeight counts it twice.
	AnchorWeight = blockchain.WitnessScaleFactor * AnchorOutputSize

	// HtlcTimeoutWeight is the weight of a second-stage HTLC-timeout
	// transaction (no anchor commitments).
	HtlcTimeoutWeight = 663

	// HtlcSuccessWeight is the weight of a second-stage HTLC-success
	// transaction (no anchor commitments).
	HtlcSuccessWeight = 703

	// HtlcTimeoutWeightAnchors and HtlcSuccessWeightAnchors account for
	// the 3 bytes (OP_1 OP_CHECKSEQUENCEVERIFY OP_DROP) each HTLC script
	// gains under the anchor-commitment format, carried in the witness of
	// the second-stage HTLC transaction.
	HtlcTimeoutWeightAnchors = HtlcTimeoutWeight + 3
	HtlcSuccessWeightAnchors = HtlcSuccessWeight + 3

	// MaxHTLCNumber bounds the number of HTLCs a commitment transaction
	// may carry, chosen so a penalty transaction sweeping every HTLC
	// output still fits under standard weight limits.
	MaxHTLCNumber = 483

	// AnchorSize is the value, in satoshis, of each anchor output under
	// the anchor-commitment format.
	AnchorSize = 330

	// ToLocalTimeoutWitnessSize is the size of the witness spending a
	// to_local output via its CSV-delayed branch: <sig> <> <script>.
	ToLocalTimeoutWitnessSize = 1 + 1 + 73 + 1 + 1 + 1 + ToLocalScriptSize

	// ToLocalPenaltyWitnessSize is the size of the witness spending a
	// to_local output via its revocation branch: <sig> <1> <script>.
	ToLocalPenaltyWitnessSize = 1 + 1 + 73 + 1 + 1 + 1 + ToLocalScriptSize

	// ToLocalScriptSize approximates the to_local witness script: OP_IF
	// <revocation pubkey> OP_CHECKSIG OP_ELSE <csv> OP_CSV OP_DROP
	// <delay pubkey> OP_CHECKSIG OP_ENDIF.
	ToLocalScriptSize = 1 + 1 + 33 + 1 + 1 + 1 + 1 + 1 + 1 + 33 + 1 + 1

	// OfferedHtlcScriptSize approximates an offered-HTLC witness script.
	OfferedHtlcScriptSize = 133

	// OfferedHtlcSuccessWitnessSize is the size of the witness redeeming
	// an offered HTLC with the preimage: <sig> <preimage> <script>.
	OfferedHtlcSuccessWitnessSize = 1 + 1 + 73 + 1 + 32 + 1 + 1 + OfferedHtlcScriptSize

	// OfferedHtlcPenaltyWitnessSize is the size of the witness redeeming
	// an offered HTLC via its revocation branch: <sig> <revkey> <script>.
	OfferedHtlcPenaltyWitnessSize = 1 + 1 + 73 + 1 + 33 + 1 + 1 + OfferedHtlcScriptSize

	// AcceptedHtlcScriptSize approximates a received-HTLC witness script.
	AcceptedHtlcScriptSize = 139

	// AcceptedHtlcTimeoutWitnessSize is the size of the witness redeeming
	// a received HTLC after its CLTV expiry: <sig> <> <script>.
	AcceptedHtlcTimeoutWitnessSize = 1 + 1 + 73 + 1 + 1 + 1 + AcceptedHtlcScriptSize

	// AcceptedHtlcPenaltyWitnessSize is the size of the witness redeeming
	// a received HTLC via its revocation branch.
	AcceptedHtlcPenaltyWitnessSize = 1 + 1 + 73 + 1 + 33 + 1 + 1 + AcceptedHtlcScriptSize
)

// EstimateCommitTxWeight estimates the weight of a commitment transaction
// carrying count HTLC outputs. If hasAnchors is set, the two anchor outputs
// are added; second-stage HTLC transaction weight is not part of this
// estimate.
func EstimateCommitTxWeight(count int, hasAnchors bool) int64 {
	htlcWeight := int64(count) * int64(HTLCWeight)
	baseWeight := int64(BaseCommitmentTxWeight)
	witnessWeight := int64(WitnessCommitmentTxWeight)

	weight := htlcWeight + baseWeight + witnessWeight
	if hasAnchors {
		weight += 2 * int64(AnchorWeight)
	}
	return weight
}
