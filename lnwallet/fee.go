package lnwallet

import "github.com/btcsuite/btcd/btcutil"

// SatPerKWeight represents a fee rate in satoshis per 1000 weight units --
// the unit BOLT-3 fee calculations and `update_fee` messages are expressed
// in, as opposed to the more familiar satoshis-per-vbyte.
type SatPerKWeight int64

// FeeForWeight computes the fee, in satoshis, this fee rate implies for a
// transaction of the given weight.
func (f SatPerKWeight) FeeForWeight(weight int64) btcutil.Amount {
	return btcutil.Amount((int64(f) * weight) / 1000)
}

// FeePerKVByte converts this weight-denominated fee rate into the
// equivalent vbyte-denominated rate, as some fee estimation and relay
// policy APIs (e.g. `txrules.GetDustThreshold`) expect.
func (f SatPerKWeight) FeePerKVByte() SatPerVByte {
	return SatPerVByte(f * 4)
}

// SatPerVByte represents a fee rate in satoshis per 1000 virtual bytes
// (sat/kvB).
type SatPerVByte int64

// FeePerKWeight converts a vbyte-denominated fee rate to its weight-unit
// equivalent.
func (f SatPerVByte) FeePerKWeight() SatPerKWeight {
	return SatPerKWeight(f / 4)
}

// TxWeightEstimator accumulates the weight of a transaction incrementally
// as inputs and outputs are added to it, so a caller can settle on a fee
// before constructing the transaction itself.
type TxWeightEstimator struct {
	hasWitness  bool
	inputCount  int
	inputSize   int
	witnessSize int
	outputCount int
	outputSize  int
}

const baseTxSize = 4 + 1 + 1 + 4 // version + input count + output count + locktime

// AddP2WKHOutput accounts for a single P2WKH transaction output.
func (twe *TxWeightEstimator) AddP2WKHOutput() *TxWeightEstimator {
	twe.outputCount++
	twe.outputSize += 31
	return twe
}

// AddP2WSHOutput accounts for a single P2WSH transaction output.
func (twe *TxWeightEstimator) AddP2WSHOutput() *TxWeightEstimator {
	twe.outputCount++
	twe.outputSize += 43
	return twe
}

// AddTxOutput accounts for an arbitrary-length transaction output.
func (twe *TxWeightEstimator) AddTxOutput(pkScriptLen int) *TxWeightEstimator {
	twe.outputCount++
	twe.outputSize += 8 + 1 + pkScriptLen
	return twe
}

// AddWitnessInput accounts for a segwit transaction input whose witness is
// witnessSize bytes.
func (twe *TxWeightEstimator) AddWitnessInput(witnessSize int) *TxWeightEstimator {
	twe.inputCount++
	twe.inputSize += 32 + 4 + 1 + 4 // outpoint + empty scriptSig + sequence
	twe.hasWitness = true
	twe.witnessSize += witnessSize
	return twe
}

// AddP2WKHInput is shorthand for AddWitnessInput with a standard single-sig
// P2WKH witness size.
func (twe *TxWeightEstimator) AddP2WKHInput() *TxWeightEstimator {
	return twe.AddWitnessInput(108)
}

// Weight returns the transaction's total estimated weight.
func (twe *TxWeightEstimator) Weight() int {
	const witnessScaleFactor = 4

	totalSize := baseTxSize + twe.inputSize + twe.outputSize
	weight := totalSize * witnessScaleFactor

	if twe.hasWitness {
		weight += 2 // segwit marker + flag
		weight += twe.witnessSize
	}

	return weight
}
