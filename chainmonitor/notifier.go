// Package chainmonitor subscribes a channel's funding outpoint and the
// current block height to an external chain backend, and drives
// contractcourt's close classification, resolution tracking and justice
// path as a funding spend arrives. The outputs of commitment transactions
// are not subscribed, and no channel state machine is driven from here.
package chainmonitor

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ChainNotifier is a trusted source of notifications for events on the
// Bitcoin blockchain. The interface is intentionally general so it can be
// satisfied by a full node's RPC/ZeroMQ feed, a light client, or a block
// explorer API -- the channel core never picks a concrete backend itself.
//
// Concrete implementations must support multiple concurrent registrations
// and must deliver notifications exactly once per event, even across a
// reconnect to the underlying backend.
type ChainNotifier interface {
	// RegisterConfirmationsNtfn registers an intent to be notified once
	// txid reaches numConfs confirmations. pkScript and heightHint let
	// backends that can't look up a txid directly rescan efficiently
	// starting from the height the transaction is expected at.
	RegisterConfirmationsNtfn(txid *chainhash.Hash, pkScript []byte,
		numConfs, heightHint uint32) (*ConfirmationEvent, error)

	// RegisterSpendNtfn registers an intent to be notified once the
	// target outpoint is spent by a confirmed transaction.
	RegisterSpendNtfn(outpoint *wire.OutPoint, pkScript []byte,
		heightHint uint32) (*SpendEvent, error)

	// RegisterBlockEpochNtfn registers an intent to be notified of every
	// new block connected to the best chain from bestHeight onward.
	RegisterBlockEpochNtfn(bestHeight int32) (*BlockEpochEvent, error)

	// CurrentHeight returns the backend's current best block height.
	CurrentHeight() (uint32, error)

	// PublishTransaction broadcasts tx to the network.
	PublishTransaction(tx *wire.MsgTx) error

	Start() error
	Stop() error
}

// ConfirmationEvent delivers a one-shot confirmation notification, with
// reorg handling: if the original transaction is later disconnected from
// the best chain, NegativeConf fires instead so the caller can un-confirm
// whatever state it advanced.
type ConfirmationEvent struct {
	Confirmed    chan *TxConfirmation // buffered, closed after first send
	NegativeConf chan int32           // buffered; reorg depth
}

// TxConfirmation carries the block a watched transaction confirmed in.
type TxConfirmation struct {
	BlockHash   *chainhash.Hash
	BlockHeight uint32
	TxIndex     uint32
	Tx          *wire.MsgTx
}

// SpendDetail is the spentness notification for a watched outpoint.
type SpendDetail struct {
	SpentOutPoint     *wire.OutPoint
	SpenderTxHash     *chainhash.Hash
	SpendingTx        *wire.MsgTx
	SpenderInputIndex uint32
	SpendingHeight    int32
}

// SpendEvent delivers the one spend notification a RegisterSpendNtfn call
// is owed, buffered so a slow consumer can't stall the notifier.
type SpendEvent struct {
	Spend chan *SpendDetail
}

// BlockEpoch carries the height and hash of a newly connected block.
type BlockEpoch struct {
	Height int32
	Hash   *chainhash.Hash
}

// BlockEpochEvent streams every new best-chain block from registration
// onward.
type BlockEpochEvent struct {
	Epochs chan *BlockEpoch
	Cancel func()
}
