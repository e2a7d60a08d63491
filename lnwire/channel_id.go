package lnwire

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/wire"
)

// ChannelID is the unique identifier for a channel, defined as the XOR of
// the funding outpoint's txid with the big-endian funding output index in
// its last two bytes. It is always derived through NewChanIDFromOutPoint
// rather than constructed by hand.
type ChannelID [32]byte

// NewChanIDFromOutPoint derives the ChannelID for a funding outpoint per
// BOLT-2: txid XOR'd with the output index placed in the last two bytes.
func NewChanIDFromOutPoint(op *wire.OutPoint) ChannelID {
	var cid ChannelID
	copy(cid[:], op.Hash[:])

	cid[30] ^= byte(op.Index >> 8)
	cid[31] ^= byte(op.Index)

	return cid
}

func (c ChannelID) String() string {
	return hex.EncodeToString(c[:])
}

// IsZero reports whether this is the all-zero "no channel" ID used on
// some pre-funding messages.
func (c ChannelID) IsZero() bool {
	return c == ChannelID{}
}
