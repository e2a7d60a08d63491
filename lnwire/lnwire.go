// Package lnwire defines the BOLT-2 wire messages consumed and produced at
// the channel-core/transport boundary. Framing, encryption and the
// surrounding BOLT-1/BOLT-8 transport are handled by an external codec
// adapter; this package only fixes the field-level semantics of the
// messages the core needs, plus a minimal Message/codec scaffold so the
// core and its tests can construct and inspect them without a transport.
package lnwire

import "fmt"

// MilliSatoshi are the native unit of the Lightning Network. Channel
// balances and HTLC amounts are always expressed in msat; on-chain values
// are expressed in whole satoshis (btcutil.Amount) instead.
type MilliSatoshi uint64

// ToSatoshis truncates the msat value down to its satoshi component,
// discarding any sub-satoshi remainder.
func (m MilliSatoshi) ToSatoshis() uint64 {
	return uint64(m) / 1000
}

func (m MilliSatoshi) String() string {
	return fmt.Sprintf("%d mSAT", uint64(m))
}

// NewMSatFromSatoshis creates a MilliSatoshi from a whole-satoshi amount.
func NewMSatFromSatoshis(sat uint64) MilliSatoshi {
	return MilliSatoshi(sat * 1000)
}

// ShortChannelID encodes the block height, transaction index, and output
// index of the funding transaction that created a channel, BOLT-7 style.
// It's assigned once the funding transaction is sufficiently confirmed and
// is used as the channel's routable identifier.
type ShortChannelID struct {
	BlockHeight uint32
	TxIndex     uint32
	TxPosition  uint16
}

// ToUint64 packs the short channel ID into the standard 8-byte wire
// representation: 3 bytes block height, 3 bytes tx index, 2 bytes position.
func (s ShortChannelID) ToUint64() uint64 {
	return (uint64(s.BlockHeight) << 40) | (uint64(s.TxIndex) << 16) |
		uint64(s.TxPosition)
}

// NewShortChanIDFromInt unpacks a ShortChannelID from its uint64 wire form.
func NewShortChanIDFromInt(chanID uint64) ShortChannelID {
	return ShortChannelID{
		BlockHeight: uint32(chanID >> 40),
		TxIndex:     uint32(chanID>>16) & 0xFFFFFF,
		TxPosition:  uint16(chanID),
	}
}

func (s ShortChannelID) String() string {
	return fmt.Sprintf("%d:%d:%d", s.BlockHeight, s.TxIndex, s.TxPosition)
}
