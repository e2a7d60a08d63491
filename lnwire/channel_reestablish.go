package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ChannelReestablish is exchanged immediately after reconnecting to a peer
// with an existing channel. It's the BOLT-2 mechanism for recovering the
// turn-protocol state that may have been lost (or diverged) across the
// disconnect, and for detecting local/remote data loss.
type ChannelReestablish struct {
	ChanID ChannelID

	// NextLocalCommitHeight is the commitment height the sender expects
	// to be their next one, i.e. one higher than the last one they
	// signed and received a revocation for.
	NextLocalCommitHeight uint64

	// RemoteCommitTailHeight is the commitment height of the last
	// remote commitment the sender has revoked, i.e. one behind the
	// remote commitment the sender believes is current.
	RemoteCommitTailHeight uint64

	// LastRemoteCommitSecret is the per-commitment secret the sender
	// believes corresponds to the remote's last revoked commitment, used
	// by the remote to detect whether the sender has suffered data loss.
	LastRemoteCommitSecret [32]byte

	// LocalUnrevokedCommitPoint is the sender's current (not yet
	// revoked) per-commitment point, offered so the peer can verify any
	// future penalty claim against the sender's latest state.
	LocalUnrevokedCommitPoint *btcec.PublicKey
}

var _ Message = (*ChannelReestablish)(nil)

func (c *ChannelReestablish) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChanID,
		&c.NextLocalCommitHeight,
		&c.RemoteCommitTailHeight,
		&c.LastRemoteCommitSecret,
		&c.LocalUnrevokedCommitPoint,
	)
}

func (c *ChannelReestablish) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChanID,
		c.NextLocalCommitHeight,
		c.RemoteCommitTailHeight,
		c.LastRemoteCommitSecret,
		c.LocalUnrevokedCommitPoint,
	)
}

func (c *ChannelReestablish) MsgType() MessageType { return MsgChannelReestablish }

func (c *ChannelReestablish) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
