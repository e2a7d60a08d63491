package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// RevokeAndAck finalizes a commitment turn: the sender reveals the
// per-commitment secret for the commitment it is superseding (irrevocably
// giving up any ability to broadcast it without risking a justice tx) and
// advertises the per-commitment point to use for its next-but-one
// commitment.
type RevokeAndAck struct {
	ChanID             ChannelID
	Revocation         [32]byte
	NextPerCommitPoint *btcec.PublicKey
}

var _ Message = (*RevokeAndAck)(nil)

func (r *RevokeAndAck) Decode(re io.Reader, pver uint32) error {
	return readElements(re, &r.ChanID, &r.Revocation, &r.NextPerCommitPoint)
}

func (r *RevokeAndAck) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, r.ChanID, r.Revocation, r.NextPerCommitPoint)
}

func (r *RevokeAndAck) MsgType() MessageType { return MsgRevokeAndAck }

func (r *RevokeAndAck) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
