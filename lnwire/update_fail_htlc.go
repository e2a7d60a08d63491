package lnwire

import "io"

// UpdateFailHTLC is sent to fail a previously added HTLC. Reason is an
// opaque, onion-encrypted blob; its contents are meaningful only to the
// routing layer and are passed through unexamined by the channel core.
type UpdateFailHTLC struct {
	ChanID ChannelID
	ID     uint64
	Reason []byte
}

var _ Message = (*UpdateFailHTLC)(nil)

func (u *UpdateFailHTLC) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &u.ChanID, &u.ID, &u.Reason)
}

func (u *UpdateFailHTLC) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, u.ChanID, u.ID, u.Reason)
}

func (u *UpdateFailHTLC) MsgType() MessageType { return MsgUpdateFailHTLC }

func (u *UpdateFailHTLC) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// UpdateFailMalformedHTLC is sent instead of UpdateFailHTLC when the
// receiving node could not even parse the onion routing packet, so it
// cannot produce a well-formed encrypted failure reason.
type UpdateFailMalformedHTLC struct {
	ChanID       ChannelID
	ID           uint64
	ShaOnionBlob [32]byte
	FailureCode  uint16
}

var _ Message = (*UpdateFailMalformedHTLC)(nil)

func (u *UpdateFailMalformedHTLC) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &u.ChanID, &u.ID, &u.ShaOnionBlob, &u.FailureCode)
}

func (u *UpdateFailMalformedHTLC) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, u.ChanID, u.ID, u.ShaOnionBlob, u.FailureCode)
}

func (u *UpdateFailMalformedHTLC) MsgType() MessageType {
	return MsgUpdateFailMalformedHTLC
}

func (u *UpdateFailMalformedHTLC) MaxPayloadLength(uint32) uint32 {
	return MaxMessagePayload
}

// UpdateFee is sent by the channel funder to adjust the feerate paid by the
// commitment transaction. It's only valid from the funder, and only while
// there's no outstanding commitment already using a different feerate.
type UpdateFee struct {
	ChanID   ChannelID
	FeePerKw uint32
}

var _ Message = (*UpdateFee)(nil)

func (u *UpdateFee) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &u.ChanID, &u.FeePerKw)
}

func (u *UpdateFee) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, u.ChanID, u.FeePerKw)
}

func (u *UpdateFee) MsgType() MessageType { return MsgUpdateFee }

func (u *UpdateFee) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
