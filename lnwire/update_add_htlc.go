package lnwire

import "io"

// UpdateAddHTLC is sent by either side to propose adding a new HTLC to the
// other party's commitment chain. The htlc doesn't become COMMITTED until
// it survives a full commitment_signed/revoke_and_ack turn on both chains.
type UpdateAddHTLC struct {
	ChanID      ChannelID
	ID          uint64
	Amount      MilliSatoshi
	PaymentHash [32]byte
	Expiry      uint32
	OnionBlob   []byte
}

var _ Message = (*UpdateAddHTLC)(nil)

func (u *UpdateAddHTLC) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&u.ChanID, &u.ID, &u.Amount, &u.PaymentHash, &u.Expiry,
		&u.OnionBlob,
	)
}

func (u *UpdateAddHTLC) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		u.ChanID, u.ID, u.Amount, u.PaymentHash, u.Expiry, u.OnionBlob,
	)
}

func (u *UpdateAddHTLC) MsgType() MessageType { return MsgUpdateAddHTLC }

func (u *UpdateAddHTLC) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
