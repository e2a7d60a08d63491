package lnwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessagePayload is the maximum bytes a message can be regardless of
// other individual limits imposed by messages themselves.
const MaxMessagePayload = 65535

// MessageType is the unique 2-byte big-endian integer that indicates the
// type of message on the wire, per BOLT-1.
type MessageType uint16

// The BOLT-2 message types the channel core consumes or produces. Peer
// transport (BOLT-1 framing/ping-pong, BOLT-8 noise handshake) and gossip
// messages (channel_announcement et al.) are out of this module's scope
// and aren't represented here.
const (
	MsgOpenChannel             MessageType = 32
	MsgAcceptChannel           MessageType = 33
	MsgFundingCreated          MessageType = 34
	MsgFundingSigned           MessageType = 35
	MsgChannelReady            MessageType = 36
	MsgShutdown                MessageType = 38
	MsgClosingSigned           MessageType = 39
	MsgUpdateAddHTLC           MessageType = 128
	MsgUpdateFulfillHTLC       MessageType = 130
	MsgUpdateFailHTLC          MessageType = 131
	MsgCommitmentSigned        MessageType = 132
	MsgRevokeAndAck            MessageType = 133
	MsgUpdateFee               MessageType = 134
	MsgChannelReestablish      MessageType = 136
	MsgUpdateFailMalformedHTLC MessageType = 135
	MsgError                   MessageType = 17
	MsgWarning                 MessageType = 1
)

// UnknownMessage is returned when a message of an unrecognized type is
// read off the wire.
type UnknownMessage struct {
	messageType MessageType
}

func (u *UnknownMessage) Error() string {
	return fmt.Sprintf("unable to parse message of unknown type: %v", u.messageType)
}

// Message is implemented by every wire message the channel core exchanges
// with its peer, at the boundary of the external transport/codec adapter.
type Message interface {
	Decode(io.Reader, uint32) error
	Encode(io.Writer, uint32) error
	MsgType() MessageType
	MaxPayloadLength(uint32) uint32
}

// makeEmptyMessage allocates the zero value of the concrete type
// associated with msgType so ReadMessage can decode into it.
func makeEmptyMessage(msgType MessageType) (Message, error) {
	var msg Message

	switch msgType {
	case MsgOpenChannel:
		msg = &OpenChannel{}
	case MsgAcceptChannel:
		msg = &AcceptChannel{}
	case MsgFundingCreated:
		msg = &FundingCreated{}
	case MsgFundingSigned:
		msg = &FundingSigned{}
	case MsgChannelReady:
		msg = &ChannelReady{}
	case MsgShutdown:
		msg = &Shutdown{}
	case MsgClosingSigned:
		msg = &ClosingSigned{}
	case MsgUpdateAddHTLC:
		msg = &UpdateAddHTLC{}
	case MsgUpdateFulfillHTLC:
		msg = &UpdateFulfillHTLC{}
	case MsgUpdateFailHTLC:
		msg = &UpdateFailHTLC{}
	case MsgUpdateFailMalformedHTLC:
		msg = &UpdateFailMalformedHTLC{}
	case MsgCommitmentSigned:
		msg = &CommitmentSigned{}
	case MsgRevokeAndAck:
		msg = &RevokeAndAck{}
	case MsgUpdateFee:
		msg = &UpdateFee{}
	case MsgChannelReestablish:
		msg = &ChannelReestablish{}
	case MsgError:
		msg = &Error{}
	case MsgWarning:
		msg = &Warning{}
	default:
		return nil, &UnknownMessage{messageType: msgType}
	}

	return msg, nil
}

// WriteMessage writes a lightning Message to w, prefixed with its 2-byte
// type, and returns the number of bytes written.
func WriteMessage(w io.Writer, msg Message, pver uint32) (int, error) {
	var bw bytes.Buffer
	if err := msg.Encode(&bw, pver); err != nil {
		return 0, err
	}
	payload := bw.Bytes()
	lenp := len(payload)

	if lenp > MaxMessagePayload {
		return 0, fmt.Errorf("message payload is too large - encoded "+
			"%d bytes, but maximum message payload is %d bytes",
			lenp, MaxMessagePayload)
	}
	if mpl := msg.MaxPayloadLength(pver); uint32(lenp) > mpl {
		return 0, fmt.Errorf("message payload is too large - encoded "+
			"%d bytes, but maximum payload of type %x is %d bytes",
			lenp, msg.MsgType(), mpl)
	}

	var mType [2]byte
	binary.BigEndian.PutUint16(mType[:], uint16(msg.MsgType()))

	total := 0
	n, err := w.Write(mType[:])
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write(payload)
	total += n
	return total, err
}

// ReadMessage reads, identifies, and decodes the next message from r.
func ReadMessage(r io.Reader, pver uint32) (Message, error) {
	var mType [2]byte
	if _, err := io.ReadFull(r, mType[:]); err != nil {
		return nil, err
	}

	msgType := MessageType(binary.BigEndian.Uint16(mType[:]))

	msg, err := makeEmptyMessage(msgType)
	if err != nil {
		return nil, err
	}
	if err := msg.Decode(r, pver); err != nil {
		return nil, err
	}

	return msg, nil
}
