package lnwire

import "io"

// Error is sent when a ProtocolViolation or other fatal condition requires
// tearing down the peer session for a channel. A zero ChanID applies to
// the whole connection rather than a single channel.
type Error struct {
	ChanID ChannelID
	Data   []byte
}

var _ Message = (*Error)(nil)

func (e *Error) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &e.ChanID, &e.Data)
}

func (e *Error) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, e.ChanID, e.Data)
}

func (e *Error) MsgType() MessageType { return MsgError }

func (e *Error) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

func (e *Error) Error() string {
	return string(e.Data)
}

// Warning is the non-fatal counterpart to Error: it signals a problem
// worth surfacing to the peer without tearing down the connection.
type Warning struct {
	ChanID ChannelID
	Data   []byte
}

var _ Message = (*Warning)(nil)

func (w *Warning) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &w.ChanID, &w.Data)
}

func (wa *Warning) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, wa.ChanID, wa.Data)
}

func (w *Warning) MsgType() MessageType { return MsgWarning }

func (w *Warning) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
