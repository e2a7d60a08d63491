package lnwire

import "io"

// Shutdown begins the mutual-close negotiation, advertising the
// scriptpubkey this side wants its final balance paid to.
type Shutdown struct {
	ChanID  ChannelID
	Address []byte
}

var _ Message = (*Shutdown)(nil)

func (s *Shutdown) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &s.ChanID, &s.Address)
}

func (s *Shutdown) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, s.ChanID, s.Address)
}

func (s *Shutdown) MsgType() MessageType { return MsgShutdown }

func (s *Shutdown) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// ClosingSigned iterates the mutual-close fee negotiation: each side
// proposes a fee and a signature for the resulting closing transaction
// until both proposals match.
type ClosingSigned struct {
	ChanID    ChannelID
	FeeSats   uint64
	Signature []byte
}

var _ Message = (*ClosingSigned)(nil)

func (c *ClosingSigned) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &c.ChanID, &c.FeeSats, &c.Signature)
}

func (c *ClosingSigned) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, c.ChanID, c.FeeSats, c.Signature)
}

func (c *ClosingSigned) MsgType() MessageType { return MsgClosingSigned }

func (c *ClosingSigned) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
