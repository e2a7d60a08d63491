package lnwire

import (
	"encoding/binary"
	"io"
)

// CommitmentSigned is sent to "lock in" all proposed updates since the
// last commitment turn, carrying a signature for the recipient's next
// commitment transaction plus one signature per non-dust HTLC on it, in
// the same order as the HTLC outputs appear on that commitment.
type CommitmentSigned struct {
	ChanID    ChannelID
	CommitSig []byte
	HtlcSigs  [][]byte
}

var _ Message = (*CommitmentSigned)(nil)

func (c *CommitmentSigned) Decode(r io.Reader, pver uint32) error {
	if err := readElements(r, &c.ChanID, &c.CommitSig); err != nil {
		return err
	}

	var numHtlcs uint16
	if err := binary.Read(r, binary.BigEndian, &numHtlcs); err != nil {
		return err
	}

	c.HtlcSigs = make([][]byte, numHtlcs)
	for i := 0; i < int(numHtlcs); i++ {
		if err := readElement(r, &c.HtlcSigs[i]); err != nil {
			return err
		}
	}

	return nil
}

func (c *CommitmentSigned) Encode(w io.Writer, pver uint32) error {
	if err := writeElements(w, c.ChanID, c.CommitSig); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint16(len(c.HtlcSigs))); err != nil {
		return err
	}
	for _, sig := range c.HtlcSigs {
		if err := writeElement(w, sig); err != nil {
			return err
		}
	}

	return nil
}

func (c *CommitmentSigned) MsgType() MessageType { return MsgCommitmentSigned }

func (c *CommitmentSigned) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
