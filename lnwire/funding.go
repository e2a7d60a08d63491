package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// FundingCreated is sent by the funder once the funding transaction has
// been constructed (but not yet broadcast), carrying its signature for the
// counterparty's initial commitment transaction.
type FundingCreated struct {
	PendingChannelID ChannelID
	FundingTxID      [32]byte
	FundingOutputIdx uint16
	CommitSig        []byte
}

var _ Message = (*FundingCreated)(nil)

func (f *FundingCreated) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&f.PendingChannelID, &f.FundingTxID, &f.FundingOutputIdx,
		&f.CommitSig,
	)
}

func (f *FundingCreated) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		f.PendingChannelID, f.FundingTxID, f.FundingOutputIdx, f.CommitSig,
	)
}

func (f *FundingCreated) MsgType() MessageType { return MsgFundingCreated }

func (f *FundingCreated) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// FundingSigned completes the funding flow: the fundee returns its
// signature for the funder's initial commitment transaction.
type FundingSigned struct {
	ChanID    ChannelID
	CommitSig []byte
}

var _ Message = (*FundingSigned)(nil)

func (f *FundingSigned) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &f.ChanID, &f.CommitSig)
}

func (f *FundingSigned) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, f.ChanID, f.CommitSig)
}

func (f *FundingSigned) MsgType() MessageType { return MsgFundingSigned }

func (f *FundingSigned) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// ChannelReady (née funding_locked) announces that the funding transaction
// has reached the required confirmation depth on one side, and carries the
// per-commitment point to be used for the channel's second commitment.
type ChannelReady struct {
	ChanID                 ChannelID
	NextPerCommitmentPoint *btcec.PublicKey
}

var _ Message = (*ChannelReady)(nil)

func (f *ChannelReady) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &f.ChanID, &f.NextPerCommitmentPoint)
}

func (f *ChannelReady) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, f.ChanID, f.NextPerCommitmentPoint)
}

func (f *ChannelReady) MsgType() MessageType { return MsgChannelReady }

func (f *ChannelReady) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
