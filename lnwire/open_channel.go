package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// FundingFlag is a bitfield carried in open_channel's channel_flags byte.
type FundingFlag uint8

const (
	// FFAnnounceChannel requests the resulting channel be announced to
	// the rest of the network via the gossip layer (out of this
	// module's scope; the flag is still part of the wire contract).
	FFAnnounceChannel FundingFlag = 1 << 0
)

// OpenChannel is the message a funder sends to open a new channel. It
// carries the funder's chosen channel parameters and basepoints.
type OpenChannel struct {
	ChainHash            [32]byte
	PendingChannelID     ChannelID
	FundingAmount        uint64
	PushAmount           MilliSatoshi
	DustLimit            uint64
	MaxValueInFlight     MilliSatoshi
	ChannelReserve       uint64
	HtlcMinimum          MilliSatoshi
	FeePerKiloWeight     uint32
	CsvDelay             uint16
	MaxAcceptedHTLCs     uint16
	FundingKey           *btcec.PublicKey
	RevocationPoint      *btcec.PublicKey
	PaymentPoint         *btcec.PublicKey
	DelayedPaymentPoint  *btcec.PublicKey
	HtlcPoint            *btcec.PublicKey
	FirstCommitmentPoint *btcec.PublicKey
	ChannelFlags         FundingFlag
}

var _ Message = (*OpenChannel)(nil)

func (o *OpenChannel) Decode(r io.Reader, pver uint32) error {
	var flags uint8
	err := readElements(r,
		&o.ChainHash,
		&o.PendingChannelID,
		&o.FundingAmount,
		&o.PushAmount,
		&o.DustLimit,
		&o.MaxValueInFlight,
		&o.ChannelReserve,
		&o.HtlcMinimum,
		&o.FeePerKiloWeight,
		&o.CsvDelay,
		&o.MaxAcceptedHTLCs,
		&o.FundingKey,
		&o.RevocationPoint,
		&o.PaymentPoint,
		&o.DelayedPaymentPoint,
		&o.HtlcPoint,
		&o.FirstCommitmentPoint,
		&flags,
	)
	o.ChannelFlags = FundingFlag(flags)
	return err
}

func (o *OpenChannel) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		o.ChainHash,
		o.PendingChannelID,
		o.FundingAmount,
		o.PushAmount,
		o.DustLimit,
		o.MaxValueInFlight,
		o.ChannelReserve,
		o.HtlcMinimum,
		o.FeePerKiloWeight,
		o.CsvDelay,
		o.MaxAcceptedHTLCs,
		o.FundingKey,
		o.RevocationPoint,
		o.PaymentPoint,
		o.DelayedPaymentPoint,
		o.HtlcPoint,
		o.FirstCommitmentPoint,
		uint8(o.ChannelFlags),
	)
}

func (o *OpenChannel) MsgType() MessageType { return MsgOpenChannel }

func (o *OpenChannel) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// AcceptChannel is the funder's counterparty's reply to OpenChannel,
// carrying its own channel parameters and basepoints.
type AcceptChannel struct {
	PendingChannelID     ChannelID
	DustLimit            uint64
	MaxValueInFlight     MilliSatoshi
	ChannelReserve       uint64
	HtlcMinimum          MilliSatoshi
	MinAcceptDepth       uint32
	CsvDelay             uint16
	MaxAcceptedHTLCs     uint16
	FundingKey           *btcec.PublicKey
	RevocationPoint      *btcec.PublicKey
	PaymentPoint         *btcec.PublicKey
	DelayedPaymentPoint  *btcec.PublicKey
	HtlcPoint            *btcec.PublicKey
	FirstCommitmentPoint *btcec.PublicKey
}

var _ Message = (*AcceptChannel)(nil)

func (a *AcceptChannel) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&a.PendingChannelID,
		&a.DustLimit,
		&a.MaxValueInFlight,
		&a.ChannelReserve,
		&a.HtlcMinimum,
		&a.MinAcceptDepth,
		&a.CsvDelay,
		&a.MaxAcceptedHTLCs,
		&a.FundingKey,
		&a.RevocationPoint,
		&a.PaymentPoint,
		&a.DelayedPaymentPoint,
		&a.HtlcPoint,
		&a.FirstCommitmentPoint,
	)
}

func (a *AcceptChannel) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		a.PendingChannelID,
		a.DustLimit,
		a.MaxValueInFlight,
		a.ChannelReserve,
		a.HtlcMinimum,
		a.MinAcceptDepth,
		a.CsvDelay,
		a.MaxAcceptedHTLCs,
		a.FundingKey,
		a.RevocationPoint,
		a.PaymentPoint,
		a.DelayedPaymentPoint,
		a.HtlcPoint,
		a.FirstCommitmentPoint,
	)
}

func (a *AcceptChannel) MsgType() MessageType { return MsgAcceptChannel }

func (a *AcceptChannel) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
