// Package channeldb defines the persisted-state shape a channel checkpoints
// after every update: configuration, per-side commitment snapshots, pending
// HTLCs, and close summaries. It holds no storage engine of its own --
// callers own how these structs are written to disk; this package only
// defines what gets written.
package channeldb

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchancore/chancore/keychain"
	"github.com/lnchancore/chancore/lnwire"
)

// ChannelType distinguishes how a channel's capacity was contributed, which
// in turn shapes fee negotiation and the closing flow.
type ChannelType uint8

const (
	// SingleFunder is a channel wherein one party alone funds capacity.
	SingleFunder ChannelType = 0

	// SingleFunderTweakless is SingleFunder with the to_remote output
	// left untweaked by the per-commitment point (BOLT-3 "option_static_
	// remotekey"), simplifying recovery from seed.
	SingleFunderTweakless ChannelType = 1

	// AnchorOutputs is SingleFunderTweakless with anchor outputs added
	// to both commitment transactions.
	AnchorOutputs ChannelType = 2
)

// HasAnchors reports whether this channel type carries anchor outputs.
func (c ChannelType) HasAnchors() bool {
	return c == AnchorOutputs
}

// IsTweakless reports whether the to_remote output skips the per-commitment
// tweak.
func (c ChannelType) IsTweakless() bool {
	return c == SingleFunderTweakless || c == AnchorOutputs
}

// ChannelConstraints bounds one side's exposure for the life of the channel.
// Both sides enforce the constraints the OTHER side announced at open time.
type ChannelConstraints struct {
	// DustLimit is the output value, in satoshis, below which an output
	// is trimmed from the commitment transaction rather than created.
	DustLimit btcutil.Amount

	// ChanReserve is the minimum balance, in satoshis, this side must
	// always keep in the channel -- a floor under the "nothing left to
	// lose" griefing incentive.
	ChanReserve btcutil.Amount

	// MaxPendingAmount bounds the total value of this side's in-flight
	// offered HTLCs.
	MaxPendingAmount lnwire.MilliSatoshi

	// MinHTLC is the smallest HTLC value this side will accept.
	MinHTLC lnwire.MilliSatoshi

	// MaxAcceptedHtlcs bounds the number of HTLCs this side will accept
	// in-flight at once.
	MaxAcceptedHtlcs uint16
}

// ChannelConfig mirrors one side's static, negotiated-at-open parameters:
// constraints, the CSV delay applied to its own to_local output, and its
// five basepoints.
type ChannelConfig struct {
	ChannelConstraints

	// CsvDelay is the relative locktime, in blocks, any to_local output
	// paying this side must observe before becoming spendable.
	CsvDelay uint16

	MultiSigKey         keychain.KeyDescriptor
	RevocationBasePoint keychain.KeyDescriptor
	PaymentBasePoint    keychain.KeyDescriptor
	DelayBasePoint      keychain.KeyDescriptor
	HtlcBasePoint       keychain.KeyDescriptor
}

// HTLC is a pending HTLC as it appears on one party's commitment
// transaction at a particular commitment height.
type HTLC struct {
	// Incoming is true if this HTLC was offered to the commitment owner
	// by the counterparty; false if the owner offered it.
	Incoming bool

	// Amt is the value of the HTLC.
	Amt lnwire.MilliSatoshi

	// RHash is the payment hash the HTLC is locked to.
	RHash [32]byte

	// RefundTimeout is the absolute block height (CLTV expiry) at which
	// an offered HTLC may be timed out by its offerer.
	RefundTimeout uint32

	// OutputIndex is this HTLC's output index on the commitment
	// transaction it appears on, or -1 if trimmed as dust.
	OutputIndex int32

	// HtlcIndex is the log index the offering party assigned this HTLC.
	HtlcIndex uint64

	// LogIndex is the position of the add in the offering party's
	// update log.
	LogIndex uint64
}

// ChannelCommitment snapshots commitment state at a single commitment
// height: balances, log/HTLC-index watermarks, the signed transaction, and
// every HTLC still pending at that height.
type ChannelCommitment struct {
	CommitHeight uint64

	LocalLogIndex  uint64
	LocalHtlcIndex uint64

	RemoteLogIndex  uint64
	RemoteHtlcIndex uint64

	LocalBalance  lnwire.MilliSatoshi
	RemoteBalance lnwire.MilliSatoshi

	CommitFee btcutil.Amount
	FeePerKw  btcutil.Amount

	CommitTx  *wire.MsgTx
	CommitSig []byte

	Htlcs []HTLC
}

// ChannelStatus is a bit vector recording whether an OpenChannel remains in
// its normal usable state.
type ChannelStatus uint8

const (
	// StatusDefault is the normal state of an open channel.
	StatusDefault ChannelStatus = 0

	// StatusBorked marks a channel that's entered an irreconcilable
	// state -- a breach or a desync it can't recover from -- and must
	// never be used to route payments again.
	StatusBorked ChannelStatus = 1 << 0

	// StatusCommitmentBroadcast marks a channel whose commitment
	// transaction has been broadcast, force-closing it.
	StatusCommitmentBroadcast ChannelStatus = 1 << 1

	// StatusLocalDataLoss marks a channel where a ChannelReestablish
	// exchange revealed the local party has lost state and must not
	// unilaterally close, to avoid broadcasting a penalizable commitment.
	StatusLocalDataLoss ChannelStatus = 1 << 2
)

func (s ChannelStatus) String() string {
	switch s {
	case StatusDefault:
		return "Default"
	case StatusBorked:
		return "Borked"
	case StatusCommitmentBroadcast:
		return "CommitmentBroadcast"
	case StatusLocalDataLoss:
		return "LocalDataLoss"
	default:
		return fmt.Sprintf("Unknown(%08b)", uint8(s))
	}
}

// LogUpdate is a single pending change to the commitment log -- an HTLC
// add/settle/fail or a fee update -- that has been locally logged but not
// yet covered by a signed commitment both sides have acknowledged.
type LogUpdate struct {
	LogIndex  uint64
	UpdateMsg lnwire.Message
}

// OpenChannel is the full persisted state of a channel: its static
// parameters, negotiated configuration for both sides, and the latest
// commitment snapshot for each side. It's a checkpoint record -- callers
// persist a new OpenChannel snapshot (or append a LogUpdate) after each
// state transition; this package has no opinion on the storage medium.
type OpenChannel struct {
	ChanType ChannelType

	ChainHash chainhash.Hash

	FundingOutpoint wire.OutPoint
	ShortChannelID  lnwire.ShortChannelID

	IsPending   bool
	IsInitiator bool

	chanStatus ChannelStatus

	FundingBroadcastHeight uint32
	NumConfsRequired       uint16
	ChannelFlags           lnwire.FundingFlag

	IdentityPub *btcec.PublicKey

	Capacity btcutil.Amount

	TotalMSatSent     lnwire.MilliSatoshi
	TotalMSatReceived lnwire.MilliSatoshi

	LocalChanCfg  ChannelConfig
	RemoteChanCfg ChannelConfig

	LocalCommitment  ChannelCommitment
	RemoteCommitment ChannelCommitment

	// RemoteCurrentRevocation is the per-commitment point the remote
	// party has committed to for their current (unrevoked) commitment.
	RemoteCurrentRevocation *btcec.PublicKey

	// RemoteNextRevocation is the per-commitment point the remote party
	// has pre-committed to for their NEXT commitment, handed over with
	// the most recent revoke_and_ack.
	RemoteNextRevocation *btcec.PublicKey

	// RevocationProducer derives this side's own per-commitment secrets.
	RevocationProducer ShachainProducer

	// RevocationStore reconstructs the remote party's revealed
	// per-commitment secrets.
	RevocationStore ShachainStore

	// FundingTxn is the funding transaction, retained until the channel
	// is confirmed.
	FundingTxn *wire.MsgTx

	// RevocationLog records, for every remote commitment height this
	// channel has revoked, the balances and HTLC set that commitment
	// carried. It's the breach-remedy trail a JusticeEngine consults to
	// rebuild and penalize a revoked commitment's outputs -- the signed
	// transaction itself is never retained, only what's needed to
	// reconstruct its outputs deterministically.
	RevocationLog map[uint64]RevocationLogEntry
}

// RevocationLogEntry is the trimmed-down record kept of a remote commitment
// once it's been revoked: enough to reconstruct the breaching transaction's
// outputs (balances, HTLC set, CSV delay) without retaining the commitment
// transaction or its signature.
type RevocationLogEntry struct {
	CommitHeight uint64

	OurBalance   lnwire.MilliSatoshi
	TheirBalance lnwire.MilliSatoshi

	CommitTxHash chainhash.Hash

	Htlcs []HTLC
}

// ShachainProducer is the subset of shachain.Producer this package depends
// on, kept as an interface so channeldb doesn't import shachain's concrete
// type into every consumer's transitive closure.
type ShachainProducer interface {
	AtHeight(height uint64) [32]byte
}

// ShachainStore is the subset of shachain.Store this package depends on.
type ShachainStore interface {
	Insert(height uint64, secret [32]byte) error
	LookupSecret(height uint64) ([32]byte, bool)
}

// ChanStatus returns the channel's current status bits.
func (c *OpenChannel) ChanStatus() ChannelStatus {
	return c.chanStatus
}

// ApplyChanStatus sets additional status bits on the channel -- e.g. marking
// it Borked after a breach is detected, or CommitmentBroadcast once a force
// close goes on-chain. Status bits are cumulative; they're never cleared
// automatically, since each marks an irreversible fact about the channel's
// history.
func (c *OpenChannel) ApplyChanStatus(status ChannelStatus) {
	c.chanStatus |= status
}

// HasChanStatus reports whether every bit in status is currently set.
func (c *OpenChannel) HasChanStatus(status ChannelStatus) bool {
	return c.chanStatus&status == status
}

// ChannelCloseSummary is the terminal record written once a channel leaves
// the chain entirely -- the final on-chain classification and settlement
// details needed to explain why the channel closed.
type ChannelCloseSummary struct {
	ChanPoint wire.OutPoint
	ChainHash chainhash.Hash

	ClosingTXID chainhash.Hash

	RemotePub *btcec.PublicKey
	Capacity  btcutil.Amount

	SettledBalance    btcutil.Amount
	TimeLockedBalance btcutil.Amount

	CloseType   CloseType
	IsPending   bool
	CloseHeight uint32
}

// CloseType enumerates why a channel's lifecycle ended.
type CloseType uint8

const (
	CloseTypeCooperative CloseType = iota
	CloseTypeLocalForce
	CloseTypeRemoteForce
	CloseTypeBreach
)

// ChannelSnapshot is a read-only, point-in-time view of a channel's state
// suitable for exposing to callers that shouldn't be able to mutate the
// channel's internal log or commitment chain directly.
type ChannelSnapshot struct {
	ChannelPoint  wire.OutPoint
	ChanType      ChannelType
	Capacity      btcutil.Amount
	LocalBalance  lnwire.MilliSatoshi
	RemoteBalance lnwire.MilliSatoshi
	ChannelCommitment
}
