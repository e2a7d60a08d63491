package lnwallet

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/lnchancore/chancore/channeldb"
	"github.com/lnchancore/chancore/input"
)

// CommitmentKeyRing holds every key a single version of a commitment
// transaction needs: the per-commitment-point-tweaked payment, HTLC, and
// delayed-payment keys for both sides, plus the revocation key the
// non-owning side could derive if this commitment is ever breached.
type CommitmentKeyRing struct {
	// CommitPoint is the per-commitment point this version of the
	// commitment transaction was built against.
	CommitPoint *btcec.PublicKey

	// LocalCommitKeyTweak is the tweak applied to the local payment
	// basepoint; handed to a Signer alongside a SignDescriptor targeting
	// the local party's own payment key.
	LocalCommitKeyTweak []byte

	// LocalHtlcKeyTweak is the tweak applied to the local HTLC basepoint.
	LocalHtlcKeyTweak []byte

	// LocalHtlcKey is the tweaked key used in the "to self" clause of
	// every HTLC script on this commitment.
	LocalHtlcKey *btcec.PublicKey

	// RemoteHtlcKey is the tweaked key used in the remote party's clause
	// of every HTLC script on this commitment.
	RemoteHtlcKey *btcec.PublicKey

	// DelayKey is the commitment owner's key guarding the CSV-delayed
	// branch of to_local (and of every second-stage HTLC transaction).
	DelayKey *btcec.PublicKey

	// NoDelayKey is the other party's key for the unencumbered
	// to_remote output (tweaked unless the channel negotiated
	// option_static_remotekey / anchors).
	NoDelayKey *btcec.PublicKey

	// RevocationKey is the key the non-owning party could use to claim
	// every output on this commitment, once its per-commitment secret
	// has been revealed.
	RevocationKey *btcec.PublicKey
}

// DeriveCommitmentKeys computes the full key ring for one version of a
// commitment transaction. isOurCommit selects whose commitment this is --
// the delay/no-delay/revocation role assignment flips between the two,
// since each party's to_local output is guarded by the OTHER party's
// revocation basepoint.
func DeriveCommitmentKeys(commitPoint *btcec.PublicKey, isOurCommit bool,
	chanType channeldb.ChannelType,
	localChanCfg, remoteChanCfg *channeldb.ChannelConfig) *CommitmentKeyRing {

	ring := &CommitmentKeyRing{
		CommitPoint: commitPoint,

		LocalCommitKeyTweak: input.SingleTweakBytes(
			commitPoint, localChanCfg.PaymentBasePoint.PubKey,
		),
		LocalHtlcKeyTweak: input.SingleTweakBytes(
			commitPoint, localChanCfg.HtlcBasePoint.PubKey,
		),

		LocalHtlcKey: input.TweakPubKey(
			localChanCfg.HtlcBasePoint.PubKey, commitPoint,
		),
		RemoteHtlcKey: input.TweakPubKey(
			remoteChanCfg.HtlcBasePoint.PubKey, commitPoint,
		),
	}

	var (
		delayBasePoint      *btcec.PublicKey
		noDelayBasePoint    *btcec.PublicKey
		revocationBasePoint *btcec.PublicKey
	)
	if isOurCommit {
		delayBasePoint = localChanCfg.DelayBasePoint.PubKey
		noDelayBasePoint = remoteChanCfg.PaymentBasePoint.PubKey
		revocationBasePoint = remoteChanCfg.RevocationBasePoint.PubKey
	} else {
		delayBasePoint = remoteChanCfg.DelayBasePoint.PubKey
		noDelayBasePoint = localChanCfg.PaymentBasePoint.PubKey
		revocationBasePoint = localChanCfg.RevocationBasePoint.PubKey
	}

	ring.DelayKey = input.TweakPubKey(delayBasePoint, commitPoint)
	ring.RevocationKey = input.DeriveRevocationPubkey(revocationBasePoint, commitPoint)

	if chanType.IsTweakless() {
		// option_static_remotekey / anchors leave the to_remote key
		// untweaked, so a closed channel's funds remain spendable
		// from the wallet's static key without needing per-commitment
		// state.
		ring.NoDelayKey = noDelayBasePoint
	} else {
		ring.NoDelayKey = input.TweakPubKey(noDelayBasePoint, commitPoint)
	}

	return ring
}
