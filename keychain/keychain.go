// Package keychain derives the set of keys a channel needs from a single
// master seed, along the BIP-32 path LNPBP-46/BOLT-3 reserve for Lightning:
// m / 9735' / coin_type' / account' / change / channel_index. No basepoint
// private key is ever handed to a channel; callers obtain signatures and
// revealed per-commitment secrets through the KeyRing capability interface
// instead, keeping the seed itself behind a single trust boundary (the key
// holder), per the external-capability design in the source spec.
package keychain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// KeyFamily enumerates the five basepoints BOLT-3 channels use. Each has
// its own (hardened) BIP-32 branch so that compromising one basepoint
// branch's private keys doesn't reveal any of the others.
type KeyFamily uint32

const (
	KeyFamilyFunding KeyFamily = iota
	KeyFamilyRevocationBase
	KeyFamilyPaymentBase
	KeyFamilyDelayBase
	KeyFamilyHtlcBase
)

// purposeLightning is the BIP-43 purpose field reserved for Lightning key
// derivation (LNPBP-46), always hardened.
const purposeLightning = 9735

// KeyLocator pins down exactly which key a KeyDescriptor refers to within
// the BIP-32 tree, without revealing anything about the key material
// itself. It's safe to pass a KeyLocator to the key holder to request a
// signature.
type KeyLocator struct {
	// Family is the key family (basepoint purpose) branch.
	Family KeyFamily

	// Index is the non-hardened child index within the family, equal to
	// the channel's index for per-channel basepoints.
	Index uint32
}

// KeyDescriptor pairs a KeyLocator with the public key it resolves to. The
// corresponding private key never leaves the key holder.
type KeyDescriptor struct {
	KeyLocator
	PubKey *btcec.PublicKey
}

// ChannelBasepoints collects the five basepoints (one per KeyFamily) a
// side of a channel commits to at open time. They're immutable for the
// life of the channel.
type ChannelBasepoints struct {
	FundingKey          KeyDescriptor
	RevocationBasePoint KeyDescriptor
	PaymentBasePoint    KeyDescriptor
	DelayBasePoint      KeyDescriptor
	HtlcBasePoint       KeyDescriptor
}

// KeyRing is the key holder capability the channel core consumes to derive
// and use basepoints, without ever touching the underlying seed or
// basepoint private keys. A concrete implementation might keep the seed in
// a hardware module, a separate signer process, or an in-memory wallet; the
// core is agnostic to which.
type KeyRing interface {
	// DeriveKey derives the public/private keypair for the given
	// locator, returning only the KeyDescriptor (public half); used
	// internally by a KeyRing implementation, never exposed raw to a
	// channel.
	DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error)

	// DeriveNextKey derives the next key in the KeyFamily's child
	// sequence, for key families that aren't pinned to a fixed
	// per-channel index (e.g. multisig keys used once per channel).
	DeriveNextKey(keyFam KeyFamily) (KeyDescriptor, error)
}

// ChannelKeyDeriver derives the full set of per-channel basepoints for a
// given channel index. It's the concrete half of the KeyDeriver contract in
// the source spec: given an index, it produces the five basepoints (public
// halves only) a channel needs to advertise in open_channel/accept_channel.
type ChannelKeyDeriver struct {
	ring KeyRing
}

// NewChannelKeyDeriver builds a ChannelKeyDeriver around a KeyRing.
func NewChannelKeyDeriver(ring KeyRing) *ChannelKeyDeriver {
	return &ChannelKeyDeriver{ring: ring}
}

// DeriveChannelBasepoints derives {funding, revocation, payment,
// delayed_payment, htlc} basepoints for the channel at the given index,
// along m / 9735' / coin_type' / account' / change / channel_index.
func (c *ChannelKeyDeriver) DeriveChannelBasepoints(index uint32) (ChannelBasepoints, error) {
	families := []KeyFamily{
		KeyFamilyFunding,
		KeyFamilyRevocationBase,
		KeyFamilyPaymentBase,
		KeyFamilyDelayBase,
		KeyFamilyHtlcBase,
	}

	descs := make([]KeyDescriptor, len(families))
	for i, fam := range families {
		desc, err := c.ring.DeriveKey(KeyLocator{Family: fam, Index: index})
		if err != nil {
			return ChannelBasepoints{}, fmt.Errorf("unable to "+
				"derive key family %v at index %d: %w", fam, index, err)
		}
		descs[i] = desc
	}

	return ChannelBasepoints{
		FundingKey:          descs[0],
		RevocationBasePoint: descs[1],
		PaymentBasePoint:    descs[2],
		DelayBasePoint:      descs[3],
		HtlcBasePoint:       descs[4],
	}, nil
}
