package keychain

import (
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

// fakeKeyRing derives deterministic keys from the family/index pair alone,
// so tests can assert exactly which locators were requested.
type fakeKeyRing struct {
	derived      []KeyLocator
	nextFamilies []KeyFamily
	failFamily   KeyFamily
	shouldFail   bool
}

func (f *fakeKeyRing) DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error) {
	f.derived = append(f.derived, keyLoc)
	if f.shouldFail && keyLoc.Family == f.failFamily {
		return KeyDescriptor{}, fmt.Errorf("derivation failed for family %v", keyLoc.Family)
	}

	_, pub := btcec.PrivKeyFromBytes([]byte{
		byte(keyLoc.Family), byte(keyLoc.Index), 0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e,
		0x0f, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
		0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e,
	})

	return KeyDescriptor{KeyLocator: keyLoc, PubKey: pub}, nil
}

func (f *fakeKeyRing) DeriveNextKey(keyFam KeyFamily) (KeyDescriptor, error) {
	f.nextFamilies = append(f.nextFamilies, keyFam)
	return f.DeriveKey(KeyLocator{Family: keyFam})
}

func TestDeriveChannelBasepointsDerivesAllFiveFamilies(t *testing.T) {
	t.Parallel()

	ring := &fakeKeyRing{}
	deriver := NewChannelKeyDeriver(ring)

	basepoints, err := deriver.DeriveChannelBasepoints(7)
	require.NoError(t, err)

	require.Equal(t, KeyFamilyFunding, basepoints.FundingKey.Family)
	require.Equal(t, KeyFamilyRevocationBase, basepoints.RevocationBasePoint.Family)
	require.Equal(t, KeyFamilyPaymentBase, basepoints.PaymentBasePoint.Family)
	require.Equal(t, KeyFamilyDelayBase, basepoints.DelayBasePoint.Family)
	require.Equal(t, KeyFamilyHtlcBase, basepoints.HtlcBasePoint.Family)

	for _, desc := range []KeyDescriptor{
		basepoints.FundingKey, basepoints.RevocationBasePoint,
		basepoints.PaymentBasePoint, basepoints.DelayBasePoint,
		basepoints.HtlcBasePoint,
	} {
		require.Equal(t, uint32(7), desc.Index)
		require.NotNil(t, desc.PubKey)
	}

	require.Len(t, ring.derived, 5)
}

func TestDeriveChannelBasepointsPropagatesFailure(t *testing.T) {
	t.Parallel()

	ring := &fakeKeyRing{shouldFail: true, failFamily: KeyFamilyHtlcBase}
	deriver := NewChannelKeyDeriver(ring)

	_, err := deriver.DeriveChannelBasepoints(3)
	require.Error(t, err)
}

func TestKeyLocatorDistinguishesFamilyAndIndex(t *testing.T) {
	t.Parallel()

	ring := &fakeKeyRing{}
	deriver := NewChannelKeyDeriver(ring)

	a, err := deriver.DeriveChannelBasepoints(1)
	require.NoError(t, err)
	b, err := deriver.DeriveChannelBasepoints(2)
	require.NoError(t, err)

	require.NotEqual(t, a.FundingKey.PubKey.SerializeCompressed(),
		b.FundingKey.PubKey.SerializeCompressed())
	require.NotEqual(t, a.FundingKey.PubKey.SerializeCompressed(),
		a.RevocationBasePoint.PubKey.SerializeCompressed())
}
