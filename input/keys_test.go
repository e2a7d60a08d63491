package input

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func privKeyFromByte(b byte) *btcec.PrivateKey {
	var buf [32]byte
	buf[31] = b
	buf[0] = 0x01
	priv, _ := btcec.PrivKeyFromBytes(buf[:])
	return priv
}

func TestTweakPubPrivKeyMatch(t *testing.T) {
	t.Parallel()

	baseSecret := privKeyFromByte(0x01)
	commitSecret := privKeyFromByte(0x02)

	basePoint := baseSecret.PubKey()
	commitPoint := commitSecret.PubKey()

	tweakedPub := TweakPubKey(basePoint, commitPoint)

	tweak := SingleTweakBytes(commitPoint, basePoint)
	tweakedPriv := TweakPrivKey(baseSecret, tweak)

	require.True(t, tweakedPub.IsEqual(tweakedPriv.PubKey()))
}

func TestDeriveRevocationPubPrivKeyMatch(t *testing.T) {
	t.Parallel()

	revocationBaseSecret := privKeyFromByte(0x03)
	perCommitmentSecret := privKeyFromByte(0x04)

	revocationBase := revocationBaseSecret.PubKey()
	perCommitmentPoint := perCommitmentSecret.PubKey()

	derivedPub := DeriveRevocationPubkey(revocationBase, perCommitmentPoint)
	derivedPriv := DeriveRevocationPrivKey(revocationBaseSecret, perCommitmentSecret)

	require.True(t, derivedPub.IsEqual(derivedPriv.PubKey()))
}

func TestDeriveRevocationPubkeyVariesWithCommitmentPoint(t *testing.T) {
	t.Parallel()

	revocationBase := privKeyFromByte(0x05).PubKey()

	pubA := DeriveRevocationPubkey(revocationBase, privKeyFromByte(0x06).PubKey())
	pubB := DeriveRevocationPubkey(revocationBase, privKeyFromByte(0x07).PubKey())

	require.False(t, pubA.IsEqual(pubB))
}
