package input

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// SingleTweakBytes computes the BOLT-3 per-commitment tweak
// sha256(perCommitmentPoint || basePoint), applied to the payment and
// delayed-payment basepoints (and their private counterparts) so every
// commitment transaction uses a fresh, unlinkable key for those outputs.
func SingleTweakBytes(perCommitmentPoint, basePoint *btcec.PublicKey) []byte {
	tweak := tweakHash(perCommitmentPoint, basePoint)
	return tweak[:]
}

// TweakPubKey derives the per-commitment public key for basePoint: the
// basepoint's public point plus G*SingleTweakBytes(commitPoint, basePoint).
func TweakPubKey(basePoint, commitPoint *btcec.PublicKey) *btcec.PublicKey {
	tweak := SingleTweakBytes(commitPoint, basePoint)
	return addTweakToPubkey(basePoint, tweak)
}

// TweakPrivKey derives the per-commitment private key for a basepoint
// secret, the private counterpart to TweakPubKey: baseSecret +
// SingleTweakBytes(commitPoint, basePoint) mod N.
func TweakPrivKey(baseSecret *btcec.PrivateKey, commitTweak []byte) *btcec.PrivateKey {
	curve := btcec.S256()

	baseScalar := new(big.Int).SetBytes(baseSecret.Serialize())
	tweakScalar := new(big.Int).SetBytes(commitTweak)

	sum := new(big.Int).Add(baseScalar, tweakScalar)
	sum.Mod(sum, curve.N)

	privKey, _ := btcec.PrivKeyFromBytes(padTo32(sum.Bytes()))
	return privKey
}

func addTweakToPubkey(base *btcec.PublicKey, tweak []byte) *btcec.PublicKey {
	curve := btcec.S256()

	baseECDSA := base.ToECDSA()
	tx, ty := curve.ScalarBaseMult(tweak)
	sumX, sumY := curve.Add(baseECDSA.X, baseECDSA.Y, tx, ty)

	var x, y btcec.FieldVal
	x.SetByteSlice(padTo32(sumX.Bytes()))
	y.SetByteSlice(padTo32(sumY.Bytes()))

	return btcec.NewPublicKey(&x, &y)
}
