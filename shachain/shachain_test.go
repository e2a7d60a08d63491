package shachain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProducerDeterministic(t *testing.T) {
	t.Parallel()

	seed := [32]byte{0x01, 0x02, 0x03}
	p := NewProducer(seed)

	a := p.AtHeight(0)
	b := p.AtHeight(0)
	require.Equal(t, a, b)

	c := p.AtHeight(1)
	require.NotEqual(t, a, c)
}

func TestStoreRoundTripAllHeights(t *testing.T) {
	t.Parallel()

	seed := [32]byte{0xaa, 0xbb, 0xcc, 0xdd}
	p := NewProducer(seed)
	store := NewStore()

	const n = 200
	for height := uint64(0); height < n; height++ {
		require.NoError(t, store.Insert(height, p.AtHeight(height)))
	}

	for height := uint64(0); height < n; height++ {
		secret, ok := store.LookupSecret(height)
		require.True(t, ok, "height %d", height)
		require.Equal(t, p.AtHeight(height), secret, "height %d", height)
	}
}

func TestStoreInsertIdempotent(t *testing.T) {
	t.Parallel()

	seed := [32]byte{0x01}
	p := NewProducer(seed)
	store := NewStore()

	secret := p.AtHeight(5)
	require.NoError(t, store.Insert(5, secret))
	require.NoError(t, store.Insert(5, secret))
}

func TestStoreInsertRejectsConflictingSecretAtSameHeight(t *testing.T) {
	t.Parallel()

	store := NewStore()
	require.NoError(t, store.Insert(5, [32]byte{0x01}))

	err := store.Insert(5, [32]byte{0x02})
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestStoreInsertRejectsSecretInconsistentWithEarlierBucket(t *testing.T) {
	t.Parallel()

	seed := [32]byte{0x01}
	p := NewProducer(seed)
	store := NewStore()

	// Insert a valid secret for height 10, then try to insert an
	// unrelated secret for height 5 -- which lands in a higher bucket, so
	// the stored height-10 secret must be derivable from it, and a random
	// secret can't produce it.
	require.NoError(t, store.Insert(10, p.AtHeight(10)))

	err := store.Insert(5, [32]byte{0xff, 0xff, 0xff})
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestStoreLookupSecretMissingHeight(t *testing.T) {
	t.Parallel()

	store := NewStore()
	_, ok := store.LookupSecret(42)
	require.False(t, ok)
}

func TestStoreHighestRevokedHeight(t *testing.T) {
	t.Parallel()

	seed := [32]byte{0x02}
	p := NewProducer(seed)
	store := NewStore()

	_, found := store.HighestRevokedHeight()
	require.False(t, found)

	for _, h := range []uint64{0, 1, 2, 3, 8, 9, 10} {
		require.NoError(t, store.Insert(h, p.AtHeight(h)))
	}

	highest, found := store.HighestRevokedHeight()
	require.True(t, found)
	require.Equal(t, uint64(10), highest)
}

func TestGenerationIndexRoundTrip(t *testing.T) {
	t.Parallel()

	for _, height := range []uint64{0, 1, 1000, 1 << 47} {
		require.Equal(t, height, heightFromIndex(generationIndex(height)))
	}
}

func TestDeriveChildRejectsNonDominatingParent(t *testing.T) {
	t.Parallel()

	seed := [32]byte{0x03}
	p := NewProducer(seed)

	// Height 10's index has zero trailing-zero bits (bucket 0), so its
	// secret dominates nothing but itself -- it can't regenerate the
	// secret for any other height.
	parentIndex := generationIndex(10)
	childIndex := generationIndex(11)

	_, ok := deriveChild(Hash(p.AtHeight(10)), parentIndex, childIndex)
	require.False(t, ok)
}
