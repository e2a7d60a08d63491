package shachain

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrInvalidSecret is returned by Insert when the incoming secret cannot
// regenerate every secret already held at a bucket it dominates -- i.e.
// it's inconsistent with the hash tree built from secrets revealed so
// far, a protocol violation on the remote party's part.
var ErrInvalidSecret = errors.New("shachain: secret does not match tree " +
	"built from previously stored secrets")

type bucket struct {
	index  uint64
	secret Hash
}

// Store is the receiving side of the shachain scheme -- a per-peer compact
// store of per-commitment secrets the remote side has revealed via
// revoke_and_ack. It never holds more than maxHeight+1 (49) buckets,
// regardless of channel lifetime, because every earlier secret is
// reconstructible from later ones.
type Store struct {
	buckets [maxHeight + 1]*bucket
}

// NewStore returns an empty revocation store, ready to receive secrets as
// the remote party reveals them one commitment height at a time.
func NewStore() *Store {
	return &Store{}
}

// Insert records the secret the remote party revealed for commitHeight.
// It fails with ErrInvalidSecret, leaving the store unmodified, if the
// secret cannot regenerate every previously stored secret at a bucket it
// dominates -- which would mean the remote party is either buggy or
// attempting a protocol-level attack on the revocation scheme. Insert is
// idempotent: re-inserting the same secret at an already-stored index is
// a no-op, not an error.
func (s *Store) Insert(commitHeight uint64, rawSecret [32]byte) error {
	secret := Hash(rawSecret)
	index := generationIndex(commitHeight)
	b := trailingZeros(index)

	if s.buckets[b] != nil && s.buckets[b].index == index {
		if s.buckets[b].secret == secret {
			return nil
		}
		return fmt.Errorf("%w: height %d already has a different "+
			"secret on record", ErrInvalidSecret, commitHeight)
	}

	for i := uint(0); i < b; i++ {
		existing := s.buckets[i]
		if existing == nil {
			continue
		}

		derived, ok := deriveChild(secret, index, existing.index)
		if !ok || !bytes.Equal(derived[:], existing.secret[:]) {
			return fmt.Errorf("%w: inconsistent with bucket %d "+
				"(height %d)", ErrInvalidSecret, i,
				heightFromIndex(existing.index))
		}
	}

	s.buckets[b] = &bucket{index: index, secret: secret}
	return nil
}

// LookupSecret regenerates the per-commitment secret for commitHeight from
// whichever stored bucket dominates it. It returns false if no stored
// secret can reach that height -- either because it was never revealed,
// or because it's a height above every bucket's reach (a future, not yet
// revoked, commitment).
func (s *Store) LookupSecret(commitHeight uint64) ([32]byte, bool) {
	index := generationIndex(commitHeight)

	for _, b := range s.buckets {
		if b == nil {
			continue
		}
		if secret, ok := deriveChild(b.secret, b.index, index); ok {
			return [32]byte(secret), true
		}
	}

	return [32]byte{}, false
}

// HighestRevokedHeight returns the highest commitment height for which a
// secret has been revealed, and whether any has been revealed at all.
func (s *Store) HighestRevokedHeight() (uint64, bool) {
	var (
		found   bool
		highest uint64
	)

	for _, b := range s.buckets {
		if b == nil {
			continue
		}
		h := heightFromIndex(b.index)
		if !found || h > highest {
			highest = h
			found = true
		}
	}

	return highest, found
}
