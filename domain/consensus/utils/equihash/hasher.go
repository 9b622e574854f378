package equihash

import (
	"github.com/dchest/blake2b"
	"github.com/pkg/errors"
)

// PersonalizedHasher computes a digest of seed, domain separated by
// personalization, with the requested output length. Implementations must
// be safe for concurrent use.
type PersonalizedHasher interface {
	PersonalizedHash(seed []byte, personalization []byte, outputLength int) ([]byte, error)
}

// Blake2bHasher computes personalized BLAKE2b digests natively.
type Blake2bHasher struct{}

// PersonalizedHash implements PersonalizedHasher.
func (Blake2bHasher) PersonalizedHash(seed []byte, personalization []byte, outputLength int) ([]byte, error) {
	if outputLength <= 0 || outputLength > blake2b.Size {
		return nil, errors.Errorf("BLAKE2b output length %d is outside [1, %d]", outputLength, blake2b.Size)
	}
	hasher, err := blake2b.New(&blake2b.Config{
		Size:   uint8(outputLength),
		Person: personalization,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// hash.Hash writes never return an error.
	_, _ = hasher.Write(seed)
	return hasher.Sum(nil), nil
}
