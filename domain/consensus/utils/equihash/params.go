package equihash

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

// MaxLeafHashLength bounds the expanded leaf hash length of any supported
// parameter set. It sizes the fixed hash buffers of the merge tree.
const MaxLeafHashLength = 64

// personalizationPrefix domain separates Equihash leaf hashes.
const personalizationPrefix = "ZcashPoW"

// Params are the Equihash (n, k) parameters.
type Params struct {
	N uint32
	K uint32
}

// NewParams returns validated Equihash parameters.
func NewParams(n, k uint32) (Params, error) {
	params := Params{N: n, K: k}
	err := params.Validate()
	if err != nil {
		return Params{}, err
	}
	return params, nil
}

// Validate checks that the parameters describe a verifiable Equihash instance.
func (p Params) Validate() error {
	if p.N == 0 || p.N%8 != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "equihash n=%d is not a positive multiple of 8", p.N)
	}
	if p.N > 512 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "equihash n=%d exceeds the 512 bit BLAKE2b output", p.N)
	}
	if p.K < 3 || p.K >= p.N {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "equihash k=%d must be at least 3 and below n=%d", p.K, p.N)
	}
	if p.N%(p.K+1) != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "equihash n=%d is not divisible by k+1=%d", p.N, p.K+1)
	}
	collisionBitLength := p.CollisionBitLength()
	if collisionBitLength < 8 || collisionBitLength+1 > 25 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "equihash collision length of %d bits "+
			"is outside [8, 24]", collisionBitLength)
	}
	if p.LeafHashLength() > MaxLeafHashLength {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "equihash leaf hash length %d exceeds %d",
			p.LeafHashLength(), MaxLeafHashLength)
	}
	return nil
}

// CollisionBitLength is the number of bits that must collide at each merge.
func (p Params) CollisionBitLength() int {
	return int(p.N / (p.K + 1))
}

// CollisionByteLength is CollisionBitLength rounded up to whole bytes.
func (p Params) CollisionByteLength() int {
	return (p.CollisionBitLength() + 7) / 8
}

// IndexBitLength is the width of a single index in the minimal encoding.
func (p Params) IndexBitLength() int {
	return p.CollisionBitLength() + 1
}

// NumIndices is the number of indices in a solution, 2^k.
func (p Params) NumIndices() int {
	return 1 << p.K
}

// SolutionSize is the length in bytes of a minimally encoded solution.
func (p Params) SolutionSize() int {
	return p.NumIndices() * p.IndexBitLength() / 8
}

// IndicesPerHashOutput is the number of leaves cut from one digest.
func (p Params) IndicesPerHashOutput() int {
	return int(512 / p.N)
}

// HashOutputLength is the digest length requested from the personalized hash.
func (p Params) HashOutputLength() int {
	return p.IndicesPerHashOutput() * int(p.N) / 8
}

// LeafHashLength is the length of an expanded leaf hash: k+1 collision
// chunks, each in its own CollisionByteLength cell.
func (p Params) LeafHashLength() int {
	return int(p.K+1) * p.CollisionByteLength()
}

// Personalization returns the BLAKE2b personalization for these parameters:
// "ZcashPoW" followed by n and k as little endian 32 bit integers.
func (p Params) Personalization() []byte {
	personalization := make([]byte, 16)
	copy(personalization, personalizationPrefix)
	binary.LittleEndian.PutUint32(personalization[8:], p.N)
	binary.LittleEndian.PutUint32(personalization[12:], p.K)
	return personalization
}
