package difficulty

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

// HashToBig converts a hash into a big.Int that can be used to
// perform math comparisons.
func HashToBig(hash *externalapi.DomainHash) *big.Int {
	// A Hash is in little-endian, but the big package wants the bytes in
	// big-endian, so reverse them.
	buf := hash.ByteArray()
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}

	return new(big.Int).SetBytes(buf[:])
}

// CheckProofOfWork ensures the target is in the range (0, powLimit] and that
// the header hash does not exceed it.
func CheckProofOfWork(headerHash *externalapi.DomainHash, target Target, powLimit *big.Int) error {
	if target.IsZero() {
		return errors.Wrapf(ruleerrors.ErrTargetOutOfBounds, "block target difficulty of %s is zero", target)
	}

	if target.Cmp(powLimit) > 0 {
		return errors.Wrapf(ruleerrors.ErrTargetOutOfBounds, "block target difficulty of %s is "+
			"higher than max of %064x", target, powLimit)
	}

	hashNum := HashToBig(headerHash)
	if target.Cmp(hashNum) < 0 {
		return errors.Wrapf(ruleerrors.ErrHashAboveTarget, "block hash of %064x is higher than "+
			"expected max of %s", hashNum, target)
	}

	return nil
}
