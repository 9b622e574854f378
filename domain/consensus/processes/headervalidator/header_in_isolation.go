package headervalidator

import (
	"time"

	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
	"github.com/zecpow/zecpowd/domain/consensus/utils/consensushashing"
	"github.com/zecpow/zecpowd/domain/consensus/utils/difficulty"
	"github.com/zecpow/zecpowd/domain/consensus/utils/serialization"
)

// ValidateHeaderInIsolation decodes a header in wire format and runs every
// check that needs nothing but the header itself: the claimed target must be
// in range and met by the header hash, and the Equihash solution must be
// valid. Cheap checks run first.
func (v *headerValidator) ValidateHeaderInIsolation(headerBytes []byte) (
	*externalapi.DomainBlockHeader, *externalapi.DomainHash, error) {

	header, err := serialization.DeserializeHeader(headerBytes, v.solutionSize)
	if err != nil {
		return nil, nil, err
	}
	hash := consensushashing.HeaderBytesHash(headerBytes)

	err = v.checkProofOfWork(header, hash)
	if err != nil {
		return header, hash, err
	}

	err = v.checkEquihashSolution(header)
	if err != nil {
		return header, hash, err
	}

	return header, hash, nil
}

// checkProofOfWork ensures the header bits which indicate the target
// difficulty are in min/max range and that the header hash is not above the
// target difficulty as claimed.
func (v *headerValidator) checkProofOfWork(header *externalapi.DomainBlockHeader, hash *externalapi.DomainHash) error {
	target := difficulty.CompactToTarget(header.Bits)
	return difficulty.CheckProofOfWork(hash, target, v.params.PowLimit)
}

func (v *headerValidator) checkEquihashSolution(header *externalapi.DomainBlockHeader) error {
	start := time.Now()
	defer v.equihashTimer.UpdateSince(start)

	return v.equihashVerifier.Verify(serialization.PowHeaderBytes(header), header.Solution)
}
