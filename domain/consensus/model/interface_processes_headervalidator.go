package model

import (
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
)

// HeaderValidator exposes the proof of work checks of a header, split into
// the checks that need nothing but the header and the checks that need the
// preceding blocks
type HeaderValidator interface {
	ValidateHeaderInIsolation(headerBytes []byte) (*externalapi.DomainBlockHeader, *externalapi.DomainHash, error)
	ValidateHeaderInContext(header *externalapi.DomainBlockHeader, height uint32, window *DifficultyContext) error
	Verify(headerBytes []byte, height uint32, window *DifficultyContext) *Outcome
}

// Outcome is the result of verifying a single header. Err is nil for a
// verified header and otherwise holds the first rule it broke.
type Outcome struct {
	Header *externalapi.DomainBlockHeader
	Hash   *externalapi.DomainHash
	Err    error
}

// IsVerified returns whether the header passed every check
func (o *Outcome) IsVerified() bool {
	return o.Err == nil
}
