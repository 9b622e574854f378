package headervalidator

import (
	"github.com/zecpow/zecpowd/domain/consensus/model"
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
)

// ValidateHeaderInContext checks the claimed bits against the difficulty
// required after the blocks in window. height must directly follow the
// window's tip. The window is only read.
func (v *headerValidator) ValidateHeaderInContext(header *externalapi.DomainBlockHeader,
	height uint32, window *model.DifficultyContext) error {

	return v.difficultyManager.VerifyDifficulty(window, height, header)
}
