package model

import "github.com/zecpow/zecpowd/domain/consensus/model/externalapi"

// DifficultyManager derives the compact target a header at a given height
// must carry from the window of blocks below it.
type DifficultyManager interface {
	RequiredDifficulty(window *DifficultyContext, height uint32, headerTime uint32) (uint32, error)
	VerifyDifficulty(window *DifficultyContext, height uint32, header *externalapi.DomainBlockHeader) error
	WindowSize() int
}
