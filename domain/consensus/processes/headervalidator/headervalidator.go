package headervalidator

import (
	"github.com/rcrowley/go-metrics"
	"github.com/zecpow/zecpowd/domain/consensus/model"
	"github.com/zecpow/zecpowd/domain/consensus/utils/equihash"
	"github.com/zecpow/zecpowd/domain/dagconfig"
	zecmetrics "github.com/zecpow/zecpowd/infrastructure/metrics"
)

// headerValidator exposes the proof of work checks of a Zcash-family header
type headerValidator struct {
	params            *dagconfig.Params
	solutionSize      int
	equihashVerifier  *equihash.Verifier
	difficultyManager model.DifficultyManager

	verifiedCounter metrics.Counter
	equihashTimer   metrics.Timer
}

// New instantiates a new HeaderValidator. equihashConfig may be nil.
// Invalid params are reported as ruleerrors.ErrInvalidParams.
func New(params *dagconfig.Params,
	difficultyManager model.DifficultyManager,
	equihashConfig *equihash.Config) (model.HeaderValidator, error) {

	err := params.Validate()
	if err != nil {
		return nil, err
	}
	verifier, err := equihash.NewVerifier(params.EquihashParams(), equihashConfig)
	if err != nil {
		return nil, err
	}

	return &headerValidator{
		params:            params,
		solutionSize:      verifier.Params().SolutionSize(),
		equihashVerifier:  verifier,
		difficultyManager: difficultyManager,

		verifiedCounter: zecmetrics.NewCounter("headervalidator/verified"),
		equihashTimer:   zecmetrics.NewTimer("headervalidator/equihash"),
	}, nil
}
