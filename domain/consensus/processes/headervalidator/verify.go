package headervalidator

import (
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/model"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
	zecmetrics "github.com/zecpow/zecpowd/infrastructure/metrics"
)

// Verify runs every check on a header in wire format expected at height,
// following the blocks in window, and reports the first failure. Decoding
// failures leave the outcome's Header and Hash nil.
func (v *headerValidator) Verify(headerBytes []byte, height uint32, window *model.DifficultyContext) *model.Outcome {
	header, hash, err := v.ValidateHeaderInIsolation(headerBytes)
	if err == nil {
		err = v.ValidateHeaderInContext(header, height, window)
	}
	outcome := &model.Outcome{Header: header, Hash: hash, Err: err}

	if err != nil {
		log.Debugf("Header at height %d rejected: %s", height, err)
		zecmetrics.NewCounter("headervalidator/rejected/" + rejectionCode(err)).Inc(1)
		return outcome
	}
	log.Tracef("Header %s at height %d verified", hash, height)
	v.verifiedCounter.Inc(1)
	return outcome
}

func rejectionCode(err error) string {
	var ruleError ruleerrors.RuleError
	if errors.As(err, &ruleError) {
		return ruleError.Code()
	}
	return "unknown"
}
