package difficultymanager

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/model"
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
	"github.com/zecpow/zecpowd/domain/consensus/utils/difficulty"
	"github.com/zecpow/zecpowd/domain/dagconfig"
)

// maxUint256 masks intermediate results the way 256-bit arithmetic wraps.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// difficultyManager resolves the bits a block must carry from the blocks
// preceding it
type difficultyManager struct {
	params *dagconfig.Params
}

// New instantiates a new DifficultyManager
func New(params *dagconfig.Params) model.DifficultyManager {
	return &difficultyManager{
		params: params,
	}
}

// WindowSize returns how many previous blocks a DifficultyContext needs to
// hold for RequiredDifficulty to work past the early chain.
func (dm *difficultyManager) WindowSize() int {
	return dm.params.DifficultyWindowSize()
}

// RequiredDifficulty returns the bits a block at height with the given time
// must carry, given the window of blocks directly preceding it.
func (dm *difficultyManager) RequiredDifficulty(window *model.DifficultyContext,
	height uint32, headerTime uint32) (uint32, error) {

	tipHeight, ok := window.TipHeight()
	if !ok {
		if height == 0 {
			return dm.params.PowLimitBits, nil
		}
		return 0, errors.Wrapf(ruleerrors.ErrInsufficientContext, "no previous blocks to "+
			"compute the difficulty of height %d", height)
	}
	if height != tipHeight+1 {
		return 0, ruleerrors.NewErrHeightMismatch(tipHeight+1, height)
	}

	entries := window.Entries()
	last := entries[len(entries)-1]

	if dm.params.PowNoRetargeting {
		return last.Bits, nil
	}

	if dm.params.PowAllowMinDifficultyBlocks && tipHeight >= dm.params.PowAllowMinDifficultyBlocksAfterHeight &&
		int64(headerTime) > int64(last.Time)+dm.params.MinDifficultyGap(height) {

		log.Debugf("Block at height %d trails its parent by %d seconds, "+
			"allowing minimum difficulty", height, int64(headerTime)-int64(last.Time))
		return dm.params.PowLimitBits, nil
	}

	averagingWindow := dm.params.PowAveragingWindow
	if int(tipHeight) < averagingWindow {
		return dm.params.PowLimitBits, nil
	}

	required := dm.WindowSize()
	if int(tipHeight)+1 < required {
		required = int(tipHeight) + 1
	}
	if len(entries) < required {
		return 0, errors.Wrapf(ruleerrors.ErrInsufficientContext, "the difficulty of height %d "+
			"needs %d previous blocks, but only %d are known", height, required, len(entries))
	}

	averageTarget := dm.averageTarget(entries[len(entries)-averagingWindow:])

	lastMedianTimePast := dm.medianTimePast(entries, len(entries)-1)
	firstMedianTimePast := dm.medianTimePast(entries, len(entries)-1-averagingWindow)

	bits := dm.calculateNextWorkRequired(averageTarget, lastMedianTimePast, firstMedianTimePast, height)
	log.Tracef("Required bits at height %d are %08x (average target %064x, "+
		"median times %d and %d)", height, bits, averageTarget, firstMedianTimePast, lastMedianTimePast)
	return bits, nil
}

// VerifyDifficulty checks that the header carries the bits required at height.
func (dm *difficultyManager) VerifyDifficulty(window *model.DifficultyContext,
	height uint32, header *externalapi.DomainBlockHeader) error {

	expected, err := dm.RequiredDifficulty(window, height, header.Time)
	if err != nil {
		return err
	}
	if header.Bits != expected {
		return ruleerrors.NewErrContextualDifficultyMismatch(expected, header.Bits)
	}
	return nil
}

func (dm *difficultyManager) averageTarget(entries []model.DifficultyContextEntry) *big.Int {
	total := new(big.Int)
	for _, entry := range entries {
		total.Add(total, difficulty.CompactToTarget(entry.Bits).Big())
	}
	total.And(total, maxUint256)
	return total.Div(total, big.NewInt(int64(len(entries))))
}

// medianTimePast returns the median time of up to PowMedianBlockSpan blocks
// ending with entries[end]. Fewer blocks are used near genesis.
func (dm *difficultyManager) medianTimePast(entries []model.DifficultyContextEntry, end int) int64 {
	start := end + 1 - dm.params.PowMedianBlockSpan
	if start < 0 {
		start = 0
	}

	times := make([]int64, 0, end+1-start)
	for _, entry := range entries[start : end+1] {
		times = append(times, int64(entry.Time))
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[len(times)/2]
}

func (dm *difficultyManager) calculateNextWorkRequired(averageTarget *big.Int,
	lastMedianTimePast, firstMedianTimePast int64, height uint32) uint32 {

	averagingWindowTimespan := dm.params.AveragingWindowTimespan(height)
	minActualTimespan := dm.params.MinActualTimespan(height)
	maxActualTimespan := dm.params.MaxActualTimespan(height)

	// Medians of block times prevent time-warp attacks
	actualTimespan := lastMedianTimePast - firstMedianTimePast
	actualTimespan = averagingWindowTimespan + (actualTimespan-averagingWindowTimespan)/dm.params.PowDampingFactor
	if actualTimespan < minActualTimespan {
		actualTimespan = minActualTimespan
	}
	if actualTimespan > maxActualTimespan {
		actualTimespan = maxActualTimespan
	}

	newTarget := new(big.Int).Div(averageTarget, big.NewInt(averagingWindowTimespan))
	newTarget.Mul(newTarget, big.NewInt(actualTimespan))
	newTarget.And(newTarget, maxUint256)
	if newTarget.Cmp(dm.params.PowLimit) > 0 {
		newTarget.Set(dm.params.PowLimit)
	}
	return difficulty.BigToCompact(newTarget)
}
