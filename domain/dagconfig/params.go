// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
	"github.com/zecpow/zecpowd/domain/consensus/utils/difficulty"
	"github.com/zecpow/zecpowd/domain/consensus/utils/equihash"
)

// These variables are the proof-of-work limit parameters for each default
// network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// oneLsh256 is 1 shifted left 256 bits.
	oneLsh256 = new(big.Int).Lsh(bigOne, 256)

	// mainPowLimit is the highest proof of work target a block can have
	// for the main network. It is the value 2^243 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 243), bigOne)

	// testnetPowLimit is the highest proof of work target a block can have
	// for the test network. It is the value 2^251 - 1.
	testnetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 251), bigOne)

	// regressionPowLimit is the highest proof of work target a block can
	// have for the regression test network: 0x0f0f...0f.
	regressionPowLimit, _ = new(big.Int).SetString("0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f", 16)
)

// NoActivationHeight marks a network upgrade that never activates.
const NoActivationHeight = ^uint32(0)

const (
	powAveragingWindow          = 17
	powMedianBlockSpan          = 11
	powDampingFactor            = 4
	powMaxAdjustDown            = 32
	powMaxAdjustUp              = 16
	preBlossomPowTargetSpacing  = 150 * time.Second
	postBlossomPowTargetSpacing = 75 * time.Second

	// minDifficultySpacingMultiplier is how many target spacings a header may
	// trail its parent by before the min difficulty rule lets it carry the
	// pow limit.
	minDifficultySpacingMultiplier = 6
)

// Params defines a Zcash-family network by its proof of work parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// RPCPort defines the default JSON-RPC port of a full node on the network.
	RPCPort string

	// EquihashN and EquihashK are the Equihash parameters of the network.
	EquihashN uint32
	EquihashK uint32

	// PowLimit defines the highest allowed proof of work target for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work target for a
	// block in compact form.
	PowLimitBits uint32

	// PowAveragingWindow is the number of previous blocks whose targets are
	// averaged by the difficulty adjustment.
	PowAveragingWindow int

	// PowMedianBlockSpan is the number of block times a median time past is
	// taken over.
	PowMedianBlockSpan int

	// PowDampingFactor divides the deviation of the actual timespan from the
	// expected one before it is applied.
	PowDampingFactor int64

	// PowMaxAdjustDown and PowMaxAdjustUp bound the damped timespan, in
	// percent of the averaging window timespan. Adjusting down lowers the
	// difficulty.
	PowMaxAdjustDown int64
	PowMaxAdjustUp   int64

	// PreBlossomPowTargetSpacing and PostBlossomPowTargetSpacing are the
	// desired block intervals before and after the Blossom upgrade.
	PreBlossomPowTargetSpacing  time.Duration
	PostBlossomPowTargetSpacing time.Duration

	// BlossomActivationHeight is the first height using the post-Blossom
	// spacing. NoActivationHeight keeps the pre-Blossom spacing forever.
	BlossomActivationHeight uint32

	// PowAllowMinDifficultyBlocks enables the testnet rule letting a block
	// that trails its parent by more than six target spacings carry the pow
	// limit, once the parent is at or past PowAllowMinDifficultyBlocksAfterHeight.
	PowAllowMinDifficultyBlocks            bool
	PowAllowMinDifficultyBlocksAfterHeight uint32

	// PowNoRetargeting makes every block carry its parent's bits.
	PowNoRetargeting bool
}

// PowTargetSpacing returns the desired block interval at height, in seconds.
func (p *Params) PowTargetSpacing(height uint32) int64 {
	if height >= p.BlossomActivationHeight {
		return int64(p.PostBlossomPowTargetSpacing / time.Second)
	}
	return int64(p.PreBlossomPowTargetSpacing / time.Second)
}

// AveragingWindowTimespan returns the expected duration of an averaging
// window ending at height, in seconds.
func (p *Params) AveragingWindowTimespan(height uint32) int64 {
	return int64(p.PowAveragingWindow) * p.PowTargetSpacing(height)
}

// MinActualTimespan returns the lower bound of the damped timespan at height.
func (p *Params) MinActualTimespan(height uint32) int64 {
	return p.AveragingWindowTimespan(height) * (100 - p.PowMaxAdjustUp) / 100
}

// MaxActualTimespan returns the upper bound of the damped timespan at height.
func (p *Params) MaxActualTimespan(height uint32) int64 {
	return p.AveragingWindowTimespan(height) * (100 + p.PowMaxAdjustDown) / 100
}

// MinDifficultyGap returns how many seconds a block at height may trail its
// parent before the min difficulty rule applies.
func (p *Params) MinDifficultyGap(height uint32) int64 {
	return minDifficultySpacingMultiplier * p.PowTargetSpacing(height)
}

// DifficultyWindowSize is the number of previous blocks the difficulty
// adjustment looks at.
func (p *Params) DifficultyWindowSize() int {
	return p.PowAveragingWindow + p.PowMedianBlockSpan
}

// EquihashParams returns the Equihash parameters of the network.
func (p *Params) EquihashParams() equihash.Params {
	return equihash.Params{N: p.EquihashN, K: p.EquihashK}
}

// Validate makes sure the parameters are usable. Any error wraps
// ruleerrors.ErrInvalidParams.
func (p *Params) Validate() error {
	err := p.EquihashParams().Validate()
	if err != nil {
		return err
	}

	if p.PowLimit == nil || p.PowLimit.Sign() <= 0 || p.PowLimit.Cmp(oneLsh256) >= 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "%s: pow limit must be in (0, 2^256)", p.Name)
	}
	limitBitsTarget := difficulty.CompactToTarget(p.PowLimitBits)
	if limitBitsTarget.IsZero() || limitBitsTarget.Cmp(p.PowLimit) > 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "%s: pow limit bits %08x decode to %s, "+
			"which is not in (0, %064x]", p.Name, p.PowLimitBits, limitBitsTarget, p.PowLimit)
	}

	if p.PowAveragingWindow < 1 || p.PowMedianBlockSpan < 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "%s: averaging window %d and median span %d "+
			"must be positive", p.Name, p.PowAveragingWindow, p.PowMedianBlockSpan)
	}
	if p.PowDampingFactor < 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "%s: damping factor %d must be positive",
			p.Name, p.PowDampingFactor)
	}
	if p.PowMaxAdjustUp < 0 || p.PowMaxAdjustUp >= 100 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "%s: max adjust up %d%% must be in [0, 100)",
			p.Name, p.PowMaxAdjustUp)
	}
	if p.PowMaxAdjustDown < 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "%s: max adjust down %d%% must not be negative",
			p.Name, p.PowMaxAdjustDown)
	}
	if p.PreBlossomPowTargetSpacing < time.Second || p.PostBlossomPowTargetSpacing < time.Second {
		return errors.Wrapf(ruleerrors.ErrInvalidParams, "%s: target spacings must be at least a second",
			p.Name)
	}
	return nil
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:    "mainnet",
	RPCPort: "8232",

	EquihashN: 200,
	EquihashK: 9,

	PowLimit:                    mainPowLimit,
	PowLimitBits:                0x1f07ffff,
	PowAveragingWindow:          powAveragingWindow,
	PowMedianBlockSpan:          powMedianBlockSpan,
	PowDampingFactor:            powDampingFactor,
	PowMaxAdjustDown:            powMaxAdjustDown,
	PowMaxAdjustUp:              powMaxAdjustUp,
	PreBlossomPowTargetSpacing:  preBlossomPowTargetSpacing,
	PostBlossomPowTargetSpacing: postBlossomPowTargetSpacing,
	BlossomActivationHeight:     653600,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:    "testnet",
	RPCPort: "18232",

	EquihashN: 200,
	EquihashK: 9,

	PowLimit:                               testnetPowLimit,
	PowLimitBits:                           0x2007ffff,
	PowAveragingWindow:                     powAveragingWindow,
	PowMedianBlockSpan:                     powMedianBlockSpan,
	PowDampingFactor:                       powDampingFactor,
	PowMaxAdjustDown:                       powMaxAdjustDown,
	PowMaxAdjustUp:                         powMaxAdjustUp,
	PreBlossomPowTargetSpacing:             preBlossomPowTargetSpacing,
	PostBlossomPowTargetSpacing:            postBlossomPowTargetSpacing,
	BlossomActivationHeight:                584000,
	PowAllowMinDifficultyBlocks:            true,
	PowAllowMinDifficultyBlocksAfterHeight: 299187,
}

// RegtestParams defines the network parameters for the regression test
// network. Blocks are cheap to mine with its small Equihash parameters and it
// never retargets.
var RegtestParams = Params{
	Name:    "regtest",
	RPCPort: "18232",

	EquihashN: 48,
	EquihashK: 5,

	PowLimit:                    regressionPowLimit,
	PowLimitBits:                0x200f0f0f,
	PowAveragingWindow:          powAveragingWindow,
	PowMedianBlockSpan:          powMedianBlockSpan,
	PowDampingFactor:            powDampingFactor,
	PowMaxAdjustDown:            0,
	PowMaxAdjustUp:              0,
	PreBlossomPowTargetSpacing:  preBlossomPowTargetSpacing,
	PostBlossomPowTargetSpacing: postBlossomPowTargetSpacing,
	BlossomActivationHeight:     NoActivationHeight,
	PowNoRetargeting:            true,
}

var registeredNets = map[string]*Params{
	MainnetParams.Name: &MainnetParams,
	TestnetParams.Name: &TestnetParams,
	RegtestParams.Name: &RegtestParams,
}

// ParamsByName returns the predefined network called name.
func ParamsByName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidParams, "unknown network %q", name)
	}
	return params, nil
}
