package dagconfig

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

func TestPredefinedParamsAreValid(t *testing.T) {
	for _, params := range []*Params{&MainnetParams, &TestnetParams, &RegtestParams} {
		if err := params.Validate(); err != nil {
			t.Errorf("TestPredefinedParamsAreValid: %s: %+v", params.Name, err)
		}
	}
}

func TestTimespans(t *testing.T) {
	params := &MainnetParams
	tests := []struct {
		height  uint32
		spacing int64
		awt     int64
		min     int64
		max     int64
	}{
		{height: 653599, spacing: 150, awt: 2550, min: 2142, max: 3366},
		{height: 653600, spacing: 75, awt: 1275, min: 1071, max: 1683},
	}
	for _, test := range tests {
		if spacing := params.PowTargetSpacing(test.height); spacing != test.spacing {
			t.Errorf("TestTimespans: height %d: expected spacing %d, got %d", test.height, test.spacing, spacing)
		}
		if awt := params.AveragingWindowTimespan(test.height); awt != test.awt {
			t.Errorf("TestTimespans: height %d: expected averaging window timespan %d, got %d",
				test.height, test.awt, awt)
		}
		if min := params.MinActualTimespan(test.height); min != test.min {
			t.Errorf("TestTimespans: height %d: expected min timespan %d, got %d", test.height, test.min, min)
		}
		if max := params.MaxActualTimespan(test.height); max != test.max {
			t.Errorf("TestTimespans: height %d: expected max timespan %d, got %d", test.height, test.max, max)
		}
	}

	if spacing := RegtestParams.PowTargetSpacing(4000000); spacing != 150 {
		t.Errorf("TestTimespans: regtest never activates Blossom, got spacing %d", spacing)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"n not a multiple of 8", func(p *Params) { p.EquihashN = 100 }},
		{"k too small", func(p *Params) { p.EquihashK = 2 }},
		{"n not divisible by k+1", func(p *Params) { p.EquihashN, p.EquihashK = 200, 8 }},
		{"missing pow limit", func(p *Params) { p.PowLimit = nil }},
		{"pow limit too large", func(p *Params) { p.PowLimit = new(big.Int).Lsh(big.NewInt(1), 256) }},
		{"pow limit bits above pow limit", func(p *Params) { p.PowLimitBits = 0x2007ffff }},
		{"zero pow limit bits", func(p *Params) { p.PowLimitBits = 0x1f000000 }},
		{"empty averaging window", func(p *Params) { p.PowAveragingWindow = 0 }},
		{"zero damping", func(p *Params) { p.PowDampingFactor = 0 }},
		{"max adjust up of 100%", func(p *Params) { p.PowMaxAdjustUp = 100 }},
		{"negative max adjust down", func(p *Params) { p.PowMaxAdjustDown = -1 }},
		{"zero spacing", func(p *Params) { p.PostBlossomPowTargetSpacing = time.Millisecond }},
	}
	for _, test := range tests {
		params := MainnetParams
		test.mutate(&params)
		err := params.Validate()
		if !errors.Is(err, ruleerrors.ErrInvalidParams) {
			t.Errorf("TestValidate: %s: expected ErrInvalidParams, got %v", test.name, err)
		}
	}
}

func TestParamsByName(t *testing.T) {
	params, err := ParamsByName("testnet")
	if err != nil {
		t.Fatalf("TestParamsByName: %+v", err)
	}
	if params != &TestnetParams {
		t.Fatalf("TestParamsByName: expected the testnet params, got %s", params.Name)
	}
	_, err = ParamsByName("simnet")
	if !errors.Is(err, ruleerrors.ErrInvalidParams) {
		t.Fatalf("TestParamsByName: expected ErrInvalidParams, got %v", err)
	}
}
