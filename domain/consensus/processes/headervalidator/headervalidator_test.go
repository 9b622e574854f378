package headervalidator_test

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/zecpow/zecpowd/domain/consensus/model"
	"github.com/zecpow/zecpowd/domain/consensus/processes/difficultymanager"
	"github.com/zecpow/zecpowd/domain/consensus/processes/headervalidator"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
	"github.com/zecpow/zecpowd/domain/consensus/utils/equihash"
	"github.com/zecpow/zecpowd/domain/dagconfig"
)

const (
	testnetHeight = 3000000
	regtestHeight = 1000

	testnetBits = 0x1c0168fd
	bitsOffset  = 104
)

type headerFixture struct {
	Name    string `json:"name"`
	Network string `json:"network"`
	Time    uint32 `json:"time"`
	Bits    string `json:"bits"`
	Hash    string `json:"hash"`
	Header  string `json:"header"`

	headerBytes []byte
	params      *dagconfig.Params
}

// loadFixture returns the header fixture mined offline for network.
func loadFixture(t *testing.T, network string) *headerFixture {
	fixturesBytes, err := os.ReadFile(filepath.Join("testdata", "headers.json"))
	if err != nil {
		t.Fatalf("loadFixture: %s", err)
	}
	var fixtures []*headerFixture
	err = json.Unmarshal(fixturesBytes, &fixtures)
	if err != nil {
		t.Fatalf("loadFixture: %s", err)
	}
	for _, fixture := range fixtures {
		if fixture.Network != network {
			continue
		}
		fixture.headerBytes, err = hex.DecodeString(fixture.Header)
		if err != nil {
			t.Fatalf("loadFixture: %s", err)
		}
		fixture.params, err = dagconfig.ParamsByName(network)
		if err != nil {
			t.Fatalf("loadFixture: %s", err)
		}
		return fixture
	}
	t.Fatalf("loadFixture: no fixture for %s", network)
	return nil
}

func (f *headerFixture) mutated(mutate func(headerBytes []byte) []byte) []byte {
	headerBytes := make([]byte, len(f.headerBytes))
	copy(headerBytes, f.headerBytes)
	return mutate(headerBytes)
}

func newHeaderValidator(t *testing.T, params *dagconfig.Params, config *equihash.Config) model.HeaderValidator {
	validator, err := headervalidator.New(params, difficultymanager.New(params), config)
	if err != nil {
		t.Fatalf("newHeaderValidator: %+v", err)
	}
	return validator
}

// buildWindow returns a window of count blocks ending at tipHeight, the last
// one mined at tipTime and each spaced step seconds after its parent.
func buildWindow(t *testing.T, tipHeight uint32, count int, tipTime uint32, step uint32, bits uint32) *model.DifficultyContext {
	window := model.NewDifficultyContext(count)
	for i := 0; i < count; i++ {
		height := tipHeight - uint32(count) + 1 + uint32(i)
		time := tipTime - uint32(count-1-i)*step
		err := window.Push(height, time, bits)
		if err != nil {
			t.Fatalf("buildWindow: Push: %+v", err)
		}
	}
	return window
}

func withBits(bits uint32) func([]byte) []byte {
	return func(headerBytes []byte) []byte {
		binary.LittleEndian.PutUint32(headerBytes[bitsOffset:], bits)
		return headerBytes
	}
}

func TestVerifyTestnetHeader(t *testing.T) {
	fixture := loadFixture(t, "testnet")

	for _, config := range []*equihash.Config{nil, {LeafWorkers: 4}} {
		validator := newHeaderValidator(t, fixture.params, config)

		// The header trails its parent by more than six target spacings, so
		// the min difficulty rule lets it carry the testnet pow limit.
		window := buildWindow(t, testnetHeight-1, 28, fixture.Time-1000, 75, testnetBits)
		windowCopy := window.Clone()

		outcome := validator.Verify(fixture.headerBytes, testnetHeight, window)
		if !outcome.IsVerified() {
			t.Fatalf("TestVerifyTestnetHeader: unexpected rejection: %+v", outcome.Err)
		}
		if outcome.Hash.String() != fixture.Hash {
			t.Fatalf("TestVerifyTestnetHeader: expected hash %s, got %s", fixture.Hash, outcome.Hash)
		}
		if outcome.Header.Time != fixture.Time || outcome.Header.Bits != 0x2007ffff {
			t.Fatalf("TestVerifyTestnetHeader: unexpected header %s", spew.Sdump(outcome.Header))
		}
		if !reflect.DeepEqual(window.Entries(), windowCopy.Entries()) {
			t.Fatalf("TestVerifyTestnetHeader: Verify modified the window")
		}
	}
}

// TestVerifyRetargetedTestnetHeader runs the header through the averaging
// retarget instead of the min difficulty rule: every window block sits at the
// pow limit and the blocks came slowly enough for the new target to be capped.
func TestVerifyRetargetedTestnetHeader(t *testing.T) {
	fixture := loadFixture(t, "testnet")
	validator := newHeaderValidator(t, fixture.params, nil)

	// 76 seconds between blocks damps to a timespan of 1279 seconds, 4 above
	// the averaging window timespan, which is enough to reach the cap
	retargetWindow := func(t *testing.T, perturbedHeight uint32, shift int64) *model.DifficultyContext {
		window := model.NewDifficultyContext(28)
		tipTime := fixture.Time - 76
		for i := 0; i < 28; i++ {
			height := testnetHeight - 28 + uint32(i)
			time := int64(tipTime) - int64(27-i)*76
			if height == perturbedHeight {
				time += shift
			}
			err := window.Push(height, uint32(time), 0x2007ffff)
			if err != nil {
				t.Fatalf("retargetWindow: Push: %+v", err)
			}
		}
		return window
	}

	outcome := validator.Verify(fixture.headerBytes, testnetHeight, retargetWindow(t, 0, 0))
	if !outcome.IsVerified() {
		t.Fatalf("TestVerifyRetargetedTestnetHeader: unexpected rejection: %+v", outcome.Err)
	}
	if outcome.Hash.String() != fixture.Hash {
		t.Fatalf("TestVerifyRetargetedTestnetHeader: expected hash %s, got %s", fixture.Hash, outcome.Hash)
	}

	flipped := fixture.mutated(func(headerBytes []byte) []byte {
		headerBytes[143+10] ^= 0x80
		return headerBytes
	})
	outcome = validator.Verify(flipped, testnetHeight, retargetWindow(t, 0, 0))
	if !errors.Is(outcome.Err, ruleerrors.ErrEquihashInvalid) {
		t.Fatalf("TestVerifyRetargetedTestnetHeader: expected ErrEquihashInvalid, got: %+v", outcome.Err)
	}

	// Pulling the block at the last median back moves the median to its
	// parent, shrinking the damped timespan to 1260 seconds
	outcome = validator.Verify(fixture.headerBytes, testnetHeight, retargetWindow(t, testnetHeight-6, -100))
	if !errors.Is(outcome.Err, ruleerrors.ErrContextualDifficultyMismatch) {
		t.Fatalf("TestVerifyRetargetedTestnetHeader: expected ErrContextualDifficultyMismatch, got: %+v", outcome.Err)
	}
	var mismatch ruleerrors.ErrBitsMismatch
	if !errors.As(outcome.Err, &mismatch) {
		t.Fatalf("TestVerifyRetargetedTestnetHeader: expected a bits mismatch, got: %+v", outcome.Err)
	}
	if mismatch.Expected != 0x2007e982 || mismatch.Found != 0x2007ffff {
		t.Fatalf("TestVerifyRetargetedTestnetHeader: unexpected mismatch %+v", mismatch)
	}
}

func TestVerifyRegtestHeader(t *testing.T) {
	fixture := loadFixture(t, "regtest")
	validator := newHeaderValidator(t, fixture.params, nil)

	window := buildWindow(t, regtestHeight-1, 28, fixture.Time-150, 150, 0x200f0f0f)
	outcome := validator.Verify(fixture.headerBytes, regtestHeight, window)
	if !outcome.IsVerified() {
		t.Fatalf("TestVerifyRegtestHeader: unexpected rejection: %+v", outcome.Err)
	}
	if outcome.Hash.String() != fixture.Hash {
		t.Fatalf("TestVerifyRegtestHeader: expected hash %s, got %s", fixture.Hash, outcome.Hash)
	}

	// Regtest never retargets, so the parent's bits are the only acceptable ones
	window = buildWindow(t, regtestHeight-1, 28, fixture.Time-150, 150, 0x1f0f0f0f)
	outcome = validator.Verify(fixture.headerBytes, regtestHeight, window)
	var mismatch ruleerrors.ErrBitsMismatch
	if !errors.As(outcome.Err, &mismatch) {
		t.Fatalf("TestVerifyRegtestHeader: expected a bits mismatch, got: %+v", outcome.Err)
	}
	if mismatch.Expected != 0x1f0f0f0f || mismatch.Found != 0x200f0f0f {
		t.Fatalf("TestVerifyRegtestHeader: unexpected mismatch %+v", mismatch)
	}
	if outcome.Header == nil || outcome.Hash == nil {
		t.Fatalf("TestVerifyRegtestHeader: a contextual rejection should keep the decoded header")
	}
}

func TestVerifyRejections(t *testing.T) {
	testnet := loadFixture(t, "testnet")
	regtest := loadFixture(t, "regtest")

	minDifficultyWindow := func(t *testing.T) *model.DifficultyContext {
		return buildWindow(t, testnetHeight-1, 28, testnet.Time-1000, 75, testnetBits)
	}

	tests := []struct {
		name          string
		fixture       *headerFixture
		headerBytes   []byte
		height        uint32
		window        func(t *testing.T) *model.DifficultyContext
		expectedError error
	}{
		{
			name:          "hash above the claimed target",
			fixture:       testnet,
			headerBytes:   testnet.mutated(withBits(0x1d00ffff)),
			height:        testnetHeight,
			window:        minDifficultyWindow,
			expectedError: ruleerrors.ErrHashAboveTarget,
		},
		{
			name:          "target above the pow limit",
			fixture:       testnet,
			headerBytes:   testnet.mutated(withBits(0x2100ffff)),
			height:        testnetHeight,
			window:        minDifficultyWindow,
			expectedError: ruleerrors.ErrTargetOutOfBounds,
		},
		{
			name:          "zero target",
			fixture:       testnet,
			headerBytes:   testnet.mutated(withBits(0x20000000)),
			height:        testnetHeight,
			window:        minDifficultyWindow,
			expectedError: ruleerrors.ErrTargetOutOfBounds,
		},
		{
			name:    "truncated solution",
			fixture: testnet,
			headerBytes: testnet.mutated(func(headerBytes []byte) []byte {
				return headerBytes[:len(headerBytes)-1]
			}),
			height:        testnetHeight,
			window:        minDifficultyWindow,
			expectedError: ruleerrors.ErrMalformedHeader,
		},
		{
			name:    "trailing bytes",
			fixture: testnet,
			headerBytes: testnet.mutated(func(headerBytes []byte) []byte {
				return append(headerBytes, 0)
			}),
			height:        testnetHeight,
			window:        minDifficultyWindow,
			expectedError: ruleerrors.ErrMalformedHeader,
		},
		{
			name:    "solution length for other equihash parameters",
			fixture: testnet,
			headerBytes: testnet.mutated(func(headerBytes []byte) []byte {
				headerBytes[141] = 0x41
				return headerBytes
			}),
			height:        testnetHeight,
			window:        minDifficultyWindow,
			expectedError: ruleerrors.ErrMalformedHeader,
		},
		{
			name:          "short fixed prefix",
			fixture:       testnet,
			headerBytes:   testnet.headerBytes[:139],
			height:        testnetHeight,
			window:        minDifficultyWindow,
			expectedError: ruleerrors.ErrMalformedHeader,
		},
		{
			name:    "flipped solution bit",
			fixture: testnet,
			headerBytes: testnet.mutated(func(headerBytes []byte) []byte {
				headerBytes[143+10] ^= 0x80
				return headerBytes
			}),
			height:        testnetHeight,
			window:        minDifficultyWindow,
			expectedError: ruleerrors.ErrEquihashInvalid,
		},
		{
			name:        "header not trailing its parent long enough",
			fixture:     testnet,
			headerBytes: testnet.headerBytes,
			height:      testnetHeight,
			window: func(t *testing.T) *model.DifficultyContext {
				return buildWindow(t, testnetHeight-1, 28, testnet.Time-100, 75, testnetBits)
			},
			expectedError: ruleerrors.ErrContextualDifficultyMismatch,
		},
		{
			name:        "window tip not directly below the header",
			fixture:     testnet,
			headerBytes: testnet.headerBytes,
			height:      testnetHeight,
			window: func(t *testing.T) *model.DifficultyContext {
				return buildWindow(t, testnetHeight-2, 28, testnet.Time-1000, 75, testnetBits)
			},
			expectedError: ruleerrors.ErrHeightMismatch,
		},
		{
			name:        "window too short",
			fixture:     testnet,
			headerBytes: testnet.headerBytes,
			height:      testnetHeight,
			window: func(t *testing.T) *model.DifficultyContext {
				return buildWindow(t, testnetHeight-1, 20, testnet.Time-100, 75, testnetBits)
			},
			expectedError: ruleerrors.ErrInsufficientContext,
		},
		{
			name:    "regtest flipped solution bit",
			fixture: regtest,
			headerBytes: regtest.mutated(func(headerBytes []byte) []byte {
				headerBytes[141] ^= 0x08
				return headerBytes
			}),
			height: regtestHeight,
			window: func(t *testing.T) *model.DifficultyContext {
				return buildWindow(t, regtestHeight-1, 28, regtest.Time-150, 150, 0x200f0f0f)
			},
			expectedError: ruleerrors.ErrEquihashInvalid,
		},
	}

	for _, test := range tests {
		validator := newHeaderValidator(t, test.fixture.params, nil)
		outcome := validator.Verify(test.headerBytes, test.height, test.window(t))
		if outcome.IsVerified() {
			t.Errorf("TestVerifyRejections: %s: unexpectedly verified", test.name)
			continue
		}
		if !errors.Is(outcome.Err, test.expectedError) {
			t.Errorf("TestVerifyRejections: %s: expected %s, got: %+v", test.name, test.expectedError, outcome.Err)
		}
	}
}

func TestVerifyEquihashFailureDetails(t *testing.T) {
	tests := []struct {
		network string
		offset  int
		mask    byte
	}{
		{"testnet", 143 + 10, 0x80},
		{"regtest", 141, 0x08},
	}
	for _, test := range tests {
		fixture := loadFixture(t, test.network)
		validator := newHeaderValidator(t, fixture.params, nil)
		headerBytes := fixture.mutated(func(headerBytes []byte) []byte {
			headerBytes[test.offset] ^= test.mask
			return headerBytes
		})

		_, hash, err := validator.ValidateHeaderInIsolation(headerBytes)
		var invalid ruleerrors.EquihashInvalid
		if !errors.As(err, &invalid) {
			t.Fatalf("TestVerifyEquihashFailureDetails: %s: expected EquihashInvalid, got: %+v", test.network, err)
		}
		if invalid.Reason != ruleerrors.CollisionMismatch || invalid.Level != 1 {
			t.Fatalf("TestVerifyEquihashFailureDetails: %s: expected CollisionMismatch at level 1, got %s",
				test.network, invalid)
		}
		if hash == nil || hash.String() == fixture.Hash {
			t.Fatalf("TestVerifyEquihashFailureDetails: %s: expected the hash of the mutated header", test.network)
		}
	}
}

func TestVerifyContextualMismatchDetails(t *testing.T) {
	fixture := loadFixture(t, "testnet")
	validator := newHeaderValidator(t, fixture.params, nil)

	header, _, err := validator.ValidateHeaderInIsolation(fixture.headerBytes)
	if err != nil {
		t.Fatalf("TestVerifyContextualMismatchDetails: %+v", err)
	}

	// 450 seconds is exactly six post-Blossom spacings, which is not enough
	window := buildWindow(t, testnetHeight-1, 28, fixture.Time-450, 75, testnetBits)
	err = validator.ValidateHeaderInContext(header, testnetHeight, window)
	var mismatch ruleerrors.ErrBitsMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("TestVerifyContextualMismatchDetails: expected a bits mismatch, got: %+v", err)
	}
	if mismatch.Expected != 0x1c0168fc || mismatch.Found != 0x2007ffff {
		t.Fatalf("TestVerifyContextualMismatchDetails: unexpected mismatch %+v", mismatch)
	}

	window = buildWindow(t, testnetHeight-1, 28, fixture.Time-451, 75, testnetBits)
	err = validator.ValidateHeaderInContext(header, testnetHeight, window)
	if err != nil {
		t.Fatalf("TestVerifyContextualMismatchDetails: unexpected error after 451 seconds: %+v", err)
	}
}

func TestNewInvalidParams(t *testing.T) {
	params := dagconfig.RegtestParams
	params.EquihashK = 6
	_, err := headervalidator.New(&params, difficultymanager.New(&params), nil)
	if !errors.Is(err, ruleerrors.ErrInvalidParams) {
		t.Fatalf("TestNewInvalidParams: expected ErrInvalidParams, got: %+v", err)
	}
}
