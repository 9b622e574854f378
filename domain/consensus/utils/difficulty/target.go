package difficulty

import (
	"fmt"
	"math/big"
)

var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// maxTarget is 2^256 - 1, the largest value a target can hold.
	maxTarget = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 256), bigOne)
)

// Target is a 256-bit unsigned difficulty target. A Target can only be
// obtained from its compact encoding with CompactToTarget.
type Target struct {
	value *big.Int
}

// CompactToTarget converts the compact "nBits" representation of a target
// into the target itself.
//
// The compact form is similar to IEEE754 floating point numbers:
//
//	-------------------------------------------------
//	|   Exponent     |   Unused   |    Mantissa     |
//	-------------------------------------------------
//	| 8 bits [31-24] | 1 bit [23] | 23 bits [22-00] |
//	-------------------------------------------------
//
// and the target is mantissa * 256^(exponent-3). Bit 23 would be a sign bit
// in bitcoind, but targets are unsigned so it is ignored.
//
// Consensus relies on the exact overflow behavior: a zero mantissa gives zero,
// an exponent of 35 or more gives zero, and anything else that overflows 256
// bits is truncated to its low 256 bits.
func CompactToTarget(compact uint32) Target {
	mantissa := compact & 0x007fffff
	exponent := uint(compact >> 24)

	if mantissa == 0 {
		return Target{value: new(big.Int)}
	}

	// Since the base for the exponent is 256, the exponent can be treated
	// as the number of bytes to represent the full 256-bit number.
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		return Target{value: new(big.Int).SetUint64(uint64(mantissa))}
	}

	shift := exponent - 3
	if shift >= 32 {
		return Target{value: new(big.Int)}
	}
	value := new(big.Int).SetUint64(uint64(mantissa))
	value.Lsh(value, 8*shift)
	value.And(value, maxTarget)
	return Target{value: value}
}

// ToCompact returns the minimal compact encoding of the target.
func (t Target) ToCompact() uint32 {
	return BigToCompact(t.Big())
}

// Big returns a copy of the target as a big.Int.
func (t Target) Big() *big.Int {
	if t.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(t.value)
}

// IsZero returns whether the target is zero.
func (t Target) IsZero() bool {
	return t.value == nil || t.value.Sign() == 0
}

// Cmp compares the target with n and returns -1, 0 or +1.
func (t Target) Cmp(n *big.Int) int {
	return t.Big().Cmp(n)
}

func (t Target) String() string {
	return fmt.Sprintf("%064x", t.Big())
}

// BigToCompact converts a non-negative whole number N to its compact
// representation. The compact representation only provides 23 bits of
// precision, so values larger than (2^23 - 1) only encode the most
// significant digits of the number. See CompactToTarget for details.
func BigToCompact(n *big.Int) uint32 {
	// No need to do any work if it's zero.
	if n.Sign() == 0 {
		return 0
	}

	// Since the base for the exponent is 256, the exponent can be treated
	// as the number of bytes. So, shift the number right or left
	// accordingly. This is equivalent to:
	// mantissa = mantissa / 256^(exponent-3)
	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Uint64())
		mantissa <<= 8 * (3 - exponent)
	} else {
		// Use a copy to avoid modifying the caller's original number.
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Uint64())
	}

	// When the mantissa already has the sign bit set, the number is too
	// large to fit into the available 23-bits, so divide the number by 256
	// and increment the exponent accordingly.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	return uint32(exponent<<24) | mantissa
}
