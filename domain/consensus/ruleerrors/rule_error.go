package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrMalformedHeader indicates the raw header bytes could not be decoded:
	// the fixed prefix is short, the solution length prefix does not match
	// the configured Equihash parameters, or the buffer is truncated.
	ErrMalformedHeader = newRuleError("ErrMalformedHeader")

	// ErrMalformedSolution indicates the minimal Equihash solution encoding
	// does not unpack into exactly the expected number of indices.
	ErrMalformedSolution = newRuleError("ErrMalformedSolution")

	// ErrTargetOutOfBounds indicates the target decoded from the header bits
	// is zero or above the network's proof of work limit.
	ErrTargetOutOfBounds = newRuleError("ErrTargetOutOfBounds")

	// ErrHashAboveTarget indicates the header hash is above the target
	// claimed by the header bits.
	ErrHashAboveTarget = newRuleError("ErrHashAboveTarget")

	// ErrEquihashInvalid indicates the Equihash solution failed one of the
	// merge tree checks. The inner error is an EquihashInvalid carrying the
	// reason and the merge level it failed at.
	ErrEquihashInvalid = newRuleError("ErrEquihashInvalid")

	// ErrContextualDifficultyMismatch indicates the header bits differ from
	// the bits required by the difficulty adjustment over the previous blocks.
	ErrContextualDifficultyMismatch = newRuleError("ErrContextualDifficultyMismatch")

	// ErrInsufficientContext indicates the difficulty window does not hold
	// enough previous blocks to compute the required bits.
	ErrInsufficientContext = newRuleError("ErrInsufficientContext")

	// ErrHeightMismatch indicates a header was checked against a difficulty
	// window whose tip is not directly below it.
	ErrHeightMismatch = newRuleError("ErrHeightMismatch")

	// ErrInvalidParams indicates the chain parameters are invalid or missing.
	// It is fatal at startup.
	ErrInvalidParams = newRuleError("ErrInvalidParams")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a header failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

// Is reports whether target is the same rule, ignoring any inner details.
// This lets errors.Is(err, ErrEquihashInvalid) match an error built with
// NewErrEquihashInvalid.
func (e RuleError) Is(target error) bool {
	other, ok := target.(RuleError)
	if !ok {
		return false
	}
	return e.message == other.message
}

// Code returns the identifying name of the rule, e.g. "ErrHashAboveTarget".
func (e RuleError) Code() string {
	return e.message
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// EquihashFailure enumerates the ways an Equihash merge tree can be invalid.
type EquihashFailure uint8

// The merge tree checks, in the order they are applied at each node.
const (
	CollisionMismatch EquihashFailure = iota
	IndexOrderingViolation
	DuplicateIndex
	RootNotZero
)

var equihashFailureStrings = map[EquihashFailure]string{
	CollisionMismatch:      "CollisionMismatch",
	IndexOrderingViolation: "IndexOrderingViolation",
	DuplicateIndex:         "DuplicateIndex",
	RootNotZero:            "RootNotZero",
}

func (f EquihashFailure) String() string {
	if s, ok := equihashFailureStrings[f]; ok {
		return s
	}
	return fmt.Sprintf("EquihashFailure(%d)", uint8(f))
}

// EquihashInvalid is the inner error of ErrEquihashInvalid.
// Level counts merges from the leaves: level 1 joins two leaves and level k
// produces the root.
type EquihashInvalid struct {
	Reason EquihashFailure
	Level  int
}

func (e EquihashInvalid) Error() string {
	return fmt.Sprintf("%s at level %d", e.Reason, e.Level)
}

// NewErrEquihashInvalid creates a new ErrEquihashInvalid error with the given reason and level
func NewErrEquihashInvalid(reason EquihashFailure, level int) error {
	return errors.WithStack(RuleError{
		message: "ErrEquihashInvalid",
		inner:   EquihashInvalid{Reason: reason, Level: level},
	})
}

// ErrBitsMismatch is the inner error of ErrContextualDifficultyMismatch
type ErrBitsMismatch struct {
	Expected uint32
	Found    uint32
}

func (e ErrBitsMismatch) Error() string {
	return fmt.Sprintf("expected bits %08x, found %08x", e.Expected, e.Found)
}

// NewErrContextualDifficultyMismatch creates a new ErrContextualDifficultyMismatch error
// with the required and claimed bits
func NewErrContextualDifficultyMismatch(expected, found uint32) error {
	return errors.WithStack(RuleError{
		message: "ErrContextualDifficultyMismatch",
		inner:   ErrBitsMismatch{Expected: expected, Found: found},
	})
}

// ErrHeightMismatchDetails is the inner error of ErrHeightMismatch
type ErrHeightMismatchDetails struct {
	Expected uint32
	Found    uint32
}

func (e ErrHeightMismatchDetails) Error() string {
	return fmt.Sprintf("expected height %d, found %d", e.Expected, e.Found)
}

// NewErrHeightMismatch creates a new ErrHeightMismatch error
func NewErrHeightMismatch(expected, found uint32) error {
	return errors.WithStack(RuleError{
		message: "ErrHeightMismatch",
		inner:   ErrHeightMismatchDetails{Expected: expected, Found: found},
	})
}
