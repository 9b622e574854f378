package serialization

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// ReadVarInt reads a variable length integer (Bitcoin compact size) from r
// and returns it as a uint64. Encodings that could have used fewer bytes are
// rejected as malformed.
func ReadVarInt(r io.Reader) (uint64, error) {
	var discriminant uint8
	err := ReadElement(r, &discriminant)
	if err != nil {
		return 0, err
	}

	var rv uint64
	switch discriminant {
	case 0xff:
		var sv uint64
		err := ReadElement(r, &sv)
		if err != nil {
			return 0, err
		}
		rv = sv

		min := uint64(0x100000000)
		if rv < min {
			return 0, errors.Wrapf(errMalformed, "non-canonical varint %x - discriminant %x must "+
				"encode a value greater than %x", rv, discriminant, min)
		}

	case 0xfe:
		var sv uint32
		err := ReadElement(r, &sv)
		if err != nil {
			return 0, err
		}
		rv = uint64(sv)

		min := uint64(0x10000)
		if rv < min {
			return 0, errors.Wrapf(errMalformed, "non-canonical varint %x - discriminant %x must "+
				"encode a value greater than %x", rv, discriminant, min)
		}

	case 0xfd:
		var sv uint16
		err := ReadElement(r, &sv)
		if err != nil {
			return 0, err
		}
		rv = uint64(sv)

		min := uint64(0xfd)
		if rv < min {
			return 0, errors.Wrapf(errMalformed, "non-canonical varint %x - discriminant %x must "+
				"encode a value greater than %x", rv, discriminant, min)
		}

	default:
		rv = uint64(discriminant)
	}

	return rv, nil
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		return WriteElement(w, uint8(val))
	case val <= math.MaxUint16:
		return WriteElements(w, uint8(0xfd), uint16(val))
	case val <= math.MaxUint32:
		return WriteElements(w, uint8(0xfe), uint32(val))
	default:
		return WriteElements(w, uint8(0xff), val)
	}
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= math.MaxUint16:
		return 3
	case val <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}
