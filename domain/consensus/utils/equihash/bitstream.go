package equihash

import (
	"github.com/pkg/errors"
)

var errMalformedBitStream = errors.New("malformed bit stream")

func checkWordLayout(bitLength, bytePad int) error {
	if bitLength < 8 || bitLength+7 > 32 {
		return errors.Errorf("bit length %d is outside [8, 25]", bitLength)
	}
	if bytePad < 0 || (bitLength+7)/8+bytePad > 4 {
		return errors.Errorf("byte pad %d does not fit a %d bit word in 4 bytes", bytePad, bitLength)
	}
	return nil
}

// ExpandArray reads input as a big-endian stream of bitLength-bit words and
// writes each word right-aligned into its own cell of
// ceil(bitLength/8)+bytePad bytes. The stream must hold a whole number of
// words.
func ExpandArray(input []byte, bitLength, bytePad int) ([]byte, error) {
	err := checkWordLayout(bitLength, bytePad)
	if err != nil {
		return nil, err
	}
	if len(input)*8%bitLength != 0 {
		return nil, errors.Wrapf(errMalformedBitStream, "%d bytes leave %d unconsumed bits "+
			"after the last %d bit word", len(input), len(input)*8%bitLength, bitLength)
	}

	outWidth := (bitLength+7)/8 + bytePad
	output := make([]byte, len(input)*8/bitLength*outWidth)
	bitLengthMask := uint32(1)<<bitLength - 1

	var accumulatedBits int
	var accumulator uint32
	j := 0
	for _, b := range input {
		accumulator = accumulator<<8 | uint32(b)
		accumulatedBits += 8

		if accumulatedBits >= bitLength {
			accumulatedBits -= bitLength
			for x := bytePad; x < outWidth; x++ {
				shift := 8 * (outWidth - x - 1)
				output[j+x] = byte((accumulator >> (accumulatedBits + shift)) & ((bitLengthMask >> shift) & 0xff))
			}
			j += outWidth
		}
	}
	return output, nil
}

// CompressArray is the inverse of ExpandArray: it packs the low bitLength
// bits of every ceil(bitLength/8)+bytePad byte cell into a contiguous
// big-endian bit stream.
func CompressArray(input []byte, bitLength, bytePad int) ([]byte, error) {
	err := checkWordLayout(bitLength, bytePad)
	if err != nil {
		return nil, err
	}
	inWidth := (bitLength+7)/8 + bytePad
	if len(input)%inWidth != 0 {
		return nil, errors.Wrapf(errMalformedBitStream, "%d bytes are not a whole number of %d byte cells",
			len(input), inWidth)
	}
	words := len(input) / inWidth
	if words*bitLength%8 != 0 {
		return nil, errors.Wrapf(errMalformedBitStream, "%d words of %d bits do not fill whole bytes",
			words, bitLength)
	}

	output := make([]byte, words*bitLength/8)
	bitLengthMask := uint32(1)<<bitLength - 1

	var accumulatedBits int
	var accumulator uint32
	j := 0
	for i := range output {
		if accumulatedBits < 8 {
			accumulator <<= bitLength
			for x := bytePad; x < inWidth; x++ {
				shift := 8 * (inWidth - x - 1)
				accumulator |= uint32(input[j+x]&byte((bitLengthMask>>shift)&0xff)) << shift
			}
			j += inWidth
			accumulatedBits += bitLength
		}
		accumulatedBits -= 8
		output[i] = byte(accumulator >> accumulatedBits)
	}
	return output, nil
}
