package equihash

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

const indexCellWidth = 4

// DecodeIndices unpacks a minimally encoded solution into its 2^k indices.
func DecodeIndices(params Params, solution []byte) ([]uint32, error) {
	if len(solution) != params.SolutionSize() {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedSolution, "solution is %d bytes, "+
			"while it should be %d", len(solution), params.SolutionSize())
	}

	bitLength := params.IndexBitLength()
	bytePad := indexCellWidth - (bitLength+7)/8
	expanded, err := ExpandArray(solution, bitLength, bytePad)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedSolution, "%s", err)
	}

	indices := make([]uint32, len(expanded)/indexCellWidth)
	for i := range indices {
		indices[i] = binary.BigEndian.Uint32(expanded[i*indexCellWidth:])
	}
	if len(indices) != params.NumIndices() {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedSolution, "solution holds %d indices, "+
			"while it should hold %d", len(indices), params.NumIndices())
	}
	return indices, nil
}

// EncodeIndices packs 2^k indices into the minimal solution encoding.
func EncodeIndices(params Params, indices []uint32) ([]byte, error) {
	if len(indices) != params.NumIndices() {
		return nil, errors.Errorf("got %d indices, while a solution holds %d",
			len(indices), params.NumIndices())
	}

	bitLength := params.IndexBitLength()
	limit := uint32(1) << bitLength
	cells := make([]byte, len(indices)*indexCellWidth)
	for i, index := range indices {
		if index >= limit {
			return nil, errors.Errorf("index %d at position %d does not fit in %d bits", index, i, bitLength)
		}
		binary.BigEndian.PutUint32(cells[i*indexCellWidth:], index)
	}

	return CompressArray(cells, bitLength, indexCellWidth-(bitLength+7)/8)
}
