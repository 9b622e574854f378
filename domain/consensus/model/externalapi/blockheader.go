package externalapi

// NonceSize is the size of the header nonce in bytes.
const NonceSize = 32

// DomainBlockHeader represents the header part of a Zcash-family block,
// including its Equihash solution.
type DomainBlockHeader struct {
	Version              uint32
	HashPrevBlock        DomainHash
	HashMerkleRoot       DomainHash
	HashFinalSaplingRoot DomainHash
	Time                 uint32
	Bits                 uint32
	Nonce                [NonceSize]byte
	Solution             []byte
}

// Clone returns a clone of DomainBlockHeader
func (header *DomainBlockHeader) Clone() *DomainBlockHeader {
	solutionClone := make([]byte, len(header.Solution))
	copy(solutionClone, header.Solution)

	return &DomainBlockHeader{
		Version:              header.Version,
		HashPrevBlock:        header.HashPrevBlock,
		HashMerkleRoot:       header.HashMerkleRoot,
		HashFinalSaplingRoot: header.HashFinalSaplingRoot,
		Time:                 header.Time,
		Bits:                 header.Bits,
		Nonce:                header.Nonce,
		Solution:             solutionClone,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = &DomainBlockHeader{0, DomainHash{}, DomainHash{}, DomainHash{}, 0, 0, [NonceSize]byte{}, []byte{}}

// Equal returns whether header equals to other
func (header *DomainBlockHeader) Equal(other *DomainBlockHeader) bool {
	if header == nil || other == nil {
		return header == other
	}

	if header.Version != other.Version {
		return false
	}
	if !header.HashPrevBlock.Equal(&other.HashPrevBlock) {
		return false
	}
	if !header.HashMerkleRoot.Equal(&other.HashMerkleRoot) {
		return false
	}
	if !header.HashFinalSaplingRoot.Equal(&other.HashFinalSaplingRoot) {
		return false
	}
	if header.Time != other.Time {
		return false
	}
	if header.Bits != other.Bits {
		return false
	}
	if header.Nonce != other.Nonce {
		return false
	}
	if len(header.Solution) != len(other.Solution) {
		return false
	}
	for i, b := range header.Solution {
		if b != other.Solution[i] {
			return false
		}
	}
	return true
}
