package externalapi

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// DomainHashSize is the size in bytes of a header hash.
const DomainHashSize = 32

// DomainHash is a double-SHA256 header hash. Bytes are held in the order
// they are hashed and serialized. String and NewDomainHashFromString use the
// byte-reversed order zcashd displays.
type DomainHash struct {
	hashArray [DomainHashSize]byte
}

// NewDomainHashFromByteArray returns a DomainHash holding a copy of
// hashBytes.
func NewDomainHashFromByteArray(hashBytes *[DomainHashSize]byte) *DomainHash {
	return &DomainHash{hashArray: *hashBytes}
}

// NewDomainHashFromByteSlice returns a DomainHash holding a copy of
// hashBytes, which must be exactly DomainHashSize long.
func NewDomainHashFromByteSlice(hashBytes []byte) (*DomainHash, error) {
	if len(hashBytes) != DomainHashSize {
		return nil, errors.Errorf("hash is %d bytes long, expected %d", len(hashBytes), DomainHashSize)
	}
	hash := &DomainHash{}
	copy(hash.hashArray[:], hashBytes)
	return hash, nil
}

// NewDomainHashFromString parses a full length hash in display order.
func NewDomainHashFromString(hashString string) (*DomainHash, error) {
	if len(hashString) != 2*DomainHashSize {
		return nil, errors.Errorf("hash string has %d characters, expected %d",
			len(hashString), 2*DomainHashSize)
	}
	displayHash, err := chainhash.NewHashFromStr(hashString)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hash string %q", hashString)
	}
	return NewDomainHashFromByteArray((*[DomainHashSize]byte)(displayHash)), nil
}

// String returns the hash in display order.
func (hash DomainHash) String() string {
	return chainhash.Hash(hash.hashArray).String()
}

// ByteArray returns a copy of the hash bytes.
func (hash *DomainHash) ByteArray() *[DomainHashSize]byte {
	hashArray := hash.hashArray
	return &hashArray
}

// ByteSlice returns a copy of the hash bytes.
func (hash *DomainHash) ByteSlice() []byte {
	return hash.ByteArray()[:]
}

// Equal reports whether both hashes hold the same bytes. Two nil hashes are
// equal.
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return hash.hashArray == other.hashArray
}
