package serialization

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

const testSolutionSize = 1344

func testHeader() *externalapi.DomainBlockHeader {
	header := &externalapi.DomainBlockHeader{
		Version:  4,
		Time:     0x5d5e8a2c,
		Bits:     0x1c0168fd,
		Solution: make([]byte, testSolutionSize),
	}
	prev := [externalapi.DomainHashSize]byte{0x01, 0x02, 0x03}
	merkle := [externalapi.DomainHashSize]byte{0x11}
	sapling := [externalapi.DomainHashSize]byte{0x21, 0x22}
	header.HashPrevBlock = *externalapi.NewDomainHashFromByteArray(&prev)
	header.HashMerkleRoot = *externalapi.NewDomainHashFromByteArray(&merkle)
	header.HashFinalSaplingRoot = *externalapi.NewDomainHashFromByteArray(&sapling)
	for i := range header.Nonce {
		header.Nonce[i] = byte(i)
	}
	for i := range header.Solution {
		header.Solution[i] = byte(i * 7)
	}
	return header
}

func TestHeaderLayout(t *testing.T) {
	header := testHeader()
	serialized := HeaderBytes(header)

	expectedSize := PowHeaderSize + 3 + testSolutionSize
	if len(serialized) != expectedSize {
		t.Fatalf("TestHeaderLayout: Expected %d bytes, found: %d", expectedSize, len(serialized))
	}
	if PowHeaderSize != 140 {
		t.Fatalf("TestHeaderLayout: Expected a 140 byte pow header, found: %d", PowHeaderSize)
	}

	powHeader := PowHeaderBytes(header)
	if !bytes.Equal(powHeader, serialized[:PowHeaderSize]) {
		t.Fatalf("TestHeaderLayout: pow header is not a prefix of the serialized header")
	}

	expectedPrefix := "04000000" + "0102030000000000000000000000000000000000000000000000000000000000"
	if hex.EncodeToString(serialized[:36]) != expectedPrefix {
		t.Fatalf("TestHeaderLayout: Unexpected prefix %x", serialized[:36])
	}
	if hex.EncodeToString(serialized[100:108]) != "2c8a5e5dfd68011c" {
		t.Fatalf("TestHeaderLayout: Unexpected time and bits %x", serialized[100:108])
	}
	if !bytes.Equal(serialized[PowHeaderSize:PowHeaderSize+3], []byte{0xfd, 0x40, 0x05}) {
		t.Fatalf("TestHeaderLayout: Unexpected solution length prefix %x", serialized[PowHeaderSize:PowHeaderSize+3])
	}
}

func TestDeserializeHeader(t *testing.T) {
	header := testHeader()
	serialized := HeaderBytes(header)

	decoded, err := DeserializeHeader(serialized, testSolutionSize)
	if err != nil {
		t.Fatalf("DeserializeHeader: %+v", err)
	}
	if !decoded.Equal(header) {
		t.Fatalf("TestDeserializeHeader: decoded header differs\n got: %s want: %s",
			spew.Sdump(decoded), spew.Sdump(header))
	}
	if !bytes.Equal(HeaderBytes(decoded), serialized) {
		t.Fatalf("TestDeserializeHeader: re-serialized header differs from the input")
	}
}

func TestDeserializeHeaderMalformed(t *testing.T) {
	serialized := HeaderBytes(testHeader())

	withLength := func(prefix []byte) []byte {
		out := append([]byte{}, serialized[:PowHeaderSize]...)
		out = append(out, prefix...)
		return append(out, serialized[PowHeaderSize+3:]...)
	}

	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"short fixed prefix", serialized[:PowHeaderSize-1]},
		{"missing length", serialized[:PowHeaderSize]},
		{"truncated solution", serialized[:len(serialized)-1]},
		{"trailing bytes", append(append([]byte{}, serialized...), 0x00)},
		{"wrong solution length", withLength([]byte{0xfd, 0x41, 0x05})},
		{"non-canonical length", withLength([]byte{0xfe, 0x40, 0x05, 0x00, 0x00})},
	}

	for _, test := range tests {
		_, err := DeserializeHeader(test.input, testSolutionSize)
		if !errors.Is(err, ruleerrors.ErrMalformedHeader) {
			t.Errorf("TestDeserializeHeaderMalformed: %s: Expected ErrMalformedHeader, found: %v", test.name, err)
		}
	}
}
