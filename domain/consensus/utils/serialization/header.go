package serialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

// PowHeaderSize is the size of the header fields preceding the solution:
// version, three hashes, time, bits and the 32 byte nonce.
const PowHeaderSize = 4 + 3*externalapi.DomainHashSize + 4 + 4 + externalapi.NonceSize

// SerializePowHeader writes every header field except the solution to w.
// These bytes seed the Equihash leaf hashes.
func SerializePowHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	return WriteElements(w, header.Version, &header.HashPrevBlock, &header.HashMerkleRoot,
		&header.HashFinalSaplingRoot, header.Time, header.Bits, &header.Nonce)
}

// SerializeHeader writes the full wire encoding of the header to w: the pow
// header, a compact size solution length and the solution.
func SerializeHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	err := SerializePowHeader(w, header)
	if err != nil {
		return err
	}
	err = WriteVarInt(w, uint64(len(header.Solution)))
	if err != nil {
		return err
	}
	_, err = w.Write(header.Solution)
	return errors.WithStack(err)
}

// PowHeaderBytes returns the serialized pow header.
func PowHeaderBytes(header *externalapi.DomainBlockHeader) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PowHeaderSize))
	err := SerializePowHeader(buf, header)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. bytes.Buffer writes never fail"))
	}
	return buf.Bytes()
}

// HeaderBytes returns the full wire encoding of the header.
func HeaderBytes(header *externalapi.DomainBlockHeader) []byte {
	size := PowHeaderSize + VarIntSerializeSize(uint64(len(header.Solution))) + len(header.Solution)
	buf := bytes.NewBuffer(make([]byte, 0, size))
	err := SerializeHeader(buf, header)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. bytes.Buffer writes never fail"))
	}
	return buf.Bytes()
}

// DeserializeHeader decodes a header in wire format. The solution must be
// exactly solutionSize bytes long and the buffer must end right after it.
// Any violation is reported as ruleerrors.ErrMalformedHeader.
func DeserializeHeader(headerBytes []byte, solutionSize int) (*externalapi.DomainBlockHeader, error) {
	if len(headerBytes) < PowHeaderSize {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedHeader, "header is %d bytes, "+
			"shorter than the %d byte fixed prefix", len(headerBytes), PowHeaderSize)
	}

	r := bytes.NewReader(headerBytes)
	header := &externalapi.DomainBlockHeader{}
	err := ReadElements(r, &header.Version, &header.HashPrevBlock, &header.HashMerkleRoot,
		&header.HashFinalSaplingRoot, &header.Time, &header.Bits, &header.Nonce)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedHeader, "failed reading header fields: %s", err)
	}

	solutionLength, err := ReadVarInt(r)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedHeader, "failed reading solution length: %s", err)
	}
	if solutionLength != uint64(solutionSize) {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedHeader, "solution length is %d, "+
			"while it should be %d", solutionLength, solutionSize)
	}
	if r.Len() < solutionSize {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedHeader, "header declares a %d byte solution "+
			"but only %d bytes remain", solutionSize, r.Len())
	}
	if r.Len() > solutionSize {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedHeader, "header has %d trailing bytes "+
			"after the solution", r.Len()-solutionSize)
	}

	header.Solution = make([]byte, solutionSize)
	_, err = io.ReadFull(r, header.Solution)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrMalformedHeader, "failed reading solution: %s", err)
	}

	return header, nil
}
