package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
	"github.com/zecpow/zecpowd/domain/consensus/utils/hashes"
	"github.com/zecpow/zecpowd/domain/consensus/utils/serialization"
)

// HeaderHash returns the given header's hash: the double SHA256 of its full
// wire encoding, solution included.
func HeaderHash(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	writer := hashes.NewHeaderHashWriter()
	err := serialization.SerializeHeader(writer, header)
	if err != nil {
		// It seems like this could only happen if the writer returned an error.
		// and this writer should never return an error (no allocations or possible failures)
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}

// HeaderBytesHash returns the hash of a header already in wire format.
func HeaderBytesHash(headerBytes []byte) *externalapi.DomainHash {
	writer := hashes.NewHeaderHashWriter()
	writer.InfallibleWrite(headerBytes)
	return writer.Finalize()
}
