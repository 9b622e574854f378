package serialization

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

var errMalformed = errors.New("errMalformed")

var littleEndian = binary.LittleEndian

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case uint8:
		_, err := w.Write([]byte{e})
		return errors.WithStack(err)

	case uint16:
		var buf [2]byte
		littleEndian.PutUint16(buf[:], e)
		_, err := w.Write(buf[:])
		return errors.WithStack(err)

	case uint32:
		var buf [4]byte
		littleEndian.PutUint32(buf[:], e)
		_, err := w.Write(buf[:])
		return errors.WithStack(err)

	case uint64:
		var buf [8]byte
		littleEndian.PutUint64(buf[:], e)
		_, err := w.Write(buf[:])
		return errors.WithStack(err)

	case externalapi.DomainHash:
		_, err := w.Write(e.ByteSlice())
		return errors.WithStack(err)

	case *externalapi.DomainHash:
		_, err := w.Write(e.ByteSlice())
		return errors.WithStack(err)

	case [externalapi.NonceSize]byte:
		_, err := w.Write(e[:])
		return errors.WithStack(err)

	case *[externalapi.NonceSize]byte:
		_, err := w.Write(e[:])
		return errors.WithStack(err)
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func ReadElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint8:
		var buf [1]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = buf[0]
		return nil

	case *uint16:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = littleEndian.Uint16(buf[:])
		return nil

	case *uint32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = littleEndian.Uint32(buf[:])
		return nil

	case *uint64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = littleEndian.Uint64(buf[:])
		return nil

	case *externalapi.DomainHash:
		var buf [externalapi.DomainHashSize]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = *externalapi.NewDomainHashFromByteArray(&buf)
		return nil

	case *[externalapi.NonceSize]byte:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return errors.WithStack(err)
		}
		return nil
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// IsMalformedError returns whether the error indicates a malformed data source
func IsMalformedError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed)
}
