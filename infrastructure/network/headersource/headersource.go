// Package headersource provides the serialized headers the syncer verifies.
package headersource

import (
	"context"

	"github.com/pkg/errors"
)

// ErrHeaderNotAvailable is returned when the source does not have a header at
// the requested height yet.
var ErrHeaderNotAvailable = errors.New("header not available")

// HeaderSource returns serialized block headers by height.
type HeaderSource interface {
	HeaderBytes(ctx context.Context, height uint32) ([]byte, error)
	Close() error
}
