package dbaccess

import (
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/db/database"
)

// ErrHeightGap is returned when a header is stored at any height other than
// the one directly above the tip.
var ErrHeightGap = errors.New("header height does not follow the tip")

// IsNotFoundError reports whether err means that no header, or no tip, is
// stored under the requested key.
func IsNotFoundError(err error) bool {
	return database.IsNotFoundError(err)
}
