package dbaccess

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/db/database"
	"github.com/zecpow/zecpowd/infrastructure/db/database/bolt"
	"github.com/zecpow/zecpowd/infrastructure/db/database/ldb"
)

// Supported database drivers.
const (
	DatabaseTypeLevelDB = "ldb"
	DatabaseTypeBolt    = "bolt"
)

const (
	levelDBCacheSizeMiB = 64
	boltFileName        = "headers.db"
)

// DatabaseContext represents a context in which all database queries run
type DatabaseContext struct {
	db database.Database
	*noTxContext
}

// New wraps an already opened database in a DatabaseContext
func New(db database.Database) *DatabaseContext {
	databaseContext := &DatabaseContext{db: db}
	databaseContext.noTxContext = &noTxContext{backend: databaseContext}
	return databaseContext
}

// Open opens or creates a database of the given driver type inside the
// directory at path.
func Open(dbType string, path string) (*DatabaseContext, error) {
	var db database.Database
	var err error
	switch dbType {
	case DatabaseTypeLevelDB:
		db, err = ldb.NewLevelDB(path, levelDBCacheSizeMiB)
	case DatabaseTypeBolt:
		err = os.MkdirAll(path, 0700)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		db, err = bolt.NewBoltDB(filepath.Join(path, boltFileName))
	default:
		return nil, errors.Errorf("unknown database type %q", dbType)
	}
	if err != nil {
		return nil, err
	}
	log.Debugf("Opened %s header database at %s", dbType, path)
	return New(db), nil
}

// NoTx returns a Context that runs queries directly against the database
func (ctx *DatabaseContext) NoTx() Context {
	return ctx.noTxContext
}

// Close closes the DatabaseContext's connection, if it's open
func (ctx *DatabaseContext) Close() error {
	return ctx.db.Close()
}
