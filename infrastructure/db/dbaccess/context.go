package dbaccess

import (
	"github.com/zecpow/zecpowd/infrastructure/db/database"
)

// Context selects where header queries run: directly against the database
// or inside a transaction. Get one from DatabaseContext.NoTx or
// DatabaseContext.NewTx.
type Context interface {
	accessor() (database.DataAccessor, error)
}

type noTxContext struct {
	backend *DatabaseContext
}

func (ctx *noTxContext) accessor() (database.DataAccessor, error) {
	return ctx.backend.db, nil
}

// TxContext is a Context bound to an open database transaction. A header
// and the tip that points at it are written through the same TxContext.
type TxContext struct {
	dbTx database.Transaction
}

func (tx *TxContext) accessor() (database.DataAccessor, error) {
	return tx.dbTx, nil
}

// NewTx begins a transaction. The caller must close it with Commit or
// RollbackUnlessClosed.
func (ctx *DatabaseContext) NewTx() (*TxContext, error) {
	dbTx, err := ctx.db.Begin()
	if err != nil {
		return nil, err
	}
	return &TxContext{dbTx: dbTx}, nil
}

// Update runs fn inside a new transaction and commits it when fn succeeds.
// Anything fn wrote is discarded when it fails.
func (ctx *DatabaseContext) Update(fn func(tx *TxContext) error) error {
	tx, err := ctx.NewTx()
	if err != nil {
		return err
	}
	defer tx.RollbackUnlessClosed()

	err = fn(tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Commit commits the transaction.
func (tx *TxContext) Commit() error {
	return tx.dbTx.Commit()
}

// RollbackUnlessClosed discards the transaction if neither Commit nor a
// previous rollback closed it.
func (tx *TxContext) RollbackUnlessClosed() error {
	return tx.dbTx.RollbackUnlessClosed()
}
