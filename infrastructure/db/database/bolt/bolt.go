// Package bolt implements database.Database on top of a single bbolt file.
// Every key lives in one top-level bbolt bucket, so bucket paths behave
// exactly like the key prefixes of the leveldb driver.
package bolt

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/db/database"
	bbolt "go.etcd.io/bbolt"
)

var rootBucket = []byte("zecpowd")

// BoltDB defines a thin wrapper around a bbolt database.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens the bbolt file at path, creating it if needed.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening bolt database %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}
	return &BoltDB{db: db}, nil
}

// Close closes the bbolt database.
func (db *BoltDB) Close() error {
	return errors.WithStack(db.db.Close())
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (db *BoltDB) Put(key *database.Key, value []byte) error {
	return errors.WithStack(db.db.Update(func(tx *bbolt.Tx) error {
		return put(tx, key, value)
	}))
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *BoltDB) Get(key *database.Key) ([]byte, error) {
	var value []byte
	err := db.db.View(func(tx *bbolt.Tx) error {
		var err error
		value, err = get(tx, key)
		return err
	})
	return value, err
}

// Has returns true if the database does contains the
// given key.
func (db *BoltDB) Has(key *database.Key) (bool, error) {
	_, err := db.Get(key)
	if database.IsNotFoundError(err) {
		return false, nil
	}
	return err == nil, err
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (db *BoltDB) Delete(key *database.Key) error {
	return errors.WithStack(db.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(key.Bytes())
	}))
}

// Cursor begins a new cursor over the given bucket.
func (db *BoltDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	var cursor *BoltCursor
	err := db.db.View(func(tx *bbolt.Tx) error {
		cursor = newCursor(tx, bucket)
		return nil
	})
	return cursor, errors.WithStack(err)
}

// Begin begins a new read-write transaction. Only one may be open at a time.
func (db *BoltDB) Begin() (database.Transaction, error) {
	boltTx, err := db.db.Begin(true)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &BoltTransaction{boltTx: boltTx}, nil
}

func put(tx *bbolt.Tx, key *database.Key, value []byte) error {
	return tx.Bucket(rootBucket).Put(key.Bytes(), value)
}

func get(tx *bbolt.Tx, key *database.Key) ([]byte, error) {
	value := tx.Bucket(rootBucket).Get(key.Bytes())
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	// bbolt values are only valid during the transaction
	return bytes.Clone(value), nil
}
