package bolt

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/db/database"
	bbolt "go.etcd.io/bbolt"
)

type entry struct {
	suffix []byte
	value  []byte
}

// BoltCursor iterates over a copy of a bucket's entries taken when the
// cursor was opened. bbolt cursors die with their transaction, and holding a
// read transaction open while writing can deadlock a bbolt database.
type BoltCursor struct {
	bucket   *database.Bucket
	entries  []entry
	position int
	isClosed bool
}

func newCursor(tx *bbolt.Tx, bucket *database.Bucket) *BoltCursor {
	prefix := bucket.Path()
	var entries []entry
	boltCursor := tx.Bucket(rootBucket).Cursor()
	for key, value := boltCursor.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, value = boltCursor.Next() {
		entries = append(entries, entry{
			suffix: bytes.Clone(key[len(prefix):]),
			value:  bytes.Clone(value),
		})
	}
	return &BoltCursor{bucket: bucket, entries: entries, position: -1}
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted. Panics if the cursor is closed.
func (c *BoltCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if c.position < len(c.entries) {
		c.position++
	}
	return c.position < len(c.entries)
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist. Panics if the cursor is closed.
func (c *BoltCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.position = 0
	return len(c.entries) > 0
}

// Seek moves the iterator to the first key/value pair whose key is greater
// than or equal to the given key. It returns ErrNotFound if such pair does not
// exist.
func (c *BoltCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	for i, entry := range c.entries {
		if bytes.Compare(c.bucket.Key(entry.suffix).Bytes(), key.Bytes()) >= 0 {
			c.position = i
			if !bytes.Equal(c.bucket.Key(entry.suffix).Bytes(), key.Bytes()) {
				return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
			}
			return nil
		}
	}
	c.position = len(c.entries)
	return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
}

// Key returns the key of the current key/value pair, or ErrNotFound if done.
func (c *BoltCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if c.position < 0 || c.position >= len(c.entries) {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	return c.bucket.Key(c.entries[c.position].suffix), nil
}

// Value returns the value of the current key/value pair, or ErrNotFound if done.
func (c *BoltCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if c.position < 0 || c.position >= len(c.entries) {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	return c.entries[c.position].value, nil
}

// Close releases associated resources.
func (c *BoltCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.entries = nil
	return nil
}
