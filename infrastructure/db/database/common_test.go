package database_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/zecpow/zecpowd/infrastructure/db/database"
	"github.com/zecpow/zecpowd/infrastructure/db/database/bolt"
	"github.com/zecpow/zecpowd/infrastructure/db/database/ldb"
)

// openers open every supported driver in a fresh directory that is removed
// when the test ends.
var openers = map[string]func(t *testing.T) (database.Database, error){
	"ldb": func(t *testing.T) (database.Database, error) {
		return ldb.NewLevelDB(t.TempDir(), 8)
	},
	"bolt": func(t *testing.T) (database.Database, error) {
		return bolt.NewBoltDB(filepath.Join(t.TempDir(), "test.db"))
	},
}

// testForAllDatabaseTypes runs testFunc once per driver, so that every
// driver is held to the behavior of the interfaces in this package.
func testForAllDatabaseTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, db database.Database, testName string)) {

	for dbType, open := range openers {
		dbType, open := dbType, open
		t.Run(dbType, func(t *testing.T) {
			db, err := open(t)
			if err != nil {
				t.Fatalf("%s: opening %s failed: %s", testName, dbType, err)
			}
			t.Cleanup(func() {
				err := db.Close()
				if err != nil {
					t.Errorf("%s: closing %s failed: %s", testName, dbType, err)
				}
			})
			testFunc(t, db, fmt.Sprintf("%s: %s", dbType, testName))
		})
	}
}

type keyValuePair struct {
	key   *database.Key
	value []byte
}

// populateDatabaseForTest stores ten pairs key0..key9 under "bucket" and
// returns them in key order.
func populateDatabaseForTest(t *testing.T, db database.Database, testName string) []keyValuePair {
	bucket := database.MakeBucket([]byte("bucket"))
	entries := make([]keyValuePair, 10)
	for i := range entries {
		entries[i] = keyValuePair{
			key:   bucket.Key([]byte(fmt.Sprintf("key%d", i))),
			value: []byte(fmt.Sprintf("value%d", i)),
		}
		err := db.Put(entries[i].key, entries[i].value)
		if err != nil {
			t.Fatalf("%s: Put of %s failed: %s", testName, entries[i].key, err)
		}
	}
	return entries
}
