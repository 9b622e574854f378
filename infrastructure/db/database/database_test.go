package database_test

import (
	"bytes"
	"testing"

	"github.com/zecpow/zecpowd/infrastructure/db/database"
)

func TestDatabasePut(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabasePut", testDatabasePut)
}

func testDatabasePut(t *testing.T, db database.Database, testName string) {
	key := database.MakeBucket([]byte("bucket")).Key([]byte("key"))
	values := [][]byte{[]byte("value1"), []byte("value2")}

	for _, value := range values {
		err := db.Put(key, value)
		if err != nil {
			t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
		}
		returnedValue, err := db.Get(key)
		if err != nil {
			t.Fatalf("%s: Get unexpectedly failed: %s", testName, err)
		}
		if !bytes.Equal(returnedValue, value) {
			t.Fatalf("%s: Get returned wrong value. Want: %s, got: %s",
				testName, value, returnedValue)
		}
	}
}

func TestDatabaseGetNotFound(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabaseGetNotFound", testDatabaseGetNotFound)
}

func testDatabaseGetNotFound(t *testing.T, db database.Database, testName string) {
	key := database.MakeBucket([]byte("bucket")).Key([]byte("missing"))
	_, err := db.Get(key)
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Get returned wrong error. Want: ErrNotFound, got: %v", testName, err)
	}
	exists, err := db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: Has unexpectedly returned true", testName)
	}
}

func TestDatabaseDelete(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabaseDelete", testDatabaseDelete)
}

func testDatabaseDelete(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)
	err := db.Delete(entries[3].key)
	if err != nil {
		t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
	}
	exists, err := db.Has(entries[3].key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: Has returned true for a deleted key", testName)
	}

	// Deleting a missing key is not an error
	err = db.Delete(entries[3].key)
	if err != nil {
		t.Fatalf("%s: Delete of a missing key unexpectedly failed: %s", testName, err)
	}
}

func TestCursorSanity(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorSanity", testCursorSanity)
}

func testCursorSanity(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)

	// A key outside the bucket must not show up in the cursor
	err := db.Put(database.MakeBucket([]byte("other")).Key([]byte("key0")), []byte("other"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}

	cursor, err := db.Cursor(database.MakeBucket([]byte("bucket")))
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	i := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("%s: Key unexpectedly failed: %s", testName, err)
		}
		if !bytes.Equal(key.Bytes(), entries[i].key.Bytes()) {
			t.Fatalf("%s: Key returned wrong key. Want: %s, got: %s",
				testName, entries[i].key.Bytes(), key.Bytes())
		}
		value, err := cursor.Value()
		if err != nil {
			t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
		}
		if !bytes.Equal(value, entries[i].value) {
			t.Fatalf("%s: Value returned wrong value. Want: %s, got: %s",
				testName, entries[i].value, value)
		}
		i++
	}
	if i != len(entries) {
		t.Fatalf("%s: cursor visited %d entries, want %d", testName, i, len(entries))
	}

	_, err = cursor.Key()
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Key of an exhausted cursor returned wrong error: %v", testName, err)
	}
}

func TestCursorSeek(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorSeek", testCursorSeek)
}

func testCursorSeek(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)
	bucket := database.MakeBucket([]byte("bucket"))

	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	err = cursor.Seek(entries[5].key)
	if err != nil {
		t.Fatalf("%s: Seek unexpectedly failed: %s", testName, err)
	}
	value, err := cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(value, entries[5].value) {
		t.Fatalf("%s: Seek landed on the wrong value. Want: %s, got: %s",
			testName, entries[5].value, value)
	}
	if !cursor.Next() {
		t.Fatalf("%s: Next after Seek unexpectedly exhausted the cursor", testName)
	}
	value, err = cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(value, entries[6].value) {
		t.Fatalf("%s: Next after Seek landed on the wrong value. Want: %s, got: %s",
			testName, entries[6].value, value)
	}

	err = cursor.Seek(bucket.Key([]byte("key99")))
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Seek of a missing key returned wrong error: %v", testName, err)
	}
}

func TestCursorClosed(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorClosed", testCursorClosed)
}

func testCursorClosed(t *testing.T, db database.Database, testName string) {
	populateDatabaseForTest(t, db, testName)
	cursor, err := db.Cursor(database.MakeBucket([]byte("bucket")))
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	err = cursor.Close()
	if err != nil {
		t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
	}
	err = cursor.Close()
	if err == nil {
		t.Fatalf("%s: second Close unexpectedly succeeded", testName)
	}
	_, err = cursor.Value()
	if err == nil {
		t.Fatalf("%s: Value of a closed cursor unexpectedly succeeded", testName)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("%s: Next on a closed cursor unexpectedly didn't panic", testName)
		}
	}()
	cursor.Next()
}

func TestTransactionCommit(t *testing.T) {
	testForAllDatabaseTypes(t, "TestTransactionCommit", testTransactionCommit)
}

func testTransactionCommit(t *testing.T, db database.Database, testName string) {
	key := database.MakeBucket([]byte("bucket")).Key([]byte("key"))

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Put(key, []byte("value"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("%s: Commit unexpectedly failed: %s", testName, err)
	}
	err = dbTx.RollbackUnlessClosed()
	if err != nil {
		t.Fatalf("%s: RollbackUnlessClosed after Commit unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Commit()
	if err == nil {
		t.Fatalf("%s: second Commit unexpectedly succeeded", testName)
	}

	value, err := db.Get(key)
	if err != nil {
		t.Fatalf("%s: Get unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(value, []byte("value")) {
		t.Fatalf("%s: Get returned wrong value: %s", testName, value)
	}
}

func TestTransactionRollback(t *testing.T) {
	testForAllDatabaseTypes(t, "TestTransactionRollback", testTransactionRollback)
}

func testTransactionRollback(t *testing.T, db database.Database, testName string) {
	key := database.MakeBucket([]byte("bucket")).Key([]byte("key"))

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Put(key, []byte("value"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Rollback()
	if err != nil {
		t.Fatalf("%s: Rollback unexpectedly failed: %s", testName, err)
	}
	_, err = dbTx.Get(key)
	if err == nil {
		t.Fatalf("%s: Get on a closed transaction unexpectedly succeeded", testName)
	}

	exists, err := db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: rolled back Put is visible in the database", testName)
	}
}
