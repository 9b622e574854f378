package dbaccess

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/db/database"
)

var (
	headersBucket = database.MakeBucket([]byte("headers"))
	tipHeightKey  = database.MakeBucket().Key([]byte("tip-height"))
)

// HeaderRecord is the stored form of a verified header.
type HeaderRecord struct {
	Height    uint32 `json:"height"`
	HeaderHex string `json:"header_hex"`
}

// HeaderBytes decodes the hex encoded header of the record.
func (r *HeaderRecord) HeaderBytes() ([]byte, error) {
	headerBytes, err := hex.DecodeString(r.HeaderHex)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt header record at height %d", r.Height)
	}
	return headerBytes, nil
}

func heightKey(height uint32) *database.Key {
	var suffix [4]byte
	binary.BigEndian.PutUint32(suffix[:], height)
	return headersBucket.Key(suffix[:])
}

// StoreHeader stores the header at the given height and moves the tip to it.
// Once a tip exists, height must directly follow it.
func StoreHeader(context Context, height uint32, headerBytes []byte) error {
	accessor, err := context.accessor()
	if err != nil {
		return err
	}

	tipHeight, hasTip, err := FetchTipHeight(context)
	if err != nil {
		return err
	}
	if hasTip && height != tipHeight+1 {
		return errors.Wrapf(ErrHeightGap, "cannot store header at height %d on top of tip %d", height, tipHeight)
	}

	recordBytes, err := json.Marshal(&HeaderRecord{Height: height, HeaderHex: hex.EncodeToString(headerBytes)})
	if err != nil {
		return errors.WithStack(err)
	}
	err = accessor.Put(heightKey(height), recordBytes)
	if err != nil {
		return err
	}

	var tipBytes [4]byte
	binary.BigEndian.PutUint32(tipBytes[:], height)
	return accessor.Put(tipHeightKey, tipBytes[:])
}

// FetchHeaderRecord returns the record stored at height. Returns
// ErrNotFound if no header was stored there.
func FetchHeaderRecord(context Context, height uint32) (*HeaderRecord, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	recordBytes, err := accessor.Get(heightKey(height))
	if err != nil {
		return nil, err
	}
	return deserializeHeaderRecord(recordBytes)
}

// FetchTipHeight returns the height of the last stored header, and false if
// the store is empty.
func FetchTipHeight(context Context) (uint32, bool, error) {
	accessor, err := context.accessor()
	if err != nil {
		return 0, false, err
	}

	tipBytes, err := accessor.Get(tipHeightKey)
	if IsNotFoundError(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(tipBytes) != 4 {
		return 0, false, errors.Errorf("corrupt tip height of %d bytes", len(tipBytes))
	}
	return binary.BigEndian.Uint32(tipBytes), true, nil
}

func deserializeHeaderRecord(recordBytes []byte) (*HeaderRecord, error) {
	record := &HeaderRecord{}
	err := json.Unmarshal(recordBytes, record)
	if err != nil {
		return nil, errors.Wrap(err, "corrupt header record")
	}
	return record, nil
}

// FetchHeaderRecords returns the records stored between fromHeight and
// toHeight inclusive, oldest first, walking a cursor over the headers bucket.
// Only the run of consecutive heights ending at the last record found is
// returned.
func FetchHeaderRecords(context Context, fromHeight uint32, toHeight uint32) ([]*HeaderRecord, error) {
	accessor, err := context.accessor()
	if err != nil {
		return nil, err
	}

	cursor, err := accessor.Cursor(headersBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	// A missing fromHeight still leaves the cursor on the next stored height
	err = cursor.Seek(heightKey(fromHeight))
	if err != nil && !IsNotFoundError(err) {
		return nil, err
	}

	var records []*HeaderRecord
	for {
		recordBytes, err := cursor.Value()
		if IsNotFoundError(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		record, err := deserializeHeaderRecord(recordBytes)
		if err != nil {
			return nil, err
		}
		if record.Height > toHeight {
			break
		}
		if len(records) > 0 && record.Height != records[len(records)-1].Height+1 {
			records = records[:0]
		}
		records = append(records, record)

		if !cursor.Next() {
			break
		}
	}
	return records, nil
}
