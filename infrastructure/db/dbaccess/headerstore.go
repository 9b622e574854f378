package dbaccess

// HeaderStore is an append-only log of verified headers keyed by height.
type HeaderStore struct {
	dbContext *DatabaseContext
}

// NewHeaderStore returns a HeaderStore over the given database.
func NewHeaderStore(dbContext *DatabaseContext) *HeaderStore {
	return &HeaderStore{dbContext: dbContext}
}

// Append stores the header at height. Once the store holds a header, height
// must be its tip plus one.
func (hs *HeaderStore) Append(height uint32, headerBytes []byte) error {
	err := hs.dbContext.Update(func(tx *TxContext) error {
		return StoreHeader(tx, height, headerBytes)
	})
	if err != nil {
		return err
	}
	log.Tracef("Stored header at height %d", height)
	return nil
}

// Tip returns the height of the last appended header, and false when the
// store is empty.
func (hs *HeaderStore) Tip() (uint32, bool, error) {
	return FetchTipHeight(hs.dbContext.NoTx())
}

// Get returns the header bytes stored at height.
func (hs *HeaderStore) Get(height uint32) ([]byte, error) {
	record, err := FetchHeaderRecord(hs.dbContext.NoTx(), height)
	if err != nil {
		return nil, err
	}
	return record.HeaderBytes()
}

// LastN returns up to n of the most recent records, oldest first. It stops
// early at the first header the store was seeded with.
func (hs *HeaderStore) LastN(n int) ([]*HeaderRecord, error) {
	tipHeight, hasTip, err := hs.Tip()
	if err != nil || !hasTip || n <= 0 {
		return nil, err
	}

	fromHeight := uint32(0)
	if int64(tipHeight)+1 > int64(n) {
		fromHeight = tipHeight + 1 - uint32(n)
	}
	return FetchHeaderRecords(hs.dbContext.NoTx(), fromHeight, tipHeight)
}
