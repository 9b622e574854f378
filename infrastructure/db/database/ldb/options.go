package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

const writeBufferMiB = 8

// Options returns the options a header database is opened with. Records are
// hex encoded, so they are stored snappy compressed.
func Options(cacheSizeMiB int) *opt.Options {
	return &opt.Options{
		Compression:        opt.SnappyCompression,
		BlockCacheCapacity: cacheSizeMiB * opt.MiB,
		WriteBuffer:        writeBufferMiB * opt.MiB,
	}
}
