package ldb

import "github.com/zecpow/zecpowd/infrastructure/logger"

var log = logger.RegisterSubSystem("HDRS")
