package headersource

import "github.com/zecpow/zecpowd/infrastructure/logger"

var log = logger.RegisterSubSystem("RPCS")
