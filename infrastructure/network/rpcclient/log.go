package rpcclient

import (
	"github.com/zecpow/zecpowd/infrastructure/logger"
	"github.com/zecpow/zecpowd/util/panics"
)

var log = logger.RegisterSubSystem("RPCS")
var spawn = panics.GoroutineWrapperFunc(log)
