package syncer

import (
	"github.com/zecpow/zecpowd/infrastructure/logger"
	"github.com/zecpow/zecpowd/util/panics"
)

var log = logger.RegisterSubSystem("SYNC")
var spawn = panics.GoroutineWrapperFunc(log)
