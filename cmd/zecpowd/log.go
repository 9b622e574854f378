package main

import (
	"github.com/zecpow/zecpowd/infrastructure/logger"
	"github.com/zecpow/zecpowd/util/panics"
)

var log = logger.RegisterSubSystem("ZPWD")
var spawn = panics.GoroutineWrapperFunc(log)
