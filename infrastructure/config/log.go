package config

import "github.com/zecpow/zecpowd/infrastructure/logger"

var log = logger.RegisterSubSystem("CNFG")
