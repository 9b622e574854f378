package headervalidator

import (
	"github.com/zecpow/zecpowd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("HVAL")
