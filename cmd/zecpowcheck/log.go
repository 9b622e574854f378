package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("ZPCK")

// initLog writes all subsystems to stderr at logLevel, keeping stdout for
// the outcomes.
func initLog(logLevel string) error {
	level, ok := logger.LevelFromString(logLevel)
	if !ok {
		return errors.Errorf("the specified debug level [%s] is invalid", logLevel)
	}
	err := logger.BackendLog.AddLogWriter(os.Stderr, level)
	if err != nil {
		return err
	}
	err = logger.SetLogLevels(logLevel)
	if err != nil {
		return err
	}
	return logger.BackendLog.Run()
}
