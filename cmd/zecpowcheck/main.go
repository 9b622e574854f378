package main

import (
	"fmt"
	"os"

	"github.com/zecpow/zecpowd/infrastructure/logger"
)

func main() {
	cfg, headers, err := parseConfig(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	err = initLog(cfg.DebugLevel)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error initializing the logger: %s", err))
	}
	defer logger.BackendLog.Close()

	allVerified, err := run(cfg, headers, os.Stdin, os.Stdout)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("%+v", err))
	}
	if !allVerified {
		logger.BackendLog.Close()
		os.Exit(1)
	}
}

func printErrorAndExit(message string) {
	fmt.Fprintln(os.Stderr, message)
	logger.BackendLog.Close()
	os.Exit(2)
}
