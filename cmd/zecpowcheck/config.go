package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/config"
	"github.com/zecpow/zecpowd/infrastructure/db/dbaccess"
	"github.com/zecpow/zecpowd/version"
)

type configFlags struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DataDir     string `short:"b" long:"datadir" description:"Data directory of a zecpowd instance. When set, headers are also checked against the difficulty of the stored headers"`
	DbType      string `long:"dbtype" description:"Database backend of --datadir {ldb, bolt}"`
	Height      uint32 `long:"height" description:"Height of the first header when checking in context (default: right above the stored tip)"`
	LeafWorkers int    `long:"leafworkers" description:"Number of goroutines hashing the Equihash leaves of a header"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level written to stderr {trace, debug, info, warn, error, critical}"`
	config.NetworkFlags
}

// inContext reports whether headers are checked against a header store
func (cfg *configFlags) inContext() bool {
	return cfg.DataDir != ""
}

// parseConfig parses args, and returns the remaining arguments, which are
// the hex encoded headers.
func parseConfig(args []string) (*configFlags, []string, error) {
	cfg := &configFlags{
		DbType:     dbaccess.DatabaseTypeLevelDB,
		DebugLevel: "warn",
	}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	parser.Usage = "[OPTIONS] [header hex...]"
	headers, err := parser.ParseArgs(args)

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	if err != nil {
		return nil, nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, nil, err
	}

	if cfg.DbType != dbaccess.DatabaseTypeLevelDB && cfg.DbType != dbaccess.DatabaseTypeBolt {
		return nil, nil, errors.Errorf("unknown database type %q", cfg.DbType)
	}
	if cfg.LeafWorkers < 0 {
		return nil, nil, errors.Errorf("--leafworkers must not be negative, got %d", cfg.LeafWorkers)
	}
	if cfg.DataDir != "" {
		// The same layout zecpowd uses
		cfg.DataDir = filepath.Join(cfg.DataDir, cfg.NetParams().Name)
	}
	return cfg, headers, nil
}
