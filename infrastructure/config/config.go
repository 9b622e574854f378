package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/db/dbaccess"
	"github.com/zecpow/zecpowd/version"
)

const (
	defaultConfigFilename = "zecpowd.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "zecpowd.log"
	defaultErrLogFilename = "zecpowd_err.log"
	defaultStartHeight    = 3000000
	defaultBatchSize      = 16
	defaultPollInterval   = 30 * time.Second
	defaultMaxRetries     = 5
	defaultRPCTimeout     = 30 * time.Second
	defaultRPCHost        = "127.0.0.1"

	// Environment variables overriding the defaults of their flags
	rpcURLEnvVar      = "ZCASH_RPC_URL"
	startHeightEnvVar = "START_HEIGHT"
)

var (
	// DefaultAppDir is the default home directory for zecpowd.
	DefaultAppDir = btcutil.AppDataDir("zecpowd", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
	knownDbTypes      = []string{dbaccess.DatabaseTypeLevelDB, dbaccess.DatabaseTypeBolt}
)

// Flags defines the configuration options for zecpowd.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion  bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile   string        `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir      string        `short:"b" long:"datadir" description:"Directory to store verified headers"`
	LogDir       string        `long:"logdir" description:"Directory to log output."`
	RPCServer    string        `short:"s" long:"rpcserver" description:"URL of the zcashd JSON-RPC server, e.g. http://127.0.0.1:8232 (default from ZCASH_RPC_URL)"`
	RPCUser      string        `short:"u" long:"rpcuser" description:"Username for RPC connections"`
	RPCPass      string        `short:"P" long:"rpcpass" default-mask:"-" description:"Password for RPC connections (prompted for when omitted on a terminal)"`
	Proxy        string        `long:"proxy" description:"Connect to the RPC server through a SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser    string        `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass    string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	HeadersFile  string        `long:"headersfile" description:"Replay hex encoded headers from this file instead of querying the RPC server"`
	HeadersStart uint32        `long:"headersstart" description:"Height of the first header in --headersfile"`
	StartHeight  uint32        `long:"startheight" description:"Height to start verifying from when the header database is empty (default from START_HEIGHT, else 3000000)"`
	StopHeight   uint32        `long:"stopheight" description:"Stop after verifying the header at this height (0 runs forever)"`
	DbType       string        `long:"dbtype" description:"Database backend for verified headers {ldb, bolt}"`
	Workers      int           `long:"workers" description:"Number of goroutines checking headers in isolation"`
	LeafWorkers  int           `long:"leafworkers" description:"Number of goroutines hashing the Equihash leaves of a single header (0 hashes them sequentially)"`
	BatchSize    int           `long:"batchsize" description:"Number of headers fetched and checked in isolation at once"`
	PollInterval time.Duration `long:"pollinterval" description:"How long to wait for the node to reach the next height. Valid time units are {s, m, h}"`
	MaxRetries   int           `long:"maxretries" description:"How many times a failed RPC call is retried before giving up"`
	RPCTimeout   time.Duration `long:"rpctimeout" description:"How long to wait for a single RPC response. Valid time units are {s, m, h}"`
	Profile      string        `long:"profile" description:"Enable HTTP profiling and metrics on given port -- NOTE port must be between 1024 and 65536"`
	DebugLevel   string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	NetworkFlags
}

// Config defines the configuration options for zecpowd, after they were
// parsed and validated.
type Config struct {
	*Flags
}

// LogFile returns the path of the main log file.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the warnings and errors log file.
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

func defaultFlags() (*Flags, error) {
	cfgFlags := &Flags{
		ConfigFile:   defaultConfigFile,
		DataDir:      defaultDataDir,
		LogDir:       defaultLogDir,
		RPCServer:    os.Getenv(rpcURLEnvVar),
		StartHeight:  defaultStartHeight,
		DbType:       dbaccess.DatabaseTypeLevelDB,
		Workers:      runtime.NumCPU(),
		BatchSize:    defaultBatchSize,
		PollInterval: defaultPollInterval,
		MaxRetries:   defaultMaxRetries,
		RPCTimeout:   defaultRPCTimeout,
		DebugLevel:   defaultLogLevel,
	}
	if startHeight := os.Getenv(startHeightEnvVar); startHeight != "" {
		parsed, err := strconv.ParseUint(startHeight, 10, 32)
		if err != nil {
			return nil, errors.Errorf("%s must be a block height, got %q", startHeightEnvVar, startHeight)
		}
		cfgFlags.StartHeight = uint32(parsed)
	}
	return cfgFlags, nil
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Apply the ZCASH_RPC_URL and START_HEIGHT environment variables
//  3. Pre-parse the command line to check for an alternative config file
//  4. Load configuration file overwriting defaults with any specified options
//  5. Parse CLI options and overwrite/add any specified options
//
// The above results in zecpowd functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take
// precedence.
func LoadConfig(args []string) (*Config, error) {
	cfgFlags, err := defaultFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err = preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	parser := flags.NewParser(cfgFlags, flags.Default)
	var configFileError error
	err = flags.NewIniParser(parser).ParseFile(cleanAndExpandPath(preCfg.ConfigFile))
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	err = cfg.validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done. This prevents the warning on help messages and invalid options.
	if configFileError != nil {
		log.Debugf("%s", configFileError)
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	funcName := "loadConfig"

	err := cfg.ResolveNetwork(nil)
	if err != nil {
		return err
	}

	if cfg.HeadersFile == "" {
		if cfg.RPCServer == "" {
			cfg.RPCServer = "http://" + defaultRPCHost + ":" + cfg.NetParams().RPCPort
		}
		if cfg.RPCUser != "" && cfg.RPCPass == "" {
			cfg.RPCPass, err = promptPassword(fmt.Sprintf("RPC password for %s: ", cfg.RPCUser))
			if err != nil {
				return errors.Wrapf(err, "%s: rpcpass is required with rpcuser", funcName)
			}
		}
		if cfg.Proxy != "" {
			_, _, err = net.SplitHostPort(cfg.Proxy)
			if err != nil {
				return errors.Wrapf(err, "%s: proxy address '%s' is invalid", funcName, cfg.Proxy)
			}
		}
	} else {
		cfg.HeadersFile = cleanAndExpandPath(cfg.HeadersFile)
	}

	// Append the network type to the data and log directories so they are
	// "namespaced" per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), cfg.NetParams().Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)

	if !validDbType(cfg.DbType) {
		return errors.Errorf("%s: The specified database type [%s] is invalid -- "+
			"supported types %s", funcName, cfg.DbType, strings.Join(knownDbTypes, ", "))
	}
	if cfg.Workers < 1 {
		return errors.Errorf("%s: workers must be at least 1, got %d", funcName, cfg.Workers)
	}
	if cfg.LeafWorkers < 0 {
		return errors.Errorf("%s: leafworkers must not be negative, got %d", funcName, cfg.LeafWorkers)
	}
	if cfg.BatchSize < 1 {
		return errors.Errorf("%s: batchsize must be at least 1, got %d", funcName, cfg.BatchSize)
	}
	if cfg.PollInterval <= 0 {
		return errors.Errorf("%s: pollinterval must be positive, got %s", funcName, cfg.PollInterval)
	}
	if cfg.RPCTimeout <= 0 {
		return errors.Errorf("%s: rpctimeout must be positive, got %s", funcName, cfg.RPCTimeout)
	}
	if cfg.MaxRetries < 0 {
		return errors.Errorf("%s: maxretries must not be negative, got %d", funcName, cfg.MaxRetries)
	}
	if cfg.StopHeight != 0 && cfg.StopHeight < cfg.StartHeight {
		return errors.Errorf("%s: stopheight %d is below startheight %d", funcName, cfg.StopHeight, cfg.StartHeight)
	}

	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return errors.Errorf("%s: The profile port must be between 1024 and 65535", funcName)
		}
	}
	return nil
}
