package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// BackendLog is the logging backend used to create all subsystem loggers.
var BackendLog = NewBackend()

var (
	subsystemLoggers     = map[string]*Logger{}
	subsystemLoggersLock sync.Mutex
)

// RegisterSubSystem returns the logger of the given subsystem, creating it
// on first use. New loggers start at the info level.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()
	logger, exists := subsystemLoggers[subsystem]
	if !exists {
		logger = BackendLog.Logger(subsystem)
		logger.SetLevel(LevelInfo)
		subsystemLoggers[subsystem] = logger
	}
	return logger
}

// InitLog attaches log file and error log file to the backend log, echoes
// everything at info and above to stdout, and starts the backend.
func InitLog(logFile, errLogFile string) {
	err := BackendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", logFile, LevelTrace, err)
		os.Exit(1)
	}
	err = BackendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
	InitLogStdout(LevelInfo)
}

// InitLogStdout attaches stdout to the backend log at logLevel and starts
// the backend.
func InitLogStdout(logLevel Level) {
	err := BackendLog.AddLogWriter(os.Stdout, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the logger for level %s: %s", logLevel, err)
		os.Exit(1)
	}
	err = BackendLog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s ", err)
		os.Exit(1)
	}
}

// SetLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored. Uninitialized subsystems are dynamically created as
// needed.
func SetLogLevel(subsystemID string, logLevel string) error {
	level, ok := LevelFromString(logLevel)
	if !ok {
		return errors.Errorf("the specified debug level [%s] is invalid", logLevel)
	}
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()
	logger, exists := subsystemLoggers[subsystemID]
	if !exists {
		return errors.Errorf("the specified subsystem [%s] is invalid -- supported subsystems are %s",
			subsystemID, strings.Join(supportedSubsystems(), ", "))
	}
	logger.SetLevel(level)
	return nil
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level.
func SetLogLevels(logLevel string) error {
	subsystemLoggersLock.Lock()
	subsystems := supportedSubsystems()
	subsystemLoggersLock.Unlock()
	for _, subsystemID := range subsystems {
		err := SetLogLevel(subsystemID, logLevel)
		if err != nil {
			return err
		}
	}
	return nil
}

// SupportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func SupportedSubsystems() []string {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()
	return supportedSubsystems()
}

func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// ParseAndSetLogLevels attempts to parse the specified debug level and set
// the levels accordingly. An appropriate error is returned if anything is
// invalid.
func ParseAndSetLogLevels(logLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(logLevel, ",") && !strings.Contains(logLevel, "=") {
		return SetLogLevels(logLevel)
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(logLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid subsystem/level pair [%s]"
			return errors.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		err := SetLogLevel(subsysID, logLevel)
		if err != nil {
			return err
		}
	}
	return nil
}
