package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const normalLogSize = 512

// Flags that change how a Backend formats entries.
const (
	// LogFlagLongFile adds the full path and line of the logging call.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile adds the file name and line of the logging call. It
	// wins over LogFlagLongFile.
	LogFlagShortFile
)

var logFlagNames = map[string]uint32{
	"longfile":  LogFlagLongFile,
	"shortfile": LogFlagShortFile,
}

// defaultFlags is read from the comma separated LOGFLAGS environment
// variable. It is a variable initializer so that BackendLog sees it.
var defaultFlags = flagsFromEnv(os.Getenv("LOGFLAGS"))

func flagsFromEnv(value string) uint32 {
	var flags uint32
	for _, name := range strings.Split(value, ",") {
		flags |= logFlagNames[strings.TrimSpace(name)]
	}
	return flags
}

// Rotation defaults of log files: roll at 32 MB, keep the last 4 rolls.
const (
	logFileThresholdKB = 32 * 1000
	logFileMaxRolls    = 4
)

type sink struct {
	io.WriteCloser
	minLevel Level
}

// Backend fans formatted entries out to its sinks from a single goroutine,
// so entries of different subsystems never interleave.
type Backend struct {
	flag    uint32
	running uint32 // atomic
	started bool

	sinks     []sink
	entries   chan logEntry
	done      chan struct{}
	closeOnce sync.Once
}

// NewBackendWithFlags returns a Backend formatting entries with flags
// instead of the LOGFLAGS defaults.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{
		flag:    flags,
		entries: make(chan logEntry),
		done:    make(chan struct{}),
	}
}

// NewBackend returns a Backend using the LOGFLAGS defaults.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// AddLogWriter adds w as a sink for entries at logLevel and above. Sinks
// can only be added before Run.
func (b *Backend) AddLogWriter(w io.WriteCloser, logLevel Level) error {
	if b.started {
		return errors.New("cannot add a log sink to a running logger")
	}
	b.sinks = append(b.sinks, sink{WriteCloser: w, minLevel: logLevel})
	return nil
}

// AddLogFile adds a rotated log file at path as a sink for entries at
// logLevel and above. Missing directories are created.
func (b *Backend) AddLogFile(path string, logLevel Level) error {
	if b.started {
		return errors.New("cannot add a log sink to a running logger")
	}
	if dir := filepath.Dir(path); dir != "." {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", dir)
		}
	}
	fileRotator, err := rotator.New(path, logFileThresholdKB, false, logFileMaxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create rotator for %s", path)
	}
	return b.AddLogWriter(fileRotator, logLevel)
}

// Run starts delivering entries to the sinks. It may be called once.
func (b *Backend) Run() error {
	if b.started {
		return errors.New("the logger is already running")
	}
	b.started = true
	atomic.StoreUint32(&b.running, 1)
	go b.deliver()
	return nil
}

func (b *Backend) deliver() {
	defer close(b.done)
	defer atomic.StoreUint32(&b.running, 0)
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "Logger backend crashed: %+v\n%s\n", err, debug.Stack())
		}
	}()

	for entry := range b.entries {
		for _, s := range b.sinks {
			if entry.level >= s.minLevel {
				_, _ = s.Write(entry.log)
			}
		}
	}
}

// IsRunning reports whether entries are currently delivered.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.running) == 1
}

// Close flushes pending entries and closes every sink. Calls after the
// first one do nothing.
func (b *Backend) Close() {
	b.closeOnce.Do(func() {
		close(b.entries)
		if b.started {
			<-b.done
		}
		for _, s := range b.sinks {
			_ = s.Close()
		}
	})
}

// Logger returns the logger of subsystemTag on b. It stays off until its
// level is set.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{lvl: LevelOff, tag: subsystemTag, b: b, entries: b.entries}
}
