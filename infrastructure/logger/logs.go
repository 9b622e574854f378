// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package logger

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

type logEntry struct {
	log   []byte
	level Level
}

// Logger is a subsystem logger for a Backend.
type Logger struct {
	lvl     Level // atomic
	tag     string
	b       *Backend
	entries chan<- logEntry
}

// Use stdlib log package default buffer size (without the NUL terminator)
// Each log entry is formatted to the buffer and then sent to the backend channel.
func (l *Logger) write(lvl Level, msg string) {
	if !l.b.IsRunning() {
		return
	}

	t := time.Now()
	buf := make([]byte, 0, normalLogSize)
	buf = append(buf, t.Format("2006-01-02 15:04:05.000")...)
	buf = append(buf, " ["...)
	buf = append(buf, lvl.String()...)
	buf = append(buf, "] "...)
	buf = append(buf, l.tag...)
	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		buf = append(buf, ' ')
		buf = append(buf, callsite(l.b.flag)...)
	}
	buf = append(buf, ": "...)
	buf = append(buf, msg...)
	if !strings.HasSuffix(msg, "\n") {
		buf = append(buf, '\n')
	}

	l.entries <- logEntry{log: buf, level: lvl}
}

// callsite returns the file name and line number of the code that called the
// logger.
func callsite(flag uint32) string {
	// Skip callsite, write, the Logger method, and the caller of the Logger
	// method's frame is the one we want.
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "???:0"
	}
	if flag&LogFlagShortFile != 0 {
		if i := strings.LastIndexByte(file, '/'); i != -1 {
			file = file[i+1:]
		}
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func (l *Logger) logf(lvl Level, format string, params ...interface{}) {
	if lvl < l.Level() {
		return
	}
	l.write(lvl, fmt.Sprintf(format, params...))
}

func (l *Logger) log(lvl Level, args ...interface{}) {
	if lvl < l.Level() {
		return
	}
	l.write(lvl, fmt.Sprint(args...))
}

// Trace formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) { l.log(LevelTrace, args...) }

// Tracef formats message according to format specifier, prepends the prefix as
// necessary, and writes to log with LevelTrace.
func (l *Logger) Tracef(format string, params ...interface{}) { l.logf(LevelTrace, format, params...) }

// Debug formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) { l.log(LevelDebug, args...) }

// Debugf formats message according to format specifier, prepends the prefix as
// necessary, and writes to log with LevelDebug.
func (l *Logger) Debugf(format string, params ...interface{}) { l.logf(LevelDebug, format, params...) }

// Info formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelInfo.
func (l *Logger) Info(args ...interface{}) { l.log(LevelInfo, args...) }

// Infof formats message according to format specifier, prepends the prefix as
// necessary, and writes to log with LevelInfo.
func (l *Logger) Infof(format string, params ...interface{}) { l.logf(LevelInfo, format, params...) }

// Warn formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) { l.log(LevelWarn, args...) }

// Warnf formats message according to format specifier, prepends the prefix as
// necessary, and writes to log with LevelWarn.
func (l *Logger) Warnf(format string, params ...interface{}) { l.logf(LevelWarn, format, params...) }

// Error formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelError.
func (l *Logger) Error(args ...interface{}) { l.log(LevelError, args...) }

// Errorf formats message according to format specifier, prepends the prefix as
// necessary, and writes to log with LevelError.
func (l *Logger) Errorf(format string, params ...interface{}) { l.logf(LevelError, format, params...) }

// Critical formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) { l.log(LevelCritical, args...) }

// Criticalf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelCritical.
func (l *Logger) Criticalf(format string, params ...interface{}) { l.logf(LevelCritical, format, params...) }

// Level returns the current logging level
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.lvl)))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.lvl), uint32(level))
}

// Backend returns the log backend
func (l *Logger) Backend() *Backend {
	return l.b
}

// Fatalf logs at the critical level, closes the backend so everything is
// flushed, and exits with status 1.
func (l *Logger) Fatalf(format string, params ...interface{}) {
	l.Criticalf(format, params...)
	l.b.Close()
	os.Exit(1)
}
