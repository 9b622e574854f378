package logger

import "strings"

// Level is the level at which a logger is configured. Messages below the
// level of a logger or writer are dropped.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelTags are the tags printed in log lines, indexed by level.
var levelTags = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

// levelNames maps the names accepted by --debuglevel to levels. Tags are
// accepted as well.
var levelNames = map[string]Level{
	"trace":    LevelTrace,
	"debug":    LevelDebug,
	"info":     LevelInfo,
	"warn":     LevelWarn,
	"error":    LevelError,
	"critical": LevelCritical,
	"off":      LevelOff,
}

// LevelFromString returns the level named s, ignoring case. Unknown names
// return LevelInfo and false.
func LevelFromString(s string) (Level, bool) {
	s = strings.ToLower(s)
	if level, ok := levelNames[s]; ok {
		return level, true
	}
	for level, tag := range levelTags {
		if s == strings.ToLower(tag) {
			return Level(level), true
		}
	}
	return LevelInfo, false
}

// String returns the tag of the level, or "OFF" for levels that produce no
// output.
func (l Level) String() string {
	if l >= LevelOff {
		return levelTags[LevelOff]
	}
	return levelTags[l]
}
