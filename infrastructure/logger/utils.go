package logger

import (
	"time"
)

// slowExecutionThreshold is how long a measured function may run before its
// end is logged as a warning.
const slowExecutionThreshold = 30 * time.Second

// LogAndMeasureExecutionTime logs the start of functionName and returns a
// function logging its end along with the time it took. Call the returned
// function when functionName returns, usually with defer.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		took := time.Since(start)
		if took > slowExecutionThreshold {
			log.Warnf("%s end. Took: %s, longer than %s", functionName, took, slowExecutionThreshold)
			return
		}
		log.Debugf("%s end. Took: %s", functionName, took)
	}
}
