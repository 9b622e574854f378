package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/zecpow/zecpowd/infrastructure/logger"
)

const logFlushTimeout = 5 * time.Second

// exitFunc ends the process once a panic is logged.
var exitFunc = os.Exit

// HandlePanic must be deferred. On panic it logs the panic value with the
// current stack, and spawnStack when the goroutine was started through
// GoroutineWrapperFunc, flushes the log and exits with status 1.
func HandlePanic(log *logger.Logger, goroutineName string, spawnStack []byte) {
	recovered := recover()
	if recovered == nil {
		return
	}
	crash(log, fmt.Sprintf("goroutine %s panicked: %+v", goroutineName, recovered), debug.Stack(), spawnStack)
}

// GoroutineWrapperFunc returns a spawn function that starts named goroutines
// whose panics go through HandlePanic.
func GoroutineWrapperFunc(log *logger.Logger) func(name string, f func()) {
	return func(name string, f func()) {
		spawnStack := debug.Stack()
		go func() {
			defer HandlePanic(log, name, spawnStack)
			f()
		}()
	}
}

func crash(log *logger.Logger, reason string, stack []byte, spawnStack []byte) {
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		log.Criticalf("Exiting: %s", reason)
		log.Criticalf("Stack trace: %s", stack)
		if spawnStack != nil {
			log.Criticalf("Spawned from: %s", spawnStack)
		}
		log.Backend().Close()
	}()

	select {
	case <-flushed:
	case <-time.After(logFlushTimeout):
		fmt.Fprintln(os.Stderr, "Timed out flushing the log before exiting")
	}
	exitFunc(1)
}
