// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// interruptSignals defines the signals that are handled to do a clean shutdown.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// InterruptListener listens for OS Signals such as SIGINT (Ctrl+C) and shutdown
// requests from shutdownRequestChannel. It returns a context that is canceled
// when either signal is received.
func InterruptListener(parent context.Context, shutdownRequestChannel <-chan struct{}) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)
		defer signal.Stop(interruptChannel)

		// Listen for initial shutdown signal and cancel the returned context.
		select {
		case sig := <-interruptChannel:
			log.Infof("Received signal (%s). Shutting down...", sig)

		case <-shutdownRequestChannel:
			log.Info("Shutdown requested. Shutting down...")

		case <-ctx.Done():
			return
		}
		cancel()

		// Listen for repeated signals and display a message so the user
		// knows the shutdown is in progress and the process is not
		// hung.
		for {
			select {
			case sig := <-interruptChannel:
				log.Infof("Received signal (%s). Already shutting down...", sig)

			case <-parent.Done():
				return
			}
		}
	}()

	return ctx
}
