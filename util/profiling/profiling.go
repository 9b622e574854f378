package profiling

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	// Registers the /debug/pprof handlers on the default mux.
	_ "net/http/pprof"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/infrastructure/logger"
	"github.com/zecpow/zecpowd/util/panics"
)

const shutdownTimeout = 5 * time.Second

var registerRedirect sync.Once

// Start serves the default mux on port until ctx is done. Besides pprof it
// carries /debug/metrics once metrics are enabled. The address actually
// bound is returned, so port may be "0".
func Start(ctx context.Context, port string, log *logger.Logger) (net.Addr, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort("", port))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen for profiling on port %s", port)
	}

	registerRedirect.Do(func() {
		http.Handle("/", http.RedirectHandler("/debug/pprof/", http.StatusSeeOther))
	})
	server := &http.Server{Handler: http.DefaultServeMux, ReadHeaderTimeout: 10 * time.Second}

	spawn := panics.GoroutineWrapperFunc(log)
	spawn("profiling.serve", func() {
		log.Infof("Profile server listening on %s", listener.Addr())
		err := server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Profile server stopped: %s", err)
		}
	})
	spawn("profiling.shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Warnf("Error shutting down the profile server: %s", err)
		}
	})
	return listener.Addr(), nil
}
