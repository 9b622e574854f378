package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/app/syncer"
	"github.com/zecpow/zecpowd/domain/consensus/processes/difficultymanager"
	"github.com/zecpow/zecpowd/domain/consensus/processes/headervalidator"
	"github.com/zecpow/zecpowd/domain/consensus/utils/equihash"
	"github.com/zecpow/zecpowd/infrastructure/config"
	"github.com/zecpow/zecpowd/infrastructure/db/dbaccess"
	"github.com/zecpow/zecpowd/infrastructure/logger"
	"github.com/zecpow/zecpowd/infrastructure/metrics"
	"github.com/zecpow/zecpowd/infrastructure/network/headersource"
	"github.com/zecpow/zecpowd/infrastructure/network/rpcclient"
	"github.com/zecpow/zecpowd/infrastructure/os/signal"
	"github.com/zecpow/zecpowd/util/panics"
	"github.com/zecpow/zecpowd/util/profiling"
	"github.com/zecpow/zecpowd/version"
)

const processMetricsRefresh = 5 * time.Second

func main() {
	defer panics.HandlePanic(log, "MAIN", nil)

	if err := zecpowdMain(); err != nil {
		os.Exit(1)
	}
}

func zecpowdMain() error {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	if cfg.DebugLevel == "show" {
		fmt.Printf("Supported subsystems: %s\n", strings.Join(logger.SupportedSubsystems(), ", "))
		return nil
	}
	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	defer logger.BackendLog.Close()

	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		log.Errorf("%s", err)
		return err
	}

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	shutdownRequestChannel := make(chan struct{})
	ctx := signal.InterruptListener(context.Background(), shutdownRequestChannel)

	// Metrics are served by the profiling server, and must be enabled before
	// anything creates its counters.
	if cfg.Profile != "" {
		metrics.Enable()
		spawn("metrics.CollectProcessMetrics", func() {
			metrics.CollectProcessMetrics(processMetricsRefresh, ctx.Done())
		})
		_, err := profiling.Start(ctx, cfg.Profile, log)
		if err != nil {
			log.Errorf("Error starting the profile server: %+v", err)
			return err
		}
	}

	dbContext, err := dbaccess.Open(cfg.DbType, cfg.DataDir)
	if err != nil {
		log.Errorf("Error opening the header database: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Closing the header database")
		err := dbContext.Close()
		if err != nil {
			log.Errorf("Error closing the header database: %+v", err)
		}
	}()

	source, err := newHeaderSource(cfg)
	if err != nil {
		log.Errorf("Error creating the header source: %+v", err)
		return err
	}
	defer source.Close()

	params := cfg.NetParams()
	validator, err := headervalidator.New(params, difficultymanager.New(params),
		&equihash.Config{LeafWorkers: cfg.LeafWorkers})
	if err != nil {
		log.Errorf("Error creating the header validator: %+v", err)
		return err
	}

	headerSyncer := syncer.New(cfg, dbaccess.NewHeaderStore(dbContext), source, validator)
	syncDone := make(chan error, 1)
	spawn("syncer.Run", func() {
		syncDone <- headerSyncer.Run(ctx)
		close(shutdownRequestChannel)
	})

	<-ctx.Done()
	err = <-syncDone
	if err != nil {
		log.Errorf("Sync stopped: %+v", err)
		return err
	}
	log.Infof("Gracefully shut down")
	return nil
}

func newHeaderSource(cfg *config.Config) (headersource.HeaderSource, error) {
	if cfg.HeadersFile != "" {
		log.Infof("Replaying headers from %s", cfg.HeadersFile)
		return headersource.NewFileSource(cfg.HeadersFile, cfg.HeadersStart)
	}

	var options []rpcclient.Option
	if cfg.Proxy != "" {
		options = append(options, rpcclient.WithProxy(cfg.Proxy, cfg.ProxyUser, cfg.ProxyPass))
	}
	client, err := rpcclient.NewRPCClient(cfg.RPCServer, cfg.RPCUser, cfg.RPCPass, options...)
	if err != nil {
		return nil, err
	}
	client.SetTimeout(cfg.RPCTimeout)
	log.Infof("Following the node at %s", client.Address())
	return headersource.NewRPCSource(client), nil
}
