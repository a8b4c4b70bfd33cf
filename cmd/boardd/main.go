// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// boardd is the marketplace daemon: it hosts the booking and
// settlement engine, the oracle device registry, the JSON service API
// and the operational endpoint surface.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adxyz/boardroom/pkg/analytics"
	"github.com/adxyz/boardroom/pkg/api"
	"github.com/adxyz/boardroom/pkg/config"
	"github.com/adxyz/boardroom/pkg/engine"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/log"
	"github.com/adxyz/boardroom/pkg/metric"
	"github.com/adxyz/boardroom/pkg/oracle"
	"github.com/adxyz/boardroom/pkg/store"
)

var (
	apiAddr  = flag.String("api-addr", "", "Service API listen address (overrides BOARD_API_ADDR)")
	opsAddr  = flag.String("ops-addr", "", "Ops server listen address (overrides BOARD_OPS_ADDR)")
	logLevel = flag.String("log-level", "", "Log level (overrides BOARD_LOG_LEVEL)")
	dbType   = flag.String("db", "", "Archival backend: memdb or badgerdb (overrides BOARD_DB_TYPE)")
	dbPath   = flag.String("db-path", "", "Database directory (overrides BOARD_DB_PATH)")

	// Version info, set at build time
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	applyFlagOverrides(&cfg)

	logger := log.NewWithLevel(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting boardd",
		log.String("version", Version),
		log.String("commit", GitCommit),
		log.String("env", cfg.Env))

	metrics, err := metric.NewMetrics()
	if err != nil {
		logger.Fatal("metrics init failed", log.Error(err))
	}

	archive, err := store.New(cfg.DBType, cfg.DBPath)
	if err != nil {
		logger.Fatal("store init failed",
			log.String("db", cfg.DBType),
			log.Error(err))
	}
	defer archive.Close()

	devices := oracle.NewRegistry(logger)
	eng := engine.New(devices, archive, metrics, logger)
	tracker := analytics.NewTracker()

	if cfg.AdminAuthority != "" && cfg.TreasuryAuthority != "" {
		if err := bootstrapConfig(eng, cfg); err != nil {
			logger.Fatal("config bootstrap failed", log.Error(err))
		}
		logger.Info("marketplace config bootstrapped",
			log.Uint64("fee_bps", uint64(cfg.FeeBps)))
	}

	server := api.NewServer(eng, devices, tracker, metrics, logger)
	ops := api.NewOpsServer(eng, metrics, logger)

	apiSrv := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: server.Router(cfg.Production()),
	}
	opsSrv := &http.Server{
		Addr:    cfg.OpsAddr,
		Handler: ops.Router(),
	}

	go func() {
		logger.Info("service API listening", log.String("addr", cfg.APIAddr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("service API failed", log.Error(err))
		}
	}()
	go func() {
		logger.Info("ops server listening", log.String("addr", cfg.OpsAddr))
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ops server failed", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	grace := time.Duration(cfg.ShutdownGraceSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := apiSrv.Shutdown(ctx); err != nil {
		logger.Error("service API shutdown", log.Error(err))
	}
	if err := opsSrv.Shutdown(ctx); err != nil {
		logger.Error("ops server shutdown", log.Error(err))
	}

	logger.Info("stopped")
}

func bootstrapConfig(eng *engine.Engine, cfg config.Config) error {
	admin, err := ids.FromString(cfg.AdminAuthority)
	if err != nil {
		return err
	}
	treasury, err := ids.FromString(cfg.TreasuryAuthority)
	if err != nil {
		return err
	}
	_, err = eng.InitializeConfig(admin, treasury, cfg.FeeBps)
	return err
}

func applyFlagOverrides(cfg *config.Config) {
	if *apiAddr != "" {
		cfg.APIAddr = *apiAddr
	}
	if *opsAddr != "" {
		cfg.OpsAddr = *opsAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *dbType != "" {
		cfg.DBType = *dbType
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
}
