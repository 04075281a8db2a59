package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NordCoder/Krymon/internal/app"
	config "github.com/NordCoder/Krymon/internal/config/krymon"
	"github.com/NordCoder/Krymon/internal/obs"
	"github.com/NordCoder/Krymon/internal/services/prober"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/krymon.yaml", "path to yaml config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	// krymon [store-file]
	if flag.NArg() > 0 {
		cfg.Store.Backend = config.BackendFile
		cfg.Store.Path = flag.Arg(0)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting krymon",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.String("store", cfg.Store.Backend),
		zap.Duration("period", cfg.Poll.Period),
	)

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	store, closeStore, err := initStore(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, prometheus.DefaultGatherer, func(ctx context.Context) error {
		_, err := store.Exists(ctx)
		return err
	}, logger)

	p := prober.New(logger.Named("prober"), prober.Config{
		Timeout:   cfg.Poll.ProbeTimeout,
		UserAgent: cfg.HTTP.UserAgent,
	})
	krymon := app.New(logger, app.Config{
		HTTPAddr:     cfg.Server.HTTPAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Period:       cfg.Poll.Period,
		Concurrency:  cfg.Poll.Concurrency,
		CORSOrigins:  cfg.Server.CORSOrigins,
		RateLimit:    cfg.Server.RateLimit,
		RateBurst:    cfg.Server.RateBurst,
	}, store, p, prometheus.DefaultRegisterer)

	if err := krymon.Start(rootCtx); err != nil {
		logger.Fatal("start", zap.Error(err))
	}

	<-rootCtx.Done()
	logger.Info("shutdown signal", zap.String("reason", "context canceled"))

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := krymon.Stop(shCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
	_ = ms.Shutdown(shCtx)
	logger.Info("bye")
}
