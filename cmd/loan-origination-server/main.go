package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/loan-origination/internal/application"
	"github.com/iwvelando/loan-origination/internal/config"
	"github.com/iwvelando/loan-origination/internal/handoff"
	"github.com/iwvelando/loan-origination/internal/logging"
	"github.com/iwvelando/loan-origination/internal/metrics"
	"github.com/iwvelando/loan-origination/internal/server"
	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/idnumber"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before configuration")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// A missing .env is normal outside local development.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	serverConfig, err := server.NewConfig(conf.Server)
	if err != nil {
		logger.Fatal("invalid server configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := newHandoffStore(ctx, conf, logger)
	defer closeStore()

	m := metrics.New(prometheus.DefaultRegisterer)
	ids := &idnumber.Validator{Now: time.Now, CenturyPivot: conf.Lending.CenturyPivot}
	applications := application.NewService(application.NewMemoryRepository(), application.Options{
		AnnualInterestRate: &conf.Lending.AnnualInterestRate,
		Limits:             conf.Limits(),
		Thresholds:         conf.Thresholds(),
		CenturyPivot:       &conf.Lending.CenturyPivot,
		Metrics:            m,
	}, logger)

	handler := server.NewHandler(logger, serverConfig, server.Dependencies{
		IDs:                ids,
		Applications:       applications,
		Handoff:            store,
		AnnualInterestRate: &conf.Lending.AnnualInterestRate,
		Limits:             conf.Limits(),
		Metrics:            m,
		Gatherer:           prometheus.DefaultGatherer,
		Version:            version,
	})

	srv := &http.Server{
		Addr:              serverConfig.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", serverConfig.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down",
		zap.String("op", "main"),
		zap.Duration("timeout", serverConfig.ShutdownTimeout),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// newHandoffStore picks the Redis backend when enabled and falls back to
// memory otherwise.
func newHandoffStore(ctx context.Context, conf *config.Configuration, logger *zap.Logger) (handoff.Store, func()) {
	if !conf.Redis.Enabled {
		logger.Info("using in-memory hand-off store",
			zap.String("op", "main"),
		)
		return handoff.NewMemoryStore(), func() {}
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := handoff.Dial(dialCtx, conf.Redis.Address, conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		logger.Fatal("failed to connect to redis",
			zap.String("op", "main"),
			zap.String("address", conf.Redis.Address),
			zap.Error(err),
		)
	}
	logger.Info("using redis hand-off store",
		zap.String("op", "main"),
		zap.String("address", conf.Redis.Address),
		zap.Duration("ttl", conf.Redis.TTL),
	)
	return handoff.NewRedisStore(client, conf.Redis.KeyPrefix, conf.Redis.TTL), func() {
		_ = client.Close()
	}
}
