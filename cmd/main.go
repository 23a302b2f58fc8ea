package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpctx "github.com/dtroode/usuarios-server/internal/api/http/context"
	"github.com/dtroode/usuarios-server/internal/api/http/handler"
	"github.com/dtroode/usuarios-server/internal/api/http/router"
	httpServer "github.com/dtroode/usuarios-server/internal/api/http/server"
	"github.com/dtroode/usuarios-server/internal/config"
	"github.com/dtroode/usuarios-server/internal/logger"
	"github.com/dtroode/usuarios-server/internal/metrics"
	"github.com/dtroode/usuarios-server/internal/model"
	"github.com/dtroode/usuarios-server/internal/password"
	"github.com/dtroode/usuarios-server/internal/repository/postgres"
	"github.com/dtroode/usuarios-server/internal/server"
	"github.com/dtroode/usuarios-server/internal/service"
	"github.com/dtroode/usuarios-server/internal/token"
)

const shutdownTimeout = 10 * time.Second

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	hasher, err := password.NewBcrypt(cfg.Bcrypt.Cost)
	if err != nil {
		logger.Fatal("failed to initialize password hasher", "error", err)
	}
	tokenManager, err := token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		logger.Fatal("failed to initialize token manager", "error", err)
	}

	db, err := postgres.NewConection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, "usuarios"),
	)
	appMetrics := metrics.New(registry)

	accountRepo := postgres.NewAccountRepository(db, cfg.Database.QueryTimeout)
	accountService := service.NewAccount(accountRepo, hasher, logger)
	authService := service.NewAuth(accountService, tokenManager, logger,
		service.WithMetrics(appMetrics),
		service.WithTokenTTL(cfg.JWT.TTL),
	)

	r := router.New(
		router.Config{
			RequireAuthForListing: cfg.HTTP.RequireAuthForListing,
			RequestTimeout:        cfg.HTTP.RequestTimeout,
			Version:               buildVersion,
		},
		authService,
		accountService,
		db,
		httpctx.NewManager(),
		appMetrics,
		registry,
		handler.NewResponder(logger, cfg.Development()),
		logger,
	)

	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.HTTP.ReadHeaderTimeout)

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
