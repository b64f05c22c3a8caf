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

	"github.com/nvoron/sessiond/internal/api/http/handler"
	"github.com/nvoron/sessiond/internal/api/http/middleware"
	"github.com/nvoron/sessiond/internal/api/http/router"
	"github.com/nvoron/sessiond/internal/config"
	"github.com/nvoron/sessiond/internal/logger"
	"github.com/nvoron/sessiond/internal/model"
	"github.com/nvoron/sessiond/internal/repository/postgres"
	"github.com/nvoron/sessiond/internal/server"
	"github.com/nvoron/sessiond/internal/service"
	"github.com/nvoron/sessiond/internal/token"
)

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

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	verificationRepo := postgres.NewVerificationTokenRepository(db)

	csrfManager := token.NewCSRF(cfg.CSRF.Secret, cfg.CSRF.TTL)

	authService := service.NewAuth(userRepo, accountRepo, verificationRepo, logger)
	sessionService := service.NewSessions(sessionRepo, cfg.Session.CookieName, cfg.Session.MaxAge, logger)
	limiter := service.NewAttemptLimiter(cfg.Limiter.MaxAttempts, cfg.Limiter.Window, cfg.Limiter.LockDuration)

	providers := []model.Provider{
		{ID: "credentials", Name: "Credentials", Type: model.ProviderTypeCredentials},
	}

	authHandler := handler.NewAuth(
		authService,
		sessionService,
		csrfManager,
		limiter,
		providers,
		cfg.CSRF.CookieName,
		cfg.Session.SecureCookies,
		logger,
	)

	engine := router.New(cfg.HTTP.BasePath,
		authHandler,
		middleware.NewSession(sessionService, logger),
		middleware.NewLogging(logger),
	)

	httpServer := server.NewHTTPServer(engine, fmt.Sprintf(":%s", cfg.HTTP.Port), logger)

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
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionService.RunJanitor(ctx, cfg.Session.SweepInterval)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
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
