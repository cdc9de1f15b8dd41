package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiorgiUbiria/fakebank/configs"
	"github.com/GiorgiUbiria/fakebank/internal/auth"
	"github.com/GiorgiUbiria/fakebank/internal/currency"
	"github.com/GiorgiUbiria/fakebank/internal/handlers"
	"github.com/GiorgiUbiria/fakebank/internal/identity"
	"github.com/GiorgiUbiria/fakebank/internal/idgen"
	"github.com/GiorgiUbiria/fakebank/internal/ledger"
	"github.com/GiorgiUbiria/fakebank/internal/logger"
	"github.com/GiorgiUbiria/fakebank/internal/routes"
	"github.com/GiorgiUbiria/fakebank/internal/seed"
	"github.com/GiorgiUbiria/fakebank/internal/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	if err := configs.LoadConfig("./configs"); err != nil {
		logger.Init("info")
		logger.Log.Fatal("failed to load config", zap.Error(err))
	}
	cfg := configs.AppConfig

	logger.Init(cfg.Log.Level)
	defer logger.Log.Sync()

	db, err := store.Open(store.Options{Driver: cfg.DB.Driver, DSN: cfg.DB.DSN, LogMode: cfg.DB.LogMode})
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	st := ledger.NewStore(db)
	registry := ledger.NewRegistry(st, idgen.UUID{})
	adminLog := ledger.NewAdminLog(st)
	engine := ledger.NewEngine(st, registry, adminLog)
	identities := identity.New(db, registry, auth.Hasher{Cost: cfg.Security.BcryptCost}, cfg.Bank.Superuser)
	authority := ledger.NewAuthority(st, registry, engine, adminLog, identities)
	tokens := auth.NewTokenManager(cfg.JWT.SECRET, cfg.JWT.Issuer, cfg.JWTTTL())

	if err := seed.Run(context.Background(), identities, cfg.Bank.Superuser, cfg.Bank.SuperuserPassword); err != nil {
		logger.Log.Fatal("seed failed", zap.Error(err))
	}

	h := handlers.New(identities, registry, engine, authority, tokens,
		currency.NewRates(cfg.ExchangeRate.UsdToEur, cfg.ExchangeRate.UsdToGbp))
	router := routes.NewRoutes(h, tokens)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}

	if err := store.Close(db); err != nil {
		logger.Log.Error("db close failed", zap.Error(err))
	} else {
		logger.Log.Info("db closed")
	}

	logger.Log.Info("server stopped")
}
