package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-api/api/swagger"
	"github.com/noah-isme/campus-api/internal/repository"
	"github.com/noah-isme/campus-api/internal/server"
	"github.com/noah-isme/campus-api/internal/service"
	"github.com/noah-isme/campus-api/pkg/cache"
	"github.com/noah-isme/campus-api/pkg/config"
	"github.com/noah-isme/campus-api/pkg/database"
	"github.com/noah-isme/campus-api/pkg/logger"
	"github.com/noah-isme/campus-api/pkg/storage"
)

// @title CampusCore API
// @version 1.0.0
// @description Student, course and enrollment management.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs, err := storage.NewLocalStorage(cfg.Storage.DataDir)
	if err != nil {
		logr.Fatal("failed to prepare data directory", zap.String("dir", cfg.Storage.DataDir), zap.Error(err))
	}

	store, err := openStore(ctx, cfg, fs)
	if err != nil {
		logr.Fatal("failed to open store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	tokens, closeTokens, err := openTokenStore(ctx, cfg, fs)
	if err != nil {
		logr.Fatal("failed to open token store", zap.String("backend", cfg.Storage.TokenStore), zap.Error(err))
	}
	defer closeTokens()

	router := server.NewRouter(server.Dependencies{
		Config:  cfg,
		Logger:  logr,
		Store:   store,
		Tokens:  tokens,
		Metrics: service.NewMetricsService(),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()
	logStartup(logr, cfg, srv.Addr)

	<-ctx.Done()
	logr.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, fs *storage.LocalStorage) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return repository.NewPostgresStore(db), nil
	default:
		store, err := repository.NewFileStore(fs)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func openTokenStore(ctx context.Context, cfg *config.Config, fs *storage.LocalStorage) (repository.TokenStore, func(), error) {
	if cfg.Storage.TokenStore == config.TokenStoreRedis {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewTokenRedisRepository(client), func() { _ = client.Close() }, nil
	}
	tokens, err := repository.NewTokenFileRepository(fs)
	if err != nil {
		return nil, nil, err
	}
	return tokens, func() {}, nil
}

func logStartup(logr *zap.Logger, cfg *config.Config, addr string) {
	prefix := cfg.APIPrefix
	logr.Info("campus api listening",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("tokens", cfg.Storage.TokenStore),
		zap.Strings("endpoints", []string{
			"GET " + prefix + "/health",
			"POST " + prefix + "/auth/login/apikey",
			"POST " + prefix + "/auth/login",
			"GET|POST " + prefix + "/students",
			"GET|PUT|DELETE " + prefix + "/students/:id",
			"GET|POST " + prefix + "/courses",
			"GET|PUT|DELETE " + prefix + "/courses/:id",
			"GET " + prefix + "/courses/:id/roster",
			"GET|POST " + prefix + "/enrollments",
			"GET " + prefix + "/enrollments/:id",
			"PUT " + prefix + "/enrollments/:id/cancel",
		}),
	)
}
