package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/cache"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/config"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/repository"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/server"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/database"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}

	store, err := repository.NewGormStore(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise store")
	}
	defer store.Close()
	logger.Info().Str("driver", cfg.Database.Driver).Msg("store ready")

	var msgCache cache.MessageCache = cache.NewNoopCache()
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisMessageCache(cfg.Cache)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Cache.Address).Msg("failed to connect history cache")
		}
		msgCache = redisCache
		logger.Info().Str("addr", cfg.Cache.Address).Msg("history cache connected")
	}
	defer msgCache.Close()

	srv := server.New(cfg.Server, store, msgCache)

	if cfg.Health.Enabled {
		go serveHealth(cfg.Health.Address, srv)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("chat server stopped")
}

func serveHealth(addr string, srv *server.Server) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK sessions=%d\n", srv.Registry().Len())
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.L().Info().Str("addr", addr).Msg("health endpoint listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.L().Error().Err(err).Msg("health endpoint failed")
	}
}
