package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kudos/api/internal/app"
	"kudos/api/internal/archive"
	"kudos/api/internal/config"
	"kudos/api/internal/search"
	"kudos/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	dataStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store initialization failed: %v", err)
	}
	defer dataStore.Close()

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient)
	defer searchService.Close()

	var archiveService *archive.Service
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		archiveService, err = archive.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioSecure)
		if err != nil {
			log.Fatalf("object store connection failed: %v", err)
		}
	}

	service := app.New(dataStore, searchService, archiveService)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Kudos API listening on %s (storage: %s)", cfg.Addr, cfg.Storage)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Storage {
	case "memory":
		log.Printf("Using in-memory document store (data is lost on restart)")
		return store.NewMemoryStore(), nil
	case "redis":
		log.Printf("Using Redis document store")
		return store.NewRedisStore(cfg.RedisURL)
	case "postgres":
		log.Printf("Using Postgres document store")
		return store.OpenPostgresStore(ctx, cfg.DatabaseURL)
	default:
		log.Printf("Using file document store at %s", cfg.DataFile)
		return store.NewFileStore(cfg.DataFile), nil
	}
}
