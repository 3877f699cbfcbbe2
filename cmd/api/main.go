package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ety001/hive-social-api/internal/api"
	"github.com/ety001/hive-social-api/internal/broadcast"
	"github.com/ety001/hive-social-api/internal/cache"
	"github.com/ety001/hive-social-api/internal/feed"
	"github.com/ety001/hive-social-api/internal/hive"
	"github.com/ety001/hive-social-api/internal/logging"
	"github.com/ety001/hive-social-api/internal/models"
	"github.com/ety001/hive-social-api/internal/profile"
	"github.com/ety001/hive-social-api/internal/transform"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize failover node client
	client, err := hive.NewClient(hive.Options{
		Endpoints: config.Hive.Endpoints,
		Timeout:   config.HiveTimeout(),
		Backoff:   config.RetryBackoff(),
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to create hive client", zap.Error(err))
	}

	// Optional Redis cache for derived read data
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cacheClient, err := cache.New(ctx, config.Cache, config.CacheTTL(), logger)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to cache", zap.Error(err))
	}
	defer cacheClient.Close()

	// Broadcast gateway; without a signer URL all write operations
	// are rejected with a clear error
	var signer broadcast.Signer
	if config.Signer.URL != "" {
		signer = broadcast.NewHTTPSigner(config.Signer.URL)
	}
	gateway := broadcast.NewGateway(signer, logger, config.SignerTimeout())

	tf := transform.New(logger)
	feedService := feed.New(client, tf, gateway, cacheClient, logger)
	profileService := profile.NewService(client, tf, cacheClient, logger)

	// Setup API handler and routes
	handler := api.NewHandler(client, feedService, profileService, gateway, logger,
		config.Hive.PageSize, config.Hive.FetchWorkers)
	router := api.SetupRoutes(handler)

	// Setup server
	addr := fmt.Sprintf("%s:%s", config.API.Host, config.API.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("API server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func loadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config models.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.Normalize()

	return &config, nil
}
