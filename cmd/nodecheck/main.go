package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/steemit/steemgosdk"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ety001/hive-social-api/internal/logging"
	"github.com/ety001/hive-social-api/internal/models"
)

// nodecheck probes every configured endpoint once and reports its
// latency and head state, so a bad node can be spotted before it
// degrades the failover chain.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if len(config.Hive.Endpoints) == 0 {
		logger.Fatal("no endpoints configured")
	}

	healthy := 0
	for _, endpoint := range config.Hive.Endpoints {
		nodeAPI := steemgosdk.GetClient(endpoint).GetAPI()

		start := time.Now()
		dgp, err := nodeAPI.GetDynamicGlobalProperties()
		latency := time.Since(start)

		if err != nil {
			logger.Warn("node unreachable",
				zap.String("endpoint", endpoint),
				zap.Duration("latency", latency),
				zap.Error(err))
			continue
		}

		healthy++
		logger.Info("node ok",
			zap.String("endpoint", endpoint),
			zap.Duration("latency", latency),
			zap.Int64("last_irreversible_block", int64(dgp.LastIrreversibleBlockNum)))
	}

	logger.Info("probe finished",
		zap.Int("healthy", healthy),
		zap.Int("total", len(config.Hive.Endpoints)))

	if healthy == 0 {
		os.Exit(1)
	}
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
