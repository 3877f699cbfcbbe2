package models

import "time"

// Config represents the application configuration
type Config struct {
	Hive   HiveConfig   `yaml:"hive"`
	Signer SignerConfig `yaml:"signer"`
	Cache  CacheConfig  `yaml:"cache"`
	API    APIConfig    `yaml:"api"`
	Log    LogConfig    `yaml:"log"`
}

// HiveConfig contains Hive blockchain API configuration
type HiveConfig struct {
	Endpoints      []string `yaml:"endpoints"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	RetryBackoffMS int      `yaml:"retry_backoff_ms"` // base delay between failover attempts
	PageSize       int      `yaml:"page_size"`
	FetchWorkers   int      `yaml:"fetch_workers"` // concurrent account-history fetches
}

// SignerConfig contains the external signing service configuration.
// An empty URL means no signer is available and broadcast
// operations are rejected.
type SignerConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CacheConfig contains the optional Redis cache configuration
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// APIConfig contains API server configuration
type APIConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Normalize fills in defaults for fields the config file may omit
func (c *Config) Normalize() {
	if c.Hive.TimeoutSeconds <= 0 {
		c.Hive.TimeoutSeconds = 30
	}
	if c.Hive.RetryBackoffMS <= 0 {
		c.Hive.RetryBackoffMS = 1000
	}
	if c.Hive.PageSize <= 0 {
		c.Hive.PageSize = 20
	}
	if c.Hive.FetchWorkers <= 0 {
		c.Hive.FetchWorkers = 4
	}
	if c.Signer.TimeoutSeconds <= 0 {
		c.Signer.TimeoutSeconds = 60
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 60
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == "" {
		c.API.Port = "8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// HiveTimeout returns the per-request node timeout as a duration
func (c *Config) HiveTimeout() time.Duration {
	return time.Duration(c.Hive.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the base failover backoff as a duration
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Hive.RetryBackoffMS) * time.Millisecond
}

// SignerTimeout returns the signer operation deadline as a duration
func (c *Config) SignerTimeout() time.Duration {
	return time.Duration(c.Signer.TimeoutSeconds) * time.Second
}

// CacheTTL returns the cache entry lifetime as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
