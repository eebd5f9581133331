// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates the service configuration from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables, in increasing precedence.
package config

import (
	"fmt"
	"time"

	"github.com/gamestore/recsys/internal/recommend"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Data      DataConfig      `koanf:"data"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per minute per client IP. Zero disables
	// rate limiting.
	RateLimit int `koanf:"rate_limit"`

	// CORSOrigins lists allowed origins. Empty allows none.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DataConfig contains data-file and durability settings.
type DataConfig struct {
	// CatalogPath is the JSON item catalog. Required.
	CatalogPath string `koanf:"catalog_path"`

	// UsersPath is the optional JSON user file.
	UsersPath string `koanf:"users_path"`

	// SynonymsPath is the optional JSON query synonym table. Empty uses
	// the built-in bilingual table.
	SynonymsPath string `koanf:"synonyms_path"`

	// EventLogPath is the BadgerDB directory for the durable interaction
	// log. Empty disables durability; interactions then live only in
	// memory.
	EventLogPath string `koanf:"event_log_path"`

	// EventLogSync enables fsync on every event write.
	EventLogSync bool `koanf:"event_log_sync"`
}

// RecommendConfig exposes the engine tunables worth overriding per
// deployment. Everything else keeps the engine defaults.
type RecommendConfig struct {
	RetrainEvery    int           `koanf:"retrain_every"`
	TrainingTimeout time.Duration `koanf:"training_timeout"`
	WindowDays      int           `koanf:"window_days"`
	DefaultK        int           `koanf:"default_k"`
	MaxK            int           `koanf:"max_k"`
	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CollabRank      int           `koanf:"collab_rank"`
	Seed            int64         `koanf:"seed"`
}

// defaultConfig returns the built-in defaults, derived from the engine
// defaults so the two never drift.
func defaultConfig() Config {
	eng := recommend.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			CatalogPath:  "data/catalog.json",
			EventLogPath: "data/events",
		},
		Recommend: RecommendConfig{
			RetrainEvery:    eng.Training.RetrainEvery,
			TrainingTimeout: eng.Training.Timeout,
			WindowDays:      eng.Boost.WindowDays,
			DefaultK:        eng.Limits.DefaultK,
			MaxK:            eng.Limits.MaxK,
			CacheEnabled:    eng.Cache.Enabled,
			CacheTTL:        eng.Cache.TTL,
			CollabRank:      eng.Collaborative.Rank,
			Seed:            eng.Seed,
		},
	}
}

// EngineConfig maps the deployment overrides onto the engine defaults.
func (c *Config) EngineConfig() *recommend.Config {
	eng := recommend.DefaultConfig()
	eng.Training.RetrainEvery = c.Recommend.RetrainEvery
	eng.Training.Timeout = c.Recommend.TrainingTimeout
	eng.Boost.WindowDays = c.Recommend.WindowDays
	eng.Limits.DefaultK = c.Recommend.DefaultK
	eng.Limits.MaxK = c.Recommend.MaxK
	eng.Cache.Enabled = c.Recommend.CacheEnabled
	eng.Cache.TTL = c.Recommend.CacheTTL
	eng.Collaborative.Rank = c.Recommend.CollabRank
	eng.Seed = c.Recommend.Seed
	return eng
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Data.CatalogPath == "" {
		return fmt.Errorf("data.catalog_path is required")
	}
	if c.Recommend.RetrainEvery < 1 {
		return fmt.Errorf("recommend.retrain_every must be at least 1")
	}
	if c.Recommend.WindowDays < 1 {
		return fmt.Errorf("recommend.window_days must be at least 1")
	}
	if c.Recommend.DefaultK < 1 || c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend.default_k must be at least 1 and at most max_k")
	}
	eng := c.EngineConfig()
	if err := eng.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}
