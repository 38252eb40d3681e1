// Package config loads runtime settings from an optional YAML file with
// environment variable overrides. Everything has a usable default so the
// binary runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig holds all runtime settings.
type AppConfig struct {
	// SearchDepth is the engine horizon in plies.
	SearchDepth int
	// RedisURL enables live match snapshots when set.
	RedisURL string
	// DatabaseURL enables the Postgres match archive when set; the
	// in-memory archive is used otherwise.
	DatabaseURL string
	// ListenAddr enables the HTTP live view when set, e.g. ":8390".
	ListenAddr string
	// SnapshotTTLSec bounds how long a live snapshot stays in redis.
	SnapshotTTLSec int
	// HistoryLimit caps the number of rows the history command prints.
	HistoryLimit int
	// BoardSquarePx is the rendered size of one board square in pixels.
	BoardSquarePx int
}

type fileConfig struct {
	SearchDepth    *int    `yaml:"search_depth"`
	RedisURL       *string `yaml:"redis_url"`
	DatabaseURL    *string `yaml:"database_url"`
	ListenAddr     *string `yaml:"listen_addr"`
	SnapshotTTLSec *int    `yaml:"snapshot_ttl_sec"`
	HistoryLimit   *int    `yaml:"history_limit"`
	BoardSquarePx  *int    `yaml:"board_square_px"`
}

// Load builds the configuration: defaults, then the YAML file named by
// PLYWOOD_CONFIG (if any), then environment variables.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		SearchDepth:    4,
		SnapshotTTLSec: 86400,
		HistoryLimit:   10,
		BoardSquarePx:  72,
	}

	if path := strings.TrimSpace(os.Getenv("PLYWOOD_CONFIG")); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if cfg.SearchDepth < 1 {
		return nil, fmt.Errorf("search depth must be at least 1, got %d", cfg.SearchDepth)
	}
	if cfg.SnapshotTTLSec < 1 {
		return nil, fmt.Errorf("snapshot ttl must be positive, got %d", cfg.SnapshotTTLSec)
	}
	if cfg.BoardSquarePx < 16 {
		return nil, fmt.Errorf("board square size must be at least 16px, got %d", cfg.BoardSquarePx)
	}
	return cfg, nil
}

func applyFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.SearchDepth != nil {
		cfg.SearchDepth = *fc.SearchDepth
	}
	if fc.RedisURL != nil {
		cfg.RedisURL = strings.TrimSpace(*fc.RedisURL)
	}
	if fc.DatabaseURL != nil {
		cfg.DatabaseURL = strings.TrimSpace(*fc.DatabaseURL)
	}
	if fc.ListenAddr != nil {
		cfg.ListenAddr = strings.TrimSpace(*fc.ListenAddr)
	}
	if fc.SnapshotTTLSec != nil {
		cfg.SnapshotTTLSec = *fc.SnapshotTTLSec
	}
	if fc.HistoryLimit != nil {
		cfg.HistoryLimit = *fc.HistoryLimit
	}
	if fc.BoardSquarePx != nil {
		cfg.BoardSquarePx = *fc.BoardSquarePx
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PLYWOOD_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	setIntEnv("PLYWOOD_SEARCH_DEPTH", &cfg.SearchDepth)
	setIntEnv("PLYWOOD_SNAPSHOT_TTL", &cfg.SnapshotTTLSec)
	setIntEnv("PLYWOOD_HISTORY_LIMIT", &cfg.HistoryLimit)
	setIntEnv("PLYWOOD_BOARD_SQUARE_PX", &cfg.BoardSquarePx)
}

func setIntEnv(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
