// Package config loads reposcope settings from file, environment, and
// defaults.
package config

import (
	"errors"
	"time"
)

// Config is the top-level configuration struct for reposcope.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Poll   PollConfig   `mapstructure:"poll"`
	Miner  MinerConfig  `mapstructure:"miner"`
	Render RenderConfig `mapstructure:"render"`
}

// ServerConfig holds the dashboard server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// PollConfig holds update-check settings.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// MinerConfig holds repository mining settings.
type MinerConfig struct {
	CacheDir     string `mapstructure:"cache_dir"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// RenderConfig holds static export settings.
type RenderConfig struct {
	Theme string `mapstructure:"theme"`
}

// Defaults applied when neither file nor environment provides a value.
const (
	DefaultServerAddr        = ":8787"
	DefaultPollInterval      = 10 * time.Second
	DefaultMinerCacheDir     = "cache"
	DefaultMinerHistoryLimit = 2000
	DefaultRenderTheme       = "dark"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidPollInterval indicates a non-positive poll interval.
	ErrInvalidPollInterval = errors.New("poll.interval must be positive")
	// ErrInvalidHistoryLimit indicates a non-positive history limit.
	ErrInvalidHistoryLimit = errors.New("miner.history_limit must be positive")
	// ErrInvalidTheme indicates an unknown render theme.
	ErrInvalidTheme = errors.New(`render.theme must be "dark" or "light"`)
)

// Validate checks cross-field constraints after unmarshalling.
func (c *Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return ErrInvalidPollInterval
	}

	if c.Miner.HistoryLimit <= 0 {
		return ErrInvalidHistoryLimit
	}

	if c.Render.Theme != "dark" && c.Render.Theme != "light" {
		return ErrInvalidTheme
	}

	return nil
}
