package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// Feed source settings
	FeedURL        string
	UserAgent      string
	RequestTimeout time.Duration
	MaxRetries     uint64

	// Refresh settings
	RefreshInterval time.Duration

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		FeedURL:         DefaultFeedURL,
		UserAgent:       DefaultUserAgent,
		RequestTimeout:  time.Duration(DefaultRequestTimeoutSec) * time.Second,
		MaxRetries:      DefaultMaxRetries,
		RefreshInterval: time.Duration(DefaultRefreshIntervalSec) * time.Second,
		ServerHost:      DefaultServerHost,
		ServerPort:      DefaultServerPort,
		APIKey:          GetEnvString("ANNOUNCEMENTS_API_KEY", ""),
		LogLevel:        logLevel,
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
