package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the ChannelWatch server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	YouTube  YouTubeConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type YouTubeConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxVideos int
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("CHANNELWATCH_PORT", 8080),
			Env:  envString("CHANNELWATCH_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		YouTube: YouTubeConfig{
			APIKey:    os.Getenv("YOUTUBE_API_KEY"),
			BaseURL:   envString("YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3"),
			Timeout:   envDuration("YOUTUBE_TIMEOUT", 15*time.Second),
			MaxVideos: envInt("YOUTUBE_MAX_VIDEOS", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY is required")
	}
	if !strings.HasPrefix(c.YouTube.BaseURL, "http://") && !strings.HasPrefix(c.YouTube.BaseURL, "https://") {
		return fmt.Errorf("YOUTUBE_BASE_URL must start with http:// or https://, got %q", c.YouTube.BaseURL)
	}
	if c.YouTube.MaxVideos < 1 || c.YouTube.MaxVideos > 50 {
		return fmt.Errorf("YOUTUBE_MAX_VIDEOS must be between 1 and 50, got %d", c.YouTube.MaxVideos)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
