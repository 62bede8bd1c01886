// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	RequestTimeout time.Duration
	MetricsEnabled bool
}

// DatabaseConfig selects the document store. An empty URI runs on the in-memory store.
type DatabaseConfig struct {
	URI  string
	Name string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AuthConfig configures verification of identity-provider tokens.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// RedditConfig configures the external listing integration.
type RedditConfig struct {
	BaseURL         string
	UserAgent       string
	CacheTTL        time.Duration
	RatePerSecond   float64
	Burst           int
	RefreshInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Redis          *RedisConfig
	Kafka          *KafkaConfig
	Auth           *AuthConfig
	Reddit         *RedditConfig
	Log            *LogConfig
	VoteShards     int
	AllowedOrigins []string
	Debug          bool
}

const devJWTSecret = "gator-forum-dev-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("REQUEST_TIMEOUT", "5s")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", "gator_forum")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "forum.events")
	v.SetDefault("AUTH_JWT_SECRET", devJWTSecret)
	v.SetDefault("AUTH_ISSUER", "")
	v.SetDefault("REDDIT_BASE_URL", "https://www.reddit.com")
	v.SetDefault("REDDIT_USER_AGENT", "gator-forum/1.0")
	v.SetDefault("REDDIT_CACHE_TTL", "5m")
	v.SetDefault("REDDIT_RATE_PER_SECOND", 2.0)
	v.SetDefault("REDDIT_BURST", 4)
	v.SetDefault("POPULAR_REFRESH_INTERVAL", "5m")
	v.SetDefault("VOTE_SHARDS", 8)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DEBUG", false)
}

// loadDotEnv tries the usual .env locations; a missing file is fine.
func loadDotEnv() {
	envLocations := []string{
		".env",       // Current directory
		"../../.env", // Project root when running from cmd/engine
		filepath.Join(os.Getenv("GOPATH"), "src/gator-forum/.env"),
	}
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			return
		}
	}
}

// LoadConfig loads configuration from .env and environment variables and applies defaults
func LoadConfig() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: &ServerConfig{
			Port:           v.GetInt("PORT"),
			Host:           v.GetString("HOST"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		},
		Database: &DatabaseConfig{
			URI:  v.GetString("MONGODB_URI"),
			Name: v.GetString("MONGODB_DATABASE"),
		},
		Redis: &RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: &KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Auth: &AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
			Issuer:    v.GetString("AUTH_ISSUER"),
		},
		Reddit: &RedditConfig{
			BaseURL:         strings.TrimRight(v.GetString("REDDIT_BASE_URL"), "/"),
			UserAgent:       v.GetString("REDDIT_USER_AGENT"),
			CacheTTL:        v.GetDuration("REDDIT_CACHE_TTL"),
			RatePerSecond:   v.GetFloat64("REDDIT_RATE_PER_SECOND"),
			Burst:           v.GetInt("REDDIT_BURST"),
			RefreshInterval: v.GetDuration("POPULAR_REFRESH_INTERVAL"),
		},
		Log: &LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		VoteShards:     v.GetInt("VOTE_SHARDS"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		Debug:          v.GetBool("DEBUG"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.VoteShards <= 0 {
		return fmt.Errorf("VOTE_SHARDS must be positive")
	}
	if c.Reddit.RatePerSecond <= 0 || c.Reddit.Burst <= 0 {
		return fmt.Errorf("REDDIT_RATE_PER_SECOND and REDDIT_BURST must be positive")
	}
	return nil
}

// UsesDevSecret reports whether tokens are verified with the built-in development secret.
func (c *Config) UsesDevSecret() bool {
	return c.Auth.JWTSecret == devJWTSecret
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
