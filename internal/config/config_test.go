package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "gator_forum", cfg.Database.Name)
	assert.Equal(t, 5*time.Minute, cfg.Reddit.CacheTTL)
	assert.Equal(t, "https://www.reddit.com", cfg.Reddit.BaseURL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.True(t, cfg.UsesDevSecret())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://forum.example.com")
	t.Setenv("REDDIT_CACHE_TTL", "90s")
	t.Setenv("REDDIT_BASE_URL", "http://listing.local/")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"http://localhost:3000", "https://forum.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.Reddit.CacheTTL)
	assert.Equal(t, "http://listing.local", cfg.Reddit.BaseURL)
	assert.False(t, cfg.UsesDevSecret())
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("VOTE_SHARDS", "0")
	_, err := LoadConfig()
	assert.Error(t, err)
}
