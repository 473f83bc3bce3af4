package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
	cfg := LoadRateLimitConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 10, cfg.Capacity)
	assert.Equal(t, 6*time.Second, cfg.RefillInterval)
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestLoadRateLimitConfig_ClampsInvalidValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()

	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadRateLimitConfig_KeyStrategy(t *testing.T) {
	t.Setenv("RATE_LIMIT_KEY_STRATEGY", "IP")
	assert.Equal(t, RateKeyIP, LoadRateLimitConfig().KeyStrategy)

	t.Setenv("RATE_LIMIT_KEY_STRATEGY", "user")
	assert.Equal(t, RateKeyIPRoute, LoadRateLimitConfig().KeyStrategy)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "250ms")

	assert.False(t, envBool("X_BOOL", true))
	assert.True(t, envBool("X_MISSING", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 250*time.Millisecond, envDur("X_DUR", time.Second))
	assert.Equal(t, "fallback", envStr("X_MISSING", "fallback"))
}

func TestLoadArgon2_RejectsOutOfRangeThreads(t *testing.T) {
	t.Setenv("ARGON2_THREADS", "999")
	t.Setenv("ARGON2_MEMORY_KIB", "1024")

	a := loadArgon2()

	assert.Equal(t, uint8(2), a.Threads)
	assert.Equal(t, uint32(1024), a.MemoryKiB)
	assert.Equal(t, uint32(1), a.Time)
}

func TestRabbitURL_PrefersRabbitMQURL(t *testing.T) {
	t.Setenv("AMQP_URL", "amqp://alias/")
	assert.Equal(t, "amqp://alias/", rabbitURL())

	t.Setenv("RABBITMQ_URL", "amqp://primary/")
	assert.Equal(t, "amqp://primary/", rabbitURL())
}
