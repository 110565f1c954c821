package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration for the riskwatch daemon.
type Config struct {
	Addr           string
	APIBase        string
	RedisURL       string
	DispatchBuffer int
	Redis          RedisConfig
}

// RedisConfig tunes the optional Redis-backed store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds the configuration from environment variables so main stays
// lean. An empty RISKWATCH_REDIS_URL selects the in-memory store.
func FromEnv() Config {
	addr := os.Getenv("RISKWATCH_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	apiBase := os.Getenv("RISKWATCH_API_BASE")
	if apiBase == "" {
		apiBase = "http://localhost:8000"
	}

	buffer := envInt("RISKWATCH_DISPATCH_BUFFER", 64)
	redisURL := os.Getenv("RISKWATCH_REDIS_URL")

	return Config{
		Addr:           addr,
		APIBase:        apiBase,
		RedisURL:       redisURL,
		DispatchBuffer: buffer,
		Redis: RedisConfig{
			URL:          redisURL,
			PoolSize:     envInt("RISKWATCH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("RISKWATCH_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
