package config

import (
	"os"
	"strconv"
	"time"
)

// RejectPolicy controls what happens when a field fails validation: re-display
// the same prompt with an error annotation, or end the session. One policy is
// chosen at startup and applied to every field uniformly.
type RejectPolicy string

const (
	RejectReprompt  RejectPolicy = "reprompt"
	RejectTerminate RejectPolicy = "terminate"
)

// Config captures process-level configuration for the gateway.
type Config struct {
	Addr         string
	DatabaseURL  string
	Redis        RedisConfig
	KafkaBrokers string
	SMSTopic     string
	UBRNPrefix   string
	RejectPolicy RejectPolicy
}

// RedisConfig holds connection settings for the sequence allocator backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	prefix := os.Getenv("UBRN_PREFIX")
	if prefix == "" {
		prefix = "GHA"
	}

	smsTopic := os.Getenv("SMS_TOPIC")
	if smsTopic == "" {
		smsTopic = "sms.outbound"
	}

	policy := RejectReprompt
	if RejectPolicy(os.Getenv("REJECT_POLICY")) == RejectTerminate {
		policy = RejectTerminate
	}

	return Config{
		Addr:         addr,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Redis:        redisFromEnv(),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		SMSTopic:     smsTopic,
		UBRNPrefix:   prefix,
		RejectPolicy: policy,
	}
}

func redisFromEnv() RedisConfig {
	cfg := RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if v, err := strconv.Atoi(os.Getenv("REDIS_POOL_SIZE")); err == nil && v > 0 {
		cfg.PoolSize = v
	}
	return cfg
}
