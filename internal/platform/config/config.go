package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"parasol/internal/ledger"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	AdminIdentity string
	JWTSigningKey string

	// InitialThresholds seed the breach configuration on first boot. The
	// admin can replace them at runtime.
	InitialThresholds ledger.Thresholds

	// PostgresDSN selects the durable store; empty means in-memory.
	PostgresDSN string

	// OracleURL selects the live weather feed; empty means the static
	// development source.
	OracleURL string

	Redis RedisConfig
	Kafka KafkaConfig

	// CycleLockTTL bounds how long a crashed instance can hold the
	// cross-process claim cycle lock.
	CycleLockTTL time.Duration
}

// RedisConfig holds connection settings for the optional Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the optional audit event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PARASOL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	admin := os.Getenv("PARASOL_ADMIN_IDENTITY")
	if admin == "" {
		admin = "admin"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("PARASOL_KAFKA_TOPIC")
	if topic == "" {
		topic = "parasol.audit"
	}

	return Server{
		Addr:          addr,
		AdminIdentity: admin,
		JWTSigningKey: jwtSigningKey,
		InitialThresholds: ledger.Thresholds{
			Rainfall:    envUint("PARASOL_THRESHOLD_RAINFALL", 50),
			Temperature: envUint("PARASOL_THRESHOLD_TEMPERATURE", 35),
		},
		PostgresDSN: os.Getenv("PARASOL_POSTGRES_DSN"),
		OracleURL:   os.Getenv("PARASOL_ORACLE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("PARASOL_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("PARASOL_KAFKA_BROKERS")),
			Topic:   topic,
		},
		CycleLockTTL: 2 * time.Minute,
	}
}

func envUint(key string, fallback uint64) uint64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
